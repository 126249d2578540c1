package packet

// UnsubAck acknowledges an UNSUBSCRIBE (MQTT 3.1.1 §3.11, MQTT 5 §3.11).
// v3.1.1 carries only the packet id; v5 adds a reason code per topic
// filter.
type UnsubAck struct {
	*FixedHeader
	ackListBody
}

func (pkt *UnsubAck) Kind() byte { return UNSUBACK }

func (pkt *UnsubAck) Decode(rc *ReadContext, src *Source) (bool, error) {
	return decodeAckList(&pkt.ackListBody, pkt.FixedHeader, nil, rc, src)
}

func (pkt *UnsubAck) Encode(dst []byte) ([]byte, error) {
	rl, err := ackListRemainingLength(&pkt.ackListBody, pkt.Version)
	if err != nil {
		return nil, err
	}
	dst, err = pkt.FixedHeader.Encode(dst, uint32(rl))
	if err != nil {
		return nil, err
	}
	return encodeAckList(&pkt.ackListBody, pkt.Version, dst)
}
