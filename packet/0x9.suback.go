package packet

// SubAck acknowledges a SUBSCRIBE (MQTT 3.1.1 §3.9, MQTT 5 §3.9): one
// reason code per requested topic filter, in request order.
type SubAck struct {
	*FixedHeader
	ackListBody
}

func (pkt *SubAck) Kind() byte { return SUBACK }

func (pkt *SubAck) Decode(rc *ReadContext, src *Source) (bool, error) {
	validate := ValidSubAckReasonCode
	if pkt.Version != VERSION500 {
		validate = nil
	}
	return decodeAckList(&pkt.ackListBody, pkt.FixedHeader, validate, rc, src)
}

func (pkt *SubAck) Encode(dst []byte) ([]byte, error) {
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
