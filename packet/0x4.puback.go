package packet

// PubAck acknowledges a QoS 1 PUBLISH (MQTT 3.1.1 §3.4, MQTT 5 §3.4).
type PubAck struct {
	*FixedHeader
	pubResponseBody
}

func (pkt *PubAck) Kind() byte { return PUBACK }

func (pkt *PubAck) Decode(rc *ReadContext, src *Source) (bool, error) {
	return decodePubResponse(&pkt.pubResponseBody, pkt.FixedHeader, rc, src)
}

func (pkt *PubAck) Encode(dst []byte) ([]byte, error) {
	rl := pubResponseRemainingLength(&pkt.pubResponseBody, pkt.Version)
	dst, err := pkt.FixedHeader.Encode(dst, rl)
	if err != nil {
		return nil, err
	}
	return encodePubResponse(&pkt.pubResponseBody, pkt.Version, dst)
}
