package packet

// PubComp is step 3 of the QoS 2 publish handshake (MQTT 3.1.1 §3.7,
// MQTT 5 §3.7): "publish complete".
type PubComp struct {
	*FixedHeader
	pubResponseBody
}

func (pkt *PubComp) Kind() byte { return PUBCOMP }

func (pkt *PubComp) Decode(rc *ReadContext, src *Source) (bool, error) {
	return decodePubResponse(&pkt.pubResponseBody, pkt.FixedHeader, rc, src)
}

func (pkt *PubComp) Encode(dst []byte) ([]byte, error) {
	rl := pubResponseRemainingLength(&pkt.pubResponseBody, pkt.Version)
	dst, err := pkt.FixedHeader.Encode(dst, rl)
	if err != nil {
		return nil, err
	}
	return encodePubResponse(&pkt.pubResponseBody, pkt.Version, dst)
}
