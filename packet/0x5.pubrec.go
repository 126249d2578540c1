package packet

// PubRec is step 1 of the QoS 2 publish handshake (MQTT 3.1.1 §3.5, MQTT
// 5 §3.5): "publish received".
type PubRec struct {
	*FixedHeader
	pubResponseBody
}

func (pkt *PubRec) Kind() byte { return PUBREC }

func (pkt *PubRec) Decode(rc *ReadContext, src *Source) (bool, error) {
	return decodePubResponse(&pkt.pubResponseBody, pkt.FixedHeader, rc, src)
}

func (pkt *PubRec) Encode(dst []byte) ([]byte, error) {
	rl := pubResponseRemainingLength(&pkt.pubResponseBody, pkt.Version)
	dst, err := pkt.FixedHeader.Encode(dst, rl)
	if err != nil {
		return nil, err
	}
	return encodePubResponse(&pkt.pubResponseBody, pkt.Version, dst)
}
