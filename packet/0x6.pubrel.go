package packet

// PubRel is step 2 of the QoS 2 publish handshake (MQTT 3.1.1 §3.6, MQTT
// 5 §3.6): "publish release". Its fixed header flags are pinned to
// Dup=0, QoS=1, Retain=0 (enforced in validateFlags).
type PubRel struct {
	*FixedHeader
	pubResponseBody
}

func (pkt *PubRel) Kind() byte { return PUBREL }

func (pkt *PubRel) Decode(rc *ReadContext, src *Source) (bool, error) {
	return decodePubResponse(&pkt.pubResponseBody, pkt.FixedHeader, rc, src)
}

func (pkt *PubRel) Encode(dst []byte) ([]byte, error) {
	pkt.QoS = 1
	rl := pubResponseRemainingLength(&pkt.pubResponseBody, pkt.Version)
	dst, err := pkt.FixedHeader.Encode(dst, rl)
	if err != nil {
		return nil, err
	}
	return encodePubResponse(&pkt.pubResponseBody, pkt.Version, dst)
}
