package packet

// Auth carries extended authentication exchange data (MQTT 5 §3.15
// only; undefined in v3.1.1).
type Auth struct {
	*FixedHeader
	reasonPropsBody
}

func (pkt *Auth) Kind() byte { return AUTH }

func (pkt *Auth) Decode(rc *ReadContext, src *Source) (bool, error) {
	return decodeReasonProps(&pkt.reasonPropsBody, pkt.FixedHeader, CodeSuccess, rc, src)
}

func (pkt *Auth) Encode(dst []byte) ([]byte, error) {
	rl := reasonPropsRemainingLength(&pkt.reasonPropsBody, pkt.Version, CodeSuccess)
	dst, err := pkt.FixedHeader.Encode(dst, rl)
	if err != nil {
		return nil, err
	}
	return encodeReasonProps(&pkt.reasonPropsBody, pkt.Version, CodeSuccess, dst)
}
