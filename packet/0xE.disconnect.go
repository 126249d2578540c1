package packet

// Disconnect ends the connection cleanly (MQTT 3.1.1 §3.14, MQTT 5
// §3.14). In v3.1.1 it carries no payload at all; in v5 it may optionally
// carry a reason code and properties.
type Disconnect struct {
	*FixedHeader
	reasonPropsBody
}

func (pkt *Disconnect) Kind() byte { return DISCONNECT }

func (pkt *Disconnect) Decode(rc *ReadContext, src *Source) (bool, error) {
	return decodeReasonProps(&pkt.reasonPropsBody, pkt.FixedHeader, CodeNormalDisconnection, rc, src)
}

func (pkt *Disconnect) Encode(dst []byte) ([]byte, error) {
	rl := reasonPropsRemainingLength(&pkt.reasonPropsBody, pkt.Version, CodeNormalDisconnection)
	dst, err := pkt.FixedHeader.Encode(dst, rl)
	if err != nil {
		return nil, err
	}
	return encodeReasonProps(&pkt.reasonPropsBody, pkt.Version, CodeNormalDisconnection, dst)
}
