package packet

// PingResp answers a PingReq (MQTT 3.1.1 §3.13, MQTT 5 §3.13). No
// variable header, no payload.
type PingResp struct {
	*FixedHeader
}

func (pkt *PingResp) Kind() byte { return PINGRESP }

func (pkt *PingResp) Decode(rc *ReadContext, src *Source) (bool, error) {
	return true, nil
}

func (pkt *PingResp) Encode(dst []byte) ([]byte, error) {
	return pkt.FixedHeader.Encode(dst, 0)
}
