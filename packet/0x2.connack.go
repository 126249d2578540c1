package packet

// Connack acknowledges a CONNECT (MQTT 3.1.1 §3.2, MQTT 5 §3.2).
type Connack struct {
	*FixedHeader

	SessionPresent    uint8
	ConnectReturnCode ReasonCode
	Props             Properties

	propSt propDecodeState
}

func (pkt *Connack) Kind() byte { return CONNACK }

func (pkt *Connack) Decode(rc *ReadContext, src *Source) (bool, error) {
	if rc.Sequence == 0 {
		b, ok, err := DecodeByte(src)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		if b&0xFE != 0 {
			return false, ErrMalformedPacket
		}
		pkt.SessionPresent = b
		rc.advance(1)
	}
	if rc.Sequence == 1 {
		b, ok, err := DecodeByte(src)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		pkt.ConnectReturnCode = ReasonCode{Code: b}
		rc.advance(1)
	}
	if rc.Sequence == 2 {
		if pkt.Version != VERSION500 {
			rc.advance(0)
		} else {
			done, err := pkt.Props.Decode(&pkt.propSt, rc, src)
			if err != nil {
				return false, err
			}
			if !done {
				return false, nil
			}
			rc.advance(0)
		}
	}
	return true, nil
}

func (pkt *Connack) Encode(dst []byte) ([]byte, error) {
	rl := 2
	if pkt.Version == VERSION500 {
		sz, err := VariableIntegerSize(uint32(pkt.Props.Size()))
		if err != nil {
			return nil, err
		}
		rl += sz + pkt.Props.Size()
	}
	dst, err := pkt.FixedHeader.Encode(dst, uint32(rl))
	if err != nil {
		return nil, err
	}
	dst = append(dst, pkt.SessionPresent, pkt.ConnectReturnCode.Code)
	if pkt.Version == VERSION500 {
		return pkt.Props.Encode(dst)
	}
	return dst, nil
}
