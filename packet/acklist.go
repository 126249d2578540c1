package packet

// ackListBody is the shared shape of SUBACK and UNSUBACK: a packet
// identifier, an optional v5 property block, and a payload of one reason
// code per topic filter in the original SUBSCRIBE/UNSUBSCRIBE.
type ackListBody struct {
	PacketID    uint16
	Props       Properties
	ReasonCodes []ReasonCode

	propSt propDecodeState
}

func decodeAckList(b *ackListBody, fh *FixedHeader, validate func(byte) bool, rc *ReadContext, src *Source) (bool, error) {
	if rc.Sequence == 0 {
		v, ok, err := DecodeU16(rc, src)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		b.PacketID = v
		rc.advance(2)
	}
	if rc.Sequence == 1 {
		if fh.Version != VERSION500 {
			rc.advance(0)
		} else {
			done, err := b.Props.Decode(&b.propSt, rc, src)
			if err != nil {
				return false, err
			}
			if !done {
				return false, nil
			}
			rc.advance(0)
		}
	}
	if rc.Sequence == 2 {
		for rc.RemainingSize > 0 {
			v, ok, err := DecodeByte(src)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
			if validate != nil && !validate(v) {
				return false, ErrMalformedReasonCode
			}
			b.ReasonCodes = append(b.ReasonCodes, ReasonCode{Code: v})
			rc.consume(1)
		}
		if fh.Version == VERSION500 && len(b.ReasonCodes) == 0 {
			return false, ErrMalformedPacket
		}
	}
	return true, nil
}

func ackListRemainingLength(b *ackListBody, version byte) (int, error) {
	n := 2
	if version == VERSION500 {
		sz, err := VariableIntegerSize(uint32(b.Props.Size()))
		if err != nil {
			return 0, err
		}
		n += sz + b.Props.Size()
	}
	n += len(b.ReasonCodes)
	return n, nil
}

func encodeAckList(b *ackListBody, version byte, dst []byte) ([]byte, error) {
	dst = append(dst, EncodeU16(b.PacketID)...)
	var err error
	if version == VERSION500 {
		dst, err = b.Props.Encode(dst)
		if err != nil {
			return nil, err
		}
	}
	for _, rc := range b.ReasonCodes {
		dst = append(dst, rc.Code)
	}
	return dst, nil
}
