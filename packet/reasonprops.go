package packet

// reasonPropsBody is the shared v5 variable header shape of DISCONNECT
// and AUTH: an optional reason code followed by an optional property
// block, both omittable when the reason is the packet's default success
// value and there are no properties (MQTT 5 §3.14.2.1, §3.15.2.1).
type reasonPropsBody struct {
	ReasonCode ReasonCode
	Props      Properties

	propSt propDecodeState
}

func decodeReasonProps(b *reasonPropsBody, fh *FixedHeader, defaultCode ReasonCode, rc *ReadContext, src *Source) (bool, error) {
	if rc.Sequence == 0 {
		if fh.Version != VERSION500 || rc.RemainingSize == 0 {
			b.ReasonCode = defaultCode
			rc.advance(0)
		} else {
			v, ok, err := DecodeByte(src)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
			b.ReasonCode = ReasonCode{Code: v}
			rc.advance(1)
		}
	}
	if rc.Sequence == 1 {
		if fh.Version != VERSION500 || rc.RemainingSize == 0 {
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
	return true, nil
}

func encodeReasonProps(b *reasonPropsBody, version byte, defaultCode ReasonCode, dst []byte) ([]byte, error) {
	if version != VERSION500 {
		return dst, nil
	}
	if b.ReasonCode.Code == defaultCode.Code && b.Props.Size() == 0 {
		return dst, nil
	}
	dst = append(dst, b.ReasonCode.Code)
	return b.Props.Encode(dst)
}

func reasonPropsRemainingLength(b *reasonPropsBody, version byte, defaultCode ReasonCode) uint32 {
	if version != VERSION500 || (b.ReasonCode.Code == defaultCode.Code && b.Props.Size() == 0) {
		return 0
	}
	sz, _ := VariableIntegerSize(uint32(b.Props.Size()))
	return uint32(1 + b.Props.Size() + sz)
}
