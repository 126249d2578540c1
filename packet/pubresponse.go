package packet

// pubResponseBody is the shared shape of PUBACK/PUBREC/PUBREL/PUBCOMP's
// variable header: a packet identifier, plus (v5 only, and only when
// present) a reason code and a property block. MQTT 5 §3.4.2.1 lets the
// reason code and properties be omitted entirely when the reason is
// success and there are no properties, so a v5 sender may emit the same
// 2-byte body a v3.1.1 sender would — decode must accept both shapes.
type pubResponseBody struct {
	PacketID   uint16
	ReasonCode ReasonCode
	Props      Properties

	propSt propDecodeState
}

// decodePubResponse resumably decodes the common ack body into b. fh
// carries Version and RemainingLength via rc; sequence 0 is the packet
// id, 1 the optional reason code, 2 the optional property block.
func decodePubResponse(b *pubResponseBody, fh *FixedHeader, rc *ReadContext, src *Source) (bool, error) {
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
		if fh.Version != VERSION500 || rc.RemainingSize == 0 {
			b.ReasonCode = CodeSuccess
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
	if rc.Sequence == 2 {
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

// encodePubResponse appends the variable header for a PUBACK/PUBREC/
// PUBREL/PUBCOMP packet. For v3.1.1, or a v5 success with no properties,
// it emits the short 2-byte form.
func encodePubResponse(b *pubResponseBody, version byte, dst []byte) ([]byte, error) {
	dst = append(dst, EncodeU16(b.PacketID)...)
	if version != VERSION500 {
		return dst, nil
	}
	if b.ReasonCode.Code == CodeSuccess.Code && b.Props.Size() == 0 {
		return dst, nil
	}
	dst = append(dst, b.ReasonCode.Code)
	return b.Props.Encode(dst)
}

func pubResponseRemainingLength(b *pubResponseBody, version byte) uint32 {
	n := 2
	if version == VERSION500 && !(b.ReasonCode.Code == CodeSuccess.Code && b.Props.Size() == 0) {
		n += 1 + b.Props.Size()
		sz, _ := VariableIntegerSize(uint32(b.Props.Size()))
		n += sz
	}
	return uint32(n)
}
