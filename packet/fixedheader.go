package packet

import "fmt"

// FixedHeader is the 2-5 byte header every MQTT control packet starts
// with: a type/flags byte followed by a variable-length remaining-length
// integer.
//
// Bit      | 7   6   5   4 | 3   2   1   0
// byte 1   | packet type   | flags (type-specific)
// byte 2.. | remaining length (1-4 bytes)
type FixedHeader struct {
	Version byte // 4 for v3.1.1, 5 for v5 — carried so per-kind codecs can branch.

	Kind byte

	Dup    uint8
	QoS    uint8
	Retain uint8

	RemainingLength uint32
}

func (fh *FixedHeader) String() string {
	return fmt.Sprintf("%s len=%d", Kind[fh.Kind], fh.RemainingLength)
}

// Size reports the on-wire byte count of the fixed header for a packet
// whose remaining length is remainingLength.
func (fh *FixedHeader) Size(remainingLength uint32) (int, error) {
	n, err := VariableIntegerSize(remainingLength)
	if err != nil {
		return 0, err
	}
	return 1 + n, nil
}

// Encode appends the fixed header to dst.
func (fh *FixedHeader) Encode(dst []byte, remainingLength uint32) ([]byte, error) {
	b := fh.Kind<<4 | fh.Dup<<3 | fh.QoS<<1 | fh.Retain
	dst = append(dst, b)
	enc, err := EncodeVariableInteger(remainingLength)
	if err != nil {
		return nil, err
	}
	return append(dst, enc...), nil
}

// decodeFixedHeader resumably parses the first two fields of rc: the
// type/flags byte (sequence 0) then the remaining-length varint (sequence
// 1). rc must have been freshly constructed via NewReadContext (its
// RemainingSize is seeded to 5, the worst case fixed-header size) or Reset
// for a new packet.
func decodeFixedHeader(fh *FixedHeader, rc *ReadContext, src *Source) (done bool, err error) {
	if rc.Sequence == 0 {
		b, ok, err := DecodeByte(src)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		fh.Kind = b >> 4
		fh.Dup = b & 0b00001000 >> 3
		fh.QoS = b & 0b00000110 >> 1
		fh.Retain = b & 0b00000001
		if err := validateFlags(fh); err != nil {
			return false, err
		}
		rc.advance(1)
	}
	if rc.Sequence == 1 {
		n, ok, err := DecodeVariableInteger(rc, src)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		fh.RemainingLength = n
		rc.advance(0)
	}
	return true, nil
}

// validateFlags enforces the fixed, per-kind flag bits required by the
// protocol (MQTT-2.2.2-1/2): a malformed flag combination is a protocol
// error, not a resumption condition.
func validateFlags(fh *FixedHeader) error {
	switch fh.Kind {
	case PUBLISH:
		if fh.QoS > 2 {
			return ErrBadQoS
		}
		if fh.QoS == 0 && fh.Dup != 0 {
			return ErrMalformedFlags
		}
	case PUBREL, SUBSCRIBE, UNSUBSCRIBE:
		if fh.Dup != 0 || fh.QoS != 1 || fh.Retain != 0 {
			return ErrMalformedFlags
		}
	default:
		if fh.Dup != 0 || fh.QoS != 0 || fh.Retain != 0 {
			return ErrMalformedFlags
		}
	}
	return nil
}
