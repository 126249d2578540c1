package packet

import (
	"bytes"
	"time"
)

// protocolName is the fixed 6-byte "MQTT" blob every CONNECT opens with,
// regardless of protocol version.
var protocolName = []byte{0x00, 0x04, 'M', 'Q', 'T', 'T'}

// ConnectFlags is the single-byte flag field of the CONNECT variable
// header (MQTT 3.1.1 §3.1.2.2, MQTT 5 §3.1.2.2).
type ConnectFlags uint8

func (f ConnectFlags) Reserved() uint8    { return uint8(f) & 0x01 }
func (f ConnectFlags) CleanStart() bool   { return uint8(f)&0x02 == 0x02 }
func (f ConnectFlags) WillFlag() bool     { return uint8(f)&0x04 == 0x04 }
func (f ConnectFlags) WillQoS() uint8     { return (uint8(f) & 0x18) >> 3 }
func (f ConnectFlags) WillRetain() bool   { return uint8(f)&0x20 == 0x20 }
func (f ConnectFlags) PasswordFlag() bool { return uint8(f)&0x40 == 0x40 }
func (f ConnectFlags) UserNameFlag() bool { return uint8(f)&0x80 == 0x80 }

// MakeConnectFlags builds a ConnectFlags byte from its constituent bits,
// for callers constructing an outbound CONNECT (session.go's Connect).
func MakeConnectFlags(cleanStart, willFlag bool, willQoS uint8, willRetain, hasPassword, hasUsername bool) ConnectFlags {
	var f uint8
	if cleanStart {
		f |= 0x02
	}
	if willFlag {
		f |= 0x04
	}
	f |= (willQoS & 0x03) << 3
	if willRetain {
		f |= 0x20
	}
	if hasPassword {
		f |= 0x40
	}
	if hasUsername {
		f |= 0x80
	}
	return ConnectFlags(f)
}

// Connect requests a connection to a server (MQTT 3.1.1 §3.1, MQTT 5
// §3.1).
type Connect struct {
	*FixedHeader

	ConnectFlags ConnectFlags
	KeepAlive    uint16
	Props        Properties

	ClientID       string
	WillProps      Properties
	WillTopic      string
	WillPayload    []byte
	Username       string
	Password       []byte

	propSt     propDecodeState
	willPropSt propDecodeState
}

func (pkt *Connect) Kind() byte { return CONNECT }

// SessionExpiryInterval reads the v5 session-expiry property as a
// time.Duration, matching the client-side convenience the rest of the
// session layer expects (REDESIGN FLAG: durations, not raw seconds).
func (pkt *Connect) SessionExpiryInterval() time.Duration {
	if pkt.Props.SessionExpiryInterval == nil {
		return 0
	}
	return time.Duration(*pkt.Props.SessionExpiryInterval) * time.Second
}

func (pkt *Connect) Decode(rc *ReadContext, src *Source) (bool, error) {
	if rc.Sequence == 0 {
		for len(rc.data()) < 6 {
			b, ok, err := DecodeByte(src)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
			rc.appendScratch(b)
		}
		if !bytes.Equal(rc.data(), protocolName) {
			return false, ErrMalformedPacket
		}
		rc.advance(6)
	}
	if rc.Sequence == 1 {
		b, ok, err := DecodeByte(src)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		pkt.Version = b
		rc.advance(1)
	}
	if rc.Sequence == 2 {
		b, ok, err := DecodeByte(src)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		pkt.ConnectFlags = ConnectFlags(b)
		if pkt.ConnectFlags.Reserved() != 0 {
			return false, ErrMalformedPacket
		}
		if pkt.ConnectFlags.WillQoS() > 2 {
			return false, ErrBadQoS
		}
		if !pkt.ConnectFlags.WillFlag() && (pkt.ConnectFlags.WillRetain() || pkt.ConnectFlags.WillQoS() != 0) {
			return false, ErrInvalidWillCombination
		}
		if pkt.ConnectFlags.PasswordFlag() && !pkt.ConnectFlags.UserNameFlag() {
			return false, ErrInvalidUsernamePassword
		}
		rc.advance(1)
	}
	if rc.Sequence == 3 {
		v, ok, err := DecodeU16(rc, src)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		pkt.KeepAlive = v
		rc.advance(2)
	}
	if rc.Sequence == 4 {
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
	if rc.Sequence == 5 {
		v, ok, err := DecodeBlobString(rc, src)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		pkt.ClientID = v
		if pkt.ClientID == "" && !pkt.ConnectFlags.CleanStart() {
			return false, ErrEmptyClientIdentifier
		}
		sz, _ := BlobSize(len(v))
		rc.advance(uint32(sz))
	}
	if rc.Sequence == 6 {
		if !pkt.ConnectFlags.WillFlag() || pkt.Version != VERSION500 {
			rc.advance(0)
		} else {
			done, err := pkt.WillProps.Decode(&pkt.willPropSt, rc, src)
			if err != nil {
				return false, err
			}
			if !done {
				return false, nil
			}
			rc.advance(0)
		}
	}
	if rc.Sequence == 7 {
		if !pkt.ConnectFlags.WillFlag() {
			rc.advance(0)
		} else {
			v, ok, err := DecodeBlobString(rc, src)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
			pkt.WillTopic = v
			sz, _ := BlobSize(len(v))
			rc.advance(uint32(sz))
		}
	}
	if rc.Sequence == 8 {
		if !pkt.ConnectFlags.WillFlag() {
			rc.advance(0)
		} else {
			v, ok, err := DecodeBlobBytes(rc, src)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
			pkt.WillPayload = v
			sz, _ := BlobSize(len(v))
			rc.advance(uint32(sz))
		}
	}
	if rc.Sequence == 9 {
		if !pkt.ConnectFlags.UserNameFlag() {
			rc.advance(0)
		} else {
			v, ok, err := DecodeBlobString(rc, src)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
			pkt.Username = v
			sz, _ := BlobSize(len(v))
			rc.advance(uint32(sz))
		}
	}
	if rc.Sequence == 10 {
		if !pkt.ConnectFlags.PasswordFlag() {
			rc.advance(0)
		} else {
			v, ok, err := DecodeBlobBytes(rc, src)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
			pkt.Password = v
			sz, _ := BlobSize(len(v))
			rc.advance(uint32(sz))
		}
	}
	return true, nil
}

func (pkt *Connect) remainingLength() (int, error) {
	n := len(protocolName) + 1 + 1 + 2
	if pkt.Version == VERSION500 {
		sz, err := VariableIntegerSize(uint32(pkt.Props.Size()))
		if err != nil {
			return 0, err
		}
		n += sz + pkt.Props.Size()
	}
	clientIDSz, err := BlobSize(len(pkt.ClientID))
	if err != nil {
		return 0, err
	}
	n += clientIDSz
	if pkt.ConnectFlags.WillFlag() {
		if pkt.Version == VERSION500 {
			sz, err := VariableIntegerSize(uint32(pkt.WillProps.Size()))
			if err != nil {
				return 0, err
			}
			n += sz + pkt.WillProps.Size()
		}
		topicSz, err := BlobSize(len(pkt.WillTopic))
		if err != nil {
			return 0, err
		}
		payloadSz, err := BlobSize(len(pkt.WillPayload))
		if err != nil {
			return 0, err
		}
		n += topicSz + payloadSz
	}
	if pkt.ConnectFlags.UserNameFlag() {
		sz, err := BlobSize(len(pkt.Username))
		if err != nil {
			return 0, err
		}
		n += sz
	}
	if pkt.ConnectFlags.PasswordFlag() {
		sz, err := BlobSize(len(pkt.Password))
		if err != nil {
			return 0, err
		}
		n += sz
	}
	return n, nil
}

func (pkt *Connect) Encode(dst []byte) ([]byte, error) {
	if pkt.ClientID == "" && !pkt.ConnectFlags.CleanStart() {
		return nil, ErrEmptyClientIdentifier
	}
	if pkt.ConnectFlags.WillQoS() > 2 {
		return nil, ErrBadQoS
	}
	if !pkt.ConnectFlags.WillFlag() && (pkt.ConnectFlags.WillRetain() || pkt.ConnectFlags.WillQoS() != 0) {
		return nil, ErrInvalidWillCombination
	}
	rl, err := pkt.remainingLength()
	if err != nil {
		return nil, err
	}
	dst, err = pkt.FixedHeader.Encode(dst, uint32(rl))
	if err != nil {
		return nil, err
	}
	dst = append(dst, protocolName...)
	dst = append(dst, pkt.Version)
	dst = append(dst, byte(pkt.ConnectFlags))
	dst = append(dst, EncodeU16(pkt.KeepAlive)...)
	if pkt.Version == VERSION500 {
		dst, err = pkt.Props.Encode(dst)
		if err != nil {
			return nil, err
		}
	}
	dst = append(dst, EncodeBlob(pkt.ClientID)...)
	if pkt.ConnectFlags.WillFlag() {
		if pkt.Version == VERSION500 {
			dst, err = pkt.WillProps.Encode(dst)
			if err != nil {
				return nil, err
			}
		}
		dst = append(dst, EncodeBlob(pkt.WillTopic)...)
		dst = append(dst, EncodeBlob(pkt.WillPayload)...)
	}
	if pkt.ConnectFlags.UserNameFlag() {
		dst = append(dst, EncodeBlob(pkt.Username)...)
	}
	if pkt.ConnectFlags.PasswordFlag() {
		dst = append(dst, EncodeBlob(pkt.Password)...)
	}
	return dst, nil
}
