package packet

import (
	"strings"
	"time"
)

// Publish carries application data to a topic (MQTT 3.1.1 §3.3, MQTT 5
// §3.3). QoS lives in the fixed header flags (FixedHeader.QoS), not here.
//
// Decode stops once the variable header is consumed and reports the
// payload's size in PayloadSize without reading a single payload byte: the
// caller (the client session) is responsible for streaming or skipping
// those bytes itself, so a multi-megabyte publish never has to be held in
// memory by the codec. Encode, which only ever runs over an in-memory
// payload the caller already has, still takes the payload directly via
// Payload.
type Publish struct {
	*FixedHeader

	TopicName   string
	PacketID    uint16
	Props       Properties
	PayloadSize uint32
	Payload     []byte

	propSt propDecodeState
}

func (pkt *Publish) Kind() byte { return PUBLISH }

// MessageExpiryInterval reads the v5 message-expiry property (whole
// seconds on the wire) as a time.Duration, or 0 when it is absent.
func (pkt *Publish) MessageExpiryInterval() time.Duration {
	if pkt.Props.MessageExpiryInterval == nil {
		return 0
	}
	return time.Duration(*pkt.Props.MessageExpiryInterval) * time.Second
}

func (pkt *Publish) Decode(rc *ReadContext, src *Source) (bool, error) {
	if rc.Sequence == 0 {
		v, ok, err := DecodeBlobString(rc, src)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		pkt.TopicName = v
		sz, _ := BlobSize(len(v))
		rc.advance(uint32(sz))
	}
	if rc.Sequence == 1 {
		if pkt.QoS == 0 {
			rc.advance(0)
		} else {
			v, ok, err := DecodeU16(rc, src)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
			pkt.PacketID = v
			rc.advance(2)
		}
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
	pkt.PayloadSize = rc.RemainingSize
	return true, nil
}

func (pkt *Publish) remainingLength() (int, error) {
	n, err := BlobSize(len(pkt.TopicName))
	if err != nil {
		return 0, err
	}
	if pkt.QoS > 0 {
		n += 2
	}
	if pkt.Version == VERSION500 {
		sz, err := VariableIntegerSize(uint32(pkt.Props.Size()))
		if err != nil {
			return 0, err
		}
		n += sz + pkt.Props.Size()
	}
	n += len(pkt.Payload)
	return n, nil
}

func (pkt *Publish) Encode(dst []byte) ([]byte, error) {
	if pkt.QoS > 2 {
		return nil, ErrBadQoS
	}
	if pkt.TopicName == "" {
		return nil, ErrTopicNameInvalid
	}
	if strings.ContainsAny(pkt.TopicName, "+# ") {
		return nil, ErrTopicNameInvalid
	}
	if pkt.QoS > 0 && pkt.PacketID == 0 {
		return nil, ErrPacketIdentifierNotFound
	}
	rl, err := pkt.remainingLength()
	if err != nil {
		return nil, err
	}
	dst, err = pkt.FixedHeader.Encode(dst, uint32(rl))
	if err != nil {
		return nil, err
	}
	dst = append(dst, EncodeBlob(pkt.TopicName)...)
	if pkt.QoS > 0 {
		dst = append(dst, EncodeU16(pkt.PacketID)...)
	}
	if pkt.Version == VERSION500 {
		dst, err = pkt.Props.Encode(dst)
		if err != nil {
			return nil, err
		}
	}
	return append(dst, pkt.Payload...), nil
}
