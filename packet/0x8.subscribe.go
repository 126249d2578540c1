package packet

// Subscription is one topic filter + options entry of a SUBSCRIBE
// payload (MQTT 3.1.1 §3.8.3, MQTT 5 §3.8.3.1). NoLocal, RetainAsPublished
// and RetainHandling are v5-only; v3.1.1 senders leave them zero.
type Subscription struct {
	TopicFilter       string
	QoS               uint8
	NoLocal           bool
	RetainAsPublished bool
	RetainHandling    uint8 // 0 (send retained), 1 (send if new), 2 (don't send)
}

func (s Subscription) optionsByte() byte {
	b := s.QoS & 0x03
	if s.NoLocal {
		b |= 0x04
	}
	if s.RetainAsPublished {
		b |= 0x08
	}
	b |= (s.RetainHandling & 0x03) << 4
	return b
}

func subscriptionFromOptionsByte(b byte) (Subscription, error) {
	if b&0x03 > 2 || (b>>4)&0x03 > 2 || b&0xC0 != 0 {
		return Subscription{}, ErrMalformedFlags
	}
	return Subscription{
		QoS:               b & 0x03,
		NoLocal:           b&0x04 != 0,
		RetainAsPublished: b&0x08 != 0,
		RetainHandling:    (b >> 4) & 0x03,
	}, nil
}

// Subscribe requests one or more topic subscriptions (MQTT 3.1.1 §3.8,
// MQTT 5 §3.8). Its fixed header flags are pinned to Dup=0, QoS=1,
// Retain=0.
type Subscribe struct {
	*FixedHeader

	PacketID      uint16
	Props         Properties
	Subscriptions []Subscription

	propSt   propDecodeState
	curTopic string
	haveTopic bool
}

func (pkt *Subscribe) Kind() byte { return SUBSCRIBE }

func (pkt *Subscribe) Decode(rc *ReadContext, src *Source) (bool, error) {
	if rc.Sequence == 0 {
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
	if rc.Sequence == 1 {
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
	if rc.Sequence == 2 {
		for rc.RemainingSize > 0 {
			if !pkt.haveTopic {
				v, ok, err := DecodeBlobString(rc, src)
				if err != nil {
					return false, err
				}
				if !ok {
					return false, nil
				}
				pkt.curTopic = v
				pkt.haveTopic = true
				sz, _ := BlobSize(len(v))
				rc.consume(uint32(sz))
			}
			b, ok, err := DecodeByte(src)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
			sub, err := subscriptionFromOptionsByte(b)
			if err != nil {
				return false, err
			}
			sub.TopicFilter = pkt.curTopic
			pkt.Subscriptions = append(pkt.Subscriptions, sub)
			pkt.haveTopic = false
			rc.consume(1)
		}
		if len(pkt.Subscriptions) == 0 {
			return false, ErrMalformedPacket
		}
	}
	return true, nil
}

func (pkt *Subscribe) remainingLength() (int, error) {
	n := 2
	if pkt.Version == VERSION500 {
		sz, err := VariableIntegerSize(uint32(pkt.Props.Size()))
		if err != nil {
			return 0, err
		}
		n += sz + pkt.Props.Size()
	}
	for _, s := range pkt.Subscriptions {
		sz, err := BlobSize(len(s.TopicFilter))
		if err != nil {
			return 0, err
		}
		n += sz + 1
	}
	return n, nil
}

func (pkt *Subscribe) Encode(dst []byte) ([]byte, error) {
	if len(pkt.Subscriptions) == 0 {
		return nil, ErrMalformedPacket
	}
	pkt.QoS = 1
	rl, err := pkt.remainingLength()
	if err != nil {
		return nil, err
	}
	dst, err = pkt.FixedHeader.Encode(dst, uint32(rl))
	if err != nil {
		return nil, err
	}
	dst = append(dst, EncodeU16(pkt.PacketID)...)
	if pkt.Version == VERSION500 {
		dst, err = pkt.Props.Encode(dst)
		if err != nil {
			return nil, err
		}
	}
	for _, s := range pkt.Subscriptions {
		if s.TopicFilter == "" {
			return nil, ErrMalformedPacket
		}
		dst = append(dst, EncodeBlob(s.TopicFilter)...)
		dst = append(dst, s.optionsByte())
	}
	return dst, nil
}
