package packet

// Unsubscribe requests removal of one or more subscriptions (MQTT 3.1.1
// §3.10, MQTT 5 §3.10). Fixed header flags pinned to Dup=0, QoS=1,
// Retain=0.
type Unsubscribe struct {
	*FixedHeader

	PacketID     uint16
	Props        Properties
	TopicFilters []string

	propSt propDecodeState
}

func (pkt *Unsubscribe) Kind() byte { return UNSUBSCRIBE }

func (pkt *Unsubscribe) Decode(rc *ReadContext, src *Source) (bool, error) {
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
			v, ok, err := DecodeBlobString(rc, src)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
			pkt.TopicFilters = append(pkt.TopicFilters, v)
			sz, _ := BlobSize(len(v))
			rc.consume(uint32(sz))
		}
		if len(pkt.TopicFilters) == 0 {
			return false, ErrMalformedPacket
		}
	}
	return true, nil
}

func (pkt *Unsubscribe) remainingLength() (int, error) {
	n := 2
	if pkt.Version == VERSION500 {
		sz, err := VariableIntegerSize(uint32(pkt.Props.Size()))
		if err != nil {
			return 0, err
		}
		n += sz + pkt.Props.Size()
	}
	for _, f := range pkt.TopicFilters {
		sz, err := BlobSize(len(f))
		if err != nil {
			return 0, err
		}
		n += sz
	}
	return n, nil
}

func (pkt *Unsubscribe) Encode(dst []byte) ([]byte, error) {
	if len(pkt.TopicFilters) == 0 {
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
	for _, f := range pkt.TopicFilters {
		if f == "" {
			return nil, ErrMalformedPacket
		}
		dst = append(dst, EncodeBlob(f)...)
	}
	return dst, nil
}
