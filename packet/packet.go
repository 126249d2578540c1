package packet

// Packet is the common interface satisfied by every MQTT control packet.
// Decode is resumable: it may be called any number of times with fresh
// byte budgets (src) over the same rc, returning done=false,err=nil each
// time it runs out of budget mid-field. Once done=true the packet is
// fully populated and rc is ready for Reset by the next packet's fixed
// header.
type Packet interface {
	Kind() byte
	Decode(rc *ReadContext, src *Source) (done bool, err error)
	Encode(dst []byte) ([]byte, error)
}

// New constructs the zero-value packet for the already-decoded fixed
// header fh, ready for Decode. fh is copied so the packet owns its own
// header independent of whatever decoded it (the Decoder resets and
// reuses its own fh between packets); its Dup/QoS/Retain/RemainingLength
// must be the values decodeFixedHeader actually parsed off the wire, not
// a fresh zero header, since the body decoders (PUBLISH's packet-id
// presence in particular) key off them.
func New(fh FixedHeader) (Packet, error) {
	h := fh
	switch h.Kind {
	case CONNECT:
		return &Connect{FixedHeader: &h}, nil
	case CONNACK:
		return &Connack{FixedHeader: &h}, nil
	case PUBLISH:
		return &Publish{FixedHeader: &h}, nil
	case PUBACK:
		return &PubAck{FixedHeader: &h}, nil
	case PUBREC:
		return &PubRec{FixedHeader: &h}, nil
	case PUBREL:
		return &PubRel{FixedHeader: &h}, nil
	case PUBCOMP:
		return &PubComp{FixedHeader: &h}, nil
	case SUBSCRIBE:
		return &Subscribe{FixedHeader: &h}, nil
	case SUBACK:
		return &SubAck{FixedHeader: &h}, nil
	case UNSUBSCRIBE:
		return &Unsubscribe{FixedHeader: &h}, nil
	case UNSUBACK:
		return &UnsubAck{FixedHeader: &h}, nil
	case PINGREQ:
		return &PingReq{FixedHeader: &h}, nil
	case PINGRESP:
		return &PingResp{FixedHeader: &h}, nil
	case DISCONNECT:
		return &Disconnect{FixedHeader: &h}, nil
	case AUTH:
		return &Auth{FixedHeader: &h}, nil
	default:
		return nil, ErrBadPacketType
	}
}

// Decoder drives the two-stage resumable decode of one inbound packet: the
// fixed header first, then dispatch to the kind-specific body decode. It
// is the single entry point session.go's process_one uses per packet.
type Decoder struct {
	Version byte

	fh    FixedHeader
	rc    *ReadContext
	pkt   Packet
	stage int // 0: fixed header, 1: body
}

// NewDecoder returns a Decoder ready to parse one packet from byte 0.
func NewDecoder(version byte) *Decoder {
	return &Decoder{Version: version, rc: NewReadContext()}
}

// Feed resumes decoding with src's budget. It returns the completed packet
// once its fixed header and body fields have been consumed (for PUBLISH,
// everything up to the payload, whose length is left in PayloadSize and
// whose bytes stay unread); until then it returns done=false, nil and must
// be called again with a fresh Source on the next available bytes.
func (d *Decoder) Feed(src *Source) (pkt Packet, done bool, err error) {
	if d.stage == 0 {
		d.fh.Version = d.Version
		ok, err := decodeFixedHeader(&d.fh, d.rc, src)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, nil
		}
		d.pkt, err = New(d.fh)
		if err != nil {
			return nil, false, err
		}
		d.rc.Reset(d.fh.RemainingLength)
		d.stage = 1
	}
	ok, err := d.pkt.Decode(d.rc, src)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	return d.pkt, true, nil
}

// Reset rearms the Decoder to parse the next packet, discarding any
// in-flight state. Called once Feed has returned a completed packet.
func (d *Decoder) Reset() {
	d.fh = FixedHeader{}
	d.rc = NewReadContext()
	d.pkt = nil
	d.stage = 0
}
