package mqtt

import (
	"context"
	"sync"
	"time"

	"github.com/golang-io/mqtt/packet"
)

// contextReader adapts a Context's cooperative ReadSome into an io.Reader
// so the packet codec's byte-budgeted Source can pull from it one call at
// a time, the same way it pulls from any other io.Reader.
type contextReader struct {
	ctx  Context
	cctx context.Context
}

func (r *contextReader) Read(p []byte) (int, error) {
	return r.ctx.ReadSome(r.cctx, p)
}

// Handlers is the callback surface a Session invokes synchronously from
// ProcessOne as each inbound packet completes (C9). Every field is
// optional; a nil handler is a no-op. For QoS-1 inbound PUBLISH, OnPublish
// is expected to call Session.PubAck itself.
type Handlers struct {
	OnConnack  func(*packet.Connack) error
	OnPublish  func(pub *packet.Publish, payload *payloadStream) error
	OnPubAck   func(*packet.PubAck) error
	OnPubRec   func(*packet.PubRec) error
	OnPubRel   func(*packet.PubRel) error
	OnPubComp  func(*packet.PubComp) error
	OnSubAck   func(*packet.SubAck) error
	OnUnsubAck func(*packet.UnsubAck) error
	OnPingResp func(*packet.PingResp) error
}

// Session is a single logical MQTT client connection: it owns the read
// context, the keep-alive clock, and the mutex guarding the transport
// writer (C9). One Session serves exactly one Context for its lifetime;
// reconnection is modeled as a new Session over a freshly dialed Context,
// the way the teacher's ConnectAndSubscribe loop redials and rebuilds conn.
type Session struct {
	ctx     Context
	version byte

	writeMu sync.Mutex

	decoder *packet.Decoder
	skip    uint32 // bytes of an unread publish payload still owed to the transport

	keepAlive *keepAlive
	inFlight  *inFlight
	stat      *Stat

	username    string
	password    []byte
	willTopic   string
	willPayload []byte
	willQoS     uint8
	willRetain  bool

	handlers Handlers

	closed bool
}

// NewSession wraps ctx as a client session speaking the given protocol
// version. handlers may be the zero value; unset callbacks are no-ops.
func NewSession(ctx Context, version byte, clientID string, handlers Handlers) *Session {
	return &Session{
		ctx:       ctx,
		version:   version,
		decoder:   packet.NewDecoder(version),
		keepAlive: newKeepAlive(0, time.Time{}),
		inFlight:  newInFlight(),
		stat:      newStat(clientID),
		handlers:  handlers,
	}
}

// NewSessionFromOptions builds a Session over ctx using the credentials,
// will, and keep-alive carried by opts (the root Options a caller builds
// via the functional-option constructors).
func NewSessionFromOptions(ctx Context, opts Options, handlers Handlers) *Session {
	s := NewSession(ctx, opts.Version, opts.ClientID, handlers)
	s.username = opts.Username
	s.password = opts.Password
	s.willTopic = opts.WillTopic
	s.willPayload = opts.WillPayload
	s.willQoS = opts.WillQoS
	s.willRetain = opts.WillRetain
	return s
}

// connectFlags derives the CONNECT flags byte from the session's
// configured credentials and will, per MQTT 3.1.1 §3.1.2.2 / MQTT 5
// §3.1.2.2's bit layout.
func (s *Session) connectFlags(cleanStart bool) packet.ConnectFlags {
	return packet.MakeConnectFlags(cleanStart, s.willTopic != "", s.willQoS, s.willRetain, len(s.password) > 0, s.username != "")
}

// write serializes pkt's encoding under the session's single output mutex
// so concurrent callers never interleave two packets' bytes (§5 ordering
// guarantee), then resets the keep-alive clock on success.
func (s *Session) write(ctx context.Context, pkt packet.Packet) error {
	if s.closed {
		return ErrSessionClosed
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	buf := packet.GetEncodeBuffer()
	defer packet.PutEncodeBuffer(buf)

	buf, err := pkt.Encode(buf)
	if err != nil {
		return err
	}
	if _, err := s.ctx.Write(ctx, buf); err != nil {
		return err
	}
	s.stat.PacketsSent.Inc()
	s.stat.BytesSent.Add(float64(len(buf)))
	s.keepAlive.reset(time.Now())
	return nil
}

// readReply blocks for exactly one inbound packet of kind `want`, feeding
// the decoder via ctx.Read until a full packet is available. It is used by
// the small number of operations (Connect, Subscribe, Unsubscribe) that
// wait for a specific reply; all other inbound traffic flows through
// ProcessOne.
func (s *Session) readReply(ctx context.Context, want byte) (packet.Packet, error) {
	for {
		var b [1]byte
		if _, err := s.ctx.Read(ctx, b[:]); err != nil {
			return nil, err
		}
		src := packet.NewSource(&singleByteReader{b: b[0]}, 1)
		pkt, done, err := s.decoder.Feed(src)
		if err != nil {
			s.decoder.Reset()
			return nil, err
		}
		s.stat.BytesReceived.Add(1)
		if !done {
			continue
		}
		s.decoder.Reset()
		s.stat.PacketsReceived.Inc()
		if pkt.Kind() != want {
			// Not the reply we're waiting on; hand it to the normal
			// synchronous dispatch path so it isn't silently dropped.
			if err := s.dispatch(ctx, pkt); err != nil {
				return nil, err
			}
			continue
		}
		return pkt, nil
	}
}

// singleByteReader hands out exactly one already-read byte, letting
// readReply reuse packet.Source's budget accounting one transport read at
// a time.
type singleByteReader struct {
	b    byte
	done bool
}

func (r *singleByteReader) Read(p []byte) (int, error) {
	if r.done || len(p) == 0 {
		return 0, nil
	}
	p[0] = r.b
	r.done = true
	return 1, nil
}

// Connect emits CONNECT and blocks for CONNACK, arming the keep-alive
// clock on success.
func (s *Session) Connect(ctx context.Context, id string, cleanSession bool, keepAlive time.Duration) error {
	connect := &packet.Connect{
		FixedHeader:  &packet.FixedHeader{Version: s.version, Kind: CONNECT},
		ClientID:     id,
		KeepAlive:    uint16(keepAlive / time.Second),
		ConnectFlags: s.connectFlags(cleanSession),
		Username:     s.username,
		Password:     s.password,
		WillTopic:    s.willTopic,
		WillPayload:  s.willPayload,
	}
	if err := s.write(ctx, connect); err != nil {
		return err
	}
	pkt, err := s.readReply(ctx, CONNACK)
	if err != nil {
		return err
	}
	connack := pkt.(*packet.Connack)
	if connack.ConnectReturnCode.Code != packet.CodeAccepted.Code {
		return ErrConnectRejected
	}
	s.keepAlive = newKeepAlive(keepAlive, time.Now())
	if s.handlers.OnConnack != nil {
		return s.handlers.OnConnack(connack)
	}
	return nil
}

// Disconnect emits DISCONNECT. Errors from Close's best-effort disconnect
// are expected to be swallowed by the caller, mirroring the teacher's
// drop-path semantics (§5 cancellation).
func (s *Session) Disconnect(ctx context.Context) error {
	return s.write(ctx, &packet.Disconnect{FixedHeader: &packet.FixedHeader{Version: s.version, Kind: DISCONNECT}})
}

// Close tears the session down, attempting a best-effort DISCONNECT whose
// failure is discarded, the way the teacher's connection drop path never
// propagates a close-time error.
func (s *Session) Close(ctx context.Context) {
	if s.closed {
		return
	}
	_ = s.Disconnect(ctx)
	s.closed = true
}

// Publish emits a PUBLISH. packetID is ignored for QoS 0.
func (s *Session) Publish(ctx context.Context, topic string, payload []byte, packetID uint16, qos uint8, retain bool) error {
	var retainBit uint8
	if retain {
		retainBit = 1
	}
	return s.write(ctx, &packet.Publish{
		FixedHeader: &packet.FixedHeader{Version: s.version, Kind: PUBLISH, QoS: qos, Retain: retainBit},
		TopicName:   topic,
		PacketID:    packetID,
		Payload:     payload,
	})
}

// PubAck acknowledges a QoS-1 inbound PUBLISH; call from within OnPublish.
func (s *Session) PubAck(ctx context.Context, packetID uint16) error {
	ack := &packet.PubAck{FixedHeader: &packet.FixedHeader{Version: s.version, Kind: PUBACK}}
	ack.PacketID = packetID
	return s.write(ctx, ack)
}

// Subscribe emits SUBSCRIBE and blocks for SUBACK.
func (s *Session) Subscribe(ctx context.Context, topics []packet.Subscription, packetID uint16) error {
	sub := &packet.Subscribe{
		FixedHeader:   &packet.FixedHeader{Version: s.version, Kind: SUBSCRIBE, QoS: 1},
		PacketID:      packetID,
		Subscriptions: topics,
	}
	if err := s.write(ctx, sub); err != nil {
		return err
	}
	pkt, err := s.readReply(ctx, SUBACK)
	if err != nil {
		return err
	}
	if s.handlers.OnSubAck != nil {
		return s.handlers.OnSubAck(pkt.(*packet.SubAck))
	}
	return nil
}

// Unsubscribe emits UNSUBSCRIBE and blocks for UNSUBACK.
func (s *Session) Unsubscribe(ctx context.Context, topics []string, packetID uint16) error {
	unsub := &packet.Unsubscribe{
		FixedHeader:  &packet.FixedHeader{Version: s.version, Kind: UNSUBSCRIBE, QoS: 1},
		PacketID:     packetID,
		TopicFilters: topics,
	}
	if err := s.write(ctx, unsub); err != nil {
		return err
	}
	pkt, err := s.readReply(ctx, UNSUBACK)
	if err != nil {
		return err
	}
	if s.handlers.OnUnsubAck != nil {
		return s.handlers.OnUnsubAck(pkt.(*packet.UnsubAck))
	}
	return nil
}

// Ping emits PINGREQ directly, outside the keep-alive state machine; the
// state machine's own pings go through UpdateState instead.
func (s *Session) Ping(ctx context.Context) error {
	return s.write(ctx, &packet.PingReq{FixedHeader: &packet.FixedHeader{Version: s.version, Kind: PINGREQ}})
}

// UpdateState advances the keep-alive clock (C8): it may emit PINGREQ and
// arm the pong timeout, or report that the pong timeout has already
// elapsed via ErrConnectionTimedOut.
func (s *Session) UpdateState(ctx context.Context, now time.Time) error {
	switch s.keepAlive.update(now) {
	case keepAliveSendPing:
		if err := s.Ping(ctx); err != nil {
			return err
		}
		// write's keep-alive reset cleared the pong wait update armed;
		// arm it again now that the PINGREQ is out.
		s.keepAlive.awaitingPong = true
		s.keepAlive.pingDeadline = now.Add(pingTimeout)
		return nil
	case keepAliveTimedOut:
		return ErrConnectionTimedOut
	}
	return nil
}

// ProcessOne drives inbound parsing by at most `available` bytes (C9):
// draining any owed overread first, then feeding the decoder with what is
// left of the budget, and dispatching at most one completed packet's
// callback before returning. It returns the number of bytes it consumed
// from the transport.
func (s *Session) ProcessOne(ctx context.Context, available int) (int, error) {
	if available == 0 {
		return 0, nil
	}
	skipped := 0
	if s.skip > 0 {
		n := available
		if uint32(n) > s.skip {
			n = int(s.skip)
		}
		buf := make([]byte, n)
		read, err := s.ctx.ReadSome(ctx, buf)
		s.skip -= uint32(read)
		if err != nil || s.skip > 0 || read == available {
			return read, err
		}
		skipped = read
		available -= read
	}

	src := packet.NewSource(&contextReader{ctx: s.ctx, cctx: ctx}, available)
	pkt, done, err := s.decoder.Feed(src)
	consumed := skipped + available - src.Available
	if err != nil {
		s.decoder.Reset()
		return consumed, err
	}
	if !done {
		return consumed, nil
	}
	s.decoder.Reset()
	s.stat.PacketsReceived.Inc()
	s.stat.BytesReceived.Add(float64(consumed))

	if err := s.dispatch(ctx, pkt); err != nil {
		return consumed, err
	}
	return consumed, nil
}

// dispatch invokes the matching handler for a fully decoded packet,
// running the QoS-2 PUBREC/PUBREL bookkeeping inline the way the
// teacher's ServeMessage does.
func (s *Session) dispatch(ctx context.Context, pkt packet.Packet) error {
	switch p := pkt.(type) {
	case *packet.Connack:
		if s.handlers.OnConnack != nil {
			return s.handlers.OnConnack(p)
		}
	case *packet.Publish:
		stream := newPayloadStream(s.ctx, ctx, int(p.PayloadSize))
		var err error
		if s.handlers.OnPublish != nil {
			err = s.handlers.OnPublish(p, stream)
		}
		if released := stream.released(); released > 0 {
			s.skip += uint32(released)
		}
		if err != nil {
			return err
		}
		if p.QoS == 2 {
			s.inFlight.put(p)
			rec := &packet.PubRec{FixedHeader: &packet.FixedHeader{Version: s.version, Kind: PUBREC}}
			rec.PacketID = p.PacketID
			return s.write(ctx, rec)
		}
	case *packet.PubAck:
		if s.handlers.OnPubAck != nil {
			return s.handlers.OnPubAck(p)
		}
	case *packet.PubRec:
		if s.handlers.OnPubRec != nil {
			if err := s.handlers.OnPubRec(p); err != nil {
				return err
			}
		}
		rel := &packet.PubRel{FixedHeader: &packet.FixedHeader{Version: s.version, Kind: PUBREL, QoS: 1}}
		rel.PacketID = p.PacketID
		return s.write(ctx, rel)
	case *packet.PubRel:
		if _, ok := s.inFlight.get(p.PacketID); !ok {
			return ErrUnexpectedPacket
		}
		if s.handlers.OnPubRel != nil {
			if err := s.handlers.OnPubRel(p); err != nil {
				return err
			}
		}
		comp := &packet.PubComp{FixedHeader: &packet.FixedHeader{Version: s.version, Kind: PUBCOMP}}
		comp.PacketID = p.PacketID
		return s.write(ctx, comp)
	case *packet.PubComp:
		if s.handlers.OnPubComp != nil {
			return s.handlers.OnPubComp(p)
		}
	case *packet.SubAck:
		if s.handlers.OnSubAck != nil {
			return s.handlers.OnSubAck(p)
		}
	case *packet.UnsubAck:
		if s.handlers.OnUnsubAck != nil {
			return s.handlers.OnUnsubAck(p)
		}
	case *packet.PingResp:
		s.keepAlive.pong()
		if s.handlers.OnPingResp != nil {
			return s.handlers.OnPingResp(p)
		}
	default:
		return ErrUnexpectedPacket
	}
	return nil
}
