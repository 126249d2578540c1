package packet

import (
	"bytes"
	"testing"
)

// decodeChunked feeds raw to a fresh Decoder n bytes at a time (n == chunk),
// proving the resumable state machine doesn't care where the transport
// happens to split the stream.
func decodeChunked(t *testing.T, version byte, raw []byte, chunk int) Packet {
	t.Helper()
	d := NewDecoder(version)
	r := bytes.NewReader(raw)
	for {
		buf := make([]byte, chunk)
		n, _ := r.Read(buf)
		if n == 0 {
			t.Fatal("ran out of input before decode completed")
		}
		src := NewSource(bytes.NewReader(buf[:n]), n)
		pkt, done, err := d.Feed(src)
		if err != nil {
			t.Fatalf("Feed: %v", err)
		}
		if done {
			return pkt
		}
	}
}

func TestConnectRoundTripV311(t *testing.T) {
	pkt := &Connect{
		FixedHeader:  &FixedHeader{Version: VERSION311, Kind: CONNECT},
		ConnectFlags: MakeConnectFlags(true, false, 0, false, false, false),
		KeepAlive:    30,
		ClientID:     "name",
	}
	raw, err := pkt.Encode(nil)
	if err != nil {
		t.Fatal(err)
	}

	want := []byte{0x10, 0x10, 0x00, 0x04, 'M', 'Q', 'T', 'T', 0x04, 0x02, 0x00, 0x1E, 0x00, 0x04, 'n', 'a', 'm', 'e'}
	if !bytes.Equal(raw, want) {
		t.Fatalf("encode mismatch:\ngot  % x\nwant % x", raw, want)
	}

	for chunk := 1; chunk <= len(raw); chunk++ {
		got := decodeChunked(t, VERSION311, raw, chunk)
		c, ok := got.(*Connect)
		if !ok {
			t.Fatalf("chunk %d: wrong type %T", chunk, got)
		}
		if c.ClientID != "name" || c.KeepAlive != 30 || !c.ConnectFlags.CleanStart() {
			t.Fatalf("chunk %d: got %+v", chunk, c)
		}
	}
}

func TestConnectEncodeRejectsEmptyClientIDWithoutCleanStart(t *testing.T) {
	pkt := &Connect{
		FixedHeader:  &FixedHeader{Version: VERSION311, Kind: CONNECT},
		ConnectFlags: MakeConnectFlags(false, false, 0, false, false, false),
		KeepAlive:    10,
	}
	if _, err := pkt.Encode(nil); err != ErrEmptyClientIdentifier {
		t.Fatalf("expected ErrEmptyClientIdentifier, got %v", err)
	}
}

func TestConnectDecodeRejectsEmptyClientIDWithoutCleanStart(t *testing.T) {
	// Hand-built wire bytes for a CONNECT with clean_start=0 and an empty
	// client identifier: a peer may emit this even though our own Encode
	// now refuses to, so the decoder must still reject it independently.
	raw := []byte{
		0x10, 0x0C, // fixed header: CONNECT, remaining length 12
		0x00, 0x04, 'M', 'Q', 'T', 'T', // protocol name
		0x04,       // version 3.1.1
		0x00,       // connect flags: clean_start=0
		0x00, 0x0A, // keep alive = 10
		0x00, 0x00, // client id: empty blob
	}
	d := NewDecoder(VERSION311)
	src := NewSource(bytes.NewReader(raw), len(raw))
	_, _, err := d.Feed(src)
	if err != ErrEmptyClientIdentifier {
		t.Fatalf("expected ErrEmptyClientIdentifier, got %v", err)
	}
}

func TestPublishRoundTripV311(t *testing.T) {
	pkt := &Publish{
		FixedHeader: &FixedHeader{Version: VERSION311, Kind: PUBLISH, QoS: 0},
		TopicName:   "a/b",
		Payload:     []byte("hi"),
	}
	raw, err := pkt.Encode(nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x30, 0x07, 0x00, 0x03, 'a', '/', 'b', 'h', 'i'}
	if !bytes.Equal(raw, want) {
		t.Fatalf("encode mismatch:\ngot  % x\nwant % x", raw, want)
	}

	got := decodeChunked(t, VERSION311, raw, 1)
	p, ok := got.(*Publish)
	if !ok {
		t.Fatalf("wrong type %T", got)
	}
	if p.TopicName != "a/b" || p.PayloadSize != 2 {
		t.Fatalf("got %+v", p)
	}
}

func TestPublishQoS1RequiresPacketID(t *testing.T) {
	pkt := &Publish{
		FixedHeader: &FixedHeader{Version: VERSION311, Kind: PUBLISH, QoS: 1},
		TopicName:   "a/b",
		Payload:     []byte("hi"),
	}
	if _, err := pkt.Encode(nil); err != ErrPacketIdentifierNotFound {
		t.Fatalf("expected ErrPacketIdentifierNotFound, got %v", err)
	}
}

func TestPubAckShortFormV5(t *testing.T) {
	pkt := &PubAck{
		FixedHeader:     &FixedHeader{Version: VERSION500, Kind: PUBACK},
		pubResponseBody: pubResponseBody{PacketID: 7, ReasonCode: CodeSuccess},
	}
	raw, err := pkt.Encode(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) != 4 { // 1 header byte + 1 remaining-length byte + 2 packet-id bytes
		t.Fatalf("expected short form (4 bytes), got % x", raw)
	}

	got := decodeChunked(t, VERSION500, raw, 1)
	pa, ok := got.(*PubAck)
	if !ok {
		t.Fatalf("wrong type %T", got)
	}
	if pa.PacketID != 7 || !pa.ReasonCode.IsSuccess() {
		t.Fatalf("got %+v", pa)
	}
}

func TestSubscribeRoundTrip(t *testing.T) {
	pkt := &Subscribe{
		FixedHeader: &FixedHeader{Version: VERSION311, Kind: SUBSCRIBE, QoS: 1},
		PacketID:    5,
		Subscriptions: []Subscription{
			{TopicFilter: "a/+", QoS: 1},
			{TopicFilter: "b/#", QoS: 2},
		},
	}
	raw, err := pkt.Encode(nil)
	if err != nil {
		t.Fatal(err)
	}

	for chunk := 1; chunk <= len(raw); chunk++ {
		got := decodeChunked(t, VERSION311, raw, chunk)
		s, ok := got.(*Subscribe)
		if !ok {
			t.Fatalf("chunk %d: wrong type %T", chunk, got)
		}
		if len(s.Subscriptions) != 2 || s.Subscriptions[0].TopicFilter != "a/+" || s.Subscriptions[1].QoS != 2 {
			t.Fatalf("chunk %d: got %+v", chunk, s.Subscriptions)
		}
	}
}

func TestUnsubAckV311EmptyPayload(t *testing.T) {
	pkt := &UnsubAck{
		FixedHeader: &FixedHeader{Version: VERSION311, Kind: UNSUBACK},
		ackListBody: ackListBody{PacketID: 9},
	}
	raw, err := pkt.Encode(nil)
	if err != nil {
		t.Fatal(err)
	}
	got := decodeChunked(t, VERSION311, raw, 1)
	u, ok := got.(*UnsubAck)
	if !ok {
		t.Fatalf("wrong type %T", got)
	}
	if u.PacketID != 9 || len(u.ReasonCodes) != 0 {
		t.Fatalf("got %+v", u)
	}
}

func TestPingReqPingResp(t *testing.T) {
	req := &PingReq{FixedHeader: &FixedHeader{Version: VERSION311, Kind: PINGREQ}}
	raw, err := req.Encode(nil)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(raw, []byte{0xC0, 0x00}) {
		t.Fatalf("got % x", raw)
	}
	got := decodeChunked(t, VERSION311, raw, 1)
	if _, ok := got.(*PingReq); !ok {
		t.Fatalf("wrong type %T", got)
	}

	resp := &PingResp{FixedHeader: &FixedHeader{Version: VERSION311, Kind: PINGRESP}}
	raw, err = resp.Encode(nil)
	if err != nil {
		t.Fatal(err)
	}
	got = decodeChunked(t, VERSION311, raw, 1)
	if _, ok := got.(*PingResp); !ok {
		t.Fatalf("wrong type %T", got)
	}
}

func TestDisconnectV5WithReasonCode(t *testing.T) {
	pkt := &Disconnect{
		FixedHeader:     &FixedHeader{Version: VERSION500, Kind: DISCONNECT},
		reasonPropsBody: reasonPropsBody{ReasonCode: ErrServerBusy},
	}
	raw, err := pkt.Encode(nil)
	if err != nil {
		t.Fatal(err)
	}
	got := decodeChunked(t, VERSION500, raw, 1)
	d, ok := got.(*Disconnect)
	if !ok {
		t.Fatalf("wrong type %T", got)
	}
	if d.ReasonCode.Code != ErrServerBusy.Code {
		t.Fatalf("got %+v", d.ReasonCode)
	}
}
