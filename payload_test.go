package mqtt

import (
	"bytes"
	"context"
	"io"
	"testing"
)

// fakeReadContext is a minimal Context backed by an in-memory buffer, enough
// to drive payloadStream and Session without a real transport.
type fakeReadContext struct {
	r *bytes.Reader
}

func (f *fakeReadContext) ReadSome(_ context.Context, p []byte) (int, error) {
	return f.r.Read(p)
}
func (f *fakeReadContext) Read(_ context.Context, p []byte) (int, error) {
	return io.ReadFull(f.r, p)
}
func (f *fakeReadContext) Write(_ context.Context, p []byte) (int, error) {
	return len(p), nil
}

func TestPayloadStreamBoundsReads(t *testing.T) {
	ctx := &fakeReadContext{r: bytes.NewReader([]byte("hello, world"))}
	p := newPayloadStream(ctx, context.Background(), 5)

	buf := make([]byte, 3)
	n, err := p.Read(buf)
	if err != nil || n != 3 {
		t.Fatalf("first read: n=%d err=%v", n, err)
	}

	n, err = p.Read(buf)
	if err != nil || n != 2 {
		t.Fatalf("second read: n=%d err=%v, want 2 bytes left in bound", n, err)
	}

	n, err = p.Read(buf)
	if err != io.EOF || n != 0 {
		t.Fatalf("third read: n=%d err=%v, want EOF", n, err)
	}
}

func TestPayloadStreamReleasedTracksUnreadBytes(t *testing.T) {
	ctx := &fakeReadContext{r: bytes.NewReader([]byte("0123456789"))}
	p := newPayloadStream(ctx, context.Background(), 10)

	if got := p.released(); got != 10 {
		t.Fatalf("released before any read: got %d, want 10", got)
	}

	buf := make([]byte, 4)
	if _, err := p.Read(buf); err != nil {
		t.Fatal(err)
	}
	if got := p.released(); got != 6 {
		t.Fatalf("released after reading 4: got %d, want 6", got)
	}

	if _, err := p.Read(buf); err != nil {
		t.Fatal(err)
	}
	if got := p.released(); got != 2 {
		t.Fatalf("released after reading 8: got %d, want 2", got)
	}
}

func TestPayloadStreamIgnoredEntirelyReleasesFullSize(t *testing.T) {
	ctx := &fakeReadContext{r: bytes.NewReader([]byte("unread payload bytes"))}
	p := newPayloadStream(ctx, context.Background(), 21)

	if got := p.released(); got != 21 {
		t.Fatalf("got %d, want 21 (on_publish never read it)", got)
	}
}
