package mqtt

import (
	"context"
	"io"
)

// payloadStream is the bounded view over the transport handed to on_publish
// (C7): it yields at most Size bytes total, however the callback chooses to
// read them, and tracks how many remain un-consumed so the session can
// drain the rest of the frame on callback return even if the callback never
// touched it.
type payloadStream struct {
	ctx   Context
	cctx  context.Context
	Size  int
	read  int
}

func newPayloadStream(ctx Context, cctx context.Context, size int) *payloadStream {
	return &payloadStream{ctx: ctx, cctx: cctx, Size: size}
}

// Read implements io.Reader, bounding reads to the unread remainder of the
// publish payload regardless of len(p).
func (p *payloadStream) Read(b []byte) (int, error) {
	remaining := p.Size - p.read
	if remaining <= 0 {
		return 0, io.EOF
	}
	if len(b) > remaining {
		b = b[:remaining]
	}
	n, err := p.ctx.ReadSome(p.cctx, b)
	p.read += n
	return n, err
}

// released is the byte count the session must still skip from the
// transport before it can safely parse the next packet; the session
// records this on its skip counter rather than draining synchronously
// here, so a callback that ignores the payload never blocks itself.
func (p *payloadStream) released() int {
	return p.Size - p.read
}
