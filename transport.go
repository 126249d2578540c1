package mqtt

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/url"
	"time"

	"golang.org/x/net/websocket"
)

// Context is the transport a Session reads and writes MQTT bytes over. It is
// deliberately narrower than net.Conn: a Session never needs to know the
// remote address or close a listener, only read_some/read/write (C4.1), so
// any half-duplex or cooperatively-scheduled stream can implement it without
// pulling in net.Conn's full surface.
//
// ReadSome blocks until at least one byte has arrived and returns between 1
// and len(p) bytes; it returns zero bytes only together with an error (EOF,
// ctx's deadline, or a transport failure). The packet decoder treats a
// zero-byte read with a nil error as io.ErrNoProgress. Read blocks until p is completely
// filled or an error occurs, the way io.ReadFull does. Write blocks until
// all of p has been accepted by the transport or an error occurs.
type Context interface {
	ReadSome(ctx context.Context, p []byte) (n int, err error)
	Read(ctx context.Context, p []byte) (n int, err error)
	Write(ctx context.Context, p []byte) (n int, err error)
}

// netConnContext adapts a net.Conn (tcp, tls, or the websocket.Conn the
// teacher's dial() returns) to Context by translating ctx deadlines into
// SetReadDeadline/SetWriteDeadline calls.
type netConnContext struct {
	net.Conn
}

// NewNetConnContext wraps an already-established net.Conn as a Context.
func NewNetConnContext(c net.Conn) Context {
	return &netConnContext{Conn: c}
}

func (c *netConnContext) withDeadline(ctx context.Context, set func(time.Time) error) (undo func(), err error) {
	dl, ok := ctx.Deadline()
	if !ok {
		return func() {}, nil
	}
	if err := set(dl); err != nil {
		return nil, err
	}
	return func() { _ = set(time.Time{}) }, nil
}

func (c *netConnContext) ReadSome(ctx context.Context, p []byte) (int, error) {
	undo, err := c.withDeadline(ctx, c.Conn.SetReadDeadline)
	if err != nil {
		return 0, err
	}
	defer undo()
	n, err := c.Conn.Read(p)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		return n, err
	}
	return n, err
}

func (c *netConnContext) Read(ctx context.Context, p []byte) (int, error) {
	undo, err := c.withDeadline(ctx, c.Conn.SetReadDeadline)
	if err != nil {
		return 0, err
	}
	defer undo()
	return io.ReadFull(c.Conn, p)
}

func (c *netConnContext) Write(ctx context.Context, p []byte) (int, error) {
	undo, err := c.withDeadline(ctx, c.Conn.SetWriteDeadline)
	if err != nil {
		return 0, err
	}
	defer undo()
	written := 0
	for written < len(p) {
		n, err := c.Conn.Write(p[written:])
		written += n
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// Dial establishes a Context over the scheme encoded in u (mqtt/tcp,
// mqtts/tls, ws, wss), mirroring the teacher's Client.dial scheme switch.
// dialTCP and dialTLS let a Client substitute its own dial hooks the way
// the teacher's DialContext/DialTLSContext fields do.
func Dial(ctx context.Context, u *url.URL, tlsConfig *tls.Config, dialTCP, dialTLS func(ctx context.Context, network, addr string) (net.Conn, error)) (Context, error) {
	addr := u.Host
	switch u.Scheme {
	case "mqtt", "tcp":
		if dialTCP != nil {
			c, err := dialTCP(ctx, "tcp", addr)
			if err != nil {
				return nil, err
			}
			return NewNetConnContext(c), nil
		}
		c, err := (&net.Dialer{}).DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, err
		}
		return NewNetConnContext(c), nil
	case "mqtts", "tls":
		if dialTLS != nil {
			c, err := dialTLS(ctx, "tcp", addr)
			if err != nil {
				return nil, err
			}
			return NewNetConnContext(c), nil
		}
		c, err := tls.DialWithDialer(&net.Dialer{}, "tcp", addr, tlsConfig)
		if err != nil {
			return nil, err
		}
		return NewNetConnContext(c), nil
	case "ws", "wss":
		path := u.Path
		if path == "" {
			path = "/mqtt"
		}
		loc := &url.URL{Scheme: u.Scheme, Host: addr, Path: path}
		originScheme := "http"
		if u.Scheme == "wss" {
			originScheme = "https"
		}
		origin := &url.URL{Scheme: originScheme, Host: addr}

		cfg, err := websocket.NewConfig(loc.String(), origin.String())
		if err != nil {
			return nil, err
		}
		cfg.Protocol = []string{"mqtt"}
		if u.Scheme == "wss" {
			cfg.TlsConfig = tlsConfig
		}
		ws, err := websocket.DialConfig(cfg)
		if err != nil {
			return nil, err
		}
		ws.PayloadType = websocket.BinaryFrame
		return NewNetConnContext(ws), nil
	default:
		return nil, errors.New("mqtt: unsupported URL scheme " + u.Scheme)
	}
}
