package mqtt

import (
	"context"
	"crypto/tls"
	"log"
	"net"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"
)

// Client is the reconnecting convenience wrapper around Session, grounded
// on the teacher's ConnectAndSubscribe/unpack orchestration: it owns the
// dial loop, redials on any session error with the teacher's fixed 3s
// backoff, and runs the keep-alive clock and the inbound read loop as
// sibling goroutines under a single errgroup per connection attempt.
//
// Client is a convenience layer on top of Session, not part of the core
// session engine: the engine itself only ever speaks to a Context, never
// dials one.
type Client struct {
	URL *url.URL

	DialContext    func(ctx context.Context, network, addr string) (net.Conn, error)
	DialTLSContext func(ctx context.Context, network, addr string) (net.Conn, error)
	TLSClientConfig *tls.Config

	options  Options
	handlers Handlers

	session *Session
}

// NewClient builds a Client from functional Options, the way the teacher's
// mqtt.New does.
func NewClient(handlers Handlers, opts ...Option) *Client {
	options := newOptions(opts...)
	u, err := url.Parse(options.URL)
	if err != nil {
		panic(err)
	}
	return &Client{URL: u, options: options, handlers: handlers}
}

// Session returns the session built over the most recently dialed
// transport, or nil before the first successful dial. It is set before
// CONNECT is sent, so it may be a session whose Connect failed.
func (c *Client) Session() *Session { return c.session }

// Run dials, connects, subscribes, and serves inbound traffic until ctx is
// canceled, reconnecting with the teacher's 3-second backoff on any
// failure in between.
func (c *Client) Run(ctx context.Context) error {
	timer := time.NewTimer(0)
	defer timer.Stop()
	count := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			timer.Reset(3 * time.Second)
		}
		if err := c.runOnce(ctx); err != nil {
			count++
			if count == 1 || count%10 == 0 {
				log.Printf("mqtt: client %s connect/serve error[%d]: %v", c.options.ClientID, count, err)
			}
		} else {
			count = 0
		}
	}
}

func (c *Client) runOnce(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, c.options.ConnectTimeout)
	transport, err := Dial(dialCtx, c.URL, c.TLSClientConfig, c.DialContext, c.DialTLSContext)
	cancel()
	if err != nil {
		return err
	}

	session := NewSessionFromOptions(transport, c.options, c.handlers)
	c.session = session
	defer session.Close(context.Background())

	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		<-gctx.Done()
		return session.Disconnect(context.Background())
	})

	group.Go(func() error {
		connectCtx, cancel := context.WithTimeout(gctx, c.options.ConnectTimeout)
		defer cancel()
		if err := session.Connect(connectCtx, c.options.ClientID, c.options.CleanStart, c.options.KeepAlive); err != nil {
			return err
		}
		if len(c.options.Subscriptions) > 0 {
			if err := session.Subscribe(gctx, c.options.Subscriptions, 1); err != nil {
				return err
			}
		}
		return c.serve(gctx, session)
	})

	return group.Wait()
}

// serve runs the keep-alive clock and the inbound read loop side by side,
// the way the teacher's ServeMessageLoop ran alongside the ping machinery.
func (c *Client) serve(ctx context.Context, session *Session) error {
	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case now := <-ticker.C:
				if err := session.UpdateState(gctx, now); err != nil {
					return err
				}
			}
		}
	})

	group.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			if _, err := session.ProcessOne(gctx, 4096); err != nil {
				return err
			}
		}
	})

	return group.Wait()
}
