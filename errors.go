package mqtt

import "errors"

// Session-level errors (distinct from packet's wire-level errors). These
// surface from Connect/Publish/Subscribe/ProcessOne when the failure isn't
// a malformed packet but a protocol- or connection-level condition.
var (
	// ErrConnectionTimedOut is surfaced by UpdateState when a PINGREQ goes
	// unanswered past the fixed pong timeout (C8).
	ErrConnectionTimedOut = errors.New("mqtt: connection timed out waiting for PINGRESP")

	// ErrConnectRejected is returned by Connect when the broker's CONNACK
	// return/reason code is not success.
	ErrConnectRejected = errors.New("mqtt: connect rejected by broker")

	// ErrUnexpectedPacket is returned by ProcessOne, and by the calls that
	// wait for a reply (Connect, Subscribe, Unsubscribe), when an inbound
	// packet is of a kind a client never receives (CONNECT, SUBSCRIBE,
	// UNSUBSCRIBE, PINGREQ, DISCONNECT, AUTH), or is a PUBREL whose packet
	// identifier has no QoS-2 publish awaiting it. A packet kind whose
	// handler is unset is not an error.
	ErrUnexpectedPacket = errors.New("mqtt: unexpected packet kind")

	// ErrSessionClosed is returned by every call that writes a packet
	// (Connect, Publish, Subscribe, Ping, ...) once Close has run.
	// ProcessOne does not check it.
	ErrSessionClosed = errors.New("mqtt: session closed")
)
