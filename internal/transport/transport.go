// Package transport holds what the datagram and stream adapters share.
//
// Both adapters deliver whole text messages to and from a peer identity: the
// "address:port" of a datagram sender, or a per-connection handle for streams.
// ReceiveFrom blocks until a message from the expected peer arrives; messages
// from anyone else are either discarded (datagram) or left queued on their own
// connection (stream).
package transport

import (
	"errors"
	"time"
)

var (
	ErrPeerLost    = errors.New("peer lost")
	ErrUnknownPeer = errors.New("unknown peer")
	ErrClosed      = errors.New("transport closed")
)

const (
	NetworkUDP = "udp"
	NetworkTCP = "tcp"
)

// Options configures both adapters.
type Options struct {
	// ReceiveTimeout bounds ReceiveFrom. Zero waits forever.
	ReceiveTimeout time.Duration
}
