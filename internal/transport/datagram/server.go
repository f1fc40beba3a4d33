// Package datagram is the UDP transport: one shared socket, peers identified by
// the address and port observed on each received packet.
package datagram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rocketscienceinc/fourinarow-backend/internal/transport"
)

const maxDatagramSize = 1024

type Server struct {
	logger  *slog.Logger
	conn    net.PacketConn
	options transport.Options

	readMu sync.Mutex
}

// Listen binds the shared socket, e.g. ":4444".
func Listen(logger *slog.Logger, addr string, options transport.Options) (*Server, error) {
	conn, err := net.ListenPacket(transport.NetworkUDP, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	return &Server{
		logger:  logger.With("component", "datagram"),
		conn:    conn,
		options: options,
	}, nil
}

func (that *Server) Addr() net.Addr {
	return that.conn.LocalAddr()
}

// Send writes message as a single datagram to peer.
func (that *Server) Send(peer, message string) error {
	addr, err := net.ResolveUDPAddr(transport.NetworkUDP, peer)
	if err != nil {
		return fmt.Errorf("%w: %w: %s", transport.ErrPeerLost, transport.ErrUnknownPeer, peer)
	}

	if _, err = that.conn.WriteTo([]byte(message), addr); err != nil {
		return fmt.Errorf("%w: failed to send to %s: %w", transport.ErrPeerLost, peer, err)
	}

	return nil
}

// ReceiveAny returns the next datagram from whoever sent it.
func (that *Server) ReceiveAny(ctx context.Context) (string, string, error) {
	return that.read(ctx, time.Time{})
}

// ReceiveFrom discards datagrams from other senders until one from peer arrives.
func (that *Server) ReceiveFrom(ctx context.Context, peer string) (string, error) {
	log := that.logger.With("method", "ReceiveFrom", "peer", peer)

	var deadline time.Time
	if that.options.ReceiveTimeout > 0 {
		deadline = time.Now().Add(that.options.ReceiveTimeout)
	}

	for {
		sender, message, err := that.read(ctx, deadline)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}

			if errors.Is(err, os.ErrDeadlineExceeded) {
				return "", fmt.Errorf("%w: %s: nothing received within %s", transport.ErrPeerLost, peer, that.options.ReceiveTimeout)
			}

			return "", fmt.Errorf("%w: %s: %w", transport.ErrPeerLost, peer, err)
		}

		if sender != peer {
			log.Debug("discarding datagram from unexpected sender", "sender", sender)
			continue
		}

		return message, nil
	}
}

// Release is a no-op: datagram peers hold no resources.
func (that *Server) Release(string) {}

func (that *Server) Close() error {
	if err := that.conn.Close(); err != nil {
		return fmt.Errorf("failed to close socket: %w", err)
	}

	return nil
}

func (that *Server) read(ctx context.Context, deadline time.Time) (string, string, error) {
	that.readMu.Lock()
	defer that.readMu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	if err := that.conn.SetReadDeadline(deadline); err != nil {
		return "", "", fmt.Errorf("failed to set read deadline: %w", err)
	}

	// unblock ReadFrom when ctx is cancelled
	stop := context.AfterFunc(ctx, func() {
		_ = that.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	buf := make([]byte, maxDatagramSize)

	n, addr, err := that.conn.ReadFrom(buf)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", "", ctxErr
		}

		if errors.Is(err, net.ErrClosed) {
			return "", "", transport.ErrClosed
		}

		return "", "", fmt.Errorf("failed to read datagram: %w", err)
	}

	return addr.String(), strings.TrimSpace(string(buf[:n])), nil
}
