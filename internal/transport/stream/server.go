// Package stream is the TCP transport: one connection per participant,
// newline-delimited messages, a reader goroutine per connection.
package stream

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rocketscienceinc/fourinarow-backend/internal/transport"
)

const (
	arrivalBacklog = 64
	lineBuffer     = 16
	writeTimeout   = 10 * time.Second
)

type Server struct {
	logger   *slog.Logger
	listener net.Listener
	options  transport.Options

	arrivals chan *connection
	done     chan struct{}
	closed   sync.Once
	seq      atomic.Uint64

	connectionsMutex sync.RWMutex
	connections      map[string]*connection
}

type connection struct {
	id   string
	conn net.Conn

	lines chan string
	err   error // valid once lines is closed

	writeMutex sync.Mutex
	released   chan struct{}
	release    sync.Once
}

// Listen binds the listener, e.g. ":4444", and starts accepting connections.
func Listen(logger *slog.Logger, addr string, options transport.Options) (*Server, error) {
	listener, err := net.Listen(transport.NetworkTCP, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	server := &Server{
		logger:   logger.With("component", "stream"),
		listener: listener,
		options:  options,

		arrivals:    make(chan *connection, arrivalBacklog),
		done:        make(chan struct{}),
		connections: make(map[string]*connection),
	}

	go server.acceptLoop()

	return server, nil
}

func (that *Server) Addr() net.Addr {
	return that.listener.Addr()
}

func (that *Server) acceptLoop() {
	log := that.logger.With("method", "acceptLoop")

	for {
		conn, err := that.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}

			log.Error("failed to accept connection", "error", err)
			continue
		}

		c := &connection{
			id:       fmt.Sprintf("%s#%d", conn.RemoteAddr(), that.seq.Add(1)),
			conn:     conn,
			lines:    make(chan string, lineBuffer),
			released: make(chan struct{}),
		}

		that.connectionsMutex.Lock()
		that.connections[c.id] = c
		that.connectionsMutex.Unlock()

		log.Info("connection accepted", "peer", c.id)

		go that.readLoop(c)

		select {
		case that.arrivals <- c:
		case <-that.done:
			_ = conn.Close()
			return
		}
	}
}

func (that *Server) readLoop(c *connection) {
	defer close(c.lines)

	scanner := bufio.NewScanner(c.conn)
	for scanner.Scan() {
		select {
		case c.lines <- strings.TrimSpace(scanner.Text()):
		case <-c.released:
			c.err = net.ErrClosed
			return
		case <-that.done:
			c.err = transport.ErrClosed
			return
		}
	}

	c.err = scanner.Err()
	if c.err == nil {
		c.err = io.EOF
	}
}

// ReceiveAny returns the first message of the next connection in accept order.
// Connections that drop before saying anything are skipped.
func (that *Server) ReceiveAny(ctx context.Context) (string, string, error) {
	log := that.logger.With("method", "ReceiveAny")

	for {
		var c *connection

		select {
		case c = <-that.arrivals:
		case <-ctx.Done():
			return "", "", ctx.Err()
		case <-that.done:
			return "", "", transport.ErrClosed
		}

		message, err := that.receive(ctx, c, 0)
		if err != nil {
			if errors.Is(err, transport.ErrPeerLost) {
				log.Info("connection dropped before handshake", "peer", c.id, "error", err)
				that.Release(c.id)
				continue
			}

			return "", "", err
		}

		return c.id, message, nil
	}
}

// ReceiveFrom returns the next message on peer's connection.
func (that *Server) ReceiveFrom(ctx context.Context, peer string) (string, error) {
	c, err := that.lookup(peer)
	if err != nil {
		return "", err
	}

	return that.receive(ctx, c, that.options.ReceiveTimeout)
}

func (that *Server) receive(ctx context.Context, c *connection, timeout time.Duration) (string, error) {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case line, ok := <-c.lines:
		if !ok {
			return "", fmt.Errorf("%w: %s: %w", transport.ErrPeerLost, c.id, c.err)
		}

		return line, nil
	case <-expired:
		return "", fmt.Errorf("%w: %s: nothing received within %s", transport.ErrPeerLost, c.id, timeout)
	case <-ctx.Done():
		return "", ctx.Err()
	case <-that.done:
		return "", transport.ErrClosed
	}
}

// Send writes message and a trailing newline to peer's connection.
func (that *Server) Send(peer, message string) error {
	c, err := that.lookup(peer)
	if err != nil {
		return err
	}

	c.writeMutex.Lock()
	defer c.writeMutex.Unlock()

	if err = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("%w: %s: %w", transport.ErrPeerLost, peer, err)
	}

	if _, err = io.WriteString(c.conn, message+"\n"); err != nil {
		return fmt.Errorf("%w: failed to send to %s: %w", transport.ErrPeerLost, peer, err)
	}

	return nil
}

// Release closes peer's connection and forgets it.
func (that *Server) Release(peer string) {
	that.connectionsMutex.Lock()
	c, ok := that.connections[peer]
	delete(that.connections, peer)
	that.connectionsMutex.Unlock()

	if !ok {
		return
	}

	c.release.Do(func() {
		close(c.released)

		if err := c.conn.Close(); err != nil {
			that.logger.Debug("failed to close connection", "peer", peer, "error", err)
		}
	})
}

func (that *Server) Close() error {
	var err error

	that.closed.Do(func() {
		close(that.done)
		err = that.listener.Close()

		that.connectionsMutex.RLock()
		peers := make([]string, 0, len(that.connections))
		for peer := range that.connections {
			peers = append(peers, peer)
		}
		that.connectionsMutex.RUnlock()

		for _, peer := range peers {
			that.Release(peer)
		}
	})

	if err != nil {
		return fmt.Errorf("failed to close listener: %w", err)
	}

	return nil
}

func (that *Server) lookup(peer string) (*connection, error) {
	that.connectionsMutex.RLock()
	c, ok := that.connections[peer]
	that.connectionsMutex.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %w: %s", transport.ErrPeerLost, transport.ErrUnknownPeer, peer)
	}

	return c, nil
}
