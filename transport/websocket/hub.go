package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/fourinarow-backend/internal/entity"
)

const (
	sendBuffer      = 32
	writeTimeout    = 5 * time.Second
	shutdownTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(_ *http.Request) bool { return true },
}

type spectator struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub streams match events to every connected spectator. Spectators only
// listen; anything they send is discarded.
type Hub struct {
	logger *slog.Logger

	mu         sync.Mutex
	spectators map[*spectator]struct{}
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:     logger.With("component", "spectators"),
		spectators: make(map[*spectator]struct{}),
	}
}

// Publish queues event for every spectator. Spectators that cannot keep up are dropped.
func (that *Hub) Publish(_ context.Context, event entity.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	for s := range that.spectators {
		select {
		case s.send <- payload:
		default:
			that.logger.Warn("dropping slow spectator", "remote", s.conn.RemoteAddr().String())
			that.remove(s)
		}
	}

	return nil
}

func (that *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "ServeHTTP")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("failed to upgrade connection", "error", err)
		return
	}

	s := &spectator{
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	that.mu.Lock()
	that.spectators[s] = struct{}{}
	that.mu.Unlock()

	log.Info("spectator connected", "remote", conn.RemoteAddr().String())

	go that.writeLoop(s)
	that.readLoop(s)
}

func (that *Hub) Count() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.spectators)
}

// Start serves the hub on /ws until ctx is cancelled.
func (that *Hub) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", that)

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
		that.closeAll()
	})
	defer stop()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// readLoop drains incoming frames so control messages are handled and a
// closed connection is noticed.
func (that *Hub) readLoop(s *spectator) {
	defer that.disconnect(s)

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (that *Hub) writeLoop(s *spectator) {
	defer s.conn.Close()

	for payload := range s.send {
		_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))

		if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			that.logger.Debug("failed to write to spectator", "error", err)
			that.disconnect(s)
			return
		}
	}

	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeTimeout))
}

func (that *Hub) disconnect(s *spectator) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.remove(s)
}

func (that *Hub) closeAll() {
	that.mu.Lock()
	defer that.mu.Unlock()

	for s := range that.spectators {
		that.remove(s)
	}
}

// remove must be called with mu held.
func (that *Hub) remove(s *spectator) {
	if _, ok := that.spectators[s]; !ok {
		return
	}

	delete(that.spectators, s)
	close(s.send)
}
