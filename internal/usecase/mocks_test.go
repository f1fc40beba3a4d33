package usecase

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/rocketscienceinc/fourinarow-backend/internal/entity"
	"github.com/stretchr/testify/mock"
)

type inbound struct {
	peer    string
	message string
	err     error
}

type sentMessage struct {
	peer    string
	message string
}

// fakeTransport replays scripted inbound messages. Once a script runs dry the
// receive blocks until ctx is done, like a silent network.
type fakeTransport struct {
	mu sync.Mutex

	any      []inbound
	from     map[string][]inbound
	failSend map[string]error

	sent     []sentMessage
	released []string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		from:     make(map[string][]inbound),
		failSend: make(map[string]error),
	}
}

func (that *fakeTransport) handshake(peer, name string) *fakeTransport {
	that.any = append(that.any, inbound{peer: peer, message: name})
	return that
}

func (that *fakeTransport) script(peer string, messages ...string) *fakeTransport {
	for _, message := range messages {
		that.from[peer] = append(that.from[peer], inbound{peer: peer, message: message})
	}
	return that
}

func (that *fakeTransport) failReceive(peer string, err error) *fakeTransport {
	that.from[peer] = append(that.from[peer], inbound{peer: peer, err: err})
	return that
}

func (that *fakeTransport) Send(peer, message string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.failSend[peer]; err != nil {
		return err
	}

	that.sent = append(that.sent, sentMessage{peer: peer, message: message})

	return nil
}

func (that *fakeTransport) ReceiveAny(ctx context.Context) (string, string, error) {
	that.mu.Lock()
	if len(that.any) == 0 {
		that.mu.Unlock()
		<-ctx.Done()
		return "", "", ctx.Err()
	}

	next := that.any[0]
	that.any = that.any[1:]
	that.mu.Unlock()

	return next.peer, next.message, next.err
}

func (that *fakeTransport) ReceiveFrom(ctx context.Context, peer string) (string, error) {
	that.mu.Lock()
	queue := that.from[peer]
	if len(queue) == 0 {
		that.mu.Unlock()
		<-ctx.Done()
		return "", ctx.Err()
	}

	next := queue[0]
	that.from[peer] = queue[1:]
	that.mu.Unlock()

	return next.message, next.err
}

func (that *fakeTransport) Release(peer string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.released = append(that.released, peer)
}

func (that *fakeTransport) sentTo(peer string) []string {
	that.mu.Lock()
	defer that.mu.Unlock()

	messages := make([]string, 0)
	for _, sent := range that.sent {
		if sent.peer == peer {
			messages = append(messages, sent.message)
		}
	}

	return messages
}

type mockMatchRepo struct {
	mock.Mock
}

func newMockMatchRepo(t *testing.T) *mockMatchRepo {
	t.Helper()

	repo := &mockMatchRepo{}
	repo.Test(t)
	t.Cleanup(func() {
		repo.AssertExpectations(t)
	})

	return repo
}

func (that *mockMatchRepo) CreateOrUpdate(ctx context.Context, snapshot *entity.Snapshot) error {
	return that.Called(ctx, snapshot).Error(0)
}

func (that *mockMatchRepo) DeleteByID(ctx context.Context, id string) error {
	return that.Called(ctx, id).Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func newMockPublisher(t *testing.T) *mockPublisher {
	t.Helper()

	publisher := &mockPublisher{}
	publisher.Test(t)
	t.Cleanup(func() {
		publisher.AssertExpectations(t)
	})

	return publisher
}

func (that *mockPublisher) Publish(ctx context.Context, event entity.Event) error {
	return that.Called(ctx, event).Error(0)
}

func eventOfType(eventType entity.EventType) interface{} {
	return mock.MatchedBy(func(event entity.Event) bool {
		return event.Type == eventType
	})
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
