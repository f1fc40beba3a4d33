package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rocketscienceinc/fourinarow-backend/internal/entity"
	"github.com/rocketscienceinc/fourinarow-backend/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	alicePeer = "peer-a"
	bobPeer   = "peer-b"
)

var errPublisherDown = errors.New("publisher down")

func startedMatch(t *testing.T, rows, cols int) *entity.Match {
	t.Helper()

	rules := entity.Rules{Rows: rows, Cols: cols, Symbols: [2]rune{'X', 'O'}}
	match := entity.NewMatch("m1", rules, entity.NewParticipant("alice", 'X', entity.ColorRed, alicePeer))
	require.NoError(t, match.Join(entity.NewParticipant("bob", 'O', entity.ColorYellow, bobPeer)))

	return match
}

func playContext(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)

	return ctx
}

func TestMatchRunner_Play(t *testing.T) {
	t.Run("Four in column 0 wins and both are told", func(t *testing.T) {
		// Given: alice plays column 0 four times, bob plays column 6
		tr := newFakeTransport().
			script(alicePeer, "MOVE 0", "MOVE 0", "MOVE 0", "MOVE 0").
			script(bobPeer, "MOVE 6", "MOVE 6", "MOVE 6")

		repo := newMockMatchRepo(t)
		repo.On("CreateOrUpdate", mock.Anything, mock.Anything).Return(nil).Times(7)
		repo.On("DeleteByID", mock.Anything, "m1").Return(nil).Once()

		publisher := newMockPublisher(t)
		publisher.On("Publish", mock.Anything, eventOfType(entity.EventCellPlaced)).Return(nil).Times(7)
		publisher.On("Publish", mock.Anything, eventOfType(entity.EventMatchEnded)).Return(nil).Once()

		runner := NewMatchRunner(discardLogger(), tr, NewRecorder(discardLogger(), repo, publisher))
		match := startedMatch(t, 6, 7)

		// When: the match is played
		runner.Play(playContext(t, 2*time.Second), match)

		// Then: alice wins after her fourth token lands on row 2
		assert.Equal(t, entity.StatusWon, match.Status)
		assert.Equal(t, []string{
			"YOUR_TURN", "MOVED 5 0 X",
			"WAIT_TURN", "MOVED 5 6 O",
			"YOUR_TURN", "MOVED 4 0 X",
			"WAIT_TURN", "MOVED 4 6 O",
			"YOUR_TURN", "MOVED 3 0 X",
			"WAIT_TURN", "MOVED 3 6 O",
			"YOUR_TURN", "MOVED 2 0 X",
			"WIN alice",
		}, tr.sentTo(alicePeer))

		bobMessages := tr.sentTo(bobPeer)
		assert.Equal(t, "MOVED 2 0 X", bobMessages[len(bobMessages)-2])
		assert.Equal(t, "WIN alice", bobMessages[len(bobMessages)-1])
	})

	t.Run("Unrecognized and illegal moves re-prompt the same mover", func(t *testing.T) {
		// Given: alice sends junk, an out of range column and a malformed move before a legal one
		tr := newFakeTransport().
			script(alicePeer, "hello", "MOVE 9", "MOVE x", "MOVE 0").
			script(bobPeer, "MOVE 0")

		repo := newMockMatchRepo(t)
		repo.On("CreateOrUpdate", mock.Anything, mock.Anything).Return(nil).Times(2)
		repo.On("DeleteByID", mock.Anything, "m1").Return(nil).Once()

		runner := NewMatchRunner(discardLogger(), tr, NewRecorder(discardLogger(), repo))
		match := startedMatch(t, 6, 7)

		// When: the match is played until the server gives up waiting
		runner.Play(playContext(t, 200*time.Millisecond), match)

		// Then: alice kept the turn until her legal move and nobody got an error reply
		assert.Equal(t, []string{
			"YOUR_TURN", "YOUR_TURN", "YOUR_TURN", "YOUR_TURN", "MOVED 5 0 X",
			"WAIT_TURN", "MOVED 4 0 O",
			"YOUR_TURN", "EXIT_OPPONENT_LEFT",
		}, tr.sentTo(alicePeer))
		assert.Equal(t, []string{
			"WAIT_TURN", "WAIT_TURN", "WAIT_TURN", "WAIT_TURN", "MOVED 5 0 X",
			"YOUR_TURN", "MOVED 4 0 O",
			"WAIT_TURN", "EXIT_OPPONENT_LEFT",
		}, tr.sentTo(bobPeer))
		assert.Equal(t, entity.StatusAborted, match.Status)
	})

	t.Run("Read failure of the mover aborts and tells the other participant", func(t *testing.T) {
		// Given: alice's connection breaks while it is her turn
		tr := newFakeTransport().failReceive(alicePeer, transport.ErrPeerLost)

		repo := newMockMatchRepo(t)
		repo.On("DeleteByID", mock.Anything, "m1").Return(nil).Once()

		publisher := newMockPublisher(t)
		publisher.On("Publish", mock.Anything, eventOfType(entity.EventMatchEnded)).Return(nil).Once()

		runner := NewMatchRunner(discardLogger(), tr, NewRecorder(discardLogger(), repo, publisher))
		match := startedMatch(t, 6, 7)

		// When: the match is played
		runner.Play(playContext(t, 2*time.Second), match)

		// Then: the match is aborted, bob is told and no more turns are announced
		assert.Equal(t, entity.StatusAborted, match.Status)
		assert.Equal(t, []string{"YOUR_TURN"}, tr.sentTo(alicePeer))
		assert.Equal(t, []string{"WAIT_TURN", "EXIT_OPPONENT_LEFT"}, tr.sentTo(bobPeer))
	})

	t.Run("Send failure treats the participant as lost", func(t *testing.T) {
		// Given: bob cannot be reached
		tr := newFakeTransport()
		tr.failSend[bobPeer] = transport.ErrPeerLost

		repo := newMockMatchRepo(t)
		repo.On("DeleteByID", mock.Anything, "m1").Return(nil).Once()

		runner := NewMatchRunner(discardLogger(), tr, NewRecorder(discardLogger(), repo))
		match := startedMatch(t, 6, 7)

		// When: the match is played
		runner.Play(playContext(t, 2*time.Second), match)

		// Then: alice learns her opponent left
		assert.Equal(t, entity.StatusAborted, match.Status)
		assert.Equal(t, []string{"YOUR_TURN", "EXIT_OPPONENT_LEFT"}, tr.sentTo(alicePeer))
	})

	t.Run("Full board without a win is a draw even if publishing fails", func(t *testing.T) {
		// Given: a 2x3 board filled column by column
		tr := newFakeTransport().
			script(alicePeer, "MOVE 0", "MOVE 1", "MOVE 2").
			script(bobPeer, "MOVE 0", "MOVE 1", "MOVE 2")

		repo := newMockMatchRepo(t)
		repo.On("CreateOrUpdate", mock.Anything, mock.Anything).Return(nil).Times(6)
		repo.On("DeleteByID", mock.Anything, "m1").Return(nil).Once()

		publisher := newMockPublisher(t)
		publisher.On("Publish", mock.Anything, mock.Anything).Return(errPublisherDown).Times(7)

		runner := NewMatchRunner(discardLogger(), tr, NewRecorder(discardLogger(), repo, publisher))
		match := startedMatch(t, 2, 3)

		// When: the match is played
		runner.Play(playContext(t, 2*time.Second), match)

		// Then: both participants get DRAW last
		assert.Equal(t, entity.StatusDraw, match.Status)
		for _, peer := range []string{alicePeer, bobPeer} {
			messages := tr.sentTo(peer)
			assert.Equal(t, "MOVED 0 2 O", messages[len(messages)-2])
			assert.Equal(t, "DRAW", messages[len(messages)-1])
		}
	})
}
