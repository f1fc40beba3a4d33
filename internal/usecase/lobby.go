package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rocketscienceinc/fourinarow-backend/internal/entity"
	"github.com/rocketscienceinc/fourinarow-backend/internal/protocol"
	"github.com/rocketscienceinc/fourinarow-backend/internal/transport"
)

type lobbyTransport interface {
	messenger
	ReceiveAny(ctx context.Context) (string, string, error)
	Release(peer string)
}

type matchPlayer interface {
	Play(ctx context.Context, match *entity.Match)
}

// Lobby pairs participants first come first served, one match at a time.
type Lobby struct {
	logger     *slog.Logger
	transport  lobbyTransport
	rules      entity.Rules
	runner     matchPlayer
	recorder   *Recorder
	roundPause time.Duration

	newMatchID func() string
}

func NewLobby(
	logger *slog.Logger,
	transport lobbyTransport,
	rules entity.Rules,
	runner matchPlayer,
	recorder *Recorder,
	roundPause time.Duration,
) *Lobby {
	return &Lobby{
		logger:     logger.With("component", "lobby"),
		transport:  transport,
		rules:      rules,
		runner:     runner,
		recorder:   recorder,
		roundPause: roundPause,

		newMatchID: uuid.NewString,
	}
}

// Run plays rounds until ctx is cancelled or the transport fails.
func (that *Lobby) Run(ctx context.Context) error {
	log := that.logger.With("method", "Run")

	for {
		log.Info("waiting for a new match")

		err := that.PlayRound(ctx)

		switch {
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, transport.ErrClosed):
			return fmt.Errorf("lobby stopped: %w", err)
		case errors.Is(err, transport.ErrPeerLost):
			log.Warn("round abandoned during pairing", "error", err)
		case err != nil:
			return fmt.Errorf("lobby stopped: %w", err)
		}

		select {
		case <-time.After(that.roundPause):
		case <-ctx.Done():
			return nil
		}
	}
}

// PlayRound pairs two participants, plays their match and releases them.
func (that *Lobby) PlayRound(ctx context.Context) error {
	match, err := that.Pair(ctx)
	if err != nil {
		return err
	}

	defer that.release(match)

	that.runner.Play(ctx, match)

	that.logger.Info("match over", "matchID", match.ID, "status", match.Status)

	return nil
}

// Pair accepts the first participant, then waits for a second, distinct sender.
// Both get CONFIG on acceptance and START once the match is set up.
func (that *Lobby) Pair(ctx context.Context) (*entity.Match, error) {
	log := that.logger.With("method", "Pair")

	peer, handshake, err := that.transport.ReceiveAny(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to accept first participant: %w", err)
	}

	first := entity.NewParticipant(protocol.HandshakeName(handshake), that.rules.Symbols[0], entity.ColorRed, peer)
	match := entity.NewMatch(that.newMatchID(), that.rules, first)

	log = log.With("matchID", match.ID)
	log.Info("first participant accepted", "name", first.Name, "peer", first.Peer)

	if err = that.sendConfig(first); err != nil {
		that.release(match)
		return nil, err
	}

	that.recorder.Save(ctx, match)

	second, err := that.acceptSecond(ctx, first)
	if err != nil {
		that.recorder.Forget(context.WithoutCancel(ctx), match)
		that.release(match)
		return nil, err
	}

	log.Info("second participant accepted", "name", second.Name, "peer", second.Peer)

	if err = that.sendConfig(second); err != nil {
		that.transport.Release(second.Peer)
		that.abandon(ctx, match, first, err)
		return nil, err
	}

	disambiguateNames(first, second)

	if err = match.Join(second); err != nil {
		that.abandon(ctx, match, nil, err)
		return nil, fmt.Errorf("failed to start match: %w", err)
	}

	for _, p := range match.Participants {
		opponent := match.Opponent(p)

		if err = that.send(p, protocol.Start(opponent.Name, opponent.SymbolText())); err != nil {
			that.abandon(ctx, match, opponent, err)
			return nil, err
		}
	}

	log.Info("match started", "first", first.Name, "second", second.Name)

	that.recorder.Started(ctx, match)

	return match, nil
}

func (that *Lobby) acceptSecond(ctx context.Context, first *entity.Participant) (*entity.Participant, error) {
	log := that.logger.With("method", "acceptSecond")

	for {
		peer, handshake, err := that.transport.ReceiveAny(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to accept second participant: %w", err)
		}

		if peer == first.Peer {
			log.Debug("ignoring message from first participant", "peer", peer, "message", handshake)
			continue
		}

		return entity.NewParticipant(protocol.HandshakeName(handshake), that.rules.Symbols[1], entity.ColorYellow, peer), nil
	}
}

// disambiguateNames suffixes equal display names with 1 and 2.
func disambiguateNames(first, second *entity.Participant) {
	if first.Name != second.Name {
		return
	}

	first.Name += "1"
	second.Name += "2"
}

func (that *Lobby) sendConfig(p *entity.Participant) error {
	return that.send(p, protocol.Config(that.rules.Rows, that.rules.Cols, p.SymbolText(), string(p.Color)))
}

// abandon gives up on a round during pairing and tells the survivor, if any.
func (that *Lobby) abandon(ctx context.Context, match *entity.Match, survivor *entity.Participant, cause error) {
	that.logger.Warn("abandoning pairing", "matchID", match.ID, "error", cause)

	if survivor != nil {
		if err := that.send(survivor, protocol.OpponentLeft()); err != nil {
			that.logger.Warn("failed to notify participant", "participant", survivor.Name, "error", err)
		}
	}

	if match.IsInProgress() {
		match.Abort()
		that.recorder.Ended(context.WithoutCancel(ctx), match)
	} else {
		that.recorder.Forget(context.WithoutCancel(ctx), match)
	}

	that.release(match)
}

func (that *Lobby) release(match *entity.Match) {
	for _, p := range match.Participants {
		if p != nil {
			that.transport.Release(p.Peer)
		}
	}
}

func (that *Lobby) send(p *entity.Participant, msg protocol.Message) error {
	if err := that.transport.Send(p.Peer, protocol.Encode(msg)); err != nil {
		return fmt.Errorf("failed to send %s to %s: %w", msg.Command, p.Name, err)
	}

	return nil
}
