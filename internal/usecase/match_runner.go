package usecase

import (
	"context"
	"log/slog"

	"github.com/rocketscienceinc/fourinarow-backend/internal/entity"
	"github.com/rocketscienceinc/fourinarow-backend/internal/protocol"
)

type messenger interface {
	Send(peer, message string) error
	ReceiveFrom(ctx context.Context, peer string) (string, error)
}

// MatchRunner drives one match from its first turn to a terminal status.
// It is the only writer of the match while Play runs.
type MatchRunner struct {
	logger    *slog.Logger
	transport messenger
	recorder  *Recorder
}

func NewMatchRunner(logger *slog.Logger, transport messenger, recorder *Recorder) *MatchRunner {
	return &MatchRunner{
		logger:    logger.With("component", "match"),
		transport: transport,
		recorder:  recorder,
	}
}

// Play runs the turn loop until the match is won, drawn or aborted.
func (that *MatchRunner) Play(ctx context.Context, match *entity.Match) {
	log := that.logger.With("method", "Play", "matchID", match.ID)

	for match.IsInProgress() {
		mover := match.Mover()

		if lost, err := that.promptTurn(match); err != nil {
			that.abort(ctx, match, lost, err)
			return
		}

		raw, err := that.transport.ReceiveFrom(ctx, mover.Peer)
		if err != nil {
			if ctx.Err() != nil {
				mover = nil
			}

			that.abort(ctx, match, mover, err)
			return
		}

		column, err := protocol.ParseMove(raw)
		if err != nil {
			log.Debug("ignoring message", "participant", mover.Name, "message", raw, "error", err)
			continue
		}

		placement, err := match.Drop(column)
		if err != nil {
			log.Debug("rejected move", "participant", mover.Name, "column", column, "error", err)
			continue
		}

		log.Info("move accepted", "participant", mover.Name, "row", placement.Row, "column", placement.Column)

		if lost, err := that.broadcast(match, protocol.Moved(placement.Row, placement.Column, placement.Symbol)); err != nil {
			that.abort(ctx, match, lost, err)
			return
		}

		that.recorder.Placed(ctx, match, placement)
	}

	that.finish(ctx, match)
}

func (that *MatchRunner) promptTurn(match *entity.Match) (*entity.Participant, error) {
	if err := that.send(match.Mover(), protocol.YourTurn()); err != nil {
		return match.Mover(), err
	}

	if err := that.send(match.Waiter(), protocol.WaitTurn()); err != nil {
		return match.Waiter(), err
	}

	return nil, nil
}

func (that *MatchRunner) finish(ctx context.Context, match *entity.Match) {
	log := that.logger.With("method", "finish", "matchID", match.ID)

	var result protocol.Message

	switch match.Status {
	case entity.StatusWon:
		result = protocol.Win(match.Winner.Name)
		log.Info("match won", "winner", match.Winner.Name)
	case entity.StatusDraw:
		result = protocol.Draw()
		log.Info("match drawn")
	default:
		log.Warn("match left the loop without a result", "status", match.Status)
		that.recorder.Ended(context.WithoutCancel(ctx), match)
		return
	}

	if lost, err := that.broadcast(match, result); err != nil {
		log.Warn("failed to deliver result", "participant", lost.Name, "error", err)
	}

	that.recorder.Ended(ctx, match)
}

// abort ends the match and tells whoever is still reachable. A nil lost
// participant means the server itself is giving up, so both are told.
func (that *MatchRunner) abort(ctx context.Context, match *entity.Match, lost *entity.Participant, cause error) {
	log := that.logger.With("method", "abort", "matchID", match.ID)

	match.Abort()

	if lost != nil {
		log.Warn("participant lost, aborting match", "participant", lost.Name, "error", cause)
	} else {
		log.Warn("aborting match", "error", cause)
	}

	for _, p := range match.Participants {
		if p == lost {
			continue
		}

		if err := that.send(p, protocol.OpponentLeft()); err != nil {
			log.Warn("failed to notify participant", "participant", p.Name, "error", err)
		}
	}

	that.recorder.Ended(context.WithoutCancel(ctx), match)
}

// broadcast sends msg to both participants and reports the first one that could not be reached.
func (that *MatchRunner) broadcast(match *entity.Match, msg protocol.Message) (*entity.Participant, error) {
	for _, p := range match.Participants {
		if err := that.send(p, msg); err != nil {
			return p, err
		}
	}

	return nil, nil
}

func (that *MatchRunner) send(p *entity.Participant, msg protocol.Message) error {
	if err := that.transport.Send(p.Peer, protocol.Encode(msg)); err != nil {
		that.logger.Error("failed to send message", "participant", p.Name, "command", msg.Command, "error", err)
		return err
	}

	return nil
}
