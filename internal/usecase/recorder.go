package usecase

import (
	"context"
	"log/slog"

	"github.com/rocketscienceinc/fourinarow-backend/internal/entity"
)

type matchRepo interface {
	CreateOrUpdate(ctx context.Context, snapshot *entity.Snapshot) error
	DeleteByID(ctx context.Context, id string) error
}

// EventPublisher receives every match event the recorder emits.
type EventPublisher interface {
	Publish(ctx context.Context, event entity.Event) error
}

// Recorder keeps the current match snapshot up to date and emits match events.
// Failures are logged and never interrupt a match.
type Recorder struct {
	logger     *slog.Logger
	matchRepo  matchRepo
	publishers []EventPublisher
}

func NewRecorder(logger *slog.Logger, matchRepo matchRepo, publishers ...EventPublisher) *Recorder {
	return &Recorder{
		logger:     logger.With("component", "recorder"),
		matchRepo:  matchRepo,
		publishers: publishers,
	}
}

func (that *Recorder) Save(ctx context.Context, match *entity.Match) {
	if err := that.matchRepo.CreateOrUpdate(ctx, match.Snapshot()); err != nil {
		that.logger.Error("failed to save match", "matchID", match.ID, "error", err)
	}
}

func (that *Recorder) Started(ctx context.Context, match *entity.Match) {
	that.Save(ctx, match)
	that.publish(ctx, entity.NewEvent(entity.EventMatchStarted, match))
}

func (that *Recorder) Placed(ctx context.Context, match *entity.Match, placement entity.Placement) {
	that.Save(ctx, match)
	that.publish(ctx, entity.NewPlacementEvent(match, placement))
}

// Ended announces the final state and discards the stored snapshot.
func (that *Recorder) Ended(ctx context.Context, match *entity.Match) {
	that.publish(ctx, entity.NewEvent(entity.EventMatchEnded, match))
	that.Forget(ctx, match)
}

func (that *Recorder) Forget(ctx context.Context, match *entity.Match) {
	if err := that.matchRepo.DeleteByID(ctx, match.ID); err != nil {
		that.logger.Error("failed to delete match", "matchID", match.ID, "error", err)
	}
}

func (that *Recorder) publish(ctx context.Context, event entity.Event) {
	for _, publisher := range that.publishers {
		if err := publisher.Publish(ctx, event); err != nil {
			that.logger.Error("failed to publish event", "type", event.Type, "matchID", event.Match.ID, "error", err)
		}
	}
}
