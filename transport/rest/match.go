package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rocketscienceinc/fourinarow-backend/internal/apperror"
	"github.com/rocketscienceinc/fourinarow-backend/internal/entity"
)

type matchRepo interface {
	GetCurrent(ctx context.Context) (*entity.Snapshot, error)
}

type MatchHandler struct {
	logger    *slog.Logger
	matchRepo matchRepo
}

func NewMatchHandler(logger *slog.Logger, matchRepo matchRepo) *MatchHandler {
	return &MatchHandler{
		logger:    logger.With("component", "rest"),
		matchRepo: matchRepo,
	}
}

// CurrentMatch - responds with the snapshot of the match being paired or played.
func (that *MatchHandler) CurrentMatch(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "CurrentMatch")

	snapshot, err := that.matchRepo.GetCurrent(r.Context())
	if errors.Is(err, apperror.ErrNotFound) {
		http.Error(w, "no match in progress", http.StatusNotFound)
		return
	}

	if err != nil {
		log.Error("failed to get current match", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(snapshot); err != nil {
		log.Error("failed to write response", "error", err)
	}
}
