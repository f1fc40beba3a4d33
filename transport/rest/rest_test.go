package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rocketscienceinc/fourinarow-backend/internal/entity"
	"github.com/rocketscienceinc/fourinarow-backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingRepo struct{}

func (failingRepo) GetCurrent(context.Context) (*entity.Snapshot, error) {
	return nil, errors.New("connection refused")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPingHandler(t *testing.T) {
	router := NewRouter(discardLogger(), repository.NewMemoryMatchRepository())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestMatchHandler_CurrentMatch(t *testing.T) {
	t.Run("No match", func(t *testing.T) {
		// Given: nothing has been stored
		router := NewRouter(discardLogger(), repository.NewMemoryMatchRepository())

		// When: the current match is requested
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/match", nil))

		// Then: it is not found
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Match in progress", func(t *testing.T) {
		// Given: a stored match in progress
		matchRepo := repository.NewMemoryMatchRepository()
		match := entity.NewMatch("m1", entity.Rules{Rows: 2, Cols: 3, Symbols: [2]rune{'X', 'O'}},
			entity.NewParticipant("alice", 'X', entity.ColorRed, "a"))
		require.NoError(t, match.Join(entity.NewParticipant("bob", 'O', entity.ColorYellow, "b")))
		require.NoError(t, matchRepo.CreateOrUpdate(context.Background(), match.Snapshot()))

		router := NewRouter(discardLogger(), matchRepo)

		// When: the current match is requested
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/match", nil))

		// Then: its snapshot is returned as JSON
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var snapshot entity.Snapshot
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
		assert.Equal(t, "m1", snapshot.ID)
		assert.Equal(t, entity.StatusInProgress, snapshot.Status)
		assert.Equal(t, "alice", snapshot.Mover)
		assert.Equal(t, []string{"...", "..."}, snapshot.Board)
	})

	t.Run("Repository failure", func(t *testing.T) {
		router := NewRouter(discardLogger(), failingRepo{})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/match", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
