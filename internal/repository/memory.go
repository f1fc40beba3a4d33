package repository

import (
	"context"
	"sync"

	"github.com/rocketscienceinc/fourinarow-backend/internal/apperror"
	"github.com/rocketscienceinc/fourinarow-backend/internal/entity"
)

type memoryMatch struct {
	mu      sync.RWMutex
	matches map[string]entity.Snapshot
	current string
}

// NewMemoryMatchRepository keeps snapshots in process memory, for runs without Redis.
func NewMemoryMatchRepository() MatchRepository {
	return &memoryMatch{
		matches: make(map[string]entity.Snapshot),
	}
}

func (that *memoryMatch) CreateOrUpdate(_ context.Context, snapshot *entity.Snapshot) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.matches[snapshot.ID] = *snapshot
	that.current = snapshot.ID

	return nil
}

func (that *memoryMatch) GetByID(_ context.Context, id string) (*entity.Snapshot, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.get(id)
}

func (that *memoryMatch) GetCurrent(_ context.Context) (*entity.Snapshot, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.get(that.current)
}

func (that *memoryMatch) DeleteByID(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.matches, id)
	if that.current == id {
		that.current = ""
	}

	return nil
}

func (that *memoryMatch) get(id string) (*entity.Snapshot, error) {
	snapshot, ok := that.matches[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}

	return &snapshot, nil
}
