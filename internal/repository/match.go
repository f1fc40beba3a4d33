package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/fourinarow-backend/internal/apperror"
	"github.com/rocketscienceinc/fourinarow-backend/internal/entity"
)

const (
	matchKeyPrefix  = "match:"
	currentMatchKey = "match:current"
)

type MatchRepository interface {
	CreateOrUpdate(ctx context.Context, snapshot *entity.Snapshot) error
	GetByID(ctx context.Context, id string) (*entity.Snapshot, error)
	GetCurrent(ctx context.Context) (*entity.Snapshot, error)
	DeleteByID(ctx context.Context, id string) error
}

type dbMatch struct {
	client *redis.Client
}

func NewMatchRepository(client *redis.Client) MatchRepository {
	return &dbMatch{
		client: client,
	}
}

// CreateOrUpdate stores the snapshot and marks it as the match being played.
func (that *dbMatch) CreateOrUpdate(ctx context.Context, snapshot *entity.Snapshot) error {
	matchJSON, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("could not marshal match: %w", err)
	}

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, matchKeyPrefix+snapshot.ID, matchJSON, 0)
		pipe.Set(ctx, currentMatchKey, snapshot.ID, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set match: %w", err)
	}

	return nil
}

func (that *dbMatch) GetByID(ctx context.Context, id string) (*entity.Snapshot, error) {
	response, err := that.client.Get(ctx, matchKeyPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get match by id: %w", err)
	}

	var snapshot entity.Snapshot
	if err = json.Unmarshal([]byte(response), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal match: %w", err)
	}

	return &snapshot, nil
}

func (that *dbMatch) GetCurrent(ctx context.Context) (*entity.Snapshot, error) {
	id, err := that.client.Get(ctx, currentMatchKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get current match: %w", err)
	}

	return that.GetByID(ctx, id)
}

// DeleteByID removes the snapshot and clears the current marker if it points at it.
func (that *dbMatch) DeleteByID(ctx context.Context, id string) error {
	current, err := that.client.Get(ctx, currentMatchKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to get current match: %w", err)
	}

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, matchKeyPrefix+id)
		if current == id {
			pipe.Del(ctx, currentMatchKey)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete match by ID: %w", err)
	}

	return nil
}
