package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/spiritrise/yogacamp/internal/models"
)

// DefaultRedisKey is the hash holding every registration, keyed by contact key.
const DefaultRedisKey = "yogacamp:registrations"

// Redis stores each registration as a JSON field of a single hash. HSETNX makes
// the existence check and the insert one atomic step.
type Redis struct {
	client *redis.Client
	key    string
}

// NewRedis wraps a connected client. An empty key uses DefaultRedisKey.
func NewRedis(client *redis.Client, key string) *Redis {
	if key == "" {
		key = DefaultRedisKey
	}
	return &Redis{client: client, key: key}
}

func (r *Redis) FindByContact(ctx context.Context, contactKey string) (*models.Registration, error) {
	raw, err := r.client.HGet(ctx, r.key, contactKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("hget: %w", err)
	}
	var reg models.Registration
	if err := json.Unmarshal([]byte(raw), &reg); err != nil {
		return nil, fmt.Errorf("decode registration: %w", err)
	}
	return &reg, nil
}

func (r *Redis) Insert(ctx context.Context, reg *models.Registration) error {
	prepare(reg)
	body, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("encode registration: %w", err)
	}
	ok, err := r.client.HSetNX(ctx, r.key, reg.ContactKey, body).Result()
	if err != nil {
		return fmt.Errorf("hsetnx: %w", err)
	}
	if !ok {
		return ErrDuplicate
	}
	return nil
}

func (r *Redis) Count(ctx context.Context) (int, error) {
	n, err := r.client.HLen(ctx, r.key).Result()
	if err != nil {
		return 0, fmt.Errorf("hlen: %w", err)
	}
	return int(n), nil
}

// List returns all registrations oldest first.
func (r *Redis) List(ctx context.Context) ([]models.Registration, error) {
	vals, err := r.client.HVals(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("hvals: %w", err)
	}
	list := make([]models.Registration, 0, len(vals))
	for _, raw := range vals {
		var reg models.Registration
		if err := json.Unmarshal([]byte(raw), &reg); err != nil {
			return nil, fmt.Errorf("decode registration: %w", err)
		}
		list = append(list, reg)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

func (r *Redis) Ping(ctx context.Context) error { return r.client.Ping(ctx).Err() }

func (r *Redis) Close() { _ = r.client.Close() }
