package timerstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goRedis "github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/ngmaloney/portpal/internal/models"
)

const (
	defaultRedisPrefix = "portpal"
	poolSize           = 10
)

// RedisSettings configures the Redis connection
type RedisSettings struct {
	Addr     string
	DB       int
	Password string
	// Prefix namespaces every key; defaults to "portpal"
	Prefix string
}

// RedisStore keeps one JSON value per timer plus a set of known ids
type RedisStore struct {
	client *goRedis.Client
	prefix string
	loc    *time.Location
}

// NewRedisStore connects and pings the server
func NewRedisStore(ctx context.Context, settings RedisSettings, loc *time.Location) (*RedisStore, error) {
	client := goRedis.NewClient(&goRedis.Options{
		Addr:     settings.Addr,
		DB:       settings.DB,
		Password: settings.Password,
		PoolSize: poolSize,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", settings.Addr, err)
	}
	log.Infof("Connected to Redis - %s", settings.Addr)

	prefix := settings.Prefix
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	if loc == nil {
		loc = time.Local
	}
	return &RedisStore{client: client, prefix: prefix, loc: loc}, nil
}

// Close releases the connection pool
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) indexKey() string {
	return s.prefix + ":timers"
}

func (s *RedisStore) timerKey(id string) string {
	return s.prefix + ":timer:" + id
}

// Save writes the timer and records its id
func (s *RedisStore) Save(ctx context.Context, t models.Timer) error {
	value, err := s.encode(t)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe goRedis.Pipeliner) error {
		pipe.Set(ctx, s.timerKey(t.ID), value, 0)
		pipe.SAdd(ctx, s.indexKey(), t.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving timer: %w", err)
	}
	return nil
}

// LoadAll returns every indexed timer. Ids whose value vanished are skipped.
func (s *RedisStore) LoadAll(ctx context.Context) ([]models.Timer, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("listing timers: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.timerKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("reading timers: %w", err)
	}

	timers := make([]models.Timer, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var r record
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			log.Warnf("Skipping unreadable timer %s: %v", ids[i], err)
			continue
		}
		timers = append(timers, r.timer(s.loc))
	}
	sortByDeparture(timers)
	return timers, nil
}

// Update overwrites an existing timer
func (s *RedisStore) Update(ctx context.Context, t models.Timer) error {
	value, err := s.encode(t)
	if err != nil {
		return err
	}
	// XX only writes when the key already exists
	ok, err := s.client.SetXX(ctx, s.timerKey(t.ID), value, goRedis.KeepTTL).Result()
	if err != nil {
		return fmt.Errorf("updating timer: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, t.ID)
	}
	return nil
}

// Delete removes a timer by id. Deleting an unknown id is not an error.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe goRedis.Pipeliner) error {
		pipe.Del(ctx, s.timerKey(id))
		pipe.SRem(ctx, s.indexKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("deleting timer: %w", err)
	}
	return nil
}

// DeleteAll removes every indexed timer and the index itself
func (s *RedisStore) DeleteAll(ctx context.Context) error {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return fmt.Errorf("listing timers: %w", err)
	}
	keys := []string{s.indexKey()}
	for _, id := range ids {
		keys = append(keys, s.timerKey(id))
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("deleting timers: %w", err)
	}
	return nil
}

func (s *RedisStore) encode(t models.Timer) ([]byte, error) {
	r, err := toRecord(t)
	if err != nil {
		return nil, err
	}
	value, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encoding timer: %w", err)
	}
	return value, nil
}
