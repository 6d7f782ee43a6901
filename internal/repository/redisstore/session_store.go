// Package redisstore keeps session snapshots in Redis, one key per user.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"declbot/internal/config"
	"declbot/internal/domain"
	"declbot/internal/port"
	"declbot/internal/snapshot"
)

const scanBatch = 200

// Client is the subset of the go-redis API the store uses.
type Client interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
	MGet(ctx context.Context, keys ...string) *goredis.SliceCmd
	Del(ctx context.Context, keys ...string) *goredis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *goredis.ScanCmd
	Ping(ctx context.Context) *goredis.StatusCmd
}

type sessionStore struct {
	rdb    Client
	prefix string
	ttl    time.Duration
	log    *zap.Logger
}

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// NewSessionStore returns a Redis-backed SessionStore. A single SET replaces a
// snapshot atomically. Keys expire after ttl of inactivity; zero disables expiry.
func NewSessionStore(rdb Client, prefix string, ttl time.Duration, log *zap.Logger) port.SessionStore {
	return &sessionStore{rdb: rdb, prefix: prefix, ttl: ttl, log: log.Named("redisstore")}
}

func (s *sessionStore) key(userID int64) string {
	return s.prefix + strconv.FormatInt(userID, 10)
}

func (s *sessionStore) LoadAll(ctx context.Context) ([]*domain.Session, error) {
	var keys []string
	var cursor uint64
	for {
		batch, next, err := s.rdb.Scan(ctx, cursor, s.prefix+"*", scanBatch).Result()
		if err != nil {
			return nil, fmt.Errorf("redisstore.LoadAll: scan: %w", err)
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}

	var sessions []*domain.Session
	for start := 0; start < len(keys); start += scanBatch {
		end := min(start+scanBatch, len(keys))
		values, err := s.rdb.MGet(ctx, keys[start:end]...).Result()
		if err != nil {
			return nil, fmt.Errorf("redisstore.LoadAll: mget: %w", err)
		}
		for i, v := range values {
			raw, ok := v.(string)
			if !ok {
				// expired between SCAN and MGET
				continue
			}
			session, err := snapshot.Decode([]byte(raw))
			if err != nil {
				s.log.Warn("skipping corrupt session snapshot", zap.String("key", keys[start+i]), zap.Error(err))
				continue
			}
			sessions = append(sessions, session)
		}
	}
	return sessions, nil
}

func (s *sessionStore) Save(ctx context.Context, session *domain.Session) error {
	data, err := snapshot.Encode(session)
	if err != nil {
		return fmt.Errorf("redisstore.Save: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key(session.UserID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redisstore.Save: %w", err)
	}
	return nil
}

func (s *sessionStore) Delete(ctx context.Context, userID int64) error {
	if err := s.rdb.Del(ctx, s.key(userID)).Err(); err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("redisstore.Delete: %w", err)
	}
	return nil
}

func (s *sessionStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
