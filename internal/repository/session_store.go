package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bookorder/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const sessionKeyPrefix = "order_session:"

// redisSessionStore implements SessionStore on Redis. Expiry is carried by
// the key TTL.
type redisSessionStore struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewSessionStore creates a Redis-backed session store.
func NewSessionStore(client *redis.Client, logger zerolog.Logger) SessionStore {
	return &redisSessionStore{
		client: client,
		logger: logger.With().Str("repository", "session").Logger(),
	}
}

func (s *redisSessionStore) Save(ctx context.Context, sess *model.PendingSession, ttl time.Duration) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.client.Set(ctx, sessionKey(sess.Token), data, ttl).Err(); err != nil {
		s.logger.Error().Err(err).Msg("failed to save session")
		return fmt.Errorf("failed to save session: %w", err)
	}

	s.logger.Debug().Dur("ttl", ttl).Msg("session saved")
	return nil
}

func (s *redisSessionStore) Get(ctx context.Context, token string) (*model.PendingSession, error) {
	data, err := s.client.Get(ctx, sessionKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to get session")
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var sess model.PendingSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &sess, nil
}

func (s *redisSessionStore) Update(ctx context.Context, sess *model.PendingSession) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	// XX keeps an expired session from being resurrected without a TTL.
	ok, err := s.client.SetArgs(ctx, sessionKey(sess.Token), data, redis.SetArgs{
		Mode:    "XX",
		KeepTTL: true,
	}).Result()
	if errors.Is(err, redis.Nil) || (err == nil && ok != "OK") {
		return nil
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to update session")
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

func (s *redisSessionStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, sessionKey(token)).Err(); err != nil {
		s.logger.Error().Err(err).Msg("failed to delete session")
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func sessionKey(token string) string {
	return sessionKeyPrefix + token
}
