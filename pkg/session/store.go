package session

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/Rmx21/knowledgeKeeper/pkg/constants"
)

// Store is the redis-backed cross-process claim on the single interview
// slot. The claim is a SetNX with a TTL so a crashed orchestrator cannot
// hold the slot forever.
type Store struct {
	rdb    *redis.Client
	logger *logrus.Logger
	ttl    time.Duration
}

func NewStore(redisURL string, logger *logrus.Logger) (*Store, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Successfully connected to Redis")
	return &Store{
		rdb:    rdb,
		logger: logger,
		ttl:    time.Duration(constants.DefaultSessionLockTTLMinutes) * time.Minute,
	}, nil
}

// NewStoreWithClient wires an existing client; used by tests
func NewStoreWithClient(rdb *redis.Client, logger *logrus.Logger, ttl time.Duration) *Store {
	return &Store{rdb: rdb, logger: logger, ttl: ttl}
}

// Acquire claims the session slot for ownerID. Returns false when another
// owner already holds it.
func (s *Store) Acquire(ctx context.Context, ownerID string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, constants.SessionLockKey, ownerID, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire session lock: %w", err)
	}
	if ok {
		s.logger.WithField("owner", ownerID).Debug("Session lock acquired")
	}
	return ok, nil
}

// Release drops the claim if ownerID still holds it. Releasing a lock that
// moved to another owner is a no-op.
func (s *Store) Release(ctx context.Context, ownerID string) error {
	current, err := s.rdb.Get(ctx, constants.SessionLockKey).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read session lock: %w", err)
	}
	if current != ownerID {
		s.logger.WithFields(logrus.Fields{
			"owner":  ownerID,
			"holder": current,
		}).Warn("Session lock held by someone else, not releasing")
		return nil
	}
	if err := s.rdb.Del(ctx, constants.SessionLockKey).Err(); err != nil {
		return fmt.Errorf("failed to release session lock: %w", err)
	}
	s.logger.WithField("owner", ownerID).Debug("Session lock released")
	return nil
}

// Refresh extends the TTL while an interview is still running
func (s *Store) Refresh(ctx context.Context, ownerID string) error {
	current, err := s.rdb.Get(ctx, constants.SessionLockKey).Result()
	if err != nil {
		return fmt.Errorf("failed to read session lock: %w", err)
	}
	if current != ownerID {
		return fmt.Errorf("session lock lost to %s", current)
	}
	return s.rdb.Expire(ctx, constants.SessionLockKey, s.ttl).Err()
}

// Owner reports who currently holds the slot, empty when free
func (s *Store) Owner(ctx context.Context) (string, error) {
	owner, err := s.rdb.Get(ctx, constants.SessionLockKey).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read session lock: %w", err)
	}
	return owner, nil
}

func (s *Store) Close() error {
	return s.rdb.Close()
}
