// Package redis persists sessions as JSON values keyed by user id. Sessions
// have no TTL: they live until overwritten.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/openclaw/tubebrief/session"
)

type Store struct {
	client *goredis.Client

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

func NewStore(addr, password string, db int) *Store {
	return &Store{
		client: goredis.NewClient(&goredis.Options{Addr: addr, Password: password, DB: db}),
		locks:  make(map[string]*sync.Mutex),
	}
}

// Ping verifies connectivity at startup.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func key(userID string) string { return "session:" + userID }

func (s *Store) Get(ctx context.Context, userID string) (session.Session, error) {
	val, err := s.client.Get(ctx, key(userID)).Result()
	if errors.Is(err, goredis.Nil) {
		return session.New(userID), nil
	}
	if err != nil {
		return session.Session{}, fmt.Errorf("redis get %s: %w", userID, err)
	}
	var sess session.Session
	if err := json.Unmarshal([]byte(val), &sess); err != nil {
		return session.Session{}, fmt.Errorf("redis decode %s: %w", userID, err)
	}
	return sess, nil
}

func (s *Store) Put(ctx context.Context, userID string, sess session.Session) error {
	sess.UserID = userID
	sess.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("redis encode %s: %w", userID, err)
	}
	if err := s.client.Set(ctx, key(userID), data, 0).Err(); err != nil {
		return fmt.Errorf("redis put %s: %w", userID, err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, userID string, apply func(*session.Session) error) error {
	lock := s.keyLock(userID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := apply(&sess); err != nil {
		return err
	}
	return s.Put(ctx, userID, sess)
}

func (s *Store) keyLock(userID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}
