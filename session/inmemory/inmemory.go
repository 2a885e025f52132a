// Package inmemory keeps sessions in process memory. It exists for tests and
// single-node development runs; state does not survive a restart.
package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/openclaw/tubebrief/session"
)

type Store struct {
	mu       sync.RWMutex
	sessions map[string]session.Session

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]session.Session),
		locks:    make(map[string]*sync.Mutex),
	}
}

func (s *Store) Get(ctx context.Context, userID string) (session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sess, ok := s.sessions[userID]; ok {
		return sess, nil
	}
	return session.New(userID), nil
}

func (s *Store) Put(ctx context.Context, userID string, sess session.Session) error {
	sess.UserID = userID
	sess.UpdatedAt = time.Now().UTC()
	s.mu.Lock()
	s.sessions[userID] = sess
	s.mu.Unlock()
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
