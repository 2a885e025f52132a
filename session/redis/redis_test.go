package redis

import (
	"context"
	"os"
	"reflect"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/openclaw/tubebrief/session"
)

// Integration test; requires a reachable redis, e.g.
// TUBEBRIEF_TEST_REDIS_ADDR=localhost:6379
func newTestStore(t *testing.T) *Store {
	t.Helper()
	addr := os.Getenv("TUBEBRIEF_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TUBEBRIEF_TEST_REDIS_ADDR not set")
	}
	store := NewStore(addr, os.Getenv("TUBEBRIEF_TEST_REDIS_PASSWORD"), 0)
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("redis ping: %v", err)
	}
	return store
}

func TestRedisGetReturnsDefault(t *testing.T) {
	store := newTestStore(t)
	userID := "redis-missing-" + uuid.NewString()

	sess, err := store.Get(context.Background(), userID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if sess.UserID != userID || sess.Language != "English" {
		t.Fatalf("unexpected default session: %+v", sess)
	}
}

func TestRedisUpsertIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	userID := "redis-upsert-" + uuid.NewString()

	sess := session.New(userID)
	sess.LastSummary = "cached"
	if err := store.Put(ctx, userID, sess); err != nil {
		t.Fatalf("Put: %v", err)
	}
	first, err := store.Get(ctx, userID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if err := store.Put(ctx, userID, sess); err != nil {
		t.Fatalf("second Put: %v", err)
	}
	second, _ := store.Get(ctx, userID)
	first.UpdatedAt = second.UpdatedAt
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("double write changed state")
	}
}

func TestRedisUpdateSerializes(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	userID := "redis-update-" + uuid.NewString()

	const turns = 20
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Update(ctx, userID, func(s *session.Session) error {
				s.AppendTurn("q", "a", 0)
				return nil
			})
		}()
	}
	wg.Wait()

	sess, err := store.Get(ctx, userID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(sess.QAHistory) != turns {
		t.Fatalf("lost updates: %d, want %d", len(sess.QAHistory), turns)
	}
}
