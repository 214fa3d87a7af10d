package session_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowStore simulates latency to provoke race conditions if locking is missing.
type slowStore struct {
	*memory.Store
}

func (s slowStore) Load(ctx context.Context, id string) (*domain.Session, error) {
	time.Sleep(5 * time.Millisecond)
	return s.Store.Load(ctx, id)
}

func (s slowStore) Save(ctx context.Context, sess *domain.Session) error {
	time.Sleep(5 * time.Millisecond)
	return s.Store.Save(ctx, sess)
}

func TestManager_UpdateSerializes(t *testing.T) {
	manager := session.NewManager(slowStore{memory.NewStore()})
	ctx := context.Background()
	id := "race-test"
	require.NoError(t, manager.Save(ctx, domain.NewSession(id, "tavern")))

	var wg sync.WaitGroup
	const writers = 10
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := manager.Update(ctx, id, func(s *domain.Session) error {
				n := s.State.Variables["Count"]
				s.State.Variables["Count"] = domain.IntValue(n.Int() + 1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	s, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(writers), s.State.Variables["Count"].Int(), "no update may be lost")
}

func TestManager_UpdateErrorSavesNothing(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()
	require.NoError(t, manager.Save(ctx, domain.NewSession("s1", "tavern")))

	boom := errors.New("boom")
	_, err := manager.Update(ctx, "s1", func(s *domain.Session) error {
		s.Script = "changed"
		return boom
	})
	assert.ErrorIs(t, err, boom)

	s, err := manager.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "tavern", s.Script)

	_, err = manager.Update(ctx, "missing", func(*domain.Session) error { return nil })
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_CreateIsAtomic(t *testing.T) {
	manager := session.NewManager(slowStore{memory.NewStore()})
	ctx := context.Background()

	var inits, creations atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, created, err := manager.Create(ctx, "atomic-init", func() (*domain.Session, error) {
				inits.Add(1)
				return domain.NewSession("", "tavern"), nil
			})
			assert.NoError(t, err)
			assert.Equal(t, "atomic-init", s.ID)
			if created {
				creations.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), inits.Load())
	assert.Equal(t, int32(1), creations.Load())
	ids, err := manager.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"atomic-init"}, ids)
}

type countingLocker struct {
	locks, unlocks atomic.Int32
}

func (l *countingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.locks.Add(1)
	return func(context.Context) error {
		l.unlocks.Add(1)
		return nil
	}, nil
}

func TestManager_DistributedLock(t *testing.T) {
	locker := &countingLocker{}
	manager := session.NewManager(memory.NewStore(), session.WithLocker(locker), session.WithLockTTL(time.Second))
	ctx := context.Background()

	require.NoError(t, manager.Save(ctx, domain.NewSession("s1", "tavern")))
	_, err := manager.Load(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, manager.Delete(ctx, "s1"))

	assert.Equal(t, int32(3), locker.locks.Load())
	assert.Equal(t, int32(3), locker.unlocks.Load())
}
