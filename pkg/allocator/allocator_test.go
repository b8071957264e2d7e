package allocator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/andrevalim/pixhub/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLookup struct {
	records map[string]Record
	err     error
}

func (s *stubLookup) ByExternalID(_ context.Context, id string) (Record, error) {
	if s.err != nil {
		return Record{}, s.err
	}
	return s.records[id], nil
}

func newTestAllocator(lookup Lookup) *Allocator {
	a := New(lookup, slog.New(slog.NewTextHandler(io.Discard, nil)))
	a.now = func() time.Time { return time.Unix(1700000000, 0) }
	n := 0
	a.newID = func() string {
		n++
		return fmt.Sprintf("generated-%d", n)
	}
	return a
}

func TestAllocate(t *testing.T) {
	ctx := context.Background()

	t.Run("empty candidate generates fresh id", func(t *testing.T) {
		a := newTestAllocator(&stubLookup{})
		id, err := a.Allocate(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, "generated-1", id)
	})

	t.Run("free candidate is kept", func(t *testing.T) {
		a := newTestAllocator(&stubLookup{})
		id, err := a.Allocate(ctx, "order-42")
		require.NoError(t, err)
		assert.Equal(t, "order-42", id)
	})

	t.Run("terminal failed record derives timestamped id", func(t *testing.T) {
		lookup := &stubLookup{records: map[string]Record{
			"X": {Found: true, TerminalFailed: true},
		}}
		a := newTestAllocator(lookup)
		id, err := a.Allocate(ctx, "X")
		require.NoError(t, err)
		assert.Equal(t, "X_1700000000", id)
	})

	t.Run("active record forces unrelated fresh id", func(t *testing.T) {
		lookup := &stubLookup{records: map[string]Record{
			"X": {Found: true},
		}}
		a := newTestAllocator(lookup)
		id, err := a.Allocate(ctx, "X")
		require.NoError(t, err)
		assert.Equal(t, "generated-1", id)
		assert.NotContains(t, id, "X")
	})

	t.Run("lookup error surfaces", func(t *testing.T) {
		boom := errors.New("db down")
		a := newTestAllocator(&stubLookup{err: boom})
		_, err := a.Allocate(ctx, "X")
		assert.ErrorIs(t, err, boom)
	})
}

func TestPersistWithRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("first attempt succeeds", func(t *testing.T) {
		a := newTestAllocator(&stubLookup{})
		var got []string
		id, err := a.PersistWithRetry(ctx, "order-1", func(_ context.Context, id string) error {
			got = append(got, id)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, "order-1", id)
		assert.Equal(t, []string{"order-1"}, got)
	})

	t.Run("duplicate key retries with fresh ids", func(t *testing.T) {
		a := newTestAllocator(&stubLookup{})
		var got []string
		id, err := a.PersistWithRetry(ctx, "order-1", func(_ context.Context, id string) error {
			got = append(got, id)
			if len(got) < 3 {
				return fmt.Errorf("insert: %w", domain.ErrDuplicateKey)
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, "generated-2", id)
		assert.Equal(t, []string{"order-1", "generated-1", "generated-2"}, got)
	})

	t.Run("exhaustion surfaces typed error", func(t *testing.T) {
		a := newTestAllocator(&stubLookup{})
		calls := 0
		_, err := a.PersistWithRetry(ctx, "order-1", func(_ context.Context, _ string) error {
			calls++
			return domain.ErrDuplicateKey
		})
		assert.ErrorIs(t, err, domain.ErrAllocationExhausted)
		assert.Equal(t, DefaultMaxAttempts, calls)
	})

	t.Run("non duplicate error aborts immediately", func(t *testing.T) {
		a := newTestAllocator(&stubLookup{})
		boom := errors.New("connection reset")
		calls := 0
		_, err := a.PersistWithRetry(ctx, "order-1", func(_ context.Context, _ string) error {
			calls++
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})
}

// raceLedger is a shared store whose insert enforces uniqueness, so
// goroutines racing on the same candidate collide for real.
type raceLedger struct {
	mu  sync.Mutex
	ids map[string]bool
}

func (s *raceLedger) ByExternalID(_ context.Context, id string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Record{Found: s.ids[id]}, nil
}

func (s *raceLedger) insert(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ids[id] {
		return domain.ErrDuplicateKey
	}
	s.ids[id] = true
	return nil
}

func TestConcurrentAllocationsYieldDistinctIDs(t *testing.T) {
	ctx := context.Background()
	store := &raceLedger{ids: make(map[string]bool)}
	a := New(store, slog.New(slog.NewTextHandler(io.Discard, nil)))

	const n = 32
	results := make(chan string, n)
	errs := make(chan error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := a.Allocate(ctx, "order-1")
			if err != nil {
				errs <- err
				return
			}
			id, err = a.PersistWithRetry(ctx, id, store.insert)
			if err != nil {
				errs <- err
				return
			}
			results <- id
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	seen := make(map[string]bool)
	for id := range results {
		assert.False(t, seen[id], "id %s persisted twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}
