package publisher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "custody/pkg/domain"
	audit "custody/pkg/platform/audit"
	"custody/pkg/platform/audit/store/memory"
)

var (
	alice = id.Identity{0xA1}
	bob   = id.Identity{0xB0}
)

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	err := pub.Emit(context.Background(), audit.Event{Actor: alice, Action: audit.EventDeposited})
	require.NoError(t, err)

	events, err := pub.List(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.EventDeposited, events[0].Action)
	assert.Equal(t, audit.CategoryCompliance, events[0].Category)
}

func TestPublisher_AsyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(10))

	err := pub.Emit(context.Background(), audit.Event{Actor: alice, Action: audit.EventTimeLockFunded})
	require.NoError(t, err)

	pub.Close()

	events, err := pub.List(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.EventTimeLockFunded, events[0].Action)
}

func TestPublisher_CloseDrainsBuffer(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = pub.Emit(context.Background(), audit.Event{Actor: alice, Action: audit.EventTransferred})
		}()
	}
	wg.Wait()
	pub.Close()

	events, err := pub.List(context.Background(), alice)
	require.NoError(t, err)
	assert.Len(t, events, 50)
}

func TestPublisher_CloseIsIdempotent(t *testing.T) {
	pub := NewPublisher(memory.NewInMemoryStore(), WithAsyncBuffer(1))
	pub.Close()
	assert.NotPanics(t, pub.Close)
}

func TestPublisher_SetsTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	pub := NewPublisher(store, WithClock(func() time.Time { return fixed }))
	defer pub.Close()

	require.NoError(t, pub.Emit(context.Background(), audit.Event{Actor: alice, Action: audit.EventWithdrawn}))

	events, err := pub.List(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, fixed, events[0].Timestamp)
}

func TestPublisher_PreservesExistingTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	customTime := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	err := pub.Emit(context.Background(), audit.Event{
		Actor:     alice,
		Action:    audit.EventDeposited,
		Timestamp: customTime,
	})
	require.NoError(t, err)

	events, err := pub.List(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, customTime, events[0].Timestamp)
}

func TestPublisher_CancelledContextInAsyncMode(t *testing.T) {
	pub := NewPublisher(memory.NewInMemoryStore(), WithAsyncBuffer(1))
	defer pub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pub.Emit(ctx, audit.Event{Actor: alice, Action: audit.EventDeposited})
	assert.ErrorIs(t, err, context.Canceled)
}

// blockingStore holds the drain goroutine so the buffer can be filled.
type blockingStore struct {
	release chan struct{}
}

func (s *blockingStore) Append(context.Context, audit.Event) error {
	<-s.release
	return nil
}

func TestPublisher_BufferFull(t *testing.T) {
	store := &blockingStore{release: make(chan struct{})}
	pub := NewPublisher(store, WithAsyncBuffer(1))

	var full bool
	for range 10 {
		if err := pub.Emit(context.Background(), audit.Event{Actor: alice, Action: audit.EventDeposited}); errors.Is(err, ErrBufferFull) {
			full = true
			break
		}
	}
	close(store.release)
	pub.Close()

	assert.True(t, full, "expected ErrBufferFull once the buffer is saturated")
}

func TestPublisher_DifferentActors(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	require.NoError(t, pub.Emit(context.Background(), audit.Event{Actor: alice, Action: audit.EventDeposited}))
	require.NoError(t, pub.Emit(context.Background(), audit.Event{Actor: bob, Action: audit.EventNotAuthorized}))

	events1, err := pub.List(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, events1, 1)
	assert.Equal(t, audit.EventDeposited, events1[0].Action)

	events2, err := pub.List(context.Background(), bob)
	require.NoError(t, err)
	require.Len(t, events2, 1)
	assert.Equal(t, audit.CategorySecurity, events2[0].Category)
}

func TestPublisher_ListUnsupported(t *testing.T) {
	pub := NewPublisher(&blockingStore{release: make(chan struct{})})
	_, err := pub.List(context.Background(), alice)
	assert.Error(t, err)
}
