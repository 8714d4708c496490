package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"custody/internal/ledger/models"
	"custody/internal/ledger/ports"
	"custody/internal/ledger/store/storetest"
	"custody/pkg/platform/sentinel"
)

type InMemoryRecordStoreSuite struct {
	suite.Suite
	store *InMemoryRecordStore
	ctx   context.Context
}

func TestInMemoryRecordStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryRecordStoreSuite))
}

func (s *InMemoryRecordStoreSuite) SetupTest() {
	s.store = New()
	s.ctx = context.Background()
}

func (s *InMemoryRecordStoreSuite) TestGet() {
	s.Run("missing record returns not found", func() {
		_, err := s.store.Get(s.ctx, "ledger/missing")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returned data is a copy", func() {
		s.Require().NoError(s.store.Commit(s.ctx, []ports.Record{{Key: "a", Data: []byte("one")}}))

		rec, err := s.store.Get(s.ctx, "a")
		s.Require().NoError(err)
		rec.Data[0] = 'X'

		again, err := s.store.Get(s.ctx, "a")
		s.Require().NoError(err)
		s.Equal("one", string(again.Data))
	})
}

func (s *InMemoryRecordStoreSuite) TestCommit() {
	s.Run("create then update bumps the version", func() {
		s.Require().NoError(s.store.Commit(s.ctx, []ports.Record{{Key: "k", Data: []byte("v1")}}))
		rec, err := s.store.Get(s.ctx, "k")
		s.Require().NoError(err)
		s.Equal(uint64(1), rec.Version)

		s.Require().NoError(s.store.Commit(s.ctx, []ports.Record{{Key: "k", Version: 1, Data: []byte("v2")}}))
		rec, err = s.store.Get(s.ctx, "k")
		s.Require().NoError(err)
		s.Equal(uint64(2), rec.Version)
		s.Equal("v2", string(rec.Data))
	})

	s.Run("stale version fails the whole set", func() {
		s.Require().NoError(s.store.Commit(s.ctx, []ports.Record{{Key: "x", Data: []byte("x1")}}))

		err := s.store.Commit(s.ctx, []ports.Record{
			{Key: "y", Data: []byte("y1")},
			{Key: "x", Version: 0, Data: []byte("x2")},
		})
		s.ErrorIs(err, sentinel.ErrConflict)

		_, err = s.store.Get(s.ctx, "y")
		s.ErrorIs(err, sentinel.ErrNotFound)
		rec, err := s.store.Get(s.ctx, "x")
		s.Require().NoError(err)
		s.Equal("x1", string(rec.Data))
	})

	s.Run("duplicate key in one set is rejected", func() {
		err := s.store.Commit(s.ctx, []ports.Record{{Key: "d"}, {Key: "d"}})
		s.Error(err)
		s.Equal(0, countKey(s.store, "d"))
	})

	s.Run("cancelled context is not applied", func() {
		ctx, cancel := context.WithCancel(s.ctx)
		cancel()
		err := s.store.Commit(ctx, []ports.Record{{Key: models.RecordKey("c")}})
		s.ErrorIs(err, context.Canceled)
	})
}

func (s *InMemoryRecordStoreSuite) TestConcurrentCreateHasOneWinner() {
	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.store.Commit(s.ctx, []ports.Record{{Key: "race", Data: []byte("v")}})
		}()
	}
	wg.Wait()
	close(errs)

	var ok, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, sentinel.ErrConflict):
			conflicts++
		}
	}
	s.Equal(1, ok)
	s.Equal(writers-1, conflicts)
}

func countKey(st *InMemoryRecordStore, key models.RecordKey) int {
	if _, err := st.Get(context.Background(), key); err != nil {
		return 0
	}
	return 1
}

type memoryContractSuite struct {
	storetest.RecordStoreSuite
}

func (s *memoryContractSuite) SetupTest() {
	s.Store = New()
}

func TestMemoryRecordStoreContract(t *testing.T) {
	suite.Run(t, new(memoryContractSuite))
}
