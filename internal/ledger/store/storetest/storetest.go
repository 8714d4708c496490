// Package storetest holds the behaviour every ports.RecordStore must share.
// Backend test files embed RecordStoreSuite and supply the store.
package storetest

import (
	"context"
	"errors"
	"sync"

	"github.com/stretchr/testify/suite"

	"custody/internal/ledger/models"
	"custody/internal/ledger/ports"
	"custody/pkg/platform/sentinel"
)

type RecordStoreSuite struct {
	suite.Suite
	Store ports.RecordStore
}

func (s *RecordStoreSuite) ctx() context.Context { return context.Background() }

func (s *RecordStoreSuite) TestContractMissingRecord() {
	_, err := s.Store.Get(s.ctx(), "ledger/none/starter")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RecordStoreSuite) TestContractCreateAndUpdate() {
	key := models.RecordKey("bank/config")

	s.Require().NoError(s.Store.Commit(s.ctx(), []ports.Record{{Key: key, Data: []byte(`{"v":1}`)}}))
	rec, err := s.Store.Get(s.ctx(), key)
	s.Require().NoError(err)
	s.Equal(uint64(1), rec.Version)
	s.JSONEq(`{"v":1}`, string(rec.Data))

	s.Require().NoError(s.Store.Commit(s.ctx(), []ports.Record{{Key: key, Version: 1, Data: []byte(`{"v":2}`)}}))
	rec, err = s.Store.Get(s.ctx(), key)
	s.Require().NoError(err)
	s.Equal(uint64(2), rec.Version)
	s.JSONEq(`{"v":2}`, string(rec.Data))
}

func (s *RecordStoreSuite) TestContractCreateExistingConflicts() {
	key := models.RecordKey("bank/fee_vault")
	s.Require().NoError(s.Store.Commit(s.ctx(), []ports.Record{{Key: key, Data: []byte(`{}`)}}))

	err := s.Store.Commit(s.ctx(), []ports.Record{{Key: key, Data: []byte(`{}`)}})
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *RecordStoreSuite) TestContractStaleSetAppliesNothing() {
	a := models.RecordKey("ledger/a/starter")
	b := models.RecordKey("ledger/b/starter")
	s.Require().NoError(s.Store.Commit(s.ctx(), []ports.Record{{Key: a, Data: []byte(`{"n":1}`)}}))

	err := s.Store.Commit(s.ctx(), []ports.Record{
		{Key: a, Version: 1, Data: []byte(`{"n":2}`)},
		{Key: b, Version: 7, Data: []byte(`{"n":1}`)},
	})
	s.ErrorIs(err, sentinel.ErrConflict)

	rec, err := s.Store.Get(s.ctx(), a)
	s.Require().NoError(err)
	s.Equal(uint64(1), rec.Version)
	s.JSONEq(`{"n":1}`, string(rec.Data))
	_, err = s.Store.Get(s.ctx(), b)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RecordStoreSuite) TestContractConcurrentUpdatesHaveOneWinner() {
	key := models.RecordKey("ledger/race/starter")
	s.Require().NoError(s.Store.Commit(s.ctx(), []ports.Record{{Key: key, Data: []byte(`{}`)}}))

	const writers = 8
	var wg sync.WaitGroup
	results := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- s.Store.Commit(s.ctx(), []ports.Record{{Key: key, Version: 1, Data: []byte(`{"w":true}`)}})
		}()
	}
	wg.Wait()
	close(results)

	var won, lost int
	for err := range results {
		switch {
		case err == nil:
			won++
		case errors.Is(err, sentinel.ErrConflict):
			lost++
		default:
			s.Failf("unexpected commit error", "%v", err)
		}
	}
	s.Equal(1, won)
	s.Equal(writers-1, lost)
}
