// Package static serves fixed price quotes. It backs the ledger in
// development and tests.
package static

import (
	"context"
	"fmt"
	"sync"
	"time"

	"custody/internal/ledger/models"
	"custody/internal/ledger/ports"
	"custody/internal/oracle"
	id "custody/pkg/domain"
)

type Oracle struct {
	mu     sync.RWMutex
	quotes map[id.Bytes32]models.PriceQuote
	live   map[id.Bytes32]bool
	clock  ports.Clock
}

func New(clock ports.Clock) *Oracle {
	if clock == nil {
		clock = ports.SystemClock
	}
	return &Oracle{
		quotes: make(map[id.Bytes32]models.PriceQuote),
		live:   make(map[id.Bytes32]bool),
		clock:  clock,
	}
}

// Set replaces the quote for feed.
func (o *Oracle) Set(feed id.Bytes32, q models.PriceQuote) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.quotes[feed] = q
	delete(o.live, feed)
}

// SetLive installs a quote that is restamped with the current time on every
// read, so it never goes stale. Used for development deployments.
func (o *Oracle) SetLive(feed id.Bytes32, q models.PriceQuote) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.quotes[feed] = q
	o.live[feed] = true
}

func (o *Oracle) CurrentPrice(_ context.Context, feed id.Bytes32, maxStaleness time.Duration) (models.PriceQuote, error) {
	o.mu.RLock()
	q, ok := o.quotes[feed]
	live := o.live[feed]
	o.mu.RUnlock()
	if !ok {
		return models.PriceQuote{}, fmt.Errorf("feed %s: %w", feed, oracle.ErrFeedNotFound)
	}
	if live {
		q.PublishTime = o.clock.Now().Unix()
	}
	if err := oracle.CheckFresh(q, o.clock.Now(), maxStaleness); err != nil {
		return models.PriceQuote{}, err
	}
	return q, nil
}
