// Package cache wraps a price oracle with a short-lived quote cache, request
// coalescing and a last-good fallback while the upstream is failing.
package cache

import (
	"context"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"custody/internal/ledger/models"
	"custody/internal/ledger/ports"
	"custody/internal/oracle"
	id "custody/pkg/domain"
	"custody/pkg/platform/circuit"
)

const (
	defaultTTL      = 2 * time.Second
	cleanupInterval = time.Minute
	lastGoodPrefix  = "last:"
)

type Oracle struct {
	upstream ports.PriceOracle
	quotes   *gocache.Cache
	group    singleflight.Group
	breaker  *circuit.Breaker
	clock    ports.Clock
	logger   *slog.Logger
}

type Option func(*Oracle)

func WithTTL(ttl time.Duration) Option {
	return func(o *Oracle) {
		if ttl > 0 {
			o.quotes = gocache.New(ttl, cleanupInterval)
		}
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(o *Oracle) {
		if b != nil {
			o.breaker = b
		}
	}
}

func WithClock(clock ports.Clock) Option {
	return func(o *Oracle) {
		if clock != nil {
			o.clock = clock
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Oracle) {
		o.logger = logger
	}
}

func New(upstream ports.PriceOracle, opts ...Option) *Oracle {
	o := &Oracle{
		upstream: upstream,
		quotes:   gocache.New(defaultTTL, cleanupInterval),
		breaker:  circuit.New("price-oracle"),
		clock:    ports.SystemClock,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Oracle) CurrentPrice(ctx context.Context, feed id.Bytes32, maxStaleness time.Duration) (models.PriceQuote, error) {
	key := feed.String()
	if v, ok := o.quotes.Get(key); ok {
		q := v.(models.PriceQuote)
		if oracle.CheckFresh(q, o.clock.Now(), maxStaleness) == nil {
			return q, nil
		}
	}

	v, err, _ := o.group.Do(key, func() (any, error) {
		return o.fetch(ctx, feed, key, maxStaleness)
	})
	if err != nil {
		return models.PriceQuote{}, err
	}
	q := v.(models.PriceQuote)
	// Coalesced callers may carry a tighter staleness bound than the leader.
	if err := oracle.CheckFresh(q, o.clock.Now(), maxStaleness); err != nil {
		return models.PriceQuote{}, err
	}
	return q, nil
}

func (o *Oracle) fetch(ctx context.Context, feed id.Bytes32, key string, maxStaleness time.Duration) (models.PriceQuote, error) {
	q, err := o.upstream.CurrentPrice(ctx, feed, maxStaleness)
	if err != nil {
		useFallback, change := o.breaker.RecordFailure()
		if change.Opened {
			o.logger.WarnContext(ctx, "price oracle circuit opened", "feed", key, "error", err)
		}
		if useFallback {
			if v, ok := o.quotes.Get(lastGoodPrefix + key); ok {
				last := v.(models.PriceQuote)
				if oracle.CheckFresh(last, o.clock.Now(), maxStaleness) == nil {
					return last, nil
				}
			}
		}
		return models.PriceQuote{}, err
	}

	if _, change := o.breaker.RecordSuccess(); change.Closed {
		o.logger.InfoContext(ctx, "price oracle circuit closed", "feed", key)
	}
	o.quotes.SetDefault(key, q)
	o.quotes.Set(lastGoodPrefix+key, q, gocache.NoExpiration)
	return q, nil
}
