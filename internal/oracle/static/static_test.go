package static

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custody/internal/ledger/models"
	"custody/internal/ledger/ports"
	"custody/internal/oracle"
	id "custody/pkg/domain"
)

func TestOracle(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	o := New(ports.ClockFunc(func() time.Time { return now }))
	feed := id.Bytes32{7}

	_, err := o.CurrentPrice(context.Background(), feed, time.Minute)
	assert.ErrorIs(t, err, oracle.ErrFeedNotFound)

	want := models.PriceQuote{Price: 15_000_000_000, Exponent: -8, Confidence: 1, PublishTime: now.Unix() - 5}
	o.Set(feed, want)
	got, err := o.CurrentPrice(context.Background(), feed, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = o.CurrentPrice(context.Background(), feed, 2*time.Second)
	assert.ErrorIs(t, err, oracle.ErrStalePrice)
}

func TestOracleLiveQuote(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	o := New(ports.ClockFunc(func() time.Time { return now }))
	feed := id.Bytes32{9}

	o.SetLive(feed, models.PriceQuote{Price: 100_000_000, Exponent: -8, Confidence: 1})

	now = now.Add(time.Hour)
	got, err := o.CurrentPrice(context.Background(), feed, time.Second)
	require.NoError(t, err)
	assert.Equal(t, now.Unix(), got.PublishTime)

	o.Set(feed, models.PriceQuote{Price: 1, PublishTime: now.Unix() - 10})
	_, err = o.CurrentPrice(context.Background(), feed, time.Second)
	assert.ErrorIs(t, err, oracle.ErrStalePrice)
}
