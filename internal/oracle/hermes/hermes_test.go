package hermes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custody/internal/ledger/models"
	"custody/internal/ledger/ports"
	"custody/internal/oracle"
	id "custody/pkg/domain"
)

var solUSD = id.Bytes32{0xef, 0x0d, 0x8b, 0x6f}

func newServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, latestPath, r.URL.Path)
		assert.Equal(t, "0x"+solUSD.String(), r.URL.Query().Get("ids[]"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func fixedClock(unix int64) ports.Clock {
	return ports.ClockFunc(func() time.Time { return time.Unix(unix, 0) })
}

func TestCurrentPrice(t *testing.T) {
	ctx := context.Background()
	body := `{"parsed":[{"id":"` + solUSD.String() + `","price":{"price":"15012345678","conf":"7100000","expo":-8,"publish_time":1700000000}}]}`

	t.Run("parses the matching feed", func(t *testing.T) {
		srv := newServer(t, http.StatusOK, body)
		c, err := New(srv.URL, WithClock(fixedClock(1_700_000_010)))
		require.NoError(t, err)

		q, err := c.CurrentPrice(ctx, solUSD, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, models.PriceQuote{Price: 15012345678, Exponent: -8, Confidence: 7100000, PublishTime: 1700000000}, q)
	})

	t.Run("stale quote is rejected", func(t *testing.T) {
		srv := newServer(t, http.StatusOK, body)
		c, err := New(srv.URL, WithClock(fixedClock(1_700_000_061)))
		require.NoError(t, err)

		_, err = c.CurrentPrice(ctx, solUSD, time.Minute)
		assert.ErrorIs(t, err, oracle.ErrStalePrice)
	})

	t.Run("unknown feed", func(t *testing.T) {
		srv := newServer(t, http.StatusNotFound, `{"error":"not found"}`)
		c, err := New(srv.URL)
		require.NoError(t, err)

		_, err = c.CurrentPrice(ctx, solUSD, time.Minute)
		assert.ErrorIs(t, err, oracle.ErrFeedNotFound)
	})

	t.Run("server error", func(t *testing.T) {
		srv := newServer(t, http.StatusBadGateway, "upstream down")
		c, err := New(srv.URL)
		require.NoError(t, err)

		_, err = c.CurrentPrice(ctx, solUSD, time.Minute)
		assert.ErrorContains(t, err, "502")
	})

	t.Run("malformed price", func(t *testing.T) {
		srv := newServer(t, http.StatusOK, `{"parsed":[{"id":"0x`+solUSD.String()+`","price":{"price":"abc","conf":"1","expo":-8,"publish_time":1}}]}`)
		c, err := New(srv.URL)
		require.NoError(t, err)

		_, err = c.CurrentPrice(ctx, solUSD, time.Hour)
		assert.ErrorContains(t, err, "parse price")
	})
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New("::not a url")
	assert.Error(t, err)
}
