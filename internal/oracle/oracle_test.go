package oracle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"custody/internal/ledger/models"
)

func TestCheckFresh(t *testing.T) {
	now := time.Unix(1_700_000_100, 0)

	assert.NoError(t, CheckFresh(models.PriceQuote{PublishTime: 1_700_000_040}, now, 60*time.Second))
	assert.ErrorIs(t, CheckFresh(models.PriceQuote{PublishTime: 1_700_000_039}, now, 60*time.Second), ErrStalePrice)
	assert.NoError(t, CheckFresh(models.PriceQuote{PublishTime: 1_700_000_200}, now, time.Second))
}
