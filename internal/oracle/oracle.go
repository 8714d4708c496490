// Package oracle holds what the price oracle adapters share: their failure
// modes and the staleness rule.
package oracle

import (
	"errors"
	"fmt"
	"time"

	"custody/internal/ledger/models"
)

var (
	ErrFeedNotFound = errors.New("price feed not found")
	ErrStalePrice   = errors.New("price is older than allowed")
)

// CheckFresh rejects a quote published more than maxStaleness before now.
// Quotes stamped in the future are accepted as fresh.
func CheckFresh(q models.PriceQuote, now time.Time, maxStaleness time.Duration) error {
	age := now.Unix() - q.PublishTime
	if age > int64(maxStaleness/time.Second) {
		return fmt.Errorf("published %ds ago, limit %s: %w", age, maxStaleness, ErrStalePrice)
	}
	return nil
}
