// Package fee prices the deposit fee at a constant USD-denominated amount
// using an oracle quote for the deposited asset.
package fee

import (
	"github.com/holiman/uint256"

	"custody/internal/ledger/models"
	dErrors "custody/pkg/domain-errors"
)

// usdScale is the fixed USD fee numerator, 10^8 in quote units.
const usdScale = 100_000_000

// Compute returns floor(10^8 * 10^|exponent| / price).
//
// Errors: CodePriceInvalid when price <= 0, exponent >= 0 or confidence == 0;
// CodeOverflow when the numerator or the result does not fit.
func Compute(q models.PriceQuote) (uint64, error) {
	if q.Price <= 0 || q.Exponent >= 0 || q.Confidence == 0 {
		return 0, dErrors.New(dErrors.CodePriceInvalid, "price quote is not usable")
	}

	// exponent < 0, so the negation is positive; int64 avoids MinInt32 overflow.
	e := -int64(q.Exponent)

	num := uint256.NewInt(usdScale)
	ten := uint256.NewInt(10)
	for i := int64(0); i < e; i++ {
		var overflow bool
		num, overflow = new(uint256.Int).MulOverflow(num, ten)
		if overflow {
			return 0, dErrors.New(dErrors.CodeOverflow, "fee numerator overflow")
		}
	}

	fee := new(uint256.Int).Div(num, uint256.NewInt(uint64(q.Price)))
	if !fee.IsUint64() {
		return 0, dErrors.New(dErrors.CodeOverflow, "fee exceeds 64 bits")
	}
	return fee.Uint64(), nil
}

// Split deducts the fee from a deposit amount.
//
// Errors: CodeZeroAmount for a zero deposit, CodeAmountBelowFee when the
// deposit does not exceed the fee.
func Split(amount, fee uint64) (net uint64, err error) {
	if amount == 0 {
		return 0, dErrors.New(dErrors.CodeZeroAmount, "deposit amount must be positive")
	}
	if amount <= fee {
		return 0, dErrors.New(dErrors.CodeAmountBelowFee, "deposit amount must exceed the fee")
	}
	return amount - fee, nil
}
