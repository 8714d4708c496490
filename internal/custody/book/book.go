// Package book is an in-process external account book. It backs the ledger's
// transfer port in development and tests, standing in for the settlement
// system that holds real value.
package book

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/bits"
	"sync"

	id "custody/pkg/domain"
)

var (
	ErrInsufficientFunds = errors.New("insufficient external funds")
	ErrBalanceOverflow   = errors.New("external balance overflow")
)

// Book tracks external balances per (account, asset).
type Book struct {
	mu       sync.Mutex
	balances map[id.Identity]map[id.AssetID]uint64
	logger   *slog.Logger
}

type Option func(*Book)

func WithLogger(logger *slog.Logger) Option {
	return func(b *Book) {
		b.logger = logger
	}
}

func New(opts ...Option) *Book {
	b := &Book{
		balances: make(map[id.Identity]map[id.AssetID]uint64),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Transfer moves amount of asset between two external accounts.
func (b *Book) Transfer(ctx context.Context, from, to id.Identity, asset id.AssetID, amount uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if from == to {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	have := b.balances[from][asset]
	if have < amount {
		return fmt.Errorf("%s holds %d of %s, needs %d: %w", from, have, asset, amount, ErrInsufficientFunds)
	}
	sum, carry := bits.Add64(b.balances[to][asset], amount, 0)
	if carry != 0 {
		return ErrBalanceOverflow
	}

	b.account(from)[asset] = have - amount
	b.account(to)[asset] = sum

	b.logger.DebugContext(ctx, "external transfer",
		"from", from.String(),
		"to", to.String(),
		"asset", asset.String(),
		"amount", amount,
	)
	return nil
}

// Mint credits an account from outside the book.
func (b *Book) Mint(account id.Identity, asset id.AssetID, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	sum, carry := bits.Add64(b.balances[account][asset], amount, 0)
	if carry != 0 {
		return ErrBalanceOverflow
	}
	b.account(account)[asset] = sum
	return nil
}

// Balance returns account's external balance of asset.
func (b *Book) Balance(account id.Identity, asset id.AssetID) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[account][asset]
}

func (b *Book) account(owner id.Identity) map[id.AssetID]uint64 {
	acct, ok := b.balances[owner]
	if !ok {
		acct = make(map[id.AssetID]uint64)
		b.balances[owner] = acct
	}
	return acct
}
