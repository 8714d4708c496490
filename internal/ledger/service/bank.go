package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"custody/internal/ledger/fee"
	"custody/internal/ledger/models"
	id "custody/pkg/domain"
	dErrors "custody/pkg/domain-errors"
	"custody/pkg/platform/audit"
)

// Initialize creates the bank configuration and the empty fee vault. It can
// succeed only once.
func (s *Service) Initialize(ctx context.Context, cfg models.BankConfig) (_ *models.BankConfig, err error) {
	ctx, done := s.begin(ctx, "initialize")
	defer done(&err)

	if cfg.FeeCollector.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "fee collector is required")
	}
	if cfg.Custody.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "custody account is required")
	}
	if cfg.MaxPriceStaleness < 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "max price staleness cannot be negative")
	}
	if cfg.MaxPriceStaleness == 0 {
		cfg.MaxPriceStaleness = int64(models.DefaultMaxPriceStaleness.Seconds())
	}
	cfg.SchemaVersion = models.CurrentSchemaVersion

	set := newRecordSet()
	set.put(models.ConfigKey, 0, &cfg)
	set.put(models.FeeVaultKey, 0, &models.FeeVault{SchemaVersion: models.CurrentSchemaVersion})
	if err := s.commit(ctx, set); err != nil {
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "bank is already initialized")
		}
		return nil, err
	}

	s.audit(ctx, audit.Event{Action: audit.EventBankInitialized, Actor: cfg.FeeCollector},
		"custody", cfg.Custody.String(),
		"price_feed_id", cfg.PriceFeedID.String(),
	)
	return &cfg, nil
}

// Config returns the bank configuration.
func (s *Service) Config(ctx context.Context) (*models.BankConfig, error) {
	b, err := s.loadBank(ctx)
	if err != nil {
		return nil, err
	}
	return b.config, nil
}

// CurrentFee returns the deposit fee at the oracle's current price.
func (s *Service) CurrentFee(ctx context.Context) (_ uint64, err error) {
	ctx, done := s.begin(ctx, "current_fee")
	defer done(&err)

	b, err := s.loadBank(ctx)
	if err != nil {
		return 0, err
	}
	return s.quoteFee(ctx, b.config)
}

func (s *Service) quoteFee(ctx context.Context, cfg *models.BankConfig) (uint64, error) {
	quote, err := s.oracle.CurrentPrice(ctx, cfg.PriceFeedID, cfg.Staleness())
	if err != nil {
		if dErrors.Is(err) {
			return 0, err
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return 0, dErrors.Wrap(err, dErrors.CodeTimeout, "price oracle timed out")
		}
		return 0, dErrors.Wrap(err, dErrors.CodeOracleUnavailable, "price oracle unavailable")
	}
	return fee.Compute(quote)
}

// FeeVault returns the current fee vault state.
func (s *Service) FeeVault(ctx context.Context) (*models.FeeVault, error) {
	v, err := s.loadFeeVault(ctx)
	if err != nil {
		return nil, err
	}
	return v.vault, nil
}

// CollectFees drains the fee vault. Only the configured fee collector may
// call it. It returns the amount collected.
func (s *Service) CollectFees(ctx context.Context, caller id.Identity) (_ uint64, err error) {
	ctx, done := s.begin(ctx, "collect_fees", attribute.String("caller", caller.String()))
	defer done(&err)

	b, err := s.loadBank(ctx)
	if err != nil {
		return 0, err
	}
	if caller != b.config.FeeCollector {
		s.audit(ctx, audit.Event{Action: audit.EventNotAuthorized, Actor: caller, Reason: "collect_fees"})
		return 0, dErrors.New(dErrors.CodeNotAuthorized, "only the fee collector may collect fees")
	}

	v, err := s.loadFeeVault(ctx)
	if err != nil {
		return 0, err
	}
	collected := v.vault.AccumulatedFees
	if collected == 0 {
		return 0, dErrors.New(dErrors.CodeNoFeesToCollect, "no fees to collect")
	}

	v.vault.AccumulatedFees = 0
	v.vault.LastCollection = s.now()

	set := newRecordSet()
	set.put(models.FeeVaultKey, v.version, v.vault)
	if err := s.commit(ctx, set); err != nil {
		return 0, err
	}

	s.metrics.AddFeesCollected(collected)
	s.audit(ctx, audit.Event{Action: audit.EventFeesCollected, Actor: caller, Amount: collected})
	return collected, nil
}
