package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"custody/internal/custody/book"
	escrowHandler "custody/internal/escrow/handler"
	escrowService "custody/internal/escrow/service"
	jwttoken "custody/internal/jwt_token"
	ledgerHandler "custody/internal/ledger/handler"
	ledgerMetrics "custody/internal/ledger/metrics"
	"custody/internal/ledger/models"
	"custody/internal/ledger/ports"
	ledgerService "custody/internal/ledger/service"
	memoryStore "custody/internal/ledger/store/memory"
	postgresStore "custody/internal/ledger/store/postgres"
	redisStore "custody/internal/ledger/store/redis"
	"custody/internal/oracle/cache"
	"custody/internal/oracle/hermes"
	"custody/internal/oracle/static"
	"custody/internal/platform/config"
	"custody/internal/platform/httpserver"
	"custody/internal/platform/kafka"
	"custody/internal/platform/logger"
	platformMetrics "custody/internal/platform/metrics"
	platformRedis "custody/internal/platform/redis"
	httptransport "custody/internal/transport/http"
	dErrors "custody/pkg/domain-errors"
	"custody/pkg/platform/audit"
	auditPublisher "custody/pkg/platform/audit/publisher"
	auditMemory "custody/pkg/platform/audit/store/memory"
	auditPostgres "custody/pkg/platform/audit/store/postgres"
)

// main wires dependencies, exposes the HTTP router and owns the server
// lifecycle. Business logic lives in the internal service packages.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Server.LogLevel, cfg.Server.LogFormat)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("custody server stopped", "error", err)
		os.Exit(1)
	}
	log.Info("custody server stopped gracefully")
}

// infra holds the backing resources opened for the configured backend.
type infra struct {
	store  ports.RecordStore
	db     *sql.DB
	redis  *platformRedis.Client
	health map[string]httptransport.HealthCheck
}

func (i *infra) close(log *slog.Logger) {
	if i.db != nil {
		if err := i.db.Close(); err != nil {
			log.Warn("failed to close database", "error", err)
		}
	}
	if i.redis != nil {
		if err := i.redis.Close(); err != nil {
			log.Warn("failed to close redis", "error", err)
		}
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	backing, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer backing.close(log)

	auditStore, closeAudit, err := openAuditStore(ctx, cfg, backing, log)
	if err != nil {
		return err
	}
	publisher := auditPublisher.NewPublisher(auditStore, auditPublisher.WithAsyncBuffer(1024), auditPublisher.WithLogger(log))
	defer func() {
		publisher.Close()
		closeAudit()
	}()

	priceOracle, err := newOracle(cfg, log)
	if err != nil {
		return err
	}

	transfers := book.New(book.WithLogger(log))
	opsMetrics := ledgerMetrics.New(reg)

	ledger, err := ledgerService.New(backing.store, transfers, priceOracle,
		ledgerService.WithLogger(log),
		ledgerService.WithAuditPublisher(publisher),
		ledgerService.WithMetrics(opsMetrics),
	)
	if err != nil {
		return err
	}
	escrow, err := escrowService.New(backing.store, transfers, cfg.Bank.EscrowCustody,
		escrowService.WithLogger(log),
		escrowService.WithAuditPublisher(publisher),
		escrowService.WithMetrics(opsMetrics),
	)
	if err != nil {
		return err
	}

	if err := initializeBank(ctx, ledger, cfg.Bank, log); err != nil {
		return err
	}

	jwtService := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, cfg.Server.JWTAudience)
	deps := httptransport.Deps{
		Ledger:    ledgerHandler.New(ledger, log),
		Escrow:    escrowHandler.New(escrow, log),
		Validator: jwttoken.NewJWTServiceAdapter(jwtService),
		Logger:    log,
		Metrics:   platformMetrics.New(reg),
		Gatherer:  reg,
		Health:    backing.health,
	}
	if cfg.Server.DevMode {
		log.Warn("dev mode enabled: POST /dev/mint credits external balances")
		deps.Minter = transfers
	}

	srv := httpserver.New(cfg.Server.Addr, httptransport.NewRouter(deps))
	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting custody server", "addr", cfg.Server.Addr, "store", cfg.Store.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (*infra, error) {
	switch cfg.Store.Backend {
	case config.StorePostgres:
		db, err := postgresStore.Open(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := postgresStore.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info("using postgres record store")
		return &infra{
			store:  postgresStore.NewPostgres(db),
			db:     db,
			health: map[string]httptransport.HealthCheck{"postgres": db.PingContext},
		}, nil
	case config.StoreRedis:
		client, err := platformRedis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		log.Info("using redis record store")
		return &infra{
			store:  redisStore.New(client.Client),
			redis:  client,
			health: map[string]httptransport.HealthCheck{"redis": client.Health},
		}, nil
	default:
		log.Warn("using in-memory record store; state is lost on restart")
		return &infra{store: memoryStore.New()}, nil
	}
}

// openAuditStore picks the audit sink: Kafka when brokers are configured,
// the audit_events table on the postgres backend, memory otherwise.
func openAuditStore(ctx context.Context, cfg config.Config, backing *infra, log *slog.Logger) (audit.Store, func(), error) {
	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := kafka.NewAuditSink(ctx, cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			return nil, nil, err
		}
		log.Info("publishing audit events to kafka", "topic", cfg.Kafka.AuditTopic)
		return sink, sink.Close, nil
	}
	if backing.db != nil {
		return auditPostgres.New(backing.db), func() {}, nil
	}
	return auditMemory.NewInMemoryStore(), func() {}, nil
}

func newOracle(cfg config.Config, log *slog.Logger) (ports.PriceOracle, error) {
	if cfg.Oracle.HermesURL == "" {
		log.Warn("no HERMES_URL set; using a static live price quote",
			"price", cfg.Oracle.StaticPrice,
			"exponent", cfg.Oracle.StaticExponent,
		)
		o := static.New(ports.SystemClock)
		o.SetLive(cfg.Bank.PriceFeedID, models.PriceQuote{
			Price:      cfg.Oracle.StaticPrice,
			Exponent:   cfg.Oracle.StaticExponent,
			Confidence: 1,
		})
		return o, nil
	}

	client, err := hermes.New(cfg.Oracle.HermesURL)
	if err != nil {
		return nil, err
	}
	return cache.New(client, cache.WithTTL(cfg.Oracle.CacheTTL), cache.WithLogger(log)), nil
}

// initializeBank applies the configured bank on first start. An existing
// configuration is kept as is.
func initializeBank(ctx context.Context, ledger *ledgerService.Service, bank config.Bank, log *slog.Logger) error {
	_, err := ledger.Initialize(ctx, models.BankConfig{
		FeeCollector:      bank.FeeCollector,
		Salt:              bank.Salt,
		PriceFeedID:       bank.PriceFeedID,
		Custody:           bank.Custody,
		MaxPriceStaleness: int64(bank.MaxPriceStaleness / time.Second),
	})
	switch {
	case err == nil:
		log.Info("bank initialized", "fee_collector", bank.FeeCollector.String())
		return nil
	case dErrors.HasCode(err, dErrors.CodeConflict):
		log.Info("bank already initialized")
		return nil
	default:
		return err
	}
}
