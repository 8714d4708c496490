package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	id "custody/pkg/domain"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config is the complete process configuration.
type Config struct {
	Server Server
	Store  Store
	Redis  RedisConfig
	Oracle Oracle
	Bank   Bank
	Kafka  Kafka
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
	LogLevel      string
	LogFormat     string
	DevMode       bool
}

// Store selects the record store backend.
type Store struct {
	Backend     string
	DatabaseURL string
}

// RedisConfig configures the redis client used by the redis store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Oracle configures the price source. An empty HermesURL selects the static
// development quote.
type Oracle struct {
	HermesURL      string
	CacheTTL       time.Duration
	StaticPrice    int64
	StaticExponent int32
}

// Bank is the configuration applied by Initialize on first start.
type Bank struct {
	FeeCollector      id.Identity
	Custody           id.Identity
	EscrowCustody     id.Identity
	Salt              id.Bytes32
	PriceFeedID       id.Bytes32
	MaxPriceStaleness time.Duration
}

// Kafka configures audit publishing. No brokers selects the log publisher.
type Kafka struct {
	Brokers    []string
	AuditTopic string
}

// Load reads an optional .env file and then the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds the configuration from environment variables so main stays lean.
func FromEnv() (Config, error) {
	var (
		cfg Config
		err error
	)

	cfg.Server = Server{
		Addr:          getEnv("CUSTODY_ADDR", ":8080"),
		JWTSigningKey: getEnv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:     getEnv("JWT_ISSUER", "custody"),
		JWTAudience:   getEnv("JWT_AUDIENCE", "custody-api"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "text"),
		DevMode:       os.Getenv("CUSTODY_DEV_MODE") == "true",
	}

	cfg.Store = Store{
		Backend:     getEnv("STORE_BACKEND", StoreMemory),
		DatabaseURL: os.Getenv("DATABASE_URL"),
	}
	switch cfg.Store.Backend {
	case StoreMemory, StoreRedis:
	case StorePostgres:
		if cfg.Store.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	default:
		return Config{}, fmt.Errorf("unknown STORE_BACKEND %q", cfg.Store.Backend)
	}

	cfg.Redis = RedisConfig{
		URL:          getEnv("REDIS_URL", "redis://localhost:6379/0"),
		PoolSize:     getInt("REDIS_POOL_SIZE", 10),
		MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
		DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
	}

	cfg.Oracle = Oracle{
		HermesURL:      os.Getenv("HERMES_URL"),
		CacheTTL:       getDuration("ORACLE_CACHE_TTL", 2*time.Second),
		StaticPrice:    int64(getInt("ORACLE_STATIC_PRICE", 100_000_000)),
		StaticExponent: int32(getInt("ORACLE_STATIC_EXPONENT", -8)),
	}

	if cfg.Bank.FeeCollector, err = identityEnv("FEE_COLLECTOR", true); err != nil {
		return Config{}, err
	}
	if cfg.Bank.Custody, err = identityEnv("CUSTODY_ACCOUNT", true); err != nil {
		return Config{}, err
	}
	if cfg.Bank.EscrowCustody, err = identityEnv("ESCROW_ACCOUNT", false); err != nil {
		return Config{}, err
	}
	if cfg.Bank.EscrowCustody.IsNil() {
		cfg.Bank.EscrowCustody = cfg.Bank.Custody
	}
	if cfg.Bank.Salt, err = bytes32Env("BANK_SALT"); err != nil {
		return Config{}, err
	}
	if cfg.Bank.PriceFeedID, err = bytes32Env("PRICE_FEED_ID"); err != nil {
		return Config{}, err
	}
	cfg.Bank.MaxPriceStaleness = getDuration("MAX_PRICE_STALENESS", 60*time.Second)

	cfg.Kafka = Kafka{
		AuditTopic: getEnv("KAFKA_AUDIT_TOPIC", "custody.audit"),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.Kafka.Brokers = append(cfg.Kafka.Brokers, b)
			}
		}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func identityEnv(key string, required bool) (id.Identity, error) {
	v := os.Getenv(key)
	if v == "" {
		if required {
			return id.Identity{}, fmt.Errorf("%s is required", key)
		}
		return id.Identity{}, nil
	}
	parsed, err := id.ParseIdentity(v)
	if err != nil {
		return id.Identity{}, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}

// bytes32Env reads an optional 64-character hex value.
func bytes32Env(key string) (id.Bytes32, error) {
	v := os.Getenv(key)
	if v == "" {
		return id.Bytes32{}, nil
	}
	parsed, err := id.ParseBytes32(strings.TrimPrefix(v, "0x"))
	if err != nil {
		return id.Bytes32{}, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}
