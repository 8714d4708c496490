package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "custody/pkg/domain"
)

func setRequired(t *testing.T) (collector, custody id.Identity) {
	collector, custody = id.Identity{0xC0}, id.Identity{0xCC}
	t.Setenv("FEE_COLLECTOR", collector.String())
	t.Setenv("CUSTODY_ACCOUNT", custody.String())
	return collector, custody
}

func TestFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		collector, custody := setRequired(t)

		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.Server.Addr)
		assert.Equal(t, StoreMemory, cfg.Store.Backend)
		assert.Equal(t, collector, cfg.Bank.FeeCollector)
		assert.Equal(t, custody, cfg.Bank.EscrowCustody, "escrow falls back to the custody account")
		assert.Equal(t, 60*time.Second, cfg.Bank.MaxPriceStaleness)
		assert.Empty(t, cfg.Kafka.Brokers)
	})

	t.Run("overrides", func(t *testing.T) {
		setRequired(t)
		t.Setenv("STORE_BACKEND", StorePostgres)
		t.Setenv("DATABASE_URL", "postgres://localhost/custody")
		t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")
		t.Setenv("PRICE_FEED_ID", "0x"+strings.Repeat("ab", 32))
		t.Setenv("ORACLE_CACHE_TTL", "500ms")

		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
		assert.Equal(t, byte(0xab), cfg.Bank.PriceFeedID[31])
		assert.Equal(t, 500*time.Millisecond, cfg.Oracle.CacheTTL)
	})

	t.Run("missing fee collector", func(t *testing.T) {
		t.Setenv("FEE_COLLECTOR", "")
		t.Setenv("CUSTODY_ACCOUNT", id.Identity{0xCC}.String())
		_, err := FromEnv()
		assert.ErrorContains(t, err, "FEE_COLLECTOR is required")
	})

	t.Run("postgres needs a dsn", func(t *testing.T) {
		setRequired(t)
		t.Setenv("STORE_BACKEND", StorePostgres)
		t.Setenv("DATABASE_URL", "")
		_, err := FromEnv()
		assert.ErrorContains(t, err, "DATABASE_URL")
	})

	t.Run("unknown backend", func(t *testing.T) {
		setRequired(t)
		t.Setenv("STORE_BACKEND", "etcd")
		_, err := FromEnv()
		assert.ErrorContains(t, err, "unknown STORE_BACKEND")
	})
}
