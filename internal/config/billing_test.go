package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultBillingConfig(t *testing.T) {
	cfg := DefaultBillingConfig()

	assert.True(t, cfg.Rate().Equal(decimal.RequireFromString("0.10")))
	assert.Equal(t, "USD", cfg.Currency)
	assert.GreaterOrEqual(t, cfg.Concurrency, 1)
	assert.Equal(t, 15*time.Second, cfg.Timeout())
	require.NoError(t, validateBillingConfig(cfg))
}

func TestValidateBillingConfig(t *testing.T) {
	base := DefaultBillingConfig()

	cases := []struct {
		name   string
		mutate func(*BillingConfig)
	}{
		{"garbage rate", func(c *BillingConfig) { c.RatePerMinute = "ten cents" }},
		{"negative rate", func(c *BillingConfig) { c.RatePerMinute = "-0.10" }},
		{"blank currency", func(c *BillingConfig) { c.Currency = "  " }},
		{"zero concurrency", func(c *BillingConfig) { c.Concurrency = 0 }},
		{"garbage timeout", func(c *BillingConfig) { c.GatewayTimeout = "soon" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			assert.Error(t, validateBillingConfig(cfg))
		})
	}
}

func TestStaticBillingConfigHolder(t *testing.T) {
	cfg := DefaultBillingConfig()
	cfg.RatePerMinute = "0.25"

	holder := StaticBillingConfigHolder(cfg)
	assert.Equal(t, "0.25", holder.Get().RatePerMinute)

	// A zero-value holder answers with defaults rather than panicking.
	var empty BillingConfigHolder
	assert.Equal(t, DefaultBillingConfig(), empty.Get())
}

func TestTimeoutFallsBackOnBadValue(t *testing.T) {
	cfg := BillingConfig{GatewayTimeout: "not-a-duration"}
	assert.Equal(t, 15*time.Second, cfg.Timeout())
}
