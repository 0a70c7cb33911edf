package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// BillingConfig carries the tunables of the settlement engine. It is loaded
// from billing.yml and hot-reloaded on change, so a rate adjustment does not
// require a restart.
type BillingConfig struct {
	RatePerMinute  string `mapstructure:"ratePerMinute"`
	Currency       string `mapstructure:"currency"`
	Concurrency    int    `mapstructure:"concurrency"`
	GatewayTimeout string `mapstructure:"gatewayTimeout"`
}

func DefaultBillingConfig() BillingConfig {
	return BillingConfig{
		RatePerMinute:  "0.10",
		Currency:       "USD",
		Concurrency:    4,
		GatewayTimeout: "15s",
	}
}

// Rate returns the per-minute rate as a decimal. The value is validated at
// load time, so a parse failure here cannot happen on a stored config.
func (c BillingConfig) Rate() decimal.Decimal {
	rate, err := decimal.NewFromString(c.RatePerMinute)
	if err != nil {
		return decimal.Zero
	}
	return rate
}

func (c BillingConfig) Timeout() time.Duration {
	d, err := time.ParseDuration(c.GatewayTimeout)
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

type BillingConfigHolder struct {
	current atomic.Value // holds BillingConfig
}

func NewBillingConfigHolder() (*BillingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("billing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/timebill/config") // Volume-mounted config
	v.AddConfigPath("/etc/timebill")            // System config
	v.AddConfigPath(".")                        // Current directory (dev mode)

	v.SetEnvPrefix("TIMEBILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultBillingConfig()
	v.SetDefault("billing.ratePerMinute", defaults.RatePerMinute)
	v.SetDefault("billing.currency", defaults.Currency)
	v.SetDefault("billing.concurrency", defaults.Concurrency)
	v.SetDefault("billing.gatewayTimeout", defaults.GatewayTimeout)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg BillingConfig
	if err := v.UnmarshalKey("billing", &cfg); err != nil {
		return nil, err
	}
	if err := validateBillingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated BillingConfig
		if err := v.UnmarshalKey("billing", &updated); err != nil {
			log.Printf("[billing-config] reload failed: %v", err)
			return
		}
		if err := validateBillingConfig(updated); err != nil {
			log.Printf("[billing-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[billing-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// StaticBillingConfigHolder wraps a fixed config for callers that do not
// want file watching.
func StaticBillingConfigHolder(cfg BillingConfig) *BillingConfigHolder {
	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *BillingConfigHolder) Get() BillingConfig {
	if cfg, ok := h.current.Load().(BillingConfig); ok {
		return cfg
	}
	return DefaultBillingConfig()
}

func validateBillingConfig(cfg BillingConfig) error {
	rate, err := decimal.NewFromString(cfg.RatePerMinute)
	if err != nil {
		return errors.New("billing.ratePerMinute must be a decimal number")
	}
	if rate.IsNegative() {
		return errors.New("billing.ratePerMinute cannot be negative")
	}
	if strings.TrimSpace(cfg.Currency) == "" {
		return errors.New("billing.currency cannot be empty")
	}
	if cfg.Concurrency < 1 {
		return errors.New("billing.concurrency must be at least 1")
	}
	if _, err := time.ParseDuration(cfg.GatewayTimeout); err != nil {
		return errors.New("billing.gatewayTimeout must be a duration")
	}
	return nil
}
