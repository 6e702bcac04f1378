package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	defaultEnv            = "prod"
	defaultDBPath         = "./dev.db"
	defaultPort           = "8080"
	defaultEbayMarket     = "EBAY_GB"
	defaultEbayBaseURL    = "https://api.ebay.com"
	defaultSearchCacheTTL = 10 * time.Minute

	generatedSecretBytes = 32
)

// ErrMissingSessionSecret is returned by Validate outside dev when no
// SESSION_SECRET is configured.
var ErrMissingSessionSecret = errors.New("SESSION_SECRET is required outside dev")

// Config holds application configuration sourced from the environment, a
// local .env file and an optional config file.
type Config struct {
	Env           string
	AdminEmail    string
	AdminPassword string
	SessionSecret string
	DBPath        string
	Port          string

	EbayAppToken    string
	EbayMarketplace string
	EbayBaseURL     string
	SearchCacheTTL  time.Duration

	PlatformFeePercent decimal.Decimal
	PlatformFixedFee   decimal.Decimal
	ShippingCost       decimal.Decimal
	PremiumPercent     decimal.Decimal

	MetricsEnabled bool

	generatedSecret bool
}

// Load reads .env (best effort), then the environment, then CONFIG_FILE if set.
// Environment variables win over the config file.
func Load() (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	if path := v.GetString("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", defaultEnv)
	v.SetDefault("DB_PATH", defaultDBPath)
	v.SetDefault("PORT", defaultPort)
	v.SetDefault("EBAY_MARKETPLACE", defaultEbayMarket)
	v.SetDefault("EBAY_BASE_URL", defaultEbayBaseURL)
	v.SetDefault("SEARCH_CACHE_TTL", defaultSearchCacheTTL)
	v.SetDefault("PLATFORM_FEE_PERCENT", "10")
	v.SetDefault("PLATFORM_FIXED_FEE", "0.20")
	v.SetDefault("SHIPPING_COST", "3.20")
	v.SetDefault("PREMIUM_PERCENT", "15")
	v.SetDefault("METRICS_ENABLED", true)
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Env:             strings.ToLower(v.GetString("APP_ENV")),
		AdminEmail:      v.GetString("ADMIN_EMAIL"),
		AdminPassword:   v.GetString("ADMIN_PASSWORD"),
		SessionSecret:   v.GetString("SESSION_SECRET"),
		DBPath:          v.GetString("DB_PATH"),
		Port:            v.GetString("PORT"),
		EbayAppToken:    v.GetString("EBAY_APP_TOKEN"),
		EbayMarketplace: v.GetString("EBAY_MARKETPLACE"),
		EbayBaseURL:     v.GetString("EBAY_BASE_URL"),
		SearchCacheTTL:  v.GetDuration("SEARCH_CACHE_TTL"),
		MetricsEnabled:  v.GetBool("METRICS_ENABLED"),
	}

	amounts := []struct {
		key string
		dst *decimal.Decimal
	}{
		{"PLATFORM_FEE_PERCENT", &cfg.PlatformFeePercent},
		{"PLATFORM_FIXED_FEE", &cfg.PlatformFixedFee},
		{"SHIPPING_COST", &cfg.ShippingCost},
		{"PREMIUM_PERCENT", &cfg.PremiumPercent},
	}
	for _, a := range amounts {
		d, err := decimal.NewFromString(strings.TrimSpace(v.GetString(a.key)))
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", a.key, err)
		}
		if d.IsNegative() {
			return Config{}, fmt.Errorf("%s must not be negative", a.key)
		}
		*a.dst = d
	}

	if cfg.SearchCacheTTL <= 0 {
		cfg.SearchCacheTTL = defaultSearchCacheTTL
	}

	if cfg.SessionSecret == "" && cfg.IsDev() {
		secret, err := randomSecret()
		if err != nil {
			return Config{}, fmt.Errorf("generate session secret: %w", err)
		}
		cfg.SessionSecret = secret
		cfg.generatedSecret = true
	}

	return cfg, nil
}

// IsDev reports whether the app runs in the dev environment.
func (c Config) IsDev() bool {
	return c.Env == "dev"
}

// Warnings lists settings that are missing but not fatal.
func (c Config) Warnings() []string {
	var out []string
	if c.AdminEmail == "" {
		out = append(out, "ADMIN_EMAIL is not set")
	}
	if c.AdminPassword == "" {
		out = append(out, "ADMIN_PASSWORD is not set")
	}
	if c.generatedSecret {
		out = append(out, "SESSION_SECRET is not set; sessions use a random secret and end on restart")
	}
	if c.EbayAppToken == "" {
		out = append(out, "EBAY_APP_TOKEN is not set; marketplace searches return no listings")
	}
	return out
}

// Validate reports settings the server cannot run without.
func (c Config) Validate() error {
	if c.SessionSecret == "" {
		return ErrMissingSessionSecret
	}
	return nil
}

func randomSecret() (string, error) {
	b := make([]byte, generatedSecretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
