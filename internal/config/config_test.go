package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var configKeys = []string{
	"APP_ENV", "ADMIN_EMAIL", "ADMIN_PASSWORD", "SESSION_SECRET", "DB_PATH", "PORT",
	"EBAY_APP_TOKEN", "EBAY_MARKETPLACE", "EBAY_BASE_URL", "SEARCH_CACHE_TTL",
	"PLATFORM_FEE_PERCENT", "PLATFORM_FIXED_FEE", "SHIPPING_COST", "PREMIUM_PERCENT",
	"METRICS_ENABLED", "CONFIG_FILE",
}

// isolate runs the test in an empty directory with no config variables set.
func isolate(t *testing.T) string {
	t.Helper()
	for _, k := range configKeys {
		unset(t, k)
	}
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DBPath != "./dev.db" || cfg.Port != "8080" || cfg.EbayMarketplace != "EBAY_GB" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.SearchCacheTTL != 10*time.Minute {
		t.Fatalf("SearchCacheTTL=%v, want 10m", cfg.SearchCacheTTL)
	}
	if cfg.PlatformFeePercent.String() != "10" || cfg.PlatformFixedFee.String() != "0.2" || cfg.ShippingCost.String() != "3.2" || cfg.PremiumPercent.String() != "15" {
		t.Fatalf("unexpected fee defaults: %+v", cfg)
	}
	if !cfg.MetricsEnabled || cfg.IsDev() {
		t.Fatalf("unexpected flags: %+v", cfg)
	}
	if got := len(cfg.Warnings()); got != 3 {
		t.Fatalf("warnings=%d, want 3", got)
	}
}

func TestValidate_RequiresSessionSecretOutsideDev(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); !errors.Is(err, ErrMissingSessionSecret) {
		t.Fatalf("Validate err=%v, want ErrMissingSessionSecret", err)
	}

	t.Setenv("SESSION_SECRET", "configured")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoad_DevGeneratesSessionSecret(t *testing.T) {
	isolate(t)
	t.Setenv("APP_ENV", "dev")

	first, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	second, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := first.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(first.SessionSecret) != 64 || first.SessionSecret == second.SessionSecret {
		t.Fatalf("expected distinct random secrets, got %q and %q", first.SessionSecret, second.SessionSecret)
	}

	found := false
	for _, w := range first.Warnings() {
		if strings.Contains(w, "SESSION_SECRET") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a SESSION_SECRET warning, got %v", first.Warnings())
	}
}

func TestLoad_EnvAndDotEnv(t *testing.T) {
	dir := isolate(t)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("PORT=9090\nADMIN_EMAIL=file@example.com\n"), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}
	t.Setenv("ADMIN_EMAIL", "env@example.com")
	t.Setenv("APP_ENV", "DEV")
	t.Setenv("SEARCH_CACHE_TTL", "90s")
	t.Setenv("SHIPPING_COST", "0")
	t.Setenv("METRICS_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("Port=%q, want value from .env", cfg.Port)
	}
	if cfg.AdminEmail != "env@example.com" {
		t.Fatalf("AdminEmail=%q, environment must win over .env", cfg.AdminEmail)
	}
	if !cfg.IsDev() || cfg.SearchCacheTTL != 90*time.Second || !cfg.ShippingCost.IsZero() || cfg.MetricsEnabled {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("db_path: /tmp/maker.db\nebay_marketplace: EBAY_US\npremium_percent: \"25\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("EBAY_MARKETPLACE", "EBAY_DE")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "/tmp/maker.db" || cfg.PremiumPercent.String() != "25" {
		t.Fatalf("config file not applied: %+v", cfg)
	}
	if cfg.EbayMarketplace != "EBAY_DE" {
		t.Fatalf("EbayMarketplace=%q, environment must win over the config file", cfg.EbayMarketplace)
	}
}

func TestLoad_RejectsBadAmounts(t *testing.T) {
	isolate(t)
	t.Setenv("PLATFORM_FEE_PERCENT", "ten")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for non-numeric fee")
	}

	t.Setenv("PLATFORM_FEE_PERCENT", "-1")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for negative fee")
	}
}
