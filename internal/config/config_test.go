package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetEnvHelpers(t *testing.T) {
	os.Setenv("TEST_STR", "value")
	os.Setenv("TEST_INT", "123")
	os.Setenv("TEST_FLOAT", "3.14")
	os.Setenv("TEST_BOOL_TRUE", "true")
	os.Setenv("TEST_BOOL_FALSE", "false")

	if v := getEnv("TEST_STR", ""); v != "value" {
		t.Fatalf("expected value, got %s", v)
	}
	if v := getEnvAsInt("TEST_INT", 0); v != 123 {
		t.Fatalf("expected 123, got %d", v)
	}
	if v := getEnvAsFloat("TEST_FLOAT", 0); v != 3.14 {
		t.Fatalf("expected 3.14, got %f", v)
	}
	if !getEnvAsBool("TEST_BOOL_TRUE", false) {
		t.Fatalf("expected true")
	}
	if getEnvAsBool("TEST_BOOL_FALSE", true) {
		t.Fatalf("expected false")
	}
}

func TestLoadDefaults(t *testing.T) {
	_ = os.Unsetenv("SERVER_PORT")
	_ = os.Unsetenv("TARIFF_START")
	_ = os.Unsetenv("TARIFF_TIMEZONE")
	cfg := Load()
	if cfg.Server.Port == "" {
		t.Fatalf("expected default server port set")
	}
	if cfg.Tariff.Start != 97 || cfg.Tariff.Timezone != "Europe/Oslo" {
		t.Fatalf("unexpected tariff defaults: %+v", cfg.Tariff)
	}
	if cfg.Kafka.Topics.Tariffs == "" {
		t.Fatalf("expected tariffs topic default")
	}
}

func TestLoadTariffOverrides(t *testing.T) {
	t.Setenv("TARIFF_KM_OVER_10", "25.5")
	t.Setenv("TARIFF_MAX_TRIP_MINUTES", "600")
	cfg := Load()
	if cfg.Tariff.KmOver10 != 25.5 || cfg.Tariff.MaxTripMinutes != 600 {
		t.Fatalf("env overrides not applied: %+v", cfg.Tariff)
	}
}

func writeTenants(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tenants.yml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write tenants: %v", err)
	}
	return path
}

func TestLoadTenants(t *testing.T) {
	path := writeTenants(t, `
tenants:
  - id: voss-taxi
    name: Voss Taxi
    timezone: Europe/Oslo
    domains: [kalkulator.vosstaxi.no]
    base_tariff:
      start: 110
  - id: bergen-taxi
    name: Bergen Taxi
`)

	registry, err := LoadTenants(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(registry.Tenants) != 2 {
		t.Fatalf("expected 2 tenants, got %d", len(registry.Tenants))
	}

	voss, ok := registry.Find("voss-taxi")
	if !ok || voss.BaseTariff == nil || voss.BaseTariff.Start == nil || *voss.BaseTariff.Start != 110 {
		t.Fatalf("unexpected voss tenant: %+v", voss)
	}
	if voss.BaseTariff.PerMinute != nil {
		t.Fatalf("expected missing minute rate to stay nil")
	}

	byDomain, ok := registry.FindByDomain("KALKULATOR.vosstaxi.no")
	if !ok || byDomain.ID != "voss-taxi" {
		t.Fatalf("expected domain lookup to find voss-taxi")
	}
	if _, ok := registry.Find("oslo-taxi"); ok {
		t.Fatalf("did not expect unknown tenant")
	}
}

func TestLoadTenants_EmptyPathAndErrors(t *testing.T) {
	registry, err := LoadTenants("")
	if err != nil || len(registry.Tenants) != 0 {
		t.Fatalf("expected empty registry, got %+v err=%v", registry, err)
	}

	if _, err := LoadTenants(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Fatalf("expected error for missing file")
	}

	dup := writeTenants(t, "tenants:\n  - id: a\n  - id: a\n")
	if _, err := LoadTenants(dup); err == nil {
		t.Fatalf("expected duplicate id error")
	}

	var nilRegistry *TenantRegistry
	if _, ok := nilRegistry.Find("a"); ok {
		t.Fatalf("nil registry must not find tenants")
	}
}
