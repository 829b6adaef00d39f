package services

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"taxi-tariff/internal/config"
	"taxi-tariff/internal/logger"
	"taxi-tariff/internal/tariff"
)

// TenantHeader заголовок с явным идентификатором таксопарка
const TenantHeader = "X-Tenant-ID"

// TenantResolver определяет таксопарк запроса и его часовой пояс.
type TenantResolver struct {
	registry        *config.TenantRegistry
	defaultTenant   string
	defaultLocation *time.Location
	log             *logger.Logger

	mu        sync.Mutex
	locations map[string]*time.Location
}

// NewTenantResolver создаёт резолвер. Пустой defaultLocation означает UTC.
func NewTenantResolver(registry *config.TenantRegistry, defaultTenant string, defaultLocation *time.Location, log *logger.Logger) *TenantResolver {
	if defaultLocation == nil {
		defaultLocation = time.UTC
	}
	return &TenantResolver{
		registry:        registry,
		defaultTenant:   defaultTenant,
		defaultLocation: defaultLocation,
		log:             log,
		locations:       make(map[string]*time.Location),
	}
}

// Resolve возвращает идентификатор таксопарка: параметр tenant, заголовок X-Tenant-ID,
// домен из реестра, поддомен, иначе таксопарк по умолчанию.
func (t *TenantResolver) Resolve(r *http.Request) string {
	if id := normalizeTenantID(r.URL.Query().Get("tenant")); id != "" {
		return id
	}
	if id := normalizeTenantID(r.Header.Get(TenantHeader)); id != "" {
		return id
	}

	host := requestHost(r)
	if tenant, ok := t.registry.FindByDomain(host); ok {
		return tenant.ID
	}

	parts := strings.Split(host, ".")
	if len(parts) >= 3 && net.ParseIP(host) == nil {
		if sub := normalizeTenantID(parts[0]); sub != "" && sub != "www" && sub != "app" {
			return sub
		}
	}

	return t.defaultTenant
}

// Location возвращает часовой пояс таксопарка; при ошибке используется пояс по умолчанию.
func (t *TenantResolver) Location(tenantID string) *time.Location {
	tenant, ok := t.registry.Find(tenantID)
	if !ok || tenant.Timezone == "" {
		return t.defaultLocation
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if loc, ok := t.locations[tenant.Timezone]; ok {
		return loc
	}

	loc, err := time.LoadLocation(tenant.Timezone)
	if err != nil {
		if t.log != nil {
			t.log.WithError(err).WithField("tenant_id", tenantID).Warn("Unknown tenant timezone, using default")
		}
		loc = t.defaultLocation
	}
	t.locations[tenant.Timezone] = loc
	return loc
}

// DefaultRate возвращает базовый тариф таксопарка из реестра, если он задан.
func (t *TenantResolver) DefaultRate(tenantID string, fallback tariff.Rate) (tariff.Rate, bool) {
	tenant, ok := t.registry.Find(tenantID)
	if !ok || tenant.BaseTariff == nil {
		return fallback, false
	}
	in := tariff.BaseTariffInput{
		Start:     tenant.BaseTariff.Start,
		Km0To10:   tenant.BaseTariff.Km0To10,
		KmOver10:  tenant.BaseTariff.KmOver10,
		PerMinute: tenant.BaseTariff.PerMinute,
	}
	return tariff.NormalizeBaseTariffWithDefaults(in, fallback), true
}

func requestHost(r *http.Request) string {
	host := r.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.ToLower(strings.TrimSuffix(host, "."))
}

// normalizeTenantID допускает только латиницу, цифры, '-' и '_'.
func normalizeTenantID(raw string) string {
	id := strings.ToLower(strings.TrimSpace(raw))
	if id == "" || len(id) > 64 {
		return ""
	}
	for _, r := range id {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' && r != '_' {
			return ""
		}
	}
	return id
}
