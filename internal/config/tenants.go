package config

import (
	"fmt"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// TenantConfig описывает таксопарк в реестре
type TenantConfig struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Timezone string   `yaml:"timezone"`
	Domains  []string `yaml:"domains"`
	// BaseTariff задаёт тариф по умолчанию, пока таксопарк не сохранил собственный.
	BaseTariff *TenantTariff `yaml:"base_tariff"`
}

// TenantTariff — частично заданный базовый тариф таксопарка
type TenantTariff struct {
	Start     *float64 `yaml:"start"`
	Km0To10   *float64 `yaml:"km0_10"`
	KmOver10  *float64 `yaml:"kmOver10"`
	PerMinute *float64 `yaml:"min"`
}

// TenantRegistry — содержимое YAML-файла реестра
type TenantRegistry struct {
	Tenants []TenantConfig `yaml:"tenants"`
}

// LoadTenants читает реестр таксопарков; пустой путь даёт пустой реестр
func LoadTenants(path string) (*TenantRegistry, error) {
	registry := &TenantRegistry{}
	if path == "" {
		return registry, nil
	}

	if err := cleanenv.ReadConfig(path, registry); err != nil {
		return nil, fmt.Errorf("failed to read tenants file %s: %w", path, err)
	}

	seen := make(map[string]struct{}, len(registry.Tenants))
	for i := range registry.Tenants {
		t := &registry.Tenants[i]
		t.ID = strings.TrimSpace(t.ID)
		if t.ID == "" {
			return nil, fmt.Errorf("tenant #%d has empty id", i+1)
		}
		if _, dup := seen[t.ID]; dup {
			return nil, fmt.Errorf("duplicate tenant id %q", t.ID)
		}
		seen[t.ID] = struct{}{}
	}

	return registry, nil
}

// Find возвращает таксопарк по идентификатору
func (r *TenantRegistry) Find(id string) (*TenantConfig, bool) {
	if r == nil {
		return nil, false
	}
	for i := range r.Tenants {
		if r.Tenants[i].ID == id {
			return &r.Tenants[i], true
		}
	}
	return nil, false
}

// FindByDomain возвращает таксопарк, которому принадлежит домен
func (r *TenantRegistry) FindByDomain(host string) (*TenantConfig, bool) {
	if r == nil || host == "" {
		return nil, false
	}
	host = strings.ToLower(host)
	for i := range r.Tenants {
		for _, d := range r.Tenants[i].Domains {
			if strings.ToLower(d) == host {
				return &r.Tenants[i], true
			}
		}
	}
	return nil, false
}
