package handlers

import (
	"context"
	"net/http"

	"taxi-tariff/internal/models"
	"taxi-tariff/internal/services"
)

// ----- Quotes -----

type QuoteService interface {
	Estimate(ctx context.Context, tenantID string, req *models.EstimateRequest) (*models.Quote, error)
	Matrix(ctx context.Context, tenantID string, distanceKm float64, durationMin int) (*models.MatrixResponse, error)
	Table(ctx context.Context, tenantID string) (*models.TariffTableResponse, error)
	Holidays(year int) (*models.HolidaysResponse, error)
}

// ----- Tariffs -----

type TariffStore interface {
	SaveBaseTariff(ctx context.Context, tenantID string, req *models.UpdateBaseTariffRequest) (*models.BaseTariff, error)
}

// ----- Tenants -----

type TenantResolver interface {
	Resolve(r *http.Request) string
}

// ----- Rate limit -----

type MiddlewareLimiter interface {
	Allow(ctx context.Context, key string) (services.RateDecision, error)
	Enabled() bool
}

type RateLimitStatusProvider interface {
	MiddlewareLimiter
	Usage(ctx context.Context, key string) (services.RateUsage, error)
}

// ----- Health -----

type DBHealth interface {
	Health() error
}

type RedisHealth interface {
	Health(ctx context.Context) error
}
