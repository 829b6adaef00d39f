package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"taxi-tariff/internal/apperror"
	"taxi-tariff/internal/database"
	"taxi-tariff/internal/logger"
	"taxi-tariff/internal/models"
	"taxi-tariff/internal/redis"
	"taxi-tariff/internal/tariff"
)

const defaultTariffCacheTTL = 10 * time.Minute

// TariffCache кеш базовых тарифов.
type TariffCache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, key string) error
}

// TariffEventPublisher публикует события изменения тарифа.
type TariffEventPublisher interface {
	PublishTariffUpdated(tenantID string, version int) error
}

// TenantDefaults отдаёт тариф таксопарка из реестра.
type TenantDefaults interface {
	DefaultRate(tenantID string, fallback tariff.Rate) (tariff.Rate, bool)
}

// TariffService хранит базовые тарифы таксопарков.
type TariffService struct {
	db       *database.DB
	cache    TariffCache
	events   TariffEventPublisher
	tenants  TenantDefaults
	defaults tariff.Rate
	ttl      time.Duration
	log      *logger.Logger
}

// NewTariffService создаёт сервис тарифов. cache, events и tenants могут быть nil.
func NewTariffService(db *database.DB, cache TariffCache, events TariffEventPublisher, tenants TenantDefaults, defaults tariff.Rate, ttl time.Duration, log *logger.Logger) *TariffService {
	if ttl <= 0 {
		ttl = defaultTariffCacheTTL
	}
	return &TariffService{
		db:       db,
		cache:    cache,
		events:   events,
		tenants:  tenants,
		defaults: defaults,
		ttl:      ttl,
		log:      log,
	}
}

// GetBaseTariff возвращает базовый тариф: кеш, затем PostgreSQL, затем реестр и значения по умолчанию.
func (s *TariffService) GetBaseTariff(ctx context.Context, tenantID string) (*models.BaseTariff, error) {
	key := redis.GenerateKey(redis.KeyPrefixTariff, tenantID)

	if s.cache != nil {
		var cached models.BaseTariff
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			cached.Source = models.TariffSourceCache
			return &cached, nil
		}
		if !errors.Is(err, redis.ErrCacheMiss) {
			s.log.WithError(err).WithField("tenant_id", tenantID).Warn("Failed to read tariff from cache")
		}
	}

	base, err := s.loadBaseTariff(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, base, s.ttl); err != nil {
			s.log.WithError(err).WithField("tenant_id", tenantID).Warn("Failed to cache tariff")
		}
	}

	return base, nil
}

func (s *TariffService) loadBaseTariff(ctx context.Context, tenantID string) (*models.BaseTariff, error) {
	fallback, source := s.fallbackRate(tenantID)

	query := `
		SELECT start_fee, km_0_10, km_over_10, per_minute, version, updated_at
		FROM base_tariffs
		WHERE tenant_id = $1
	`

	var (
		start, km0To10, kmOver10, perMinute sql.NullFloat64
		version                             int
		updatedAt                           time.Time
	)
	err := s.db.QueryRowContext(ctx, query, tenantID).Scan(&start, &km0To10, &kmOver10, &perMinute, &version, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return rateToBaseTariff(tenantID, fallback, 0, nil, source), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get base tariff: %w", err)
	}

	rate := tariff.NormalizeBaseTariffWithDefaults(tariff.BaseTariffInput{
		Start:     nullFloat(start),
		Km0To10:   nullFloat(km0To10),
		KmOver10:  nullFloat(kmOver10),
		PerMinute: nullFloat(perMinute),
	}, fallback)

	return rateToBaseTariff(tenantID, rate, version, &updatedAt, models.TariffSourceDatabase), nil
}

// SaveBaseTariff сохраняет базовый тариф, увеличивает версию, сбрасывает кеш и публикует событие.
func (s *TariffService) SaveBaseTariff(ctx context.Context, tenantID string, req *models.UpdateBaseTariffRequest) (*models.BaseTariff, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, apperror.Validation("tenant id is required", nil)
	}
	if req == nil {
		return nil, apperror.Validation("request body is required", nil)
	}
	fields := []struct {
		name  string
		value *float64
	}{
		{"start", req.Start},
		{"km0_10", req.Km0To10},
		{"kmOver10", req.KmOver10},
		{"min", req.PerMinute},
	}
	for _, f := range fields {
		if f.value != nil && (math.IsNaN(*f.value) || math.IsInf(*f.value, 0)) {
			return nil, apperror.Validationf(nil, "%s must be a finite number", f.name)
		}
	}

	if req.ExpectedVersion != nil && *req.ExpectedVersion < 0 {
		return nil, apperror.Validationf(nil, "expected_version must be non-negative, got %d", *req.ExpectedVersion)
	}

	now := time.Now().UTC()
	query, args := upsertTariffQuery(tenantID, req, now)

	var version int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.Conflict("tariff was modified concurrently", err)
		}
		return nil, fmt.Errorf("failed to save base tariff: %w", err)
	}

	fallback, _ := s.fallbackRate(tenantID)
	rate := tariff.NormalizeBaseTariffWithDefaults(tariff.BaseTariffInput{
		Start:     req.Start,
		Km0To10:   req.Km0To10,
		KmOver10:  req.KmOver10,
		PerMinute: req.PerMinute,
	}, fallback)
	saved := rateToBaseTariff(tenantID, rate, version, &now, models.TariffSourceDatabase)

	if err := s.InvalidateCache(ctx, tenantID); err != nil {
		s.log.WithError(err).WithField("tenant_id", tenantID).Warn("Failed to invalidate tariff cache")
	}

	if s.events != nil {
		if err := s.events.PublishTariffUpdated(tenantID, version); err != nil {
			s.log.WithError(err).WithField("tenant_id", tenantID).Error("Failed to publish tariff updated event")
		}
	}

	s.log.WithFields(map[string]interface{}{
		"tenant_id": tenantID,
		"version":   version,
	}).Info("Base tariff saved")

	return saved, nil
}

// upsertTariffQuery строит запрос сохранения. Без expected_version это upsert;
// expected_version = 0 означает "тарифа ещё нет" и только вставляет строку,
// иначе обновляется лишь строка с совпадающей версией. Пустой результат означает конфликт.
func upsertTariffQuery(tenantID string, req *models.UpdateBaseTariffRequest, now time.Time) (string, []interface{}) {
	args := []interface{}{tenantID, req.Start, req.Km0To10, req.KmOver10, req.PerMinute, now}

	if req.ExpectedVersion != nil && *req.ExpectedVersion > 0 {
		query := `
			UPDATE base_tariffs
			SET start_fee = $2,
				km_0_10 = $3,
				km_over_10 = $4,
				per_minute = $5,
				version = version + 1,
				updated_at = $6
			WHERE tenant_id = $1 AND version = $7
			RETURNING version
		`
		return query, append(args, *req.ExpectedVersion)
	}

	query := `
		INSERT INTO base_tariffs (tenant_id, start_fee, km_0_10, km_over_10, per_minute, version, updated_at)
		VALUES ($1, $2, $3, $4, $5, 1, $6)
	`
	if req.ExpectedVersion != nil {
		query += " ON CONFLICT (tenant_id) DO NOTHING"
	} else {
		query += `
		ON CONFLICT (tenant_id) DO UPDATE
		SET start_fee = EXCLUDED.start_fee,
			km_0_10 = EXCLUDED.km_0_10,
			km_over_10 = EXCLUDED.km_over_10,
			per_minute = EXCLUDED.per_minute,
			version = base_tariffs.version + 1,
			updated_at = EXCLUDED.updated_at
		`
	}
	return query + " RETURNING version", args
}

// InvalidateCache удаляет тариф таксопарка из кеша.
func (s *TariffService) InvalidateCache(ctx context.Context, tenantID string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, redis.GenerateKey(redis.KeyPrefixTariff, tenantID))
}

// HandleTariffUpdated сбрасывает кеш по событию изменения тарифа. Запись, загруженная
// уже после сохранения (её версия не ниже версии события), остаётся в кеше.
func (s *TariffService) HandleTariffUpdated(ctx context.Context, event *models.Event) error {
	data, err := event.TariffUpdated()
	if err != nil {
		return err
	}
	if s.cache == nil {
		return nil
	}

	key := redis.GenerateKey(redis.KeyPrefixTariff, data.TenantID)
	var cached models.BaseTariff
	err = s.cache.Get(ctx, key, &cached)
	switch {
	case errors.Is(err, redis.ErrCacheMiss):
		return nil
	case err == nil && cached.Version >= data.Version:
		return nil
	}

	if err := s.cache.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to invalidate tariff cache: %w", err)
	}
	s.log.WithFields(map[string]interface{}{
		"tenant_id":      data.TenantID,
		"version":        data.Version,
		"cached_version": cached.Version,
	}).Debug("Tariff cache invalidated by event")
	return nil
}

func (s *TariffService) fallbackRate(tenantID string) (tariff.Rate, models.TariffSource) {
	if s.tenants != nil {
		if rate, ok := s.tenants.DefaultRate(tenantID, s.defaults); ok {
			return rate, models.TariffSourceTenant
		}
	}
	return s.defaults, models.TariffSourceDefault
}

func rateToBaseTariff(tenantID string, rate tariff.Rate, version int, updatedAt *time.Time, source models.TariffSource) *models.BaseTariff {
	return &models.BaseTariff{
		TenantID:  tenantID,
		Start:     rate.Start,
		Km0To10:   rate.Km0To10,
		KmOver10:  rate.KmOver10,
		PerMinute: rate.PerMinute,
		Version:   version,
		UpdatedAt: updatedAt,
		Source:    source,
	}
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// baseRate возвращает ставки базового тарифа.
func baseRate(b *models.BaseTariff) tariff.Rate {
	return tariff.Rate{Start: b.Start, Km0To10: b.Km0To10, KmOver10: b.KmOver10, PerMinute: b.PerMinute}
}
