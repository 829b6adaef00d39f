package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"taxi-tariff/internal/apperror"
	"taxi-tariff/internal/logger"
	"taxi-tariff/internal/models"
	"taxi-tariff/internal/tariff"

	"github.com/google/uuid"
)

// Currency валюта всех расчётов
const Currency = "NOK"

// BaseTariffProvider отдаёт базовый тариф таксопарка.
type BaseTariffProvider interface {
	GetBaseTariff(ctx context.Context, tenantID string) (*models.BaseTariff, error)
}

// TenantLocator отдаёт часовой пояс таксопарка.
type TenantLocator interface {
	Location(tenantID string) *time.Location
}

// QuoteService рассчитывает стоимость поездок по тарифам таксопарка.
type QuoteService struct {
	tariffs    BaseTariffProvider
	calendar   *HolidayCalendar
	tenants    TenantLocator
	maxMinutes int
	now        func() time.Time
	log        *logger.Logger
}

// NewQuoteService создаёт сервис расчёта стоимости.
func NewQuoteService(tariffs BaseTariffProvider, calendar *HolidayCalendar, tenants TenantLocator, maxMinutes int, log *logger.Logger) *QuoteService {
	if calendar == nil {
		calendar = NewHolidayCalendar()
	}
	return &QuoteService{
		tariffs:    tariffs,
		calendar:   calendar,
		tenants:    tenants,
		maxMinutes: maxMinutes,
		now:        time.Now,
		log:        log,
	}
}

// Estimate рассчитывает стоимость поездки с учётом смены тарифных периодов.
func (s *QuoteService) Estimate(ctx context.Context, tenantID string, req *models.EstimateRequest) (*models.Quote, error) {
	if req == nil {
		return nil, apperror.Validation("request body is required", nil)
	}

	minutes, err := wholeMinutes(req.DurationMin)
	if err != nil {
		return nil, apperror.Validation(err.Error(), err)
	}

	group := req.VehicleGroup
	if group == "" {
		group = tariff.Group1To4
	}

	loc := s.location(tenantID)
	start, err := parseStartTime(req, loc, s.now)
	if err != nil {
		return nil, apperror.Validation(err.Error(), err)
	}

	base, err := s.tariffs.GetBaseTariff(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tariff: %w", err)
	}

	set := s.calendar.SetFor(start.Year())
	result, err := tariff.EstimateFare(tariff.Trip{
		DistanceKm:  req.DistanceKm,
		DurationMin: minutes,
		Group:       group,
		Start:       start,
		Tariffs:     tariff.Derive(baseRate(base)),
		Holidays:    set,
		MaxMinutes:  s.maxMinutes,
	})
	if err != nil {
		return nil, engineError(err)
	}

	quote := &models.Quote{
		ID:            uuid.New(),
		TenantID:      tenantID,
		VehicleGroup:  group,
		DistanceKm:    req.DistanceKm,
		DurationMin:   minutes,
		StartTime:     start,
		StartPeriod:   tariff.PeriodAt(start, set),
		Total:         result.Total,
		Currency:      Currency,
		Segments:      result.Segments,
		TariffVersion: base.Version,
		CreatedAt:     s.now().UTC(),
	}

	s.logBreakdown(quote)
	return quote, nil
}

// Matrix строит матрицу цен без учёта смены периодов.
func (s *QuoteService) Matrix(ctx context.Context, tenantID string, distanceKm float64, durationMin int) (*models.MatrixResponse, error) {
	base, err := s.tariffs.GetBaseTariff(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tariff: %w", err)
	}

	prices, err := tariff.BuildPriceMatrix(distanceKm, durationMin, tariff.Derive(baseRate(base)))
	if err != nil {
		return nil, engineError(err)
	}

	return &models.MatrixResponse{
		TenantID:    tenantID,
		DistanceKm:  distanceKm,
		DurationMin: durationMin,
		Currency:    Currency,
		Prices:      prices,
	}, nil
}

// Table возвращает базовый тариф и производную таблицу ставок.
func (s *QuoteService) Table(ctx context.Context, tenantID string) (*models.TariffTableResponse, error) {
	base, err := s.tariffs.GetBaseTariff(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tariff: %w", err)
	}
	return &models.TariffTableResponse{
		Base:  base,
		Table: tariff.Derive(baseRate(base)),
	}, nil
}

// Holidays возвращает список праздников за год.
func (s *QuoteService) Holidays(year int) (*models.HolidaysResponse, error) {
	if year < 1583 || year > 9999 {
		return nil, apperror.Validationf(nil, "year must be between 1583 and 9999, got %d", year)
	}
	return &models.HolidaysResponse{
		Year:     year,
		Holidays: s.calendar.Named(year),
	}, nil
}

func (s *QuoteService) location(tenantID string) *time.Location {
	if s.tenants == nil {
		return time.UTC
	}
	return s.tenants.Location(tenantID)
}

func (s *QuoteService) logBreakdown(q *models.Quote) {
	if s.log == nil {
		return
	}
	for i, seg := range q.Segments {
		s.log.WithFields(map[string]interface{}{
			"quote_id": q.ID,
			"segment":  i + 1,
			"period":   seg.Type,
			"minutes":  seg.Minutes,
			"km":       seg.Km,
			"price":    seg.Price,
		}).Debug("Fare segment")
	}
	s.log.WithFields(map[string]interface{}{
		"quote_id":      q.ID,
		"tenant_id":     q.TenantID,
		"vehicle_group": q.VehicleGroup,
		"start_period":  q.StartPeriod,
		"total":         q.Total,
	}).Info("Fare estimated")
}

func engineError(err error) error {
	switch {
	case errors.Is(err, tariff.ErrUnknownGroup), errors.Is(err, tariff.ErrInvalidTrip), errors.Is(err, tariff.ErrMissingRate):
		return apperror.Validation(err.Error(), err)
	default:
		return err
	}
}

// wholeMinutes переводит длительность в целые минуты; дробное значение отклоняется.
func wholeMinutes(v float64) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("duration_min must be a finite number")
	}
	if v != math.Trunc(v) {
		return 0, fmt.Errorf("duration_min must be a whole number of minutes, got %v", v)
	}
	if math.Abs(v) > math.MaxInt32 {
		return 0, fmt.Errorf("duration_min is out of range: %v", v)
	}
	return int(v), nil
}

var startTimeLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
}

// parseStartTime разбирает время начала поездки в часовом поясе таксопарка.
// Время с явным смещением (RFC 3339) переводится в этот пояс; пустое значение означает "сейчас".
func parseStartTime(req *models.EstimateRequest, loc *time.Location, now func() time.Time) (time.Time, error) {
	raw := strings.TrimSpace(req.StartTime)
	if raw == "" && (req.Date != "" || req.Time != "") {
		if req.Date == "" || req.Time == "" {
			return time.Time{}, fmt.Errorf("both date and time are required")
		}
		raw = strings.TrimSpace(req.Date) + "T" + strings.TrimSpace(req.Time)
	}
	if raw == "" {
		return now().In(loc), nil
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range startTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid start time %q", raw)
}
