package models

import (
	"time"

	"taxi-tariff/internal/holidays"
	"taxi-tariff/internal/tariff"

	"github.com/google/uuid"
)

// EstimateRequest представляет запрос на расчет стоимости поездки.
// Время начала задается либо StartTime, либо парой Date + Time.
// DurationMin принимается числом и должно быть целым количеством минут.
type EstimateRequest struct {
	DistanceKm   float64      `json:"distance_km"`
	DurationMin  float64      `json:"duration_min"`
	VehicleGroup tariff.Group `json:"vehicle_group"`
	StartTime    string       `json:"start_time,omitempty"`
	Date         string       `json:"date,omitempty"`
	Time         string       `json:"time,omitempty"`
}

// Quote представляет результат расчета стоимости поездки.
type Quote struct {
	ID            uuid.UUID        `json:"id"`
	TenantID      string           `json:"tenant_id"`
	VehicleGroup  tariff.Group     `json:"vehicle_group"`
	DistanceKm    float64          `json:"distance_km"`
	DurationMin   int              `json:"duration_min"`
	StartTime     time.Time        `json:"start_time"`
	StartPeriod   tariff.Period    `json:"start_period"`
	Total         int64            `json:"total"`
	Currency      string           `json:"currency"`
	Segments      []tariff.Segment `json:"segments"`
	TariffVersion int              `json:"tariff_version"`
	CreatedAt     time.Time        `json:"created_at"`
}

// MatrixResponse представляет матрицу цен по группам и периодам.
type MatrixResponse struct {
	TenantID    string             `json:"tenant_id"`
	DistanceKm  float64            `json:"distance_km"`
	DurationMin int                `json:"duration_min"`
	Currency    string             `json:"currency"`
	Prices      tariff.PriceMatrix `json:"prices"`
}

// TariffTableResponse представляет базовый тариф и производную таблицу.
type TariffTableResponse struct {
	Base  *BaseTariff  `json:"base"`
	Table tariff.Table `json:"table"`
}

// HolidaysResponse представляет список праздников за год.
type HolidaysResponse struct {
	Year     int                `json:"year"`
	Holidays []holidays.Holiday `json:"holidays"`
}
