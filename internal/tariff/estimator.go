package tariff

import (
	"errors"
	"fmt"
	"math"
	"time"

	"taxi-tariff/internal/holidays"
)

// DistanceTierKm — граница, после которой действует ставка KmOver10.
const DistanceTierKm = 10.0

// DefaultMaxTripMinutes ограничивает длину симуляции, если Trip.MaxMinutes не задан.
const DefaultMaxTripMinutes = 24 * 60

var (
	// ErrInvalidTrip возвращается при отрицательных или нечисловых параметрах поездки.
	ErrInvalidTrip = errors.New("invalid trip")
	// ErrUnknownGroup возвращается для группы вне перечисления.
	ErrUnknownGroup = errors.New("invalid vehicle group")
	// ErrMissingRate возвращается, если в таблице нет ставки для пары (группа, период).
	ErrMissingRate = errors.New("missing rate for vehicle group/period")
)

// Trip — входные данные расчёта стоимости поездки.
type Trip struct {
	DistanceKm  float64
	DurationMin int
	Group       Group
	Start       time.Time
	Tariffs     Table
	Holidays    holidays.Set
	// MaxMinutes — верхняя граница длительности; 0 означает DefaultMaxTripMinutes.
	MaxMinutes int
}

// Segment — непрерывный участок поездки в одном тарифном периоде.
type Segment struct {
	Type    Period  `json:"type"`
	Minutes int     `json:"minutes"`
	Km      float64 `json:"km"`
	Price   int64   `json:"price"`
}

// FareResult — итог расчёта: округлённая сумма и разбивка по периодам.
type FareResult struct {
	Total    int64     `json:"total"`
	Segments []Segment `json:"segments"`
}

// Validate проверяет параметры поездки до начала симуляции.
func (t Trip) Validate() error {
	if math.IsNaN(t.DistanceKm) || math.IsInf(t.DistanceKm, 0) || t.DistanceKm < 0 {
		return fmt.Errorf("%w: distance must be a non-negative number, got %v", ErrInvalidTrip, t.DistanceKm)
	}
	if t.DurationMin < 0 {
		return fmt.Errorf("%w: duration must be non-negative, got %d", ErrInvalidTrip, t.DurationMin)
	}
	maxMinutes := t.MaxMinutes
	if maxMinutes <= 0 {
		maxMinutes = DefaultMaxTripMinutes
	}
	if t.DurationMin > maxMinutes {
		return fmt.Errorf("%w: duration %d exceeds limit of %d minutes", ErrInvalidTrip, t.DurationMin, maxMinutes)
	}
	if !t.Group.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownGroup, t.Group)
	}
	for _, p := range Periods {
		if _, ok := t.Tariffs.Lookup(t.Group, p); !ok {
			return fmt.Errorf("%w: %s/%s", ErrMissingRate, t.Group, p)
		}
	}
	return nil
}

// EstimateFare моделирует поездку поминутно при постоянной средней скорости.
//
// Плата за посадку берётся один раз по периоду начала поездки. Каждая минута относится
// к периоду, действующему в её начале; если за минуту пройденный путь пересекает отметку
// 10 км, расстояние делится пропорционально между двумя ставками.
func EstimateFare(trip Trip) (FareResult, error) {
	if err := trip.Validate(); err != nil {
		return FareResult{}, err
	}
	if trip.DurationMin == 0 || trip.DistanceKm == 0 {
		return FareResult{Total: 0, Segments: []Segment{}}, nil
	}

	kmPerMinute := trip.DistanceKm / float64(trip.DurationMin)
	rates := trip.Tariffs[trip.Group]

	current := PeriodAt(trip.Start, trip.Holidays)
	segPrice := rates[current].Start
	total := segPrice

	var (
		cumulative float64
		segments   []Segment
		segMinutes int
		segKm      float64
	)

	flush := func() {
		if segMinutes > 0 {
			segments = append(segments, Segment{
				Type:    current,
				Minutes: segMinutes,
				Km:      segKm,
				Price:   RoundToKr(segPrice),
			})
		}
		segMinutes = 0
		segKm = 0
		segPrice = 0
	}

	clock := trip.Start
	for i := 0; i < trip.DurationMin; i++ {
		period := PeriodAt(clock, trip.Holidays)
		rate := rates[period]

		minuteCost := distanceCostForMinute(cumulative, kmPerMinute, rate) + rate.PerMinute
		total += minuteCost
		cumulative += kmPerMinute

		if period != current {
			flush()
			current = period
		}
		segMinutes++
		segKm += kmPerMinute
		segPrice += minuteCost

		clock = clock.Add(time.Minute)
	}
	flush()

	return FareResult{Total: RoundToKr(total), Segments: segments}, nil
}

func distanceCostForMinute(before, km float64, rate Rate) float64 {
	after := before + km
	switch {
	case before >= DistanceTierKm:
		return km * rate.KmOver10
	case after <= DistanceTierKm:
		return km * rate.Km0To10
	default:
		within := DistanceTierKm - before
		over := km - within
		return within*rate.Km0To10 + over*rate.KmOver10
	}
}
