package tariff

import (
	"fmt"
	"math"
)

// PriceMatrix — цены по группам и периодам для фиксированной пары (км, минуты).
type PriceMatrix map[Group]map[Period]int64

// SinglePeriodPrice считает цену поездки целиком по ставкам одного периода.
func SinglePeriodPrice(distanceKm float64, durationMin int, rate Rate) int64 {
	var distanceCost float64
	if distanceKm <= DistanceTierKm {
		distanceCost = distanceKm * rate.Km0To10
	} else {
		distanceCost = DistanceTierKm*rate.Km0To10 + (distanceKm-DistanceTierKm)*rate.KmOver10
	}
	timeCost := float64(durationMin) * rate.PerMinute
	return RoundToKr(rate.Start + distanceCost + timeCost)
}

// BuildPriceMatrix строит справочную матрицу цен без учёта смены периодов во время поездки.
func BuildPriceMatrix(distanceKm float64, durationMin int, table Table) (PriceMatrix, error) {
	if math.IsNaN(distanceKm) || math.IsInf(distanceKm, 0) || distanceKm < 0 {
		return nil, fmt.Errorf("%w: distance must be a non-negative number, got %v", ErrInvalidTrip, distanceKm)
	}
	if durationMin < 0 {
		return nil, fmt.Errorf("%w: duration must be non-negative, got %d", ErrInvalidTrip, durationMin)
	}

	matrix := make(PriceMatrix, len(Groups))
	for _, g := range Groups {
		matrix[g] = make(map[Period]int64, len(Periods))
		for _, p := range Periods {
			rate, ok := table.Lookup(g, p)
			if !ok {
				return nil, fmt.Errorf("%w: %s/%s", ErrMissingRate, g, p)
			}
			matrix[g][p] = SinglePeriodPrice(distanceKm, durationMin, rate)
		}
	}
	return matrix, nil
}
