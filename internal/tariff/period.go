package tariff

import (
	"time"

	"taxi-tariff/internal/holidays"
)

// PeriodAt определяет тарифный период для момента t.
//
// Используется настенное время в зоне t.Location(); вызывающий код обязан перевести момент
// в зону таксопарка. Порядок правил: праздник, ночь 00-06 (все дни), суббота 06-15,
// суббота после 15 и воскресенье, будни 06-18 день и 18-24 вечер.
func PeriodAt(t time.Time, set holidays.Set) Period {
	if set.Contains(t) {
		return PeriodHoliday
	}

	hour := t.Hour()
	if hour < 6 {
		return PeriodNight
	}

	switch t.Weekday() {
	case time.Saturday:
		if hour < 15 {
			return PeriodSaturday
		}
		return PeriodNight
	case time.Sunday:
		return PeriodNight
	}

	if hour < 18 {
		return PeriodDay
	}
	return PeriodEvening
}
