// Package tariff реализует расчёт тарифов такси: вывод таблицы ставок из базового тарифа,
// определение тарифного периода, оценку стоимости поездки и построение матрицы цен.
package tariff

import "math"

// Group — группа транспортного средства по числу мест.
type Group string

const (
	Group1To4  Group = "1-4"
	Group5To6  Group = "5-6"
	Group7To8  Group = "7-8"
	Group9To16 Group = "9-16"
)

// Groups перечисляет группы в фиксированном порядке.
var Groups = []Group{Group1To4, Group5To6, Group7To8, Group9To16}

// Period — тарифный период.
type Period string

const (
	PeriodDay      Period = "dag"
	PeriodEvening  Period = "kveld"
	PeriodSaturday Period = "laurdag"
	PeriodNight    Period = "helgNatt"
	PeriodHoliday  Period = "hoytid"
)

// Periods перечисляет периоды в фиксированном порядке.
var Periods = []Period{PeriodDay, PeriodEvening, PeriodSaturday, PeriodNight, PeriodHoliday}

var groupFactors = map[Group]float64{
	Group1To4:  1.0,
	Group5To6:  1.3,
	Group7To8:  1.6,
	Group9To16: 2.0,
}

var periodFactors = map[Period]float64{
	PeriodDay:      1.0,
	PeriodEvening:  1.21,
	PeriodSaturday: 1.30,
	PeriodNight:    1.35,
	PeriodHoliday:  1.45,
}

// GroupFactor возвращает множитель группы.
func GroupFactor(g Group) (float64, bool) {
	f, ok := groupFactors[g]
	return f, ok
}

// PeriodFactor возвращает множитель периода.
func PeriodFactor(p Period) (float64, bool) {
	f, ok := periodFactors[p]
	return f, ok
}

// Valid сообщает, входит ли группа в перечисление.
func (g Group) Valid() bool {
	_, ok := groupFactors[g]
	return ok
}

// Valid сообщает, входит ли период в перечисление.
func (p Period) Valid() bool {
	_, ok := periodFactors[p]
	return ok
}

// Rate — набор ставок в NOK: посадка, км до 10 км, км после 10 км, минута.
type Rate struct {
	Start     float64 `json:"start"`
	Km0To10   float64 `json:"km0_10"`
	KmOver10  float64 `json:"kmOver10"`
	PerMinute float64 `json:"min"`
}

// DefaultBaseTariff — базовый тариф группы 1-4 в дневной период по умолчанию.
var DefaultBaseTariff = Rate{
	Start:     97,
	Km0To10:   11.14,
	KmOver10:  21.23,
	PerMinute: 8.42,
}

// BaseTariffInput — базовый тариф из внешнего источника; любое поле может отсутствовать.
type BaseTariffInput struct {
	Start     *float64 `json:"start"`
	Km0To10   *float64 `json:"km0_10"`
	KmOver10  *float64 `json:"kmOver10"`
	PerMinute *float64 `json:"min"`
}

// InputFromRate превращает полный набор ставок во входные данные.
func InputFromRate(r Rate) BaseTariffInput {
	return BaseTariffInput{Start: &r.Start, Km0To10: &r.Km0To10, KmOver10: &r.KmOver10, PerMinute: &r.PerMinute}
}

// NormalizeBaseTariff подставляет значения по умолчанию вместо отсутствующих и нечисловых полей.
// Отрицательные значения сохраняются как есть.
func NormalizeBaseTariff(in BaseTariffInput) Rate {
	return NormalizeBaseTariffWithDefaults(in, DefaultBaseTariff)
}

// NormalizeBaseTariffWithDefaults работает как NormalizeBaseTariff, но с заданными значениями по умолчанию.
func NormalizeBaseTariffWithDefaults(in BaseTariffInput, def Rate) Rate {
	return Rate{
		Start:     valueOr(in.Start, def.Start),
		Km0To10:   valueOr(in.Km0To10, def.Km0To10),
		KmOver10:  valueOr(in.KmOver10, def.KmOver10),
		PerMinute: valueOr(in.PerMinute, def.PerMinute),
	}
}

func valueOr(v *float64, def float64) float64 {
	if v == nil || !isFinite(*v) {
		return def
	}
	return *v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Table — выведенные ставки по группам и периодам. После построения не изменяется.
type Table map[Group]map[Period]Rate

// Lookup возвращает ставку пары (группа, период).
func (t Table) Lookup(g Group, p Period) (Rate, bool) {
	periods, ok := t[g]
	if !ok {
		return Rate{}, false
	}
	r, ok := periods[p]
	return r, ok
}

// DeriveAll нормализует базовый тариф и строит полную таблицу ставок.
func DeriveAll(in BaseTariffInput) Table {
	return Derive(NormalizeBaseTariff(in))
}

// Derive строит таблицу ставок из уже нормализованного базового тарифа.
// Поминутная ставка масштабируется только множителем периода.
func Derive(base Rate) Table {
	table := make(Table, len(Groups))
	for _, g := range Groups {
		gf := groupFactors[g]
		table[g] = make(map[Period]Rate, len(Periods))
		for _, p := range Periods {
			pf := periodFactors[p]
			table[g][p] = Rate{
				Start:     base.Start * gf * pf,
				Km0To10:   base.Km0To10 * gf * pf,
				KmOver10:  base.KmOver10 * gf * pf,
				PerMinute: base.PerMinute * pf,
			}
		}
	}
	return table
}

// RoundToKr округляет сумму до целых крон (половина вверх); бесконечности и NaN дают 0.
func RoundToKr(x float64) int64 {
	if !isFinite(x) {
		return 0
	}
	return int64(math.Floor(x + 0.5))
}
