package models

import "time"

// TariffSource описывает, откуда взят базовый тариф.
type TariffSource string

const (
	TariffSourceCache    TariffSource = "cache"
	TariffSourceDatabase TariffSource = "database"
	TariffSourceTenant   TariffSource = "tenant"
	TariffSourceDefault  TariffSource = "default"
)

// BaseTariff представляет базовый тариф (группа 1-4, дневное время) арендатора.
type BaseTariff struct {
	TenantID  string       `json:"tenant_id" db:"tenant_id"`
	Start     float64      `json:"start" db:"start_fee"`
	Km0To10   float64      `json:"km0_10" db:"km_0_10"`
	KmOver10  float64      `json:"kmOver10" db:"km_over_10"`
	PerMinute float64      `json:"min" db:"per_minute"`
	Version   int          `json:"version" db:"version"`
	UpdatedAt *time.Time   `json:"updated_at,omitempty" db:"updated_at"`
	Source    TariffSource `json:"source"`
}

// UpdateBaseTariffRequest описывает запрос на сохранение базового тарифа.
// Отсутствующее поле заменяется значением по умолчанию.
type UpdateBaseTariffRequest struct {
	Start     *float64 `json:"start"`
	Km0To10   *float64 `json:"km0_10"`
	KmOver10  *float64 `json:"kmOver10"`
	PerMinute *float64 `json:"min"`
	// ExpectedVersion включает оптимистичную блокировку: сохранение пройдёт,
	// только если текущая версия тарифа совпадает.
	ExpectedVersion *int `json:"expected_version,omitempty"`
}
