package services

import (
	"sync"

	"taxi-tariff/internal/holidays"
)

// HolidayCalendar кеширует наборы праздников по опорному году.
type HolidayCalendar struct {
	mu    sync.RWMutex
	cache map[int]holidays.Set
	build func(referenceYear int) holidays.Set
}

// NewHolidayCalendar создаёт календарь праздников Норвегии.
func NewHolidayCalendar() *HolidayCalendar {
	return &HolidayCalendar{
		cache: make(map[int]holidays.Set),
		build: holidays.Norwegian,
	}
}

// SetFor возвращает набор праздников для опорного года (годы ref-1..ref+2).
// Возвращаемый набор общий для всех вызовов и не должен изменяться.
func (c *HolidayCalendar) SetFor(referenceYear int) holidays.Set {
	c.mu.RLock()
	set, ok := c.cache[referenceYear]
	c.mu.RUnlock()
	if ok {
		return set
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if set, ok := c.cache[referenceYear]; ok {
		return set
	}
	set = c.build(referenceYear)
	c.cache[referenceYear] = set
	return set
}

// Named возвращает список праздников за год с названиями.
func (c *HolidayCalendar) Named(year int) []holidays.Holiday {
	return holidays.Named(year)
}
