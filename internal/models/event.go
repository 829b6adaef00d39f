package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType представляет тип события
type EventType string

const (
	EventTypeTariffUpdated EventType = "tariff.updated"
)

// Event представляет событие для Kafka
type Event struct {
	ID        uuid.UUID   `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// TariffUpdatedData представляет данные события изменения тарифа
type TariffUpdatedData struct {
	TenantID string `json:"tenant_id"`
	Version  int    `json:"version"`
}

// TariffUpdated извлекает данные события изменения тарифа.
// После чтения из Kafka поле Data содержит map, поэтому данные перекодируются.
func (e *Event) TariffUpdated() (TariffUpdatedData, error) {
	var data TariffUpdatedData
	if e == nil || e.Data == nil {
		return data, fmt.Errorf("event has no data")
	}
	if typed, ok := e.Data.(TariffUpdatedData); ok {
		return typed, nil
	}
	raw, err := json.Marshal(e.Data)
	if err != nil {
		return data, fmt.Errorf("failed to marshal event data: %w", err)
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return data, fmt.Errorf("failed to unmarshal tariff event data: %w", err)
	}
	if data.TenantID == "" {
		return data, fmt.Errorf("tariff event without tenant_id")
	}
	return data, nil
}
