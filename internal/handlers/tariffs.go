package handlers

import (
	"net/http"

	"taxi-tariff/internal/logger"
	"taxi-tariff/internal/models"
)

// TariffHandler обрабатывает просмотр и изменение базового тарифа
type TariffHandler struct {
	quotes QuoteService
	store  TariffStore
	log    *logger.Logger
}

// NewTariffHandler создает новый обработчик тарифов
func NewTariffHandler(quotes QuoteService, store TariffStore, log *logger.Logger) *TariffHandler {
	return &TariffHandler{
		quotes: quotes,
		store:  store,
		log:    log,
	}
}

// Route распределяет запросы к /api/tariffs по методам
func (h *TariffHandler) Route(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.GetTariffs(w, r)
	case http.MethodPut:
		h.UpdateBaseTariff(w, r)
	default:
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// GetTariffs возвращает базовый тариф и производную таблицу ставок
func (h *TariffHandler) GetTariffs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}

	table, err := h.quotes.Table(r.Context(), tenant)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to load tariffs")
		return
	}

	writeJSONResponse(w, http.StatusOK, table)
}

// UpdateBaseTariff сохраняет базовый тариф таксопарка
func (h *TariffHandler) UpdateBaseTariff(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}

	var req models.UpdateBaseTariffRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	saved, err := h.store.SaveBaseTariff(r.Context(), tenant, &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to save tariff")
		return
	}

	h.log.WithFields(map[string]interface{}{
		"tenant_id": tenant,
		"version":   saved.Version,
	}).Info("Base tariff updated via API")

	writeJSONResponse(w, http.StatusOK, saved)
}
