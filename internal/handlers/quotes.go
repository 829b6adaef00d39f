package handlers

import (
	"net/http"

	"taxi-tariff/internal/logger"
	"taxi-tariff/internal/models"
)

// QuoteHandler обрабатывает расчет стоимости поездок
type QuoteHandler struct {
	quotes QuoteService
	log    *logger.Logger
}

// NewQuoteHandler создает новый обработчик расчетов
func NewQuoteHandler(quotes QuoteService, log *logger.Logger) *QuoteHandler {
	return &QuoteHandler{
		quotes: quotes,
		log:    log,
	}
}

// Estimate рассчитывает стоимость поездки с учетом времени начала
func (h *QuoteHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}

	var req models.EstimateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	quote, err := h.quotes.Estimate(r.Context(), tenant, &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to estimate fare")
		return
	}

	writeJSONResponse(w, http.StatusOK, quote)
}

// Matrix возвращает матрицу цен для всех групп и периодов
func (h *QuoteHandler) Matrix(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}

	km, err := parseFloatParam(r, "km")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	minutes, err := parseIntParam(r, "minutes")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	matrix, err := h.quotes.Matrix(r.Context(), tenant, km, minutes)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to build price matrix")
		return
	}

	writeJSONResponse(w, http.StatusOK, matrix)
}
