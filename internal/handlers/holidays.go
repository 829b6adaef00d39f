package handlers

import (
	"net/http"
	"time"

	"taxi-tariff/internal/logger"
)

// HolidayHandler отдает список праздничных дней
type HolidayHandler struct {
	quotes QuoteService
	log    *logger.Logger
	now    func() time.Time
}

// NewHolidayHandler создает новый обработчик праздников
func NewHolidayHandler(quotes QuoteService, log *logger.Logger) *HolidayHandler {
	return &HolidayHandler{
		quotes: quotes,
		log:    log,
		now:    time.Now,
	}
}

// List возвращает праздники за год из параметра year (по умолчанию текущий)
func (h *HolidayHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	year := h.now().Year()
	if r.URL.Query().Get("year") != "" {
		v, err := parseIntParam(r, "year")
		if err != nil {
			writeErrorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		year = v
	}

	resp, err := h.quotes.Holidays(year)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list holidays")
		return
	}

	writeJSONResponse(w, http.StatusOK, resp)
}
