package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taxi-tariff/internal/apperror"
)

func TestHolidayHandler_DefaultYear(t *testing.T) {
	svc := &stubQuoteService{}
	h := NewHolidayHandler(svc, newTestLogger())
	h.now = func() time.Time { return time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC) }

	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/api/holidays", nil))

	if rr.Code != http.StatusOK || svc.year != 2026 {
		t.Fatalf("expected 200 for 2026, got %d year=%d", rr.Code, svc.year)
	}
}

func TestHolidayHandler_ExplicitYear(t *testing.T) {
	svc := &stubQuoteService{}
	h := NewHolidayHandler(svc, newTestLogger())

	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/api/holidays?year=2030", nil))

	if rr.Code != http.StatusOK || svc.year != 2030 {
		t.Fatalf("expected 200 for 2030, got %d year=%d", rr.Code, svc.year)
	}
}

func TestHolidayHandler_Errors(t *testing.T) {
	h := NewHolidayHandler(&stubQuoteService{}, newTestLogger())
	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/api/holidays?year=abc", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad year, got %d", rr.Code)
	}

	h = NewHolidayHandler(&stubQuoteService{err: apperror.Validation("year out of range", nil)}, newTestLogger())
	rr = httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/api/holidays?year=1000", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for service validation, got %d", rr.Code)
	}

	h = NewHolidayHandler(&stubQuoteService{err: errors.New("boom")}, newTestLogger())
	rr = httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/api/holidays", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodPost, "/api/holidays", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}
