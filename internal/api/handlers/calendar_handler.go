package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/uniwork-be/internal/services"
)

// CalendarHandler handles HTTP requests for calendar items.
type CalendarHandler struct {
	service services.CalendarServiceProvider
}

// NewCalendarHandler creates a new CalendarHandler.
func NewCalendarHandler(service services.CalendarServiceProvider) *CalendarHandler {
	return &CalendarHandler{service: service}
}

// GetByUser handles listing a user's calendar items.
func (h *CalendarHandler) GetByUser(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.GetByUser(r.Context(), chi.URLParam(r, "uid"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"userCalendarItems": items})
}

// Create handles adding a calendar item.
func (h *CalendarHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	var payload services.CalendarInput
	if err := decodeJSON(r, &payload); err != nil {
		WriteError(w, r, err)
		return
	}

	item, err := h.service.Create(r.Context(), caller, payload)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"calendarItem": item})
}

// Delete handles removing a calendar item.
func (h *CalendarHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	if err := h.service.Delete(r.Context(), caller, chi.URLParam(r, "cid")); err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted calendar item"})
}
