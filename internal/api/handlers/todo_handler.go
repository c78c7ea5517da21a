package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/uniwork-be/internal/services"
)

// TodoHandler handles HTTP requests for todo list items.
type TodoHandler struct {
	service services.TodoServiceProvider
}

// NewTodoHandler creates a new TodoHandler.
func NewTodoHandler(service services.TodoServiceProvider) *TodoHandler {
	return &TodoHandler{service: service}
}

// GetByUser handles listing a user's todo items.
func (h *TodoHandler) GetByUser(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.GetByUser(r.Context(), chi.URLParam(r, "uid"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"userTodoItems": items})
}

// Create handles adding a todo item.
func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	var payload services.TodoInput
	if err := decodeJSON(r, &payload); err != nil {
		WriteError(w, r, err)
		return
	}

	item, err := h.service.Create(r.Context(), caller, payload)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"todoItem": item})
}

// Delete handles removing a todo item.
func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	if err := h.service.Delete(r.Context(), caller, chi.URLParam(r, "lid")); err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted item"})
}
