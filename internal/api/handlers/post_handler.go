package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/uniwork-be/internal/apperror"
	"github.com/isdelr/uniwork-be/internal/services"
)

// multipartOverhead allows for the form fields and part headers that travel
// alongside the image.
const multipartOverhead = 1 << 20

// PostHandler handles HTTP requests for posts.
type PostHandler struct {
	service        services.PostServiceProvider
	maxUploadBytes int64
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(service services.PostServiceProvider, maxUploadBytes int64) *PostHandler {
	return &PostHandler{service: service, maxUploadBytes: maxUploadBytes}
}

// Get handles retrieving a single post.
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.GetByID(r.Context(), chi.URLParam(r, "pid"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"post": post})
}

// GetByUser handles listing a user's posts.
func (h *PostHandler) GetByUser(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.GetByUser(r.Context(), chi.URLParam(r, "uid"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"userPosts": posts})
}

// Create handles a multipart post upload with an "image" file part.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, r, apperror.Validation("Image is too large"))
			return
		}
		WriteError(w, r, apperror.Validation("Invalid inputs provided"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	input := services.PostInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Creator:     r.FormValue("creator"),
	}
	file, header, err := r.FormFile("image")
	switch {
	case err == nil:
		defer file.Close()
		input.Image = file
		input.ImageContentType = header.Header.Get("Content-Type")
	case !errors.Is(err, http.ErrMissingFile):
		WriteError(w, r, apperror.Validation("Invalid inputs provided"))
		return
	}

	post, err := h.service.Create(r.Context(), caller, input)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"post": post})
}

// Update handles editing a post's title and description.
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	var payload services.PostUpdate
	if err := decodeJSON(r, &payload); err != nil {
		WriteError(w, r, err)
		return
	}

	post, err := h.service.Update(r.Context(), caller, chi.URLParam(r, "pid"), payload)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"post": post})
}

// Delete handles removing a post.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	if err := h.service.Delete(r.Context(), caller, chi.URLParam(r, "pid")); err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted post"})
}
