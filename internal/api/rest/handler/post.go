package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/jenkass/reddit-parser/internal/logger"
	"github.com/jenkass/reddit-parser/internal/model"
	"github.com/jenkass/reddit-parser/internal/resource"
)

const contentType = "application/json"

// notFoundBody is written for a well-formed item path with no matching post.
const notFoundBody = "Not found"

// PostService defines business operations for posts.
type PostService interface {
	Create(ctx context.Context, record model.Record) (int, error)
	List(ctx context.Context) ([]model.Record, error)
	Get(ctx context.Context, id string) (model.Record, error)
	Update(ctx context.Context, id string, record model.Record) error
	Delete(ctx context.Context, id string) error
}

// PayloadValidator turns request bodies into records.
type PayloadValidator interface {
	Insert(body []byte) (model.Record, error)
	Update(body []byte) (model.Record, error)
}

// Post handles the /posts/ HTTP endpoints.
type Post struct {
	postService  PostService
	validator    PayloadValidator
	maxBodyBytes int64
	logger       *logger.Logger
}

// NewPost creates a new Post handler. Bodies larger than maxBodyBytes
// are rejected.
func NewPost(postService PostService, validator PayloadValidator, maxBodyBytes int64, logger *logger.Logger) *Post {
	return &Post{
		postService:  postService,
		validator:    validator,
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
	}
}

// List writes every post. An empty or unreadable store gives 204.
func (h *Post) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.postService.List(r.Context())
	if err != nil {
		h.writeNoContent(w)
		return
	}

	h.writeJSON(w, http.StatusOK, records)
}

// Get writes the post addressed by the path.
func (h *Post) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	record, err := h.postService.Get(r.Context(), id)
	switch {
	case errors.Is(err, model.ErrNotFound):
		h.writeJSON(w, http.StatusNotFound, notFoundBody)
	case err != nil:
		h.writeNoContent(w)
	default:
		h.writeJSON(w, http.StatusOK, record)
	}
}

// Create validates a post input and stores it.
func (h *Post) Create(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}

	record, err := h.validator.Insert(body)
	if err != nil {
		h.logger.Warn("Post handler: rejected post input", "error", err.Error())
		h.writeJSON(w, http.StatusBadRequest, nil)
		return
	}

	n, err := h.postService.Create(r.Context(), record)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, nil)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]int{model.FieldID: n})
}

// Update replaces the post addressed by the path.
func (h *Post) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	body, ok := h.readBody(w, r)
	if !ok {
		return
	}

	record, err := h.validator.Update(body)
	if err != nil {
		h.logger.Warn("Post handler: rejected post update", "id", id, "error", err.Error())
		h.writeJSON(w, http.StatusBadRequest, nil)
		return
	}
	record.ID = id

	if err := h.postService.Update(r.Context(), id, record); err != nil {
		h.writeJSON(w, http.StatusBadRequest, nil)
		return
	}

	h.writeJSON(w, http.StatusOK, nil)
}

// Delete removes the post addressed by the path.
func (h *Post) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	if err := h.postService.Delete(r.Context(), id); err != nil {
		h.writeJSON(w, http.StatusBadRequest, nil)
		return
	}

	h.writeJSON(w, http.StatusOK, nil)
}

// NotFound answers paths that are neither the collection nor an item.
func (h *Post) NotFound(w http.ResponseWriter, r *http.Request) {
	h.logger.Warn("Post handler: unrecognized route", "method", r.Method, "path", r.URL.Path)
	h.writeJSON(w, http.StatusNotFound, nil)
}

// MethodNotAllowed answers known paths requested with an unsupported method.
func (h *Post) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.logger.Warn("Post handler: method not allowed", "method", r.Method, "path", r.URL.Path)
	h.writeJSON(w, http.StatusMethodNotAllowed, nil)
}

func (h *Post) itemID(w http.ResponseWriter, r *http.Request) (string, bool) {
	res, err := resource.Parse(r.URL.Path)
	if err != nil || res.Kind != resource.Item {
		h.NotFound(w, r)
		return "", false
	}
	return res.ID, true
}

func (h *Post) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		h.logger.Warn("Post handler: failed to read request body", "error", err.Error())
		h.writeJSON(w, http.StatusBadRequest, nil)
		return nil, false
	}
	return body, true
}

func (h *Post) writeNoContent(w http.ResponseWriter) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Post) writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("Post handler: failed to encode response", "error", err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(b)
}
