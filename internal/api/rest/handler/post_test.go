package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jenkass/reddit-parser/internal/model"
	"github.com/jenkass/reddit-parser/internal/resource"
	"github.com/jenkass/reddit-parser/internal/testutil"
	"github.com/jenkass/reddit-parser/internal/validator"
)

// MockPostService mocks the PostService interface
type MockPostService struct {
	mock.Mock
}

func (m *MockPostService) Create(ctx context.Context, record model.Record) (int, error) {
	args := m.Called(ctx, record)
	return args.Int(0), args.Error(1)
}

func (m *MockPostService) List(ctx context.Context) ([]model.Record, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]model.Record)
	return records, args.Error(1)
}

func (m *MockPostService) Get(ctx context.Context, id string) (model.Record, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Record), args.Error(1)
}

func (m *MockPostService) Update(ctx context.Context, id string, record model.Record) error {
	args := m.Called(ctx, id, record)
	return args.Error(0)
}

func (m *MockPostService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newTestHandler(t *testing.T) (*Post, *MockPostService) {
	t.Helper()
	v, err := validator.New()
	require.NoError(t, err)
	svc := &MockPostService{}
	t.Cleanup(func() { svc.AssertExpectations(t) })
	return NewPost(svc, v, 1<<20, testutil.MakeNoopLogger()), svc
}

func assertJSON(t *testing.T, w *httptest.ResponseRecorder, status int, body string) {
	t.Helper()
	assert.Equal(t, status, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, body, w.Body.String())
}

func TestPost_List(t *testing.T) {
	t.Run("records", func(t *testing.T) {
		h, svc := newTestHandler(t)
		records := []model.Record{testutil.MakeRecord(testutil.NewPostID(), "alice")}
		svc.On("List", mock.Anything).Return(records, nil)

		w := httptest.NewRecorder()
		h.List(w, httptest.NewRequest(http.MethodGet, "/posts/", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		var got []model.Record
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, records, got)
	})

	t.Run("empty store", func(t *testing.T) {
		h, svc := newTestHandler(t)
		svc.On("List", mock.Anything).Return(nil, model.ErrNoRecords)

		w := httptest.NewRecorder()
		h.List(w, httptest.NewRequest(http.MethodGet, "/posts/", nil))

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})
}

func TestPost_Get(t *testing.T) {
	id := testutil.NewPostID()
	path := resource.ItemPath(id)

	t.Run("found", func(t *testing.T) {
		h, svc := newTestHandler(t)
		rec := testutil.MakeRecord(id, "alice")
		svc.On("Get", mock.Anything, id).Return(rec, nil)

		w := httptest.NewRecorder()
		h.Get(w, httptest.NewRequest(http.MethodGet, path, nil))

		assert.Equal(t, http.StatusOK, w.Code)
		var got model.Record
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, rec, got)
	})

	t.Run("no match", func(t *testing.T) {
		h, svc := newTestHandler(t)
		svc.On("Get", mock.Anything, id).Return(model.Record{}, model.ErrNotFound)

		w := httptest.NewRecorder()
		h.Get(w, httptest.NewRequest(http.MethodGet, path, nil))

		assertJSON(t, w, http.StatusNotFound, `"Not found"`)
	})

	t.Run("store unreadable", func(t *testing.T) {
		h, svc := newTestHandler(t)
		svc.On("Get", mock.Anything, id).Return(model.Record{}, model.ErrNoRecords)

		w := httptest.NewRecorder()
		h.Get(w, httptest.NewRequest(http.MethodGet, path, nil))

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		h, _ := newTestHandler(t)

		w := httptest.NewRecorder()
		h.Get(w, httptest.NewRequest(http.MethodGet, "/posts/xyz/", nil))

		assertJSON(t, w, http.StatusNotFound, `null`)
	})
}

func TestPost_Create(t *testing.T) {
	rec := testutil.MakeRecord(testutil.NewPostID(), "alice")

	t.Run("created", func(t *testing.T) {
		h, svc := newTestHandler(t)
		svc.On("Create", mock.Anything, rec).Return(1, nil)

		w := httptest.NewRecorder()
		h.Create(w, httptest.NewRequest(http.MethodPost, "/posts/", bytes.NewReader(testutil.InsertBody(rec))))

		assertJSON(t, w, http.StatusCreated, `{"unique id": 1}`)
	})

	t.Run("invalid payload never reaches the service", func(t *testing.T) {
		h, _ := newTestHandler(t)
		body := strings.Replace(string(testutil.InsertBody(rec)), `"number of votes":"340"`, `"number of votes":340`, 1)

		w := httptest.NewRecorder()
		h.Create(w, httptest.NewRequest(http.MethodPost, "/posts/", strings.NewReader(body)))

		assertJSON(t, w, http.StatusBadRequest, `null`)
	})

	t.Run("oversized body", func(t *testing.T) {
		h, _ := newTestHandler(t)
		h.maxBodyBytes = 16

		w := httptest.NewRecorder()
		h.Create(w, httptest.NewRequest(http.MethodPost, "/posts/", bytes.NewReader(testutil.InsertBody(rec))))

		assertJSON(t, w, http.StatusBadRequest, `null`)
	})

	t.Run("backend failure", func(t *testing.T) {
		h, svc := newTestHandler(t)
		svc.On("Create", mock.Anything, rec).Return(0, model.ErrDuplicateID)

		w := httptest.NewRecorder()
		h.Create(w, httptest.NewRequest(http.MethodPost, "/posts/", bytes.NewReader(testutil.InsertBody(rec))))

		assertJSON(t, w, http.StatusBadRequest, `null`)
	})
}

func TestPost_Update(t *testing.T) {
	id := testutil.NewPostID()
	path := resource.ItemPath(id)
	rec := testutil.MakeRecord(id, "alice")

	t.Run("updated", func(t *testing.T) {
		h, svc := newTestHandler(t)
		svc.On("Update", mock.Anything, id, rec).Return(nil)

		w := httptest.NewRecorder()
		h.Update(w, httptest.NewRequest(http.MethodPut, path, bytes.NewReader(testutil.UpdateBody(rec))))

		assertJSON(t, w, http.StatusOK, `null`)
	})

	t.Run("id in body rejected", func(t *testing.T) {
		h, _ := newTestHandler(t)

		w := httptest.NewRecorder()
		h.Update(w, httptest.NewRequest(http.MethodPut, path, bytes.NewReader(testutil.InsertBody(rec))))

		assertJSON(t, w, http.StatusBadRequest, `null`)
	})

	t.Run("unknown user", func(t *testing.T) {
		h, svc := newTestHandler(t)
		svc.On("Update", mock.Anything, id, rec).Return(model.ErrUserNotFound)

		w := httptest.NewRecorder()
		h.Update(w, httptest.NewRequest(http.MethodPut, path, bytes.NewReader(testutil.UpdateBody(rec))))

		assertJSON(t, w, http.StatusBadRequest, `null`)
	})
}

func TestPost_Delete(t *testing.T) {
	id := testutil.NewPostID()
	path := resource.ItemPath(id)

	t.Run("deleted", func(t *testing.T) {
		h, svc := newTestHandler(t)
		svc.On("Delete", mock.Anything, id).Return(nil)

		w := httptest.NewRecorder()
		h.Delete(w, httptest.NewRequest(http.MethodDelete, path, nil))

		assertJSON(t, w, http.StatusOK, `null`)
	})

	t.Run("failure", func(t *testing.T) {
		h, svc := newTestHandler(t)
		svc.On("Delete", mock.Anything, id).Return(errors.New("connection refused"))

		w := httptest.NewRecorder()
		h.Delete(w, httptest.NewRequest(http.MethodDelete, path, nil))

		assertJSON(t, w, http.StatusBadRequest, `null`)
	})
}

func TestPost_FallbackHandlers(t *testing.T) {
	h, _ := newTestHandler(t)

	w := httptest.NewRecorder()
	h.NotFound(w, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assertJSON(t, w, http.StatusNotFound, `null`)

	w = httptest.NewRecorder()
	h.MethodNotAllowed(w, httptest.NewRequest(http.MethodPatch, "/posts/", nil))
	assertJSON(t, w, http.StatusMethodNotAllowed, `null`)
}
