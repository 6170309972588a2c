package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrilink/agrilink/internal/apperr"
	"github.com/agrilink/agrilink/internal/upload"
)

func TestPathID(t *testing.T) {
	var gotID int64
	var gotErr error

	r := mux.NewRouter()
	r.HandleFunc("/things/{id}", func(w http.ResponseWriter, req *http.Request) {
		gotID, gotErr = pathID(req, "id")
	})

	req := httptest.NewRequest(http.MethodGet, "/things/42", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)
	require.NoError(t, gotErr)
	assert.Equal(t, int64(42), gotID)

	req = httptest.NewRequest(http.MethodGet, "/things/banana", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)
	require.Error(t, gotErr)
	assert.True(t, apperr.IsValidation(gotErr))

	req = httptest.NewRequest(http.MethodGet, "/things/-3", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)
	assert.Error(t, gotErr)
}

func TestQueryHelpers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet,
		"/x?limit=10&offset=bad&category_id=7&available=true&q=rice", nil)

	assert.Equal(t, 10, queryInt(req, "limit", 50))
	assert.Equal(t, 0, queryInt(req, "offset", 0))
	assert.Equal(t, 50, queryInt(req, "missing", 50))

	catID := queryInt64Ptr(req, "category_id")
	require.NotNil(t, catID)
	assert.Equal(t, int64(7), *catID)
	assert.Nil(t, queryInt64Ptr(req, "farmer_id"))

	avail := queryBoolPtr(req, "available")
	require.NotNil(t, avail)
	assert.True(t, *avail)
	assert.Nil(t, queryBoolPtr(req, "missing"))
}

func TestQuerySince(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x?since=2026-08-01T12:00:00Z", nil)
	since, err := querySince(req)
	require.NoError(t, err)
	require.NotNil(t, since)
	assert.Equal(t, 2026, since.Year())

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	since, err = querySince(req)
	require.NoError(t, err)
	assert.Nil(t, since)

	req = httptest.NewRequest(http.MethodGet, "/x?since=yesterday", nil)
	_, err = querySince(req)
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}

	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"name":"ok"}`))
	require.NoError(t, decodeJSON(req, &dst))
	assert.Equal(t, "ok", dst.Name)

	req = httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"name":`))
	err := decodeJSON(req, &dst)
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))

	req = httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"surprise":1}`))
	err = decodeJSON(req, &dst)
	assert.True(t, apperr.IsValidation(err))
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body map[string]errorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body["error"]
}

func TestRespondErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", apperr.Validation("bad input", map[string]string{"name": "required"}), http.StatusUnprocessableEntity, "validation_error"},
		{"unauthorized", apperr.Unauthorized("no token"), http.StatusUnauthorized, "unauthorized"},
		{"forbidden", apperr.Forbidden("nope"), http.StatusForbidden, "forbidden"},
		{"not found", apperr.NotFound("gone"), http.StatusNotFound, "not_found"},
		{"conflict", apperr.Conflict("duplicate"), http.StatusConflict, "conflict"},
		{"internal", apperr.Internalf("db exploded: %s", "details"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			req = req.WithContext(withRequestID(req.Context(), "req-123"))

			respondError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeErrorBody(t, rec)
			assert.Equal(t, tt.wantCode, body.Code)
			assert.Equal(t, "req-123", body.TraceID)
		})
	}
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)

	respondError(rec, req, apperr.Internalf("password for admin is hunter2"))

	body := decodeErrorBody(t, rec)
	assert.Equal(t, "internal server error", body.Message)
	assert.NotContains(t, rec.Body.String(), "hunter2")
}

func TestRespondErrorCarriesFields(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)

	respondError(rec, req, apperr.Validation("validation failed", map[string]string{"email": "taken"}))

	body := decodeErrorBody(t, rec)
	assert.Equal(t, "taken", body.Fields["email"])
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	h := requestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestIDFrom(r.Context())
	}))

	// Generated when absent.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))

	// Honored when supplied.
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "client-supplied")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "client-supplied", seen)
}

func TestStatusRecorder(t *testing.T) {
	h := loggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestRemoveUploads(t *testing.T) {
	dir := t.TempDir()
	svc, err := upload.NewService(dir, 1)
	require.NoError(t, err)
	s := &Server{uploads: svc}

	name := "deadbeef.png"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("png"), 0o644))

	s.removeUploads("uploads/"+name, "", "uploads/never-existed.png")

	_, err = os.Stat(filepath.Join(dir, name))
	assert.True(t, os.IsNotExist(err), "stored file should be gone after removeUploads")
}

func TestRespondEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	respond(rec, http.StatusCreated, map[string]int{"id": 7})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]map[string]int
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, 7, body["data"]["id"])
}
