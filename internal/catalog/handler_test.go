package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bissquit/uptime-dashboard/internal/domain"
	"github.com/bissquit/uptime-dashboard/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var catalogNow = time.Date(2026, 7, 15, 12, 0, 0, 0, time.UTC)

type testServer struct {
	router *chi.Mux
	store  *store.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	st := store.New(store.Config{Clock: clockwork.NewFakeClockAt(catalogNow)})
	r := chi.NewRouter()
	NewHandler(NewService(st, 0)).RegisterRoutes(r)
	return &testServer{router: r, store: st}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	envelope := struct {
		Data interface{} `json:"data"`
	}{Data: v}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
}

func (s *testServer) createService(t *testing.T, name string) domain.Service {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/services", map[string]string{
		"name":     name,
		"category": "Core",
		"url":      "https://" + name + ".example.com/health",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var svc domain.Service
	decodeData(t, rec, &svc)
	return svc
}

func TestHandler_CreateService(t *testing.T) {
	srv := newTestServer(t)

	svc := srv.createService(t, "api")

	assert.NotEmpty(t, svc.ID)
	assert.Equal(t, "api", svc.Name)
	assert.Equal(t, "Core", svc.Category)
	assert.Equal(t, domain.ServiceStatusUnknown, svc.Status)
	assert.Equal(t, float64(0), svc.Uptime)
	assert.Nil(t, svc.LastChecked)
	assert.Equal(t, catalogNow, svc.CreatedAt)
}

func TestHandler_CreateService_Validation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing name", map[string]string{"category": "Core", "url": "https://a.example.com"}},
		{"missing category", map[string]string{"name": "a", "url": "https://a.example.com"}},
		{"missing url", map[string]string{"name": "a", "category": "Core"}},
		{"non-http url", map[string]string{"name": "a", "category": "Core", "url": "ftp://a.example.com"}},
		{"not a url", map[string]string{"name": "a", "category": "Core", "url": "a.example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(t, http.MethodPost, "/services", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	t.Run("invalid json", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/services", bytes.NewBufferString("{")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	list, err := srv.store.ListServices(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestHandler_ListServices(t *testing.T) {
	srv := newTestServer(t)
	srv.createService(t, "first")
	srv.createService(t, "second")

	rec := srv.do(t, http.MethodGet, "/services", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []domain.Service
	decodeData(t, rec, &list)
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].Name)
	assert.Equal(t, "second", list[1].Name)
}

func TestHandler_GetService_IncludesHistory(t *testing.T) {
	srv := newTestServer(t)
	svc := srv.createService(t, "api")

	ms := int64(80)
	require.NoError(t, srv.store.AppendRecord(context.Background(), domain.UptimeRecord{
		ServiceID: svc.ID, Timestamp: catalogNow.Add(-time.Hour), Status: domain.CheckOutcomeUp, ResponseTimeMs: &ms,
	}))

	rec := srv.do(t, http.MethodGet, "/services/"+svc.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var detail ServiceDetail
	decodeData(t, rec, &detail)
	assert.Equal(t, svc.ID, detail.ID)
	assert.Equal(t, float64(100), detail.Uptime)
	require.Len(t, detail.UptimeHistory, 1)
	assert.Equal(t, domain.CheckOutcomeUp, detail.UptimeHistory[0].Status)
}

func TestHandler_NotFound(t *testing.T) {
	srv := newTestServer(t)

	for _, tc := range []struct {
		method, path string
		body         interface{}
	}{
		{http.MethodGet, "/services/missing", nil},
		{http.MethodPatch, "/services/missing", map[string]string{"name": "x"}},
		{http.MethodDelete, "/services/missing", nil},
		{http.MethodGet, "/services/missing/uptime", nil},
	} {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := srv.do(t, tc.method, tc.path, tc.body)
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Contains(t, rec.Body.String(), "service not found")
		})
	}
}

func TestHandler_UpdateService(t *testing.T) {
	srv := newTestServer(t)
	svc := srv.createService(t, "api")

	rec := srv.do(t, http.MethodPatch, "/services/"+svc.ID, map[string]string{
		"name":   "gateway",
		"status": "degraded",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated domain.Service
	decodeData(t, rec, &updated)
	assert.Equal(t, "gateway", updated.Name)
	assert.Equal(t, domain.ServiceStatusDegraded, updated.Status)
	assert.Equal(t, "Core", updated.Category)
	assert.Equal(t, svc.URL, updated.URL)

	rec = srv.do(t, http.MethodPatch, "/services/"+svc.ID, map[string]string{"status": "maintenance"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodPatch, "/services/"+svc.ID, map[string]string{"url": "not a url"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_DeleteService(t *testing.T) {
	srv := newTestServer(t)
	svc := srv.createService(t, "api")

	rec := srv.do(t, http.MethodDelete, "/services/"+svc.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = srv.do(t, http.MethodDelete, "/services/"+svc.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	_, err := srv.store.History(context.Background(), svc.ID, 90)
	assert.ErrorIs(t, err, domain.ErrServiceNotFound)
}

func TestHandler_GetUptimeHistory(t *testing.T) {
	srv := newTestServer(t)
	svc := srv.createService(t, "api")
	ctx := context.Background()

	for _, age := range []time.Duration{10 * 24 * time.Hour, 3 * 24 * time.Hour, time.Hour} {
		require.NoError(t, srv.store.AppendRecord(ctx, domain.UptimeRecord{
			ServiceID: svc.ID, Timestamp: catalogNow.Add(-age), Status: domain.CheckOutcomeDown,
		}))
	}

	tests := []struct {
		query string
		want  int
	}{
		{"", 3},
		{"?days=7", 2},
		{"?days=1", 1},
		{"?days=365", 3},
	}
	for _, tt := range tests {
		t.Run("days"+tt.query, func(t *testing.T) {
			rec := srv.do(t, http.MethodGet, "/services/"+svc.ID+"/uptime"+tt.query, nil)
			require.Equal(t, http.StatusOK, rec.Code)

			var history []domain.UptimeRecord
			decodeData(t, rec, &history)
			assert.Len(t, history, tt.want)
		})
	}

	for _, query := range []string{"?days=0", "?days=-1", "?days=366", "?days=abc"} {
		t.Run("rejects "+query, func(t *testing.T) {
			rec := srv.do(t, http.MethodGet, "/services/"+svc.ID+"/uptime"+query, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}
