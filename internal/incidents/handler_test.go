package incidents

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bissquit/uptime-dashboard/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*chi.Mux, *Tracker) {
	t.Helper()
	tracker, _, _ := newTestTracker()
	r := chi.NewRouter()
	NewHandler(tracker).RegisterRoutes(r)
	return r, tracker
}

func serve(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, bytes.NewBufferString(body)))
	return rec
}

func decodeIncident(t *testing.T, rec *httptest.ResponseRecorder) domain.Incident {
	t.Helper()
	var body struct {
		Data domain.Incident `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Data
}

func TestHandler_ListIncidents(t *testing.T) {
	r, tracker := newTestRouter(t)
	first := openIncident(t, tracker)
	openIncident(t, tracker)

	resolved := domain.IncidentStatusResolved
	_, err := tracker.Update(context.Background(), first.ID, domain.IncidentPatch{Status: &resolved})
	require.NoError(t, err)

	tests := []struct {
		path string
		want int
	}{
		{"/incidents", 2},
		{"/incidents?active=true", 1},
		{"/incidents?active=false", 2},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := serve(r, http.MethodGet, tt.path, "")
			require.Equal(t, http.StatusOK, rec.Code)

			var body struct {
				Data []domain.Incident `json:"data"`
			}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Len(t, body.Data, tt.want)
		})
	}
}

func TestHandler_GetIncident(t *testing.T) {
	r, tracker := newTestRouter(t)
	inc := openIncident(t, tracker)

	rec := serve(r, http.MethodGet, "/incidents/"+inc.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, inc.ID, decodeIncident(t, rec).ID)

	rec = serve(r, http.MethodGet, "/incidents/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "incident not found")
}

func TestHandler_UpdateIncident(t *testing.T) {
	r, tracker := newTestRouter(t)
	inc := openIncident(t, tracker)

	rec := serve(r, http.MethodPatch, "/incidents/"+inc.ID, `{"status":"resolved","message":"Recovered"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	updated := decodeIncident(t, rec)
	assert.Equal(t, domain.IncidentStatusResolved, updated.Status)
	assert.Equal(t, "Recovered", updated.Message)
	assert.NotNil(t, updated.ResolvedAt)

	tests := []struct {
		name string
		path string
		body string
		code int
	}{
		{"reopen is conflict", "/incidents/" + inc.ID, `{"status":"open"}`, http.StatusConflict},
		{"unknown status", "/incidents/" + inc.ID, `{"status":"closed"}`, http.StatusBadRequest},
		{"unknown severity", "/incidents/" + inc.ID, `{"severity":"fatal"}`, http.StatusBadRequest},
		{"invalid json", "/incidents/" + inc.ID, `{`, http.StatusBadRequest},
		{"missing incident", "/incidents/missing", `{"status":"resolved"}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(r, http.MethodPatch, tt.path, tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
		})
	}
}

func TestHandler_AddIncidentUpdate(t *testing.T) {
	r, tracker := newTestRouter(t)
	inc := openIncident(t, tracker)

	rec := serve(r, http.MethodPost, "/incidents/"+inc.ID+"/updates", `{"message":"Rolled back","author":"sre"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	updated := decodeIncident(t, rec)
	require.Len(t, updated.Updates, 1)
	assert.Equal(t, "Rolled back", updated.Updates[0].Message)
	assert.Equal(t, "sre", updated.Updates[0].Author)

	rec = serve(r, http.MethodPost, "/incidents/"+inc.ID+"/updates", `{"author":"sre"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(r, http.MethodPost, "/incidents/missing/updates", `{"message":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
