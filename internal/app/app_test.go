package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/bissquit/uptime-dashboard/internal/catalog"
	"github.com/bissquit/uptime-dashboard/internal/config"
	"github.com/bissquit/uptime-dashboard/internal/dashboard"
	"github.com/bissquit/uptime-dashboard/internal/domain"
	"github.com/bissquit/uptime-dashboard/internal/monitor"
	"github.com/bissquit/uptime-dashboard/internal/testutil"
	"github.com/bissquit/uptime-dashboard/internal/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// OpenAPI spec path relative to the internal/app directory.
const openAPISpecPath = "../../api/openapi/openapi.yaml"

func newTestApp(t *testing.T, mutate func(*config.Config)) (*App, *testutil.Client) {
	t.Helper()

	cfg := config.Default()
	cfg.Log.Level = "error"
	cfg.Monitor.Enabled = false
	if mutate != nil {
		mutate(cfg)
	}

	application, err := New(cfg)
	require.NoError(t, err)

	srv := httptest.NewServer(application.Router())
	t.Cleanup(srv.Close)

	return application, testutil.NewClientWithValidation(t, srv.URL, openAPISpecPath)
}

func TestApp_HealthAndVersion(t *testing.T) {
	_, client := newTestApp(t, nil)

	resp, err := client.GET("/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", testutil.ReadBody(t, resp))

	resp, err = client.GET("/readyz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "ready immediately when the prober is disabled")
	_ = resp.Body.Close()

	resp, err = client.GET("/version")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var info version.Info
	testutil.DecodeJSON(t, resp, &info)
	assert.Equal(t, version.Version, info.Version)
}

func TestApp_ReadyAfterFirstRound(t *testing.T) {
	application, client := newTestApp(t, func(c *config.Config) { c.Monitor.Enabled = true })

	resp, err := client.GET("/readyz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	_ = resp.Body.Close()

	application.Prober().RunOnce(context.Background())

	resp, err = client.GET("/readyz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestApp_CORSPreflight(t *testing.T) {
	_, client := newTestApp(t, func(c *config.Config) {
		c.CORS.AllowedOrigins = []string{"https://status.example.com"}
	})

	req, err := http.NewRequest(http.MethodOptions, client.BaseURL+"/api/v1/services", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://status.example.com")

	resp, err := client.HTTPClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://status.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestApp_DemoData(t *testing.T) {
	_, client := newTestApp(t, func(c *config.Config) { c.Demo.Enabled = true })

	resp, err := client.GET("/api/v1/dashboard/categories")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data []domain.ServiceCategory `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &body)
	assert.Len(t, body.Data, 3)
}

func TestApp_MonitoringFlow(t *testing.T) {
	var failing atomic.Bool
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if failing.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer target.Close()

	_, client := newTestApp(t, nil)

	// Register.
	resp, err := client.POST("/api/v1/services", map[string]string{
		"name":        "Payments",
		"category":    "Core Services",
		"url":         target.URL,
		"description": "Card processing",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		Data domain.Service `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &created)
	svcID := created.Data.ID
	assert.Equal(t, domain.ServiceStatusUnknown, created.Data.Status)

	// Healthy round.
	resp, err = client.POST("/api/v1/checks", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var round struct {
		Data monitor.RoundReport `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &round)
	assert.Equal(t, 1, round.Data.Checked)

	resp, err = client.GET("/api/v1/dashboard/summary")
	require.NoError(t, err)
	var summary struct {
		Data dashboard.Summary `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &summary)
	assert.Equal(t, 1, summary.Data.OperationalServices)
	assert.Equal(t, domain.ServiceStatusOperational, summary.Data.OverallStatus)

	// Failing round opens an incident.
	failing.Store(true)
	resp, err = client.POST("/api/v1/checks", nil)
	require.NoError(t, err)
	testutil.DecodeJSON(t, resp, &round)
	assert.Equal(t, 1, round.Data.IncidentsOpened)

	resp, err = client.GET("/api/v1/dashboard/summary")
	require.NoError(t, err)
	testutil.DecodeJSON(t, resp, &summary)
	assert.Equal(t, 1, summary.Data.OutageServices)
	assert.Equal(t, 1, summary.Data.ActiveIncidents)
	assert.Equal(t, "Partial Outage", summary.Data.OverallStatusLabel)

	resp, err = client.GET("/api/v1/services/" + svcID)
	require.NoError(t, err)
	var detail struct {
		Data catalog.ServiceDetail `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &detail)
	assert.Equal(t, domain.ServiceStatusMajorOutage, detail.Data.Status)
	assert.Equal(t, float64(50), detail.Data.Uptime)
	assert.Len(t, detail.Data.UptimeHistory, 2)

	resp, err = client.GET("/api/v1/incidents?active=true")
	require.NoError(t, err)
	var active struct {
		Data []domain.Incident `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &active)
	require.Len(t, active.Data, 1)
	incidentID := active.Data[0].ID
	assert.Equal(t, domain.IncidentSeverityCritical, active.Data[0].Severity)

	// Operator timeline and resolution.
	resp, err = client.POST("/api/v1/incidents/"+incidentID+"/updates", map[string]string{
		"message": "Failing over to the secondary processor",
		"author":  "oncall",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = client.PATCH("/api/v1/incidents/"+incidentID, map[string]string{"status": "resolved"})
	require.NoError(t, err)
	var resolved struct {
		Data domain.Incident `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &resolved)
	assert.Equal(t, domain.IncidentStatusResolved, resolved.Data.Status)
	assert.NotNil(t, resolved.Data.ResolvedAt)
	assert.Len(t, resolved.Data.Updates, 1)

	resp, err = client.PATCH("/api/v1/incidents/"+incidentID, map[string]string{"status": "investigating"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	_ = resp.Body.Close()

	// Removal.
	resp, err = client.DELETE("/api/v1/services/" + svcID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = client.GET("/api/v1/services/" + svcID + "/uptime")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = client.GET("/api/v1/incidents")
	require.NoError(t, err)
	var all struct {
		Data []domain.Incident `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &all)
	assert.Len(t, all.Data, 1, "incidents outlive their service")
}
