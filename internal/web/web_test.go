package web

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arpsim/internal/config"
	"arpsim/internal/metrics"
	"arpsim/internal/sim"
)

const classicYAML = `
name: classic-spoof
description: one host takes over another's IP
auto_block: true
hosts:
  - id: h1
    ip: 10.0.0.1
    mac: "02:00:00:00:00:aa"
  - id: h2
    ip: 10.0.0.2
    mac: "02:00:00:00:00:bb"
steps:
  - ip: 10.0.0.1
    mac: "02:00:00:00:00:aa"
  - ip: 10.0.0.1
    mac: "02:00:00:00:00:bb"
    note: takeover
`

func newTestServer(t *testing.T) (*httptest.Server, *sim.Engine) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Seed = 7
	cfg.PrimeOnStart = false
	cfg.WatchScenarios = false
	cfg.ScenarioDir = t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(cfg.ScenarioDir, "classic.yaml"), []byte(classicYAML), 0644))

	eng, err := sim.New(cfg, metrics.New(prometheus.NewRegistry()))
	require.NoError(t, err)
	require.NoError(t, eng.Start())
	t.Cleanup(eng.Close)

	ts := httptest.NewServer(NewServer(cfg, eng))
	t.Cleanup(ts.Close)
	return ts, eng
}

func getJSON(t *testing.T, ts *httptest.Server, path string) (int, map[string]interface{}) {
	t.Helper()

	resp, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	var payload map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return resp.StatusCode, payload
}

func postJSON(t *testing.T, ts *httptest.Server, path string, body []byte) (int, map[string]interface{}) {
	t.Helper()

	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var payload map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return resp.StatusCode, payload
}

func data(t *testing.T, payload map[string]interface{}) map[string]interface{} {
	t.Helper()

	d, ok := payload["data"].(map[string]interface{})
	require.True(t, ok, "response has no data object: %v", payload)
	return d
}

func TestSnapshotEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	status, payload := getJSON(t, ts, "/api/snapshot")
	require.Equal(t, http.StatusOK, status)

	snap := data(t, payload)
	assert.Equal(t, float64(0), snap["step"])
	assert.Equal(t, "basic", snap["mode"])
	assert.Equal(t, true, snap["autoBlock"])
	assert.Equal(t, false, snap["running"])
	assert.Empty(t, snap["bindings"])
}

func TestStepAndLogsFlow(t *testing.T) {
	ts, _ := newTestServer(t)

	status, payload := postJSON(t, ts, "/api/step", nil)
	require.Equal(t, http.StatusOK, status)
	status, payload = postJSON(t, ts, "/api/step", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), data(t, payload)["step"])

	status, payload = getJSON(t, ts, "/api/logs")
	require.Equal(t, http.StatusOK, status)
	entries := payload["data"].([]interface{})
	require.Len(t, entries, 2)
	first := entries[0].(map[string]interface{})
	assert.Equal(t, "learn", first["channel"])
	assert.Equal(t, float64(1), first["seq"])

	// Cursor polling returns only what is new
	status, payload = getJSON(t, ts, "/api/logs?since=2")
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, payload["data"])

	status, _ = getJSON(t, ts, "/api/logs?since=abc")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestPrimeAndReset(t *testing.T) {
	ts, _ := newTestServer(t)

	status, payload := postJSON(t, ts, "/api/prime", nil)
	require.Equal(t, http.StatusOK, status)
	snap := data(t, payload)
	assert.Equal(t, float64(4), snap["step"])
	assert.Len(t, snap["bindings"], 4)
	assert.NotEmpty(t, snap["lastFrame"])
	assert.Contains(t, snap["lastFrameText"], "who-has")

	status, payload = postJSON(t, ts, "/api/reset", nil)
	require.Equal(t, http.StatusOK, status)
	snap = data(t, payload)
	assert.Equal(t, float64(0), snap["step"])
	assert.Empty(t, snap["bindings"])
}

func TestConfigEndpoints(t *testing.T) {
	ts, eng := newTestServer(t)

	status, payload := getJSON(t, ts, "/api/config")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(4), data(t, payload)["hostCount"])

	valid := []byte(`{"mode":"random","hostCount":6,"seed":11,"spoofEvery":4,"spoofChance":0.3,"autoBlock":false,"speedMs":200}`)
	status, _ = postJSON(t, ts, "/api/config", valid)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 6, eng.Config().HostCount)
	assert.Equal(t, config.ModeRandom, eng.Config().Mode)

	tests := []struct {
		name string
		body string
	}{
		{"schema bounds", `{"mode":"random","hostCount":0,"seed":1,"spoofEvery":4,"spoofChance":0.3,"autoBlock":false,"speedMs":200}`},
		{"unknown mode", `{"mode":"chaotic","hostCount":4,"seed":1,"spoofEvery":4,"spoofChance":0.3,"autoBlock":false,"speedMs":200}`},
		{"missing field", `{"mode":"basic","hostCount":4}`},
		{"extra field", `{"mode":"basic","hostCount":4,"seed":1,"spoofEvery":4,"spoofChance":0.3,"autoBlock":false,"speedMs":200,"bogus":1}`},
		{"not json", `mode=basic`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, payload := postJSON(t, ts, "/api/config", []byte(tt.body))
			assert.Equal(t, http.StatusBadRequest, status)
			assert.NotEmpty(t, payload["error"])
		})
	}
}

func TestScenarioEndpoints(t *testing.T) {
	ts, _ := newTestServer(t)

	status, payload := getJSON(t, ts, "/api/scenarios")
	require.Equal(t, http.StatusOK, status)
	list := payload["data"].([]interface{})
	require.Len(t, list, 1)
	scn := list[0].(map[string]interface{})
	assert.Equal(t, "classic-spoof", scn["name"])
	assert.Equal(t, float64(2), scn["hosts"])
	assert.Equal(t, float64(2), scn["steps"])

	status, payload = postJSON(t, ts, "/api/scenario/classic-spoof", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "classic-spoof", data(t, payload)["scenario"])

	status, _ = postJSON(t, ts, "/api/scenario/no-such", nil)
	assert.Equal(t, http.StatusNotFound, status)

	// Play the scenario out, then stepping past the end conflicts
	status, _ = postJSON(t, ts, "/api/step", nil)
	require.Equal(t, http.StatusOK, status)
	status, payload = postJSON(t, ts, "/api/step", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, data(t, payload)["blocked"], 1)

	status, payload = postJSON(t, ts, "/api/step", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.NotEmpty(t, payload["error"])
}

func TestHostsAndTopologyEndpoints(t *testing.T) {
	ts, _ := newTestServer(t)

	status, payload := getJSON(t, ts, "/api/hosts")
	require.Equal(t, http.StatusOK, status)
	hosts := payload["data"].([]interface{})
	require.Len(t, hosts, 4)
	mac := hosts[0].(map[string]interface{})["mac"].(string)
	assert.Equal(t, strings.ToUpper(mac), mac)

	status, payload = getJSON(t, ts, "/api/topology")
	require.Equal(t, http.StatusOK, status)
	topo := data(t, payload)
	assert.Len(t, topo["nodes"], 5)
	assert.Len(t, topo["edges"], 4)
}

func TestMethodEnforcement(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/step")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = http.Post(ts.URL+"/api/snapshot", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t)

	status, payload := getJSON(t, ts, "/healthz")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", payload["status"])
}

func TestPages(t *testing.T) {
	ts, _ := newTestServer(t)

	for _, tt := range []struct {
		path     string
		contains string
	}{
		{"/", "ARPsim - Dashboard"},
		{"/", "Controller log"},
		{"/scenarios", "Scenario catalog"},
	} {
		resp, err := http.Get(ts.URL + tt.path)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), tt.contains)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body)
}
