package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arpsim/internal/config"
	"arpsim/pkg/models"
)

func validScenario() Scenario {
	return Scenario{
		Name:      "classic-spoof",
		AutoBlock: true,
		Hosts: []HostSpec{
			{ID: "h1", IP: "10.0.0.1", MAC: "02:00:00:00:00:aa"},
			{ID: "h2", IP: "10.0.0.2", MAC: "02:00:00:00:00:bb"},
			{ID: "h3", IP: "10.0.0.3", MAC: "02:00:00:00:00:cc"},
		},
		Steps: []StepSpec{
			{IP: "10.0.0.1", MAC: "02:00:00:00:00:aa"},
			{IP: "10.0.0.1", MAC: "02:00:00:00:00:cc", Note: "cutover attempt"},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Scenario)
		field  string
	}{
		{"empty name", func(s *Scenario) { s.Name = "" }, "name"},
		{"no hosts", func(s *Scenario) { s.Hosts = nil }, "hosts"},
		{"no steps", func(s *Scenario) { s.Steps = nil }, "steps"},
		{"bad host ip", func(s *Scenario) { s.Hosts[1].IP = "not-an-ip" }, "hosts[1].ip"},
		{"ipv6 host ip", func(s *Scenario) { s.Hosts[1].IP = "fe80::1" }, "hosts[1].ip"},
		{"bad host mac", func(s *Scenario) { s.Hosts[2].MAC = "zz:zz" }, "hosts[2].mac"},
		{"duplicate ip", func(s *Scenario) { s.Hosts[1].IP = "10.0.0.1" }, "hosts[1].ip"},
		{"duplicate mac", func(s *Scenario) { s.Hosts[2].MAC = "02:00:00:00:00:AA" }, "hosts[2].mac"},
		{"bad step ip", func(s *Scenario) { s.Steps[0].IP = "" }, "steps[0].ip"},
		{"bad step mac", func(s *Scenario) { s.Steps[1].MAC = "nope" }, "steps[1].mac"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scn := validScenario()
			tt.mutate(&scn)

			err := scn.Validate()
			require.Error(t, err)

			var verr *config.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	t.Run("valid", func(t *testing.T) {
		scn := validScenario()
		assert.NoError(t, scn.Validate())
	})
}

func TestToHosts(t *testing.T) {
	scn := validScenario()
	scn.Hosts[1].ID = "" // missing IDs get positional names

	hosts, err := scn.ToHosts()
	require.NoError(t, err)
	require.Len(t, hosts, 3)

	assert.Equal(t, "h1", hosts[0].ID)
	assert.Equal(t, "h2", hosts[1].ID)
	assert.Equal(t, "10.0.0.2", hosts[1].IP.String())
	assert.Equal(t, "02:00:00:00:00:bb", hosts[1].MAC.String())
}

func TestToEventsKinds(t *testing.T) {
	scn := validScenario()
	// Uppercase MACs in the file still match the declared binding
	scn.Steps = append(scn.Steps, StepSpec{IP: "10.0.0.2", MAC: "02:00:00:00:00:BB"})

	evs, err := scn.ToEvents()
	require.NoError(t, err)
	require.Len(t, evs, 3)

	assert.Equal(t, models.EventLegitimate, evs[0].Kind)
	assert.Equal(t, "scenario step", evs[0].Note)

	assert.Equal(t, models.EventSpoofed, evs[1].Kind)
	assert.Equal(t, "cutover attempt", evs[1].Note)

	assert.Equal(t, models.EventLegitimate, evs[2].Kind)
}

const goodYAML = `
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

const quietYAML = `
name: alert-only
auto_block: false
hosts:
  - ip: 10.0.0.1
    mac: "02:00:00:00:00:aa"
steps:
  - ip: 10.0.0.1
    mac: "02:00:00:00:00:ff"
`

func writeScenarioFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestManagerLoad(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "good.yaml", goodYAML)
	writeScenarioFile(t, dir, "broken.yaml", "name: [unclosed")
	writeScenarioFile(t, dir, "invalid.yaml", "name: no-hosts\nsteps:\n  - ip: 10.0.0.1\n    mac: \"02:00:00:00:00:aa\"\n")
	writeScenarioFile(t, dir, "notes.txt", "not a scenario")

	mgr := NewManager(dir)
	require.NoError(t, mgr.Load())

	// Broken and invalid files are skipped, non-YAML files are ignored
	list := mgr.List()
	require.Len(t, list, 1)
	assert.Equal(t, "classic-spoof", list[0].Name)

	scn, ok := mgr.Get("classic-spoof")
	require.True(t, ok)
	assert.True(t, scn.AutoBlock)
	assert.Len(t, scn.Hosts, 2)
	assert.Len(t, scn.Steps, 2)

	_, ok = mgr.Get("no-hosts")
	assert.False(t, ok)
}

func TestManagerLoadMissingDir(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, mgr.Load())
}

func TestManagerListSorted(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "zz.yaml", quietYAML)
	writeScenarioFile(t, dir, "aa.yml", goodYAML)

	mgr := NewManager(dir)
	require.NoError(t, mgr.Load())

	list := mgr.List()
	require.Len(t, list, 2)
	assert.Equal(t, "alert-only", list[0].Name)
	assert.Equal(t, "classic-spoof", list[1].Name)
}

func TestManagerReloadReplacesCatalog(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "good.yaml", goodYAML)

	mgr := NewManager(dir)
	require.NoError(t, mgr.Load())
	require.Len(t, mgr.List(), 1)

	writeScenarioFile(t, dir, "quiet.yaml", quietYAML)
	require.NoError(t, mgr.Load())
	assert.Len(t, mgr.List(), 2)

	// A file that turns invalid drops out of the catalog on reload
	writeScenarioFile(t, dir, "good.yaml", "name: [unclosed")
	require.NoError(t, mgr.Load())

	list := mgr.List()
	require.Len(t, list, 1)
	assert.Equal(t, "alert-only", list[0].Name)
}
