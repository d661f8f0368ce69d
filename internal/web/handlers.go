// ===== internal/web/handlers.go =====
package web

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"arpsim/internal/frames"
	"arpsim/internal/sim"
	"arpsim/pkg/models"
	"arpsim/pkg/utils"
)

// HostJSON represents a host in JSON format
type HostJSON struct {
	ID     string `json:"id"`
	IP     string `json:"ip"`
	IPSort uint32 `json:"ipSort"`
	MAC    string `json:"mac"`
}

// BindingJSON represents a learned binding in JSON format
type BindingJSON struct {
	IP          string `json:"ip"`
	IPSort      uint32 `json:"ipSort"`
	MAC         string `json:"mac"`
	LearnedStep int    `json:"learnedStep"`
	LastSeen    int    `json:"lastSeen"`
	Conflicts   int    `json:"conflicts"`
}

// LogEntryJSON represents a log entry in JSON format
type LogEntryJSON struct {
	Seq       int    `json:"seq"`
	ID        string `json:"id"`
	Step      int    `json:"step"`
	Timestamp string `json:"when"`
	UnixTime  int64  `json:"utime"`
	Channel   string `json:"channel"`
	Message   string `json:"message"`
}

// EventJSON represents the most recent announcement in JSON format
type EventJSON struct {
	IP   string `json:"ip"`
	MAC  string `json:"mac"`
	Step int    `json:"step"`
	Kind string `json:"kind"`
	Note string `json:"note"`
}

// SnapshotJSON is the dashboard state in JSON format
type SnapshotJSON struct {
	Step          int           `json:"step"`
	Running       bool          `json:"running"`
	AutoBlock     bool          `json:"autoBlock"`
	Mode          string        `json:"mode"`
	Scenario      string        `json:"scenario,omitempty"`
	Bindings      []BindingJSON `json:"bindings"`
	Blocked       []string      `json:"blocked"`
	LastEvent     *EventJSON    `json:"lastEvent,omitempty"`
	LastFrame     string        `json:"lastFrame,omitempty"`
	LastFrameText string        `json:"lastFrameText,omitempty"`
}

// ConfigJSON is the runtime-adjustable configuration in JSON format
type ConfigJSON struct {
	Mode        string  `json:"mode"`
	HostCount   int     `json:"hostCount"`
	Seed        int64   `json:"seed"`
	SpoofEvery  int     `json:"spoofEvery"`
	SpoofChance float64 `json:"spoofChance"`
	AutoBlock   bool    `json:"autoBlock"`
	SpeedMS     int     `json:"speedMs"`
}

// ScenarioJSON summarizes one catalog entry in JSON format
type ScenarioJSON struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	AutoBlock   bool   `json:"autoBlock"`
	Hosts       int    `json:"hosts"`
	Steps       int    `json:"steps"`
}

// handleSnapshotAPI handles simulation snapshot API requests
func (s *Server) handleSnapshotAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	s.writeSnapshot(w)
}

// handleHostsAPI handles host population API requests
func (s *Server) handleHostsAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	hosts := s.engine.Hosts()
	jsonHosts := make([]HostJSON, len(hosts))
	for i, h := range hosts {
		jsonHosts[i] = HostJSON{
			ID:     h.ID,
			IP:     h.IP.String(),
			IPSort: utils.IPToInt(h.IP),
			MAC:    utils.FormatMAC(h.MAC),
		}
	}

	s.writeJSON(w, map[string]interface{}{"data": jsonHosts})
}

// handleLogsAPI handles log stream API requests. The since parameter
// returns only entries after that sequence number, so the dashboard can
// poll with a cursor instead of refetching the whole history.
func (s *Server) handleLogsAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	since := 0
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			s.writeJSONError(w, "Invalid since parameter", http.StatusBadRequest)
			return
		}
		since = parsed
	}

	entries := s.engine.Logs(since)
	jsonLogs := make([]LogEntryJSON, len(entries))
	for i, entry := range entries {
		jsonLogs[i] = LogEntryJSON{
			Seq:       entry.Seq,
			ID:        entry.ID,
			Step:      entry.Step,
			Timestamp: entry.Timestamp.Format(time.RFC3339),
			UnixTime:  entry.UnixTime,
			Channel:   entry.Channel,
			Message:   entry.Message,
		}
	}

	s.writeJSON(w, map[string]interface{}{"data": jsonLogs})
}

// handleTopologyAPI handles topology graph API requests
func (s *Server) handleTopologyAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	s.writeJSON(w, map[string]interface{}{"data": s.engine.Topology()})
}

// handleScenariosAPI handles scenario catalog API requests
func (s *Server) handleScenariosAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	scenarios := s.engine.Scenarios()
	jsonScenarios := make([]ScenarioJSON, len(scenarios))
	for i, scn := range scenarios {
		jsonScenarios[i] = ScenarioJSON{
			Name:        scn.Name,
			Description: scn.Description,
			AutoBlock:   scn.AutoBlock,
			Hosts:       len(scn.Hosts),
			Steps:       len(scn.Steps),
		}
	}

	s.writeJSON(w, map[string]interface{}{"data": jsonScenarios})
}

// handleConfigGet handles configuration read requests
func (s *Server) handleConfigGet(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	cfg := s.engine.Config()
	s.writeJSON(w, map[string]interface{}{"data": ConfigJSON{
		Mode:        cfg.Mode,
		HostCount:   cfg.HostCount,
		Seed:        cfg.Seed,
		SpoofEvery:  cfg.SpoofEvery,
		SpoofChance: cfg.SpoofChance,
		AutoBlock:   cfg.AutoBlock,
		SpeedMS:     cfg.SpeedMS,
	}})
}

// handleConfigPost applies new simulation settings after validating the
// payload against the embedded JSON schema
func (s *Server) handleConfigPost(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeJSONError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if err := validateConfigPayload(body); err != nil {
		s.writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var payload ConfigJSON
	if err := json.Unmarshal(body, &payload); err != nil {
		s.writeJSONError(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	next := s.engine.Config()
	next.Mode = payload.Mode
	next.HostCount = payload.HostCount
	next.Seed = payload.Seed
	next.SpoofEvery = payload.SpoofEvery
	next.SpoofChance = payload.SpoofChance
	next.AutoBlock = payload.AutoBlock
	next.SpeedMS = payload.SpeedMS

	if err := s.engine.Configure(next); err != nil {
		s.writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	log.Printf("Configuration updated: mode=%s hosts=%d", payload.Mode, payload.HostCount)
	s.writeSnapshot(w)
}

// handleStep advances the simulation by one announcement
func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	if _, err := s.engine.Step(); err != nil {
		if errors.Is(err, sim.ErrExhausted) {
			s.writeJSONError(w, "Scenario complete; reset to replay", http.StatusConflict)
			return
		}
		s.writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeSnapshot(w)
}

// handleRun starts the pacing loop
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	if err := s.engine.Run(); err != nil {
		if errors.Is(err, sim.ErrRunning) {
			s.writeJSONError(w, err.Error(), http.StatusConflict)
			return
		}
		s.writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.writeSnapshot(w)
}

// handleStop pauses the pacing loop
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	s.engine.Stop()
	s.writeSnapshot(w)
}

// handleReset clears the controller state
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	s.engine.Reset()
	s.writeSnapshot(w)
}

// handlePrime replays every host's legitimate announcement
func (s *Server) handlePrime(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	if err := s.engine.Prime(); err != nil {
		s.writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeSnapshot(w)
}

// handleScenarioActivate switches the engine to a scripted scenario
func (s *Server) handleScenarioActivate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	name := mux.Vars(r)["name"]
	if err := s.engine.UseScenario(name); err != nil {
		s.writeJSONError(w, err.Error(), http.StatusNotFound)
		return
	}

	log.Printf("Scenario activated: %s", name)
	s.writeSnapshot(w)
}

// snapshotJSON converts an engine snapshot to its JSON view
func (s *Server) snapshotJSON(snap models.Snapshot) SnapshotJSON {
	out := SnapshotJSON{
		Step:      snap.Step,
		Running:   snap.Running,
		AutoBlock: snap.AutoBlock,
		Mode:      snap.Mode,
		Scenario:  snap.Scenario,
		Bindings:  make([]BindingJSON, len(snap.Bindings)),
		Blocked:   make([]string, len(snap.Blocked)),
	}

	for i, b := range snap.Bindings {
		out.Bindings[i] = BindingJSON{
			IP:          b.IP.String(),
			IPSort:      utils.IPToInt(b.IP),
			MAC:         utils.FormatMAC(b.MAC),
			LearnedStep: b.LearnedStep,
			LastSeen:    b.LastSeen,
			Conflicts:   b.Conflicts,
		}
	}
	for i, mac := range snap.Blocked {
		out.Blocked[i] = strings.ToUpper(mac)
	}

	if snap.LastEvent != nil {
		out.LastEvent = &EventJSON{
			IP:   snap.LastEvent.IP.String(),
			MAC:  utils.FormatMAC(snap.LastEvent.MAC),
			Step: snap.LastEvent.Step,
			Kind: string(snap.LastEvent.Kind),
			Note: snap.LastEvent.Note,
		}
	}
	if len(snap.LastFrame) > 0 {
		out.LastFrame = hex.EncodeToString(snap.LastFrame)
		if arp, err := frames.Decode(snap.LastFrame); err == nil {
			out.LastFrameText = frames.Summary(arp)
		}
	}
	return out
}

// writeSnapshot writes the current snapshot in the data envelope
func (s *Server) writeSnapshot(w http.ResponseWriter) {
	s.writeJSON(w, map[string]interface{}{"data": s.snapshotJSON(s.engine.Snapshot())})
}

// writeJSON encodes a response, logging encode failures
func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes a JSON error response
func (s *Server) writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.WriteHeader(statusCode)
	response := map[string]interface{}{"error": message}
	json.NewEncoder(w).Encode(response)
}
