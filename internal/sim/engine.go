// ===== internal/sim/engine.go =====
package sim

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"arpsim/internal/config"
	"arpsim/internal/controller"
	"arpsim/internal/events"
	"arpsim/internal/frames"
	"arpsim/internal/logstream"
	"arpsim/internal/metrics"
	"arpsim/internal/registry"
	"arpsim/internal/scenario"
	"arpsim/pkg/models"
	"arpsim/pkg/utils"
)

// ErrExhausted is returned by Step once a scripted scenario has no events
// left to play
var ErrExhausted = errors.New("event source exhausted")

// ErrRunning is returned by Run when the pacing loop is already active
var ErrRunning = errors.New("simulation already running")

// Engine drives the simulation: it owns the host registry, the event
// source, and the controller, and serializes all stepping. Generated
// sources (basic, random) never run dry; a scripted scenario replaces the
// generator until the next Configure call.
type Engine struct {
	cfg      *config.Config
	registry *registry.Registry
	ctrl     *controller.Controller
	stream   *logstream.Stream
	scnMgr   *scenario.Manager

	mu           sync.Mutex
	source       events.Source
	scenarioName string
	running      bool
	runStop      chan struct{}

	lastEvent *models.Event
	lastFrame []byte
}

// New creates an engine with a freshly generated host population
func New(cfg *config.Config, m *metrics.Metrics) (*Engine, error) {
	reg := registry.New()
	if err := reg.Generate(cfg.HostCount, cfg.Seed); err != nil {
		return nil, err
	}

	stream := logstream.New()
	e := &Engine{
		cfg:      cfg,
		registry: reg,
		ctrl:     controller.New(stream, m, cfg.AutoBlock),
		stream:   stream,
		scnMgr:   scenario.NewManager(cfg.ScenarioDir),
	}
	e.source = e.buildSource()
	return e, nil
}

// Start loads the scenario catalog and primes the table when configured
// to. A missing scenario directory is a warning, not a failure.
func (e *Engine) Start() error {
	if !utils.CheckWarn(e.scnMgr.Load(), "loading scenarios") && e.cfg.WatchScenarios {
		utils.CheckWarn(e.scnMgr.Watch(), "watching scenario directory")
	}

	if e.cfg.PrimeOnStart {
		if err := e.Prime(); err != nil {
			return err
		}
	}
	return nil
}

// Close stops the pacing loop and the scenario watcher
func (e *Engine) Close() {
	e.Stop()
	e.scnMgr.Stop()
}

// Prime replays every host's legitimate announcement in registry order so
// the controller starts from a fully learned table
func (e *Engine) Prime() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, h := range e.registry.Hosts() {
		ev := models.Event{
			IP:   h.IP,
			MAC:  h.MAC,
			Step: e.ctrl.Step() + 1,
			Kind: models.EventLegitimate,
			Note: "initial ARP",
		}
		if err := e.dispatchLocked(ev); err != nil {
			return err
		}
	}
	return nil
}

// Step advances the simulation by exactly one announcement
func (e *Engine) Step() (models.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.stepLocked()
}

func (e *Engine) stepLocked() (models.Event, error) {
	ev, ok := e.source.Next(e.ctrl.Step() + 1)
	if !ok {
		return models.Event{}, ErrExhausted
	}
	if err := e.dispatchLocked(ev); err != nil {
		return models.Event{}, err
	}

	if sc, ok := e.source.(*events.Scripted); ok && sc.Remaining() == 0 {
		e.stream.Append(e.ctrl.Step(), models.ChannelInfo, "Scenario %q complete.", e.scenarioName)
	}
	return ev, nil
}

// dispatchLocked feeds one event to the controller and records it, with
// the ARP frame it would have put on the wire, for the snapshot view
func (e *Engine) dispatchLocked(ev models.Event) error {
	if err := e.ctrl.Process(ev); err != nil {
		return err
	}

	stored := ev
	e.lastEvent = &stored

	frame, err := frames.Gratuitous(ev.IP, ev.MAC)
	if !utils.CheckWarn(err, "building ARP frame") {
		e.lastFrame = frame
	}
	return nil
}

// Run starts the pacing loop, stepping once per configured interval
func (e *Engine) Run() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return ErrRunning
	}
	if e.cfg.SpeedMS <= 0 {
		return &config.ValidationError{Field: "speed_ms", Message: "must be positive to run continuously"}
	}

	e.running = true
	e.runStop = make(chan struct{})
	go e.runLoop(e.runStop, time.Duration(e.cfg.SpeedMS)*time.Millisecond)

	e.stream.Append(e.ctrl.Step(), models.ChannelInfo, "Simulation running every %dms.", e.cfg.SpeedMS)
	return nil
}

func (e *Engine) runLoop(stop chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := e.Step(); err != nil {
				if !errors.Is(err, ErrExhausted) {
					utils.CheckWarn(err, "stepping simulation")
				}
				e.halt()
				return
			}

		case <-stop:
			return
		}
	}
}

// halt marks the loop stopped when it exits on its own
func (e *Engine) halt() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.running = false
}

// Stop pauses the pacing loop. Stopping an idle engine is a no-op.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopLocked()
}

func (e *Engine) stopLocked() {
	if !e.running {
		return
	}
	close(e.runStop)
	e.running = false
	e.stream.Append(e.ctrl.Step(), models.ChannelInfo, "Simulation paused.")
}

// Reset returns the controller to an empty table and the source to its
// first step. The host population is kept and nothing is primed; scripted
// scenarios replay from the beginning.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopLocked()
	e.ctrl.Reset()
	e.source.Reset()
	e.lastEvent = nil
	e.lastFrame = nil
}

// Configure applies new simulation settings and returns the engine to
// generator mode. The population is regenerated when its shape changes or
// when a scripted scenario was active; otherwise the learned table
// survives the change.
func (e *Engine) Configure(next config.Config) error {
	if err := next.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopLocked()

	repopulate := e.scenarioName != "" ||
		next.HostCount != e.cfg.HostCount ||
		next.Seed != e.cfg.Seed

	e.cfg.Mode = next.Mode
	e.cfg.HostCount = next.HostCount
	e.cfg.Seed = next.Seed
	e.cfg.SpoofEvery = next.SpoofEvery
	e.cfg.SpoofChance = next.SpoofChance
	e.cfg.AutoBlock = next.AutoBlock
	e.cfg.SpeedMS = next.SpeedMS

	if repopulate {
		if err := e.registry.Generate(e.cfg.HostCount, e.cfg.Seed); err != nil {
			return err
		}
		e.ctrl.Reset()
		e.lastEvent = nil
		e.lastFrame = nil
	}

	e.scenarioName = ""
	e.ctrl.SetAutoBlock(e.cfg.AutoBlock)
	e.source = e.buildSource()

	e.stream.Append(e.ctrl.Step(), models.ChannelInfo,
		"Configuration applied: mode=%s hosts=%d auto_block=%t.", e.cfg.Mode, e.cfg.HostCount, e.cfg.AutoBlock)
	return nil
}

// UseScenario activates a scripted scenario: its declared hosts replace
// the generated population and its steps become the event source
func (e *Engine) UseScenario(name string) error {
	scn, ok := e.scnMgr.Get(name)
	if !ok {
		return fmt.Errorf("unknown scenario %q", name)
	}

	hosts, err := scn.ToHosts()
	if err != nil {
		return err
	}
	evs, err := scn.ToEvents()
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopLocked()
	if err := e.registry.Set(hosts); err != nil {
		return err
	}
	e.ctrl.Reset()
	e.ctrl.SetAutoBlock(scn.AutoBlock)
	e.source = events.NewScripted(evs)
	e.scenarioName = scn.Name
	e.lastEvent = nil
	e.lastFrame = nil

	e.stream.Append(0, models.ChannelInfo,
		"Loaded scenario %q (%d hosts, %d steps).", scn.Name, len(hosts), len(evs))
	return nil
}

// Snapshot returns a consistent view of the current simulation state
func (e *Engine) Snapshot() models.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := models.Snapshot{
		Step:      e.ctrl.Step(),
		Running:   e.running,
		AutoBlock: e.ctrl.AutoBlock(),
		Mode:      e.cfg.Mode,
		Scenario:  e.scenarioName,
		Bindings:  e.ctrl.Bindings(),
		Blocked:   e.ctrl.Blocked(),
	}
	if e.lastEvent != nil {
		ev := *e.lastEvent
		snap.LastEvent = &ev
	}
	if e.lastFrame != nil {
		snap.LastFrame = append([]byte(nil), e.lastFrame...)
	}
	return snap
}

// Config returns a copy of the current configuration
func (e *Engine) Config() config.Config {
	e.mu.Lock()
	defer e.mu.Unlock()

	return *e.cfg
}

// Hosts returns the current host population
func (e *Engine) Hosts() []models.Host {
	return e.registry.Hosts()
}

// Logs returns log entries with sequence numbers greater than since.
// Since zero returns the whole history.
func (e *Engine) Logs(since int) []models.LogEntry {
	return e.stream.Since(since)
}

// Scenarios returns the loaded scenario catalog
func (e *Engine) Scenarios() []scenario.Scenario {
	return e.scnMgr.List()
}

// Topology builds the hub and spoke graph for the dashboard
func (e *Engine) Topology() models.Topology {
	hosts := e.registry.Hosts()

	topo := models.Topology{
		Nodes: make([]models.TopologyNode, 0, len(hosts)+1),
		Edges: make([]models.TopologyEdge, 0, len(hosts)),
	}
	topo.Nodes = append(topo.Nodes, models.TopologyNode{
		ID:    "controller",
		Label: "SDN Controller",
		Kind:  models.NodeController,
	})

	for _, h := range hosts {
		topo.Nodes = append(topo.Nodes, models.TopologyNode{
			ID:    h.ID,
			Label: fmt.Sprintf("%s %s", h.ID, h.IP),
			Kind:  models.NodeHost,
			State: e.hostState(h),
		})
		topo.Edges = append(topo.Edges, models.TopologyEdge{From: "controller", To: h.ID})
	}
	return topo
}

// hostState maps the controller's view of one host onto a display state.
// A host whose IP is bound to a different MAC is shown as conflicted even
// before the first alert fires.
func (e *Engine) hostState(h models.Host) string {
	if e.ctrl.IsBlocked(h.MAC.String()) {
		return models.StateBlocked
	}
	b, ok := e.ctrl.BindingFor(h.IP.String())
	if !ok {
		return models.StateUnknown
	}
	if b.Conflicts > 0 || b.MAC.String() != h.MAC.String() {
		return models.StateConflicted
	}
	return models.StateLearned
}

func (e *Engine) buildSource() events.Source {
	if e.cfg.Mode == config.ModeRandom {
		return events.NewRandom(e.registry.Hosts(), e.cfg.SpoofChance, e.cfg.Seed)
	}
	return events.NewBasic(e.registry.Hosts(), e.cfg.SpoofEvery)
}
