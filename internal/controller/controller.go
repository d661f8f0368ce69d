// ===== internal/controller/controller.go =====
package controller

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"arpsim/internal/logstream"
	"arpsim/internal/metrics"
	"arpsim/pkg/models"
	"arpsim/pkg/utils"
)

// ErrInvalidEvent marks a malformed event reaching the controller. This is a
// contract violation between generator and controller, not a user error.
var ErrInvalidEvent = errors.New("invalid event")

// Controller owns the ARP table, the blocked set, and the log stream. It
// learns IP to MAC bindings from announcements and flags any rebind of a
// learned IP to a different MAC as spoofing: no grace period, no quorum, no
// temporal smoothing. The zero-tolerance rule is a deliberate teaching
// simplification and tests depend on it.
type Controller struct {
	mu        sync.RWMutex
	bindings  map[string]models.Binding
	blocked   map[string]bool
	autoBlock bool
	step      int

	stream  *logstream.Stream
	metrics *metrics.Metrics
}

// New creates a controller with an empty table
func New(stream *logstream.Stream, m *metrics.Metrics, autoBlock bool) *Controller {
	return &Controller{
		bindings:  make(map[string]models.Binding),
		blocked:   make(map[string]bool),
		autoBlock: autoBlock,
		stream:    stream,
		metrics:   m,
	}
}

// Process consumes one announcement. Well-formed events never return an
// error; every detection or blocking outcome is a logged domain event.
func (c *Controller) Process(ev models.Event) error {
	if ev.IP == nil || ev.IP.To4() == nil {
		c.metrics.IncrementEventsInvalid()
		return fmt.Errorf("%w: missing or non-IPv4 source IP", ErrInvalidEvent)
	}
	if len(ev.MAC) == 0 {
		c.metrics.IncrementEventsInvalid()
		return fmt.Errorf("%w: missing source MAC", ErrInvalidEvent)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.step++
	c.metrics.IncrementEvents()

	ip := ev.IP.To4().String()
	mac := ev.MAC.String()

	// Blocked sources are dropped at ingress, before the detection rule
	if c.blocked[mac] {
		c.stream.Append(c.step, models.ChannelDrop, "%s",
			withNote(fmt.Sprintf("Packet from blocked MAC %s dropped.", mac), ev.Note))
		c.metrics.IncrementDropped()
		return nil
	}

	existing, known := c.bindings[ip]
	switch {
	case !known:
		c.bindings[ip] = models.Binding{
			IP:          ev.IP.To4(),
			MAC:         ev.MAC,
			LearnedStep: c.step,
			LastSeen:    c.step,
		}
		c.stream.Append(c.step, models.ChannelLearn, "%s",
			withNote(fmt.Sprintf("Learned %s -> %s.", ip, mac), ev.Note))
		c.metrics.IncrementLearned()

	case existing.MAC.String() == mac:
		// Re-announcement of the learned pair: refresh, no log noise
		existing.LastSeen = c.step
		c.bindings[ip] = existing

	default:
		// Conflicting rebind. The learned binding is never overwritten;
		// detection and learning stay decoupled.
		existing.Conflicts++
		c.bindings[ip] = existing
		c.stream.Append(c.step, models.ChannelAlert, "%s",
			withNote(fmt.Sprintf("ARP spoof detected: IP %s was %s, now %s.", ip, existing.MAC, mac), ev.Note))
		c.metrics.IncrementAlerts()

		if c.autoBlock {
			c.blocked[mac] = true
			c.stream.Append(c.step, models.ChannelMitigate,
				"Blocking MAC %s (simulated drop flow).", mac)
			c.metrics.IncrementBlockedMACs()
		}
	}

	return nil
}

// Reset returns the controller to its initial empty state: bindings,
// blocked set, step counter, and log history all cleared.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.bindings = make(map[string]models.Binding)
	c.blocked = make(map[string]bool)
	c.step = 0
	c.stream.Clear()
}

// SetAutoBlock toggles auto-blocking for subsequent events
func (c *Controller) SetAutoBlock(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.autoBlock = enabled
}

// AutoBlock reports whether auto-blocking is enabled
func (c *Controller) AutoBlock() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.autoBlock
}

// Step returns the number of events admitted so far
func (c *Controller) Step() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.step
}

// Bindings returns a copy of the ARP table, ordered by IP
func (c *Controller) Bindings() []models.Binding {
	c.mu.RLock()
	defer c.mu.RUnlock()

	bindings := make([]models.Binding, 0, len(c.bindings))
	for _, b := range c.bindings {
		bindings = append(bindings, b)
	}
	sort.Slice(bindings, func(i, j int) bool {
		return utils.IPToInt(bindings[i].IP) < utils.IPToInt(bindings[j].IP)
	})
	return bindings
}

// Blocked returns a sorted copy of the blocked MAC set
func (c *Controller) Blocked() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	macs := make([]string, 0, len(c.blocked))
	for mac := range c.blocked {
		macs = append(macs, mac)
	}
	sort.Strings(macs)
	return macs
}

// IsBlocked reports whether a MAC is in the blocked set
func (c *Controller) IsBlocked(mac string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.blocked[utils.NormalizeMAC(mac)]
}

// BindingFor returns the current binding for an IP, if any
func (c *Controller) BindingFor(ip string) (models.Binding, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	b, ok := c.bindings[ip]
	return b, ok
}

func withNote(msg, note string) string {
	if note == "" {
		return msg
	}
	return msg + " (" + note + ")"
}
