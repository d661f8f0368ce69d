// ===== internal/events/events.go =====
package events

import (
	"math/rand"
	"time"

	"arpsim/pkg/models"
)

// Source produces the simulated announcement for each step. Sources are
// lazy and restartable; the caller drives stepping one event at a time and
// passes the step number the controller will assign. The second return is
// false once a finite source is exhausted. Sources are not safe for
// concurrent use; the engine serializes access.
type Source interface {
	Next(step int) (models.Event, bool)
	Reset()
}

// Basic cycles deterministically through the hosts announcing their own
// true pairs and injects a spoof attempt every spoofEvery-th announcement:
// the last host claims the first host's IP with its own MAC, then repeats
// the claim on the following step.
type Basic struct {
	hosts      []models.Host
	spoofEvery int
	pos        int
	calls      int
	repeat     *models.Event
}

// NewBasic creates a basic-mode source. spoofEvery zero means never spoof.
func NewBasic(hosts []models.Host, spoofEvery int) *Basic {
	return &Basic{hosts: hosts, spoofEvery: spoofEvery}
}

func (b *Basic) Next(step int) (models.Event, bool) {
	if len(b.hosts) == 0 {
		return models.Event{}, false
	}

	if b.repeat != nil {
		ev := *b.repeat
		ev.Step = step
		ev.Note = "spoof attempt (basic #2)"
		b.repeat = nil
		b.calls++
		return ev, true
	}

	b.calls++
	if b.spoofEvery > 0 && len(b.hosts) >= 2 && b.calls%b.spoofEvery == 0 {
		attacker := b.hosts[len(b.hosts)-1]
		victim := b.hosts[0]
		ev := models.Event{
			IP:   victim.IP,
			MAC:  attacker.MAC,
			Step: step,
			Kind: models.EventSpoofed,
			Note: "spoof attempt (basic)",
		}
		repeat := ev
		b.repeat = &repeat
		return ev, true
	}

	h := b.hosts[b.pos%len(b.hosts)]
	b.pos++
	return models.Event{
		IP:   h.IP,
		MAC:  h.MAC,
		Step: step,
		Kind: models.EventLegitimate,
		Note: "normal ARP",
	}, true
}

func (b *Basic) Reset() {
	b.pos = 0
	b.calls = 0
	b.repeat = nil
}

// Random draws a host uniformly each step. With probability prob the drawn
// host spoofs: its own MAC paired with an IP belonging to a different host,
// so a spoofed pair can never reproduce a true binding.
type Random struct {
	hosts []models.Host
	prob  float64
	seed  int64
	rng   *rand.Rand
}

// NewRandom creates a random-mode source. Seed zero picks a time-based
// seed; any other value makes the sequence reproducible.
func NewRandom(hosts []models.Host, prob float64, seed int64) *Random {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Random{
		hosts: hosts,
		prob:  prob,
		seed:  seed,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

func (r *Random) Next(step int) (models.Event, bool) {
	n := len(r.hosts)
	if n == 0 {
		return models.Event{}, false
	}

	actorIdx := r.rng.Intn(n)
	actor := r.hosts[actorIdx]

	if n >= 2 && r.rng.Float64() < r.prob {
		// pick a victim other than the actor
		victimIdx := r.rng.Intn(n - 1)
		if victimIdx >= actorIdx {
			victimIdx++
		}
		victim := r.hosts[victimIdx]
		return models.Event{
			IP:   victim.IP,
			MAC:  actor.MAC,
			Step: step,
			Kind: models.EventSpoofed,
			Note: "random spoof",
		}, true
	}

	return models.Event{
		IP:   actor.IP,
		MAC:  actor.MAC,
		Step: step,
		Kind: models.EventLegitimate,
		Note: "normal ARP",
	}, true
}

func (r *Random) Reset() {
	r.rng = rand.New(rand.NewSource(r.seed))
}

// Scripted replays a fixed list of events, then reports exhaustion
type Scripted struct {
	events []models.Event
	idx    int
}

// NewScripted creates a source that replays events in order
func NewScripted(events []models.Event) *Scripted {
	return &Scripted{events: events}
}

func (s *Scripted) Next(step int) (models.Event, bool) {
	if s.idx >= len(s.events) {
		return models.Event{}, false
	}
	ev := s.events[s.idx]
	s.idx++
	ev.Step = step
	return ev, true
}

func (s *Scripted) Reset() {
	s.idx = 0
}

// Remaining reports how many scripted events are left to play
func (s *Scripted) Remaining() int {
	return len(s.events) - s.idx
}
