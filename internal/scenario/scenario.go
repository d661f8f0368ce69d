// ===== internal/scenario/scenario.go =====
package scenario

import (
	"fmt"
	"net"

	"arpsim/internal/config"
	"arpsim/pkg/models"
	"arpsim/pkg/utils"
)

// Scenario is a scripted simulation: a fixed host population and an
// ordered list of announcements to replay against the controller.
type Scenario struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	AutoBlock   bool       `yaml:"auto_block"`
	Hosts       []HostSpec `yaml:"hosts"`
	Steps       []StepSpec `yaml:"steps"`
}

// HostSpec declares one scenario host
type HostSpec struct {
	ID  string `yaml:"id"`
	IP  string `yaml:"ip"`
	MAC string `yaml:"mac"`
}

// StepSpec declares one announcement: a MAC claiming an IP
type StepSpec struct {
	IP   string `yaml:"ip"`
	MAC  string `yaml:"mac"`
	Note string `yaml:"note,omitempty"`
}

// Validate checks that the scenario can be replayed
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return &config.ValidationError{Field: "name", Message: "must not be empty"}
	}
	if len(s.Hosts) == 0 {
		return &config.ValidationError{Field: "hosts", Message: "must declare at least one host"}
	}
	if len(s.Steps) == 0 {
		return &config.ValidationError{Field: "steps", Message: "must declare at least one step"}
	}

	seenIP := make(map[string]bool, len(s.Hosts))
	seenMAC := make(map[string]bool, len(s.Hosts))
	for i, h := range s.Hosts {
		ip := net.ParseIP(h.IP)
		if ip == nil || ip.To4() == nil {
			return &config.ValidationError{Field: fmt.Sprintf("hosts[%d].ip", i), Message: "not a valid IPv4 address"}
		}
		if _, err := net.ParseMAC(h.MAC); err != nil {
			return &config.ValidationError{Field: fmt.Sprintf("hosts[%d].mac", i), Message: "not a valid MAC address"}
		}
		if seenIP[ip.String()] {
			return &config.ValidationError{Field: fmt.Sprintf("hosts[%d].ip", i), Message: "duplicate IP " + h.IP}
		}
		if seenMAC[utils.NormalizeMAC(h.MAC)] {
			return &config.ValidationError{Field: fmt.Sprintf("hosts[%d].mac", i), Message: "duplicate MAC " + h.MAC}
		}
		seenIP[ip.String()] = true
		seenMAC[utils.NormalizeMAC(h.MAC)] = true
	}

	for i, st := range s.Steps {
		ip := net.ParseIP(st.IP)
		if ip == nil || ip.To4() == nil {
			return &config.ValidationError{Field: fmt.Sprintf("steps[%d].ip", i), Message: "not a valid IPv4 address"}
		}
		if _, err := net.ParseMAC(st.MAC); err != nil {
			return &config.ValidationError{Field: fmt.Sprintf("steps[%d].mac", i), Message: "not a valid MAC address"}
		}
	}

	return nil
}

// ToHosts converts the declared population to model hosts
func (s *Scenario) ToHosts() ([]models.Host, error) {
	hosts := make([]models.Host, 0, len(s.Hosts))
	for i, h := range s.Hosts {
		ip := net.ParseIP(h.IP)
		if ip == nil || ip.To4() == nil {
			return nil, fmt.Errorf("host %d: bad IP %q", i, h.IP)
		}
		mac, err := net.ParseMAC(h.MAC)
		if err != nil {
			return nil, fmt.Errorf("host %d: bad MAC %q: %w", i, h.MAC, err)
		}
		id := h.ID
		if id == "" {
			id = fmt.Sprintf("h%d", i+1)
		}
		hosts = append(hosts, models.Host{ID: id, IP: ip.To4(), MAC: mac})
	}
	return hosts, nil
}

// ToEvents converts the step list to replayable events. A step matching a
// declared host's true pair is legitimate; anything else is a spoof.
func (s *Scenario) ToEvents() ([]models.Event, error) {
	truth := make(map[string]string, len(s.Hosts))
	for _, h := range s.Hosts {
		ip := net.ParseIP(h.IP)
		if ip == nil {
			return nil, fmt.Errorf("bad host IP %q", h.IP)
		}
		truth[ip.String()] = utils.NormalizeMAC(h.MAC)
	}

	evs := make([]models.Event, 0, len(s.Steps))
	for i, st := range s.Steps {
		ip := net.ParseIP(st.IP)
		if ip == nil || ip.To4() == nil {
			return nil, fmt.Errorf("step %d: bad IP %q", i, st.IP)
		}
		mac, err := net.ParseMAC(st.MAC)
		if err != nil {
			return nil, fmt.Errorf("step %d: bad MAC %q: %w", i, st.MAC, err)
		}

		kind := models.EventSpoofed
		if truth[ip.To4().String()] == mac.String() {
			kind = models.EventLegitimate
		}
		note := st.Note
		if note == "" {
			note = "scenario step"
		}
		evs = append(evs, models.Event{IP: ip.To4(), MAC: mac, Kind: kind, Note: note})
	}
	return evs, nil
}
