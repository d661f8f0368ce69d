// ===== pkg/models/models.go =====
package models

import (
	"net"
	"time"
)

// EventKind classifies a simulated ARP announcement
type EventKind string

const (
	// EventLegitimate is a host announcing its own true IP/MAC pair
	EventLegitimate EventKind = "legitimate"
	// EventSpoofed is a host claiming an IP that belongs to another host
	EventSpoofed EventKind = "spoofed"
)

// Log channels, mirroring the controller's action kinds
const (
	ChannelLearn    = "learn"
	ChannelAlert    = "alert"
	ChannelMitigate = "mitigate"
	ChannelDrop     = "drop"
	ChannelInfo     = "info"
)

// Host represents a virtual network host identity
type Host struct {
	ID  string           `json:"id"`
	IP  net.IP           `json:"ip"`
	MAC net.HardwareAddr `json:"mac"`
}

// Event represents one simulated ARP announcement
type Event struct {
	IP   net.IP           `json:"ip"`
	MAC  net.HardwareAddr `json:"mac"`
	Step int              `json:"step"`
	Kind EventKind        `json:"kind"`
	Note string           `json:"note"`
}

// Binding represents the controller's belief about which MAC owns an IP
type Binding struct {
	IP          net.IP           `json:"ip"`
	MAC         net.HardwareAddr `json:"mac"`
	LearnedStep int              `json:"learnedStep"`
	LastSeen    int              `json:"lastSeen"`
	Conflicts   int              `json:"conflicts"`
}

// LogEntry represents one entry in the simulation log stream
type LogEntry struct {
	Seq       int       `json:"seq"`
	ID        string    `json:"id"`
	Step      int       `json:"step"`
	Timestamp time.Time `json:"when"`
	UnixTime  int64     `json:"utime"`
	Channel   string    `json:"channel"`
	Message   string    `json:"message"`
}

// Snapshot is a read-only view of the simulation state
type Snapshot struct {
	Step      int       `json:"step"`
	Running   bool      `json:"running"`
	AutoBlock bool      `json:"autoBlock"`
	Mode      string    `json:"mode"`
	Scenario  string    `json:"scenario,omitempty"`
	Bindings  []Binding `json:"bindings"`
	Blocked   []string  `json:"blocked"`
	LastEvent *Event    `json:"lastEvent,omitempty"`
	LastFrame []byte    `json:"lastFrame,omitempty"`
}
