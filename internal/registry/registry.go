// ===== internal/registry/registry.go =====
package registry

import (
	"fmt"
	"log"
	"math/rand"
	"net"
	"sync"
	"time"

	"arpsim/internal/config"
	"arpsim/pkg/models"
	"arpsim/pkg/utils"
)

// The simulated network is a private /24; host i gets 10.0.0.i.
var baseIP = net.IPv4(10, 0, 0, 0).To4()

// Registry generates and holds the virtual host population
type Registry struct {
	mu    sync.RWMutex
	hosts []models.Host
	byIP  map[string]models.Host
	byMAC map[string]models.Host
}

// New creates an empty host registry
func New() *Registry {
	return &Registry{
		byIP:  make(map[string]models.Host),
		byMAC: make(map[string]models.Host),
	}
}

// Generate replaces the population with n freshly generated hosts.
// Identities are deterministic for a given non-zero seed.
func (r *Registry) Generate(n int, seed int64) error {
	if n < 1 {
		return &config.ValidationError{Field: "host_count", Message: "must be at least 1"}
	}
	if n > 254 {
		return &config.ValidationError{Field: "host_count", Message: "must fit a /24 (at most 254)"}
	}

	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	hosts := make([]models.Host, 0, n)
	seen := make(map[string]bool, n)
	base := utils.IPToInt(baseIP)

	for i := 1; i <= n; i++ {
		host := models.Host{
			ID: fmt.Sprintf("h%d", i),
			IP: utils.IntToIP(base + uint32(i)),
		}

		// Locally administered MAC (02:00:xx:xx:xx:xx), unique within the run
		for {
			mac := net.HardwareAddr{0x02, 0x00,
				byte(rng.Intn(256)), byte(rng.Intn(256)),
				byte(rng.Intn(256)), byte(rng.Intn(256))}
			if !seen[mac.String()] {
				seen[mac.String()] = true
				host.MAC = mac
				break
			}
		}

		hosts = append(hosts, host)
	}

	r.install(hosts)
	log.Printf("Generated %d virtual hosts (seed %d)", n, seed)
	return nil
}

// Set replaces the population with an explicit host list (scripted scenarios)
func (r *Registry) Set(hosts []models.Host) error {
	seenIP := make(map[string]bool, len(hosts))
	seenMAC := make(map[string]bool, len(hosts))
	for _, h := range hosts {
		if h.IP == nil || len(h.MAC) == 0 {
			return &config.ValidationError{Field: "hosts", Message: fmt.Sprintf("host %s is missing an IP or MAC", h.ID)}
		}
		if seenIP[h.IP.String()] {
			return &config.ValidationError{Field: "hosts", Message: "duplicate IP " + h.IP.String()}
		}
		if seenMAC[h.MAC.String()] {
			return &config.ValidationError{Field: "hosts", Message: "duplicate MAC " + h.MAC.String()}
		}
		seenIP[h.IP.String()] = true
		seenMAC[h.MAC.String()] = true
	}

	copied := make([]models.Host, len(hosts))
	copy(copied, hosts)
	r.install(copied)
	return nil
}

func (r *Registry) install(hosts []models.Host) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.hosts = hosts
	r.byIP = make(map[string]models.Host, len(hosts))
	r.byMAC = make(map[string]models.Host, len(hosts))
	for _, h := range hosts {
		r.byIP[h.IP.String()] = h
		r.byMAC[h.MAC.String()] = h
	}
}

// Hosts returns a copy of the current host population
func (r *Registry) Hosts() []models.Host {
	r.mu.RLock()
	defer r.mu.RUnlock()

	hosts := make([]models.Host, len(r.hosts))
	copy(hosts, r.hosts)
	return hosts
}

// ByIP returns the host owning an IP
func (r *Registry) ByIP(ip net.IP) (models.Host, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.byIP[ip.String()]
	return h, ok
}

// ByMAC returns the host owning a MAC
func (r *Registry) ByMAC(mac net.HardwareAddr) (models.Host, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.byMAC[mac.String()]
	return h, ok
}

// Len returns the size of the current population
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.hosts)
}
