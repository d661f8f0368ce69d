// ===== internal/scenario/manager.go =====
package scenario

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"arpsim/pkg/utils"
)

// Manager loads scenario files from a directory and keeps them current
// when the directory changes on disk
type Manager struct {
	dir       string
	scenarios map[string]Scenario

	watcher *fsnotify.Watcher
	mu      sync.RWMutex
	stopCh  chan struct{}
}

// NewManager creates a manager for the given scenario directory
func NewManager(dir string) *Manager {
	return &Manager{
		dir:       dir,
		scenarios: make(map[string]Scenario),
		stopCh:    make(chan struct{}),
	}
}

// Load scans the directory and parses every YAML file in it. Files that
// fail to parse or validate are skipped with a warning so one bad file
// cannot take the rest of the catalog down.
func (m *Manager) Load() error {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return utils.WrapError(err, fmt.Sprintf("failed to read scenario directory %s", m.dir))
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !isScenarioFile(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	loaded := make(map[string]Scenario, len(names))
	sources := make(map[string]string, len(names))
	for _, name := range names {
		scn, err := m.loadFile(filepath.Join(m.dir, name))
		if err != nil {
			log.Printf("Warning: skipping scenario file %s: %v", name, err)
			continue
		}
		if prev, exists := sources[scn.Name]; exists {
			log.Printf("Warning: scenario %q in %s overrides earlier definition in %s", scn.Name, name, prev)
		}
		loaded[scn.Name] = scn
		sources[scn.Name] = name
	}

	m.mu.Lock()
	m.scenarios = loaded
	m.mu.Unlock()

	log.Printf("Loaded %d scenarios from %s", len(loaded), m.dir)
	return nil
}

// loadFile parses and validates a single scenario file
func (m *Manager) loadFile(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, utils.WrapError(err, "failed to read file")
	}

	var scn Scenario
	if err := yaml.Unmarshal(data, &scn); err != nil {
		return Scenario{}, utils.WrapError(err, "failed to parse YAML")
	}
	if err := scn.Validate(); err != nil {
		return Scenario{}, err
	}
	return scn, nil
}

// Watch starts watching the scenario directory and reloads the catalog
// whenever a scenario file changes
func (m *Manager) Watch() error {
	var err error
	m.watcher, err = fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Start the watch goroutine before adding the directory
	go m.watchFiles()

	if err := m.watcher.Add(m.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", m.dir, err)
	}
	return nil
}

// watchFiles reacts to directory events until Stop is called
func (m *Manager) watchFiles() {
	const reloadOps = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename

	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if event.Op&reloadOps == 0 || !isScenarioFile(event.Name) {
				continue
			}
			log.Printf("Scenario file changed: %s", event.Name)
			if err := m.Load(); err != nil {
				log.Printf("Error reloading scenarios: %v", err)
			}

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("File watcher error: %v", err)

		case <-m.stopCh:
			return
		}
	}
}

// Stop stops watching the scenario directory
func (m *Manager) Stop() {
	close(m.stopCh)
	if m.watcher != nil {
		m.watcher.Close()
	}
}

// Get returns the named scenario
func (m *Manager) Get(name string) (Scenario, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	scn, ok := m.scenarios[name]
	return scn, ok
}

// List returns all loaded scenarios sorted by name
func (m *Manager) List() []Scenario {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]Scenario, 0, len(m.scenarios))
	for _, scn := range m.scenarios {
		list = append(list, scn)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
	return list
}

func isScenarioFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
