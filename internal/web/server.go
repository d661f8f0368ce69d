// ===== internal/web/server.go =====
package web

import (
	"context"
	"fmt"
	"html/template"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"arpsim/internal/config"
	"arpsim/internal/sim"
)

// Server serves the dashboard pages and the JSON control API
type Server struct {
	cfg        *config.Config
	engine     *sim.Engine
	router     *mux.Router
	templates  map[string]*template.Template
	httpServer *http.Server
}

// TemplateData holds data for template rendering
type TemplateData struct {
	PageTitle string
	PageBody  template.HTML
}

// NewServer creates a web server bound to a simulation engine
func NewServer(cfg *config.Config, engine *sim.Engine) *Server {
	server := &Server{
		cfg:       cfg,
		engine:    engine,
		router:    mux.NewRouter(),
		templates: make(map[string]*template.Template),
	}

	server.loadTemplates()
	server.setupRoutes()

	return server
}

// setupRoutes configures HTTP routes
func (s *Server) setupRoutes() {
	// Pages
	s.router.HandleFunc("/", s.handleDashboard).Methods("GET")
	s.router.HandleFunc("/scenarios", s.handleScenariosPage).Methods("GET")

	// Read API
	s.router.HandleFunc("/api/snapshot", s.handleSnapshotAPI).Methods("GET")
	s.router.HandleFunc("/api/hosts", s.handleHostsAPI).Methods("GET")
	s.router.HandleFunc("/api/logs", s.handleLogsAPI).Methods("GET")
	s.router.HandleFunc("/api/topology", s.handleTopologyAPI).Methods("GET")
	s.router.HandleFunc("/api/scenarios", s.handleScenariosAPI).Methods("GET")
	s.router.HandleFunc("/api/config", s.handleConfigGet).Methods("GET")

	// Control API
	s.router.HandleFunc("/api/step", s.handleStep).Methods("POST")
	s.router.HandleFunc("/api/run", s.handleRun).Methods("POST")
	s.router.HandleFunc("/api/stop", s.handleStop).Methods("POST")
	s.router.HandleFunc("/api/reset", s.handleReset).Methods("POST")
	s.router.HandleFunc("/api/prime", s.handlePrime).Methods("POST")
	s.router.HandleFunc("/api/config", s.handleConfigPost).Methods("POST")
	s.router.HandleFunc("/api/scenario/{name}", s.handleScenarioActivate).Methods("POST")

	// Operational endpoints
	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start starts the HTTP server and blocks until it shuts down
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    s.cfg.HTTPListen,
		Handler: s.router,
	}

	log.Printf("Web interface listening on http://%s", s.cfg.HTTPListen)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	s.writeJSON(w, map[string]interface{}{
		"status": "healthy",
		"step":   s.engine.Snapshot().Step,
	})
}

// handleDashboard renders the main dashboard page
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	log.Printf("Request from %s: %s", r.RemoteAddr, r.URL.String())
	s.handlePage(w, "dashboard", "ARPsim - Dashboard")
}

// handleScenariosPage renders the scenario catalog page
func (s *Server) handleScenariosPage(w http.ResponseWriter, r *http.Request) {
	s.handlePage(w, "scenarios", "ARPsim - Scenarios")
}

// handlePage renders a page body inside the bootstrap shell
func (s *Server) handlePage(w http.ResponseWriter, name, title string) {
	data := TemplateData{PageTitle: title}

	content, err := s.renderTemplate(name, data)
	if err != nil {
		http.Error(w, fmt.Sprintf("Template error: %v", err), http.StatusInternalServerError)
		return
	}

	// Convert to template.HTML to prevent escaping
	data.PageBody = template.HTML(content)

	if tmpl, exists := s.templates["bootstrap"]; exists {
		if err := tmpl.Execute(w, data); err != nil {
			log.Printf("Failed to execute bootstrap template: %v", err)
		}
	} else {
		http.Error(w, "Bootstrap template not found", http.StatusInternalServerError)
	}
}
