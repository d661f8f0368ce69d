// ===== internal/web/templates.go =====
package web

import (
	"embed"
	"fmt"
	"html/template"
	"log"
	"strings"
)

//go:embed html/*.tmpl
var templateFS embed.FS

// loadTemplates parses the embedded template files
func (s *Server) loadTemplates() {
	templateFiles := map[string]string{
		"bootstrap": "bootstrap.tmpl",
		"dashboard": "dashboard.tmpl",
		"scenarios": "scenarios.tmpl",
	}

	for name, filename := range templateFiles {
		tmpl, err := template.ParseFS(templateFS, "html/"+filename)
		if err != nil {
			log.Printf("Warning: failed to load template %s: %v", filename, err)
			continue
		}

		s.templates[name] = tmpl
		log.Printf("Loaded template: %s", filename)
	}
}

// renderTemplate renders a template with given data
func (s *Server) renderTemplate(name string, data interface{}) (string, error) {
	tmpl, exists := s.templates[name]
	if !exists {
		return "", fmt.Errorf("template %s not found", name)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
