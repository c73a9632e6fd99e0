package templating

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer renders the dashboard page
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("dashboard.html").ParseFS(templateFS, "templates/dashboard.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse dashboard template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// RenderDashboard writes the dashboard page for data to w
func (r *Renderer) RenderDashboard(w io.Writer, data *PageData) error {
	if err := r.tmpl.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		return fmt.Errorf("failed to render dashboard: %w", err)
	}
	return nil
}
