// Package templates renders the server's HTML pages.
package templates

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/dukerupert/fleetcheck/report"
	"github.com/labstack/echo/v4"
)

//go:embed layouts/*.html components/*.html pages/*.html
var FS embed.FS

// TemplateRenderer wraps html/template for Echo.
type TemplateRenderer struct {
	templates map[string]*template.Template
}

var funcs = template.FuncMap{
	"toneClass": func(t report.Tone) string {
		return "badge badge-" + string(t)
	},
	"isKind": func(s report.Section, kind string) bool {
		return string(s.Kind) == kind
	},
	"imgSrc": imgSrc,
}

// imgSrc lets inline image data URLs through html/template, which would
// otherwise replace them. Other schemes go through the normal escaping.
func imgSrc(ref string) any {
	if strings.HasPrefix(ref, "data:image/") {
		return template.URL(ref)
	}
	return ref
}

// NewTemplateRenderer parses the layouts and components once, then clones
// them for each page so pages can define the same blocks independently.
func NewTemplateRenderer(fsys fs.FS) (*TemplateRenderer, error) {
	base, err := template.New("base").Funcs(funcs).ParseFS(fsys, "layouts/*.html", "components/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layouts: %w", err)
	}

	pages, err := fs.Glob(fsys, "pages/*.html")
	if err != nil {
		return nil, err
	}

	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		name := path.Base(page)

		tmpl, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("failed to clone base template for %s: %w", name, err)
		}
		tmpl, err = tmpl.ParseFS(fsys, page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse page %s: %w", page, err)
		}
		templates[name] = tmpl
	}

	return &TemplateRenderer{templates: templates}, nil
}

// Render renders a page by file name, e.g. "report.html".
func (t *TemplateRenderer) Render(w io.Writer, name string, data any, c echo.Context) error {
	tmpl, ok := t.templates[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}
	return tmpl.ExecuteTemplate(w, name, data)
}

// ReportPage is the data for pages/report.html.
type ReportPage struct {
	Document *report.Document
	PDFURL   string
	StoreURL string
}
