// Package web holds the embedded page templates and the fiber Views
// engine that renders them.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/sokowatt/sokowatt-web/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutName = "layout"

// Engine implements fiber.Views on top of html/template. Every page
// template is parsed against the shared layout; Render executes the
// layout with the page's content block plugged in.
type Engine struct {
	currency string
	pages    map[string]*template.Template
}

func NewEngine(currencyPrefix string) *Engine {
	return &Engine{currency: currencyPrefix}
}

func (e *Engine) funcs() template.FuncMap {
	return template.FuncMap{
		"money": func(amount float64) string {
			return domain.FormatMoney(e.currency, amount)
		},
		"datefmt": func(t time.Time) string {
			return t.Format("2 Jan 2006")
		},
		"kwh": func(v float64) string {
			return fmt.Sprintf("%.0f kWh", v)
		},
	}
}

// Load parses the layout plus every page template. Fiber calls it once
// at startup.
func (e *Engine) Load() error {
	layout, err := template.New(layoutName+".html").Funcs(e.funcs()).ParseFS(templateFS, "templates/"+layoutName+".html")
	if err != nil {
		return fmt.Errorf("failed to parse layout: %w", err)
	}

	entries, err := fs.ReadDir(templateFS, "templates")
	if err != nil {
		return fmt.Errorf("failed to read templates: %w", err)
	}

	e.pages = make(map[string]*template.Template)
	for _, entry := range entries {
		name := strings.TrimSuffix(entry.Name(), path.Ext(entry.Name()))
		if name == layoutName {
			continue
		}

		page, err := layout.Clone()
		if err != nil {
			return err
		}
		if _, err := page.ParseFS(templateFS, "templates/"+entry.Name()); err != nil {
			return fmt.Errorf("failed to parse template %s: %w", entry.Name(), err)
		}
		e.pages[name] = page
	}
	return nil
}

// Render writes the named page. The layouts variadic is part of the
// fiber.Views contract but unused: the layout is fixed.
func (e *Engine) Render(w io.Writer, name string, binding interface{}, layouts ...string) error {
	page, ok := e.pages[name]
	if !ok {
		return fmt.Errorf("unknown template: %s", name)
	}
	return page.ExecuteTemplate(w, layoutName+".html", binding)
}
