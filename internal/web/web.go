package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"strings"
	"sync"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// IndexData is the model of the home page.
type IndexData struct {
	LastCity string
}

// Engine renders the embedded templates. It satisfies fiber.Views.
type Engine struct {
	mu        sync.RWMutex
	templates *template.Template
}

func NewEngine() *Engine {
	return &Engine{}
}

// Load parses every embedded template. Templates are addressed by file name
// without extension, e.g. "index".
func (e *Engine) Load() error {
	root := template.New("")

	err := fs.WalkDir(templateFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		raw, err := templateFS.ReadFile(path)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(strings.TrimPrefix(path, "templates/"), ".html")
		if _, err := root.New(name).Parse(string(raw)); err != nil {
			return fmt.Errorf("parse template %s: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.templates = root
	e.mu.Unlock()
	return nil
}

// Render executes the named template into w. Layouts are not used.
func (e *Engine) Render(w io.Writer, name string, binding interface{}, _ ...string) error {
	e.mu.RLock()
	tmpl := e.templates
	e.mu.RUnlock()

	if tmpl == nil {
		if err := e.Load(); err != nil {
			return err
		}
		e.mu.RLock()
		tmpl = e.templates
		e.mu.RUnlock()
	}

	t := tmpl.Lookup(name)
	if t == nil {
		return fmt.Errorf("template %q not found", name)
	}
	return t.Execute(w, binding)
}

// Static exposes the embedded static assets rooted at the static directory.
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// The directory is embedded at build time.
		panic(err)
	}
	return http.FS(sub)
}
