package http

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"

	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/session"
)

const layoutTemplate = "templates/layout.html"

// page is what every template receives; Data carries the view-specific part.
type page struct {
	Title  string
	Nav    string
	User   core.Identity
	CSRF   string
	Flash  *session.Flash
	Data   any
	Status int
}

// views holds one template set per page, each parsed together with the layout
// so every page can define its own "content" block.
type views struct {
	pages map[string]*template.Template
}

var templateFuncs = template.FuncMap{
	"signed": func(t core.Transaction) string {
		if t.Type == core.Income {
			return "+" + t.Amount.String()
		}
		return "-" + t.Amount.String()
	},
	"negative": func(m core.Money) bool { return m.Cents < 0 },
	"idString": func(id int64) string { return fmt.Sprint(id) },
}

func loadViews(fsys fs.FS) (*views, error) {
	files, err := fs.Glob(fsys, "templates/*.html")
	if err != nil {
		return nil, err
	}
	v := &views{pages: make(map[string]*template.Template, len(files))}
	for _, file := range files {
		if file == layoutTemplate {
			continue
		}
		name := path.Base(file)
		t, err := template.New(name).Funcs(templateFuncs).ParseFS(fsys, layoutTemplate, file)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		v.pages[name] = t
	}
	if len(v.pages) == 0 {
		return nil, fmt.Errorf("no page templates found")
	}
	return v, nil
}

func (v *views) execute(buf *bytes.Buffer, name string, p page) error {
	t, ok := v.pages[name]
	if !ok {
		return fmt.Errorf("template %q not loaded", name)
	}
	return t.ExecuteTemplate(buf, "layout", p)
}

// render executes a page into memory first so a template failure still yields
// a clean 500 instead of a half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name, title, nav string, data any) {
	p := page{Title: title, Nav: nav, Data: data, Status: status}
	if sess, ok := session.FromContext(r.Context()); ok {
		p.User = sess.Identity
		p.CSRF = sess.CSRFToken
	}
	if f, ok := s.sessions.PopFlash(w, r); ok {
		p.Flash = &f
	}

	var buf bytes.Buffer
	if err := s.views.execute(&buf, name, p); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err,
			"template", name,
			log.FieldComponent, log.ComponentTemplate,
			log.FieldErrorType, log.ErrorTypeInternal)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
