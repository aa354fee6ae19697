package server

import (
	"html/template"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"blog/internal/models"
)

const flashCookie = "flash"

// loadTemplates parses every page template against the shared layout and
// indexes the result by file name.
func loadTemplates(dir string) (map[string]*template.Template, error) {
	templates := map[string]*template.Template{}
	layout := filepath.Join(dir, "layout.html")
	pages, err := filepath.Glob(filepath.Join(dir, "*.html"))
	if err != nil {
		return nil, err
	}
	for _, page := range pages {
		if filepath.Base(page) == "layout.html" {
			continue
		}
		t, err := template.ParseFiles(layout, page)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(filepath.Base(page), ".html")
		templates[name] = t
	}
	return templates, nil
}

func (s *Server) render(w http.ResponseWriter, name string, data map[string]any) {
	t, ok := s.tmpl[name]
	if !ok {
		s.log.Error("template not found", "template", name)
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}
	if err := t.ExecuteTemplate(w, "layout", data); err != nil {
		s.log.Error("render failed", "template", name, "error", err)
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}

// page builds the data every template expects: site identity, the caller,
// and any pending flash message (consumed here).
func (s *Server) page(w http.ResponseWriter, r *http.Request, caller *models.User) map[string]any {
	data := map[string]any{
		"SiteTitle": s.siteTitle,
		"User":      caller,
		"LoggedIn":  caller != nil,
		"IsAdmin":   caller != nil && caller.Role.IsAdmin(),
	}
	if msg, ok := s.takeFlash(w, r); ok {
		data["Flash"] = msg
	}
	return data
}

// setFlash queues a one-shot message for the next rendered page. The value
// is escaped so it survives the cookie round trip.
func (s *Server) setFlash(w http.ResponseWriter, msg string) {
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: url.QueryEscape(msg), Path: "/", HttpOnly: true})
}

func (s *Server) takeFlash(w http.ResponseWriter, r *http.Request) (string, bool) {
	cookie, err := r.Cookie(flashCookie)
	if err != nil {
		return "", false
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1})
	msg, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return "", false
	}
	return msg, true
}
