// Package server is the HTTP surface of the blog. Handlers translate form
// submissions into calls on the auth and content packages and map their
// sentinel errors onto redirects, flashes, and status codes. No business
// rule lives here.
package server

import (
	"database/sql"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"blog/internal/auth"
	"blog/internal/content"
)

type Server struct {
	db       *sql.DB
	registry *auth.Registry
	sessions *auth.Sessions
	store    *content.Store

	tmpl      map[string]*template.Template
	log       *slog.Logger
	siteTitle string
	handler   http.Handler

	CookieName string
}

func New(database *sql.DB, sessions *auth.Sessions, templateDir, siteTitle string, logger *slog.Logger) (*Server, error) {
	templates, err := loadTemplates(templateDir)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		db:         database,
		registry:   auth.NewRegistry(database),
		sessions:   sessions,
		store:      content.NewStore(database),
		tmpl:       templates,
		log:        logger,
		siteTitle:  siteTitle,
		CookieName: "session_id",
	}
	s.handler = s.instrument(s.routes())
	return s, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(http.MethodGet+" /{$}", s.handleHome)
	mux.HandleFunc(http.MethodGet+" /register", s.handleRegisterForm)
	mux.HandleFunc(http.MethodPost+" /register", s.handleRegister)
	mux.HandleFunc(http.MethodGet+" /login", s.handleLoginForm)
	mux.HandleFunc(http.MethodPost+" /login", s.handleLogin)
	mux.HandleFunc(http.MethodPost+" /logout", s.handleLogout)
	mux.HandleFunc(http.MethodGet+" /post/{id}", s.handlePost)
	mux.HandleFunc(http.MethodPost+" /post/{id}", s.requireCommenter(s.handleComment))
	mux.HandleFunc(http.MethodGet+" /new-post", s.requireAdmin(s.handleNewPostForm))
	mux.HandleFunc(http.MethodPost+" /new-post", s.requireAdmin(s.handleCreatePost))
	mux.HandleFunc(http.MethodGet+" /edit-post/{id}", s.requireAdmin(s.handleEditPostForm))
	mux.HandleFunc(http.MethodPost+" /edit-post/{id}", s.requireAdmin(s.handleEditPost))
	mux.HandleFunc(http.MethodPost+" /delete/{id}", s.requireAdmin(s.handleDeletePost))
	mux.HandleFunc(http.MethodGet+" /about", s.handleAbout)
	mux.HandleFunc(http.MethodGet+" /contact", s.handleContact)
	mux.HandleFunc(http.MethodGet+" /healthz", s.handleHealthz)
	mux.Handle(http.MethodGet+" /metrics", promhttp.Handler())
	mux.Handle(http.MethodGet+" /static/", http.StripPrefix("/static/", http.FileServer(http.Dir("web/static"))))
	return mux
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}
