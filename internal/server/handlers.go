package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"blog/internal/auth"
	"blog/internal/authz"
	"blog/internal/content"
	"blog/internal/models"
)

// dateFormat is the human-readable publication stamp shown on posts.
const dateFormat = "January 2, 2006"

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	posts, err := s.store.ListPosts(r.Context())
	if err != nil {
		s.fail(w, r, err, "listing posts")
		return
	}
	data := s.page(w, r, s.caller(r))
	data["Posts"] = posts
	s.render(w, "index", data)
}

func (s *Server) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, "register", s.page(w, r, s.caller(r)))
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	name := r.FormValue("name")
	password := r.FormValue("password")
	if email == "" || name == "" || password == "" {
		s.setFlash(w, "All fields are required.")
		http.Redirect(w, r, "/register", http.StatusSeeOther)
		return
	}
	user, err := s.registry.Register(r.Context(), email, password, name)
	if err != nil {
		if errors.Is(err, auth.ErrDuplicateEmail) {
			s.setFlash(w, "Already registered with that email - please log in instead.")
			http.Redirect(w, r, "/register", http.StatusSeeOther)
			return
		}
		s.fail(w, r, err, "registering user")
		return
	}
	// A fresh account is signed in right away.
	s.setSessionCookie(w, s.sessions.Issue(user.ID))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, "login", s.page(w, r, s.caller(r)))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")
	user, err := s.registry.ByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			// Same message as a bad password so the form does not
			// confirm which emails are registered.
			s.setFlash(w, "Invalid email or password.")
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		s.fail(w, r, err, "looking up user")
		return
	}
	if !auth.VerifyPassword(password, user.PasswordHash) {
		s.setFlash(w, "Invalid email or password.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	s.setSessionCookie(w, s.sessions.Issue(user.ID))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(s.CookieName); err == nil {
		s.sessions.Revoke(cookie.Value)
		http.SetCookie(w, &http.Cookie{Name: s.CookieName, Path: "/", MaxAge: -1})
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	post, err := s.store.GetPost(r.Context(), id)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.fail(w, r, err, "loading post")
		return
	}
	comments, err := s.store.ListComments(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, "listing comments")
		return
	}
	caller := s.caller(r)
	data := s.page(w, r, caller)
	data["Post"] = post
	data["Comments"] = comments
	data["CanComment"] = authz.CanComment(caller)
	s.render(w, "post", data)
}

func (s *Server) handleComment(w http.ResponseWriter, r *http.Request, user *models.User) {
	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	body := r.FormValue("body")
	if body == "" {
		s.setFlash(w, "Comment cannot be empty.")
		http.Redirect(w, r, postPath(id), http.StatusSeeOther)
		return
	}
	if _, err := s.store.AddComment(r.Context(), id, user.ID, body); err != nil {
		if errors.Is(err, content.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.fail(w, r, err, "adding comment")
		return
	}
	http.Redirect(w, r, postPath(id), http.StatusSeeOther)
}

func (s *Server) handleNewPostForm(w http.ResponseWriter, r *http.Request, user *models.User) {
	data := s.page(w, r, user)
	data["Heading"] = "New Post"
	data["Action"] = "/new-post"
	data["Post"] = &models.Post{}
	s.render(w, "make_post", data)
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request, user *models.User) {
	title := r.FormValue("title")
	subtitle := r.FormValue("subtitle")
	body := r.FormValue("body")
	imageURL := r.FormValue("img_url")
	if title == "" || body == "" {
		s.setFlash(w, "Title and body are required.")
		http.Redirect(w, r, "/new-post", http.StatusSeeOther)
		return
	}
	date := time.Now().Format(dateFormat)
	if _, err := s.store.CreatePost(r.Context(), user.ID, title, subtitle, body, imageURL, date); err != nil {
		if errors.Is(err, content.ErrDuplicateTitle) {
			s.setFlash(w, "That title is already taken.")
			http.Redirect(w, r, "/new-post", http.StatusSeeOther)
			return
		}
		s.fail(w, r, err, "creating post")
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleEditPostForm(w http.ResponseWriter, r *http.Request, user *models.User) {
	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	post, err := s.store.GetPost(r.Context(), id)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.fail(w, r, err, "loading post")
		return
	}
	data := s.page(w, r, user)
	data["Heading"] = "Edit Post"
	data["Action"] = "/edit-post/" + strconv.FormatInt(id, 10)
	data["Post"] = post
	s.render(w, "make_post", data)
}

func (s *Server) handleEditPost(w http.ResponseWriter, r *http.Request, user *models.User) {
	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	title := r.FormValue("title")
	subtitle := r.FormValue("subtitle")
	body := r.FormValue("body")
	imageURL := r.FormValue("img_url")
	if title == "" || body == "" {
		s.setFlash(w, "Title and body are required.")
		http.Redirect(w, r, "/edit-post/"+strconv.FormatInt(id, 10), http.StatusSeeOther)
		return
	}
	update := content.PostUpdate{Title: &title, Subtitle: &subtitle, Body: &body, ImageURL: &imageURL}
	if _, err := s.store.UpdatePost(r.Context(), id, update); err != nil {
		switch {
		case errors.Is(err, content.ErrNotFound):
			http.NotFound(w, r)
		case errors.Is(err, content.ErrDuplicateTitle):
			s.setFlash(w, "That title is already taken.")
			http.Redirect(w, r, "/edit-post/"+strconv.FormatInt(id, 10), http.StatusSeeOther)
		default:
			s.fail(w, r, err, "updating post")
		}
		return
	}
	http.Redirect(w, r, postPath(id), http.StatusSeeOther)
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request, user *models.User) {
	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := s.store.DeletePost(r.Context(), id); err != nil {
		if errors.Is(err, content.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.fail(w, r, err, "deleting post")
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleAbout(w http.ResponseWriter, r *http.Request) {
	s.render(w, "about", s.page(w, r, s.caller(r)))
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	s.render(w, "contact", s.page(w, r, s.caller(r)))
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		s.log.Error("health check failed", "error", err)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Write([]byte("ok"))
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	s.log.Error(msg, "error", err, "path", r.URL.Path)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(s.sessions.TTL()),
		HttpOnly: true,
	})
}

// helpers
func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func postPath(id int64) string {
	return "/post/" + strconv.FormatInt(id, 10)
}
