package server

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"blog/internal/auth"
	"blog/internal/db"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("db open: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	srv, err := New(database, auth.NewSessions(time.Hour), "../../web/templates", "Test Blog", nil)
	if err != nil {
		t.Fatalf("server: %v", err)
	}
	return srv
}

func doGet(srv *Server, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func doPost(srv *Server, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func cookieNamed(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name && c.MaxAge >= 0 {
			return c
		}
	}
	return nil
}

// registerUser signs up an account and returns the session cookie from the
// automatic login.
func registerUser(t *testing.T, srv *Server, email, name, password string) *http.Cookie {
	t.Helper()
	form := url.Values{"email": {email}, "name": {name}, "password": {password}}
	w := doPost(srv, "/register", form)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("register code %d", w.Code)
	}
	cookie := cookieNamed(w, srv.CookieName)
	if cookie == nil {
		t.Fatalf("register did not log the user in")
	}
	return cookie
}

func TestRegisterAutoLogin(t *testing.T) {
	srv := newTestServer(t)
	cookie := registerUser(t, srv, "ada@example.com", "Ada", "secret")

	w := doGet(srv, "/", cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("home code %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Log Out") {
		t.Fatalf("expected a logged-in home page")
	}
}

func TestFirstUserIsAdmin(t *testing.T) {
	srv := newTestServer(t)
	first := registerUser(t, srv, "ada@example.com", "Ada", "secret")
	second := registerUser(t, srv, "grace@example.com", "Grace", "secret")

	if w := doGet(srv, "/new-post", first); w.Code != http.StatusOK {
		t.Fatalf("first user new-post code %d, want 200", w.Code)
	}
	if w := doGet(srv, "/new-post", second); w.Code != http.StatusForbidden {
		t.Fatalf("second user new-post code %d, want 403", w.Code)
	}
}

func TestDuplicateRegister(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv, "ada@example.com", "Ada", "secret")

	form := url.Values{"email": {"ada@example.com"}, "name": {"Ada Again"}, "password": {"other"}}
	w := doPost(srv, "/register", form)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("duplicate register code %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/register" {
		t.Fatalf("duplicate register redirected to %q, want /register", loc)
	}
	if cookieNamed(w, srv.CookieName) != nil {
		t.Fatalf("duplicate register must not log anyone in")
	}
}

func TestLoginGenericFailureMessage(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv, "ada@example.com", "Ada", "secret")

	cases := []struct {
		name string
		form url.Values
	}{
		{"unknown email", url.Values{"email": {"nobody@example.com"}, "password": {"secret"}}},
		{"wrong password", url.Values{"email": {"ada@example.com"}, "password": {"wrong"}}},
	}
	for _, tc := range cases {
		w := doPost(srv, "/login", tc.form)
		if w.Code != http.StatusSeeOther {
			t.Fatalf("%s: code %d", tc.name, w.Code)
		}
		if loc := w.Header().Get("Location"); loc != "/login" {
			t.Fatalf("%s: redirected to %q", tc.name, loc)
		}
		if cookieNamed(w, srv.CookieName) != nil {
			t.Fatalf("%s: failed login must not set a session", tc.name)
		}
		flash := cookieNamed(w, flashCookie)
		if flash == nil {
			t.Fatalf("%s: no flash", tc.name)
		}
		// Both failures must read identically so the form does not reveal
		// which emails exist.
		followUp := doGet(srv, "/login", flash)
		if !strings.Contains(followUp.Body.String(), "Invalid email or password.") {
			t.Fatalf("%s: missing generic message", tc.name)
		}
	}
}

func TestLoginLogout(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv, "ada@example.com", "Ada", "secret")

	form := url.Values{"email": {"ada@example.com"}, "password": {"secret"}}
	w := doPost(srv, "/login", form)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("login code %d", w.Code)
	}
	cookie := cookieNamed(w, srv.CookieName)
	if cookie == nil {
		t.Fatalf("no session cookie")
	}

	w = doPost(srv, "/logout", nil, cookie)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("logout code %d", w.Code)
	}

	// The revoked session no longer authenticates.
	home := doGet(srv, "/", cookie)
	if strings.Contains(home.Body.String(), "Log Out") {
		t.Fatalf("logout did not revoke the session")
	}
}

func TestAnonymousPostMutationForbidden(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv, "ada@example.com", "Ada", "secret")

	if w := doGet(srv, "/new-post"); w.Code != http.StatusForbidden {
		t.Fatalf("anonymous new-post form code %d, want 403", w.Code)
	}

	form := url.Values{"title": {"Sneaky"}, "body": {"Nope."}}
	if w := doPost(srv, "/new-post", form); w.Code != http.StatusForbidden {
		t.Fatalf("anonymous new-post code %d, want 403", w.Code)
	}

	home := doGet(srv, "/")
	if strings.Contains(home.Body.String(), "Sneaky") {
		t.Fatalf("forbidden create must not change state")
	}
}

func TestPostLifecycle(t *testing.T) {
	srv := newTestServer(t)
	admin := registerUser(t, srv, "ada@example.com", "Ada", "secret")

	form := url.Values{
		"title":    {"First Light"},
		"subtitle": {"A beginning"},
		"body":     {"Hello, world."},
		"img_url":  {"https://example.com/a.png"},
	}
	w := doPost(srv, "/new-post", form, admin)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("create code %d", w.Code)
	}

	home := doGet(srv, "/")
	if !strings.Contains(home.Body.String(), "First Light") {
		t.Fatalf("home does not list the new post")
	}
	if !strings.Contains(home.Body.String(), "Ada") {
		t.Fatalf("home does not show the author name")
	}

	detail := doGet(srv, "/post/1")
	if detail.Code != http.StatusOK {
		t.Fatalf("detail code %d", detail.Code)
	}
	if !strings.Contains(detail.Body.String(), "Hello, world.") {
		t.Fatalf("detail missing body")
	}

	// Edit keeps the id and the publication date.
	edit := url.Values{
		"title":    {"Second Thoughts"},
		"subtitle": {"A beginning"},
		"body":     {"Hello again."},
		"img_url":  {"https://example.com/a.png"},
	}
	w = doPost(srv, "/edit-post/1", edit, admin)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("edit code %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/post/1" {
		t.Fatalf("edit redirected to %q", loc)
	}
	detail = doGet(srv, "/post/1")
	if !strings.Contains(detail.Body.String(), "Second Thoughts") {
		t.Fatalf("edit did not apply")
	}

	w = doPost(srv, "/delete/1", nil, admin)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("delete code %d", w.Code)
	}
	if w := doGet(srv, "/post/1"); w.Code != http.StatusNotFound {
		t.Fatalf("deleted post code %d, want 404", w.Code)
	}
}

func TestDuplicateTitleRejected(t *testing.T) {
	srv := newTestServer(t)
	admin := registerUser(t, srv, "ada@example.com", "Ada", "secret")

	form := url.Values{"title": {"Only Once"}, "body": {"First."}}
	if w := doPost(srv, "/new-post", form, admin); w.Code != http.StatusSeeOther {
		t.Fatalf("create code %d", w.Code)
	}

	form = url.Values{"title": {"Only Once"}, "body": {"Second."}}
	w := doPost(srv, "/new-post", form, admin)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("duplicate create code %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/new-post" {
		t.Fatalf("duplicate create redirected to %q, want /new-post", loc)
	}

	home := doGet(srv, "/")
	if got := strings.Count(home.Body.String(), "Only Once"); got != 1 {
		t.Fatalf("expected exactly one post with the title, found %d", got)
	}
}

func TestCommentFlow(t *testing.T) {
	srv := newTestServer(t)
	admin := registerUser(t, srv, "ada@example.com", "Ada", "secret")
	reader := registerUser(t, srv, "grace@example.com", "Grace", "secret")

	form := url.Values{"title": {"Discussed"}, "body": {"Body."}}
	if w := doPost(srv, "/new-post", form, admin); w.Code != http.StatusSeeOther {
		t.Fatalf("create code %d", w.Code)
	}

	// Anonymous commenters are sent to the login page.
	w := doPost(srv, "/post/1", url.Values{"body": {"psst"}})
	if w.Code != http.StatusSeeOther {
		t.Fatalf("anonymous comment code %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Fatalf("anonymous comment redirected to %q, want /login", loc)
	}
	flash := cookieNamed(w, flashCookie)
	if flash == nil {
		t.Fatalf("anonymous comment set no flash")
	}
	login := doGet(srv, "/login", flash)
	if !strings.Contains(login.Body.String(), "Please log in to submit comments.") {
		t.Fatalf("missing login hint")
	}
	detail := doGet(srv, "/post/1")
	if strings.Contains(detail.Body.String(), "psst") {
		t.Fatalf("anonymous comment must not be stored")
	}

	// A signed-in reader can comment.
	w = doPost(srv, "/post/1", url.Values{"body": {"Great read."}}, reader)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("comment code %d", w.Code)
	}
	detail = doGet(srv, "/post/1")
	if !strings.Contains(detail.Body.String(), "Great read.") {
		t.Fatalf("comment not shown")
	}
	if !strings.Contains(detail.Body.String(), "Grace") {
		t.Fatalf("comment author name not shown")
	}
}

func TestCommentOnMissingPost(t *testing.T) {
	srv := newTestServer(t)
	reader := registerUser(t, srv, "ada@example.com", "Ada", "secret")

	w := doPost(srv, "/post/42", url.Values{"body": {"hello?"}}, reader)
	if w.Code != http.StatusNotFound {
		t.Fatalf("comment on missing post code %d, want 404", w.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	if w := doGet(srv, "/logout"); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET /logout code %d, want 405", w.Code)
	}
	if w := doGet(srv, "/delete/1"); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET /delete/1 code %d, want 405", w.Code)
	}
}

func TestUnknownPostIs404(t *testing.T) {
	srv := newTestServer(t)

	if w := doGet(srv, "/post/999"); w.Code != http.StatusNotFound {
		t.Fatalf("unknown post code %d", w.Code)
	}
	if w := doGet(srv, "/post/banana"); w.Code != http.StatusNotFound {
		t.Fatalf("malformed id code %d", w.Code)
	}
}

func TestStaticPages(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/about", "/contact"} {
		if w := doGet(srv, path); w.Code != http.StatusOK {
			t.Fatalf("%s code %d", path, w.Code)
		}
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	w := doGet(srv, "/healthz")
	if w.Code != http.StatusOK {
		t.Fatalf("healthz code %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "ok") {
		t.Fatalf("healthz body %q", w.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	doGet(srv, "/")
	w := doGet(srv, "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("metrics code %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "blog_http_requests_total") {
		t.Fatalf("metrics output missing request counter")
	}
}
