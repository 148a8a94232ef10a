package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicyouth/portal/internal/adapter/http/ratelimit"
	"github.com/civicyouth/portal/internal/adapter/storage/sqlite"
	"github.com/civicyouth/portal/internal/domain"
	"github.com/civicyouth/portal/internal/service"
)

const (
	testSecret   = "http-test-secret-key-long-enough-1234"
	testEmail    = "admin@civic.org"
	testPassword = "P@ssw0rd123"
)

type recordingObserver struct {
	errs []error
}

func (o *recordingObserver) ObserveLogin(err error) {
	o.errs = append(o.errs, err)
}

type testEnv struct {
	server   *Server
	content  *service.ContentService
	observer *recordingObserver
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := sqlite.NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	authSvc := service.NewAuthService(store, ratelimit.NewLoginRateLimiter(), testSecret)
	created, err := authSvc.EnsureAdmin(context.Background(), testEmail, testPassword)
	require.NoError(t, err)
	require.True(t, created)

	contentSvc := service.NewContentService(store)
	observer := &recordingObserver{}

	return &testEnv{
		server:   NewServer(authSvc, contentSvc, observer, testSecret, false),
		content:  contentSvc,
		observer: observer,
	}
}

// client keeps cookies between requests the way a browser would.
type client struct {
	t       *testing.T
	handler http.Handler
	cookies map[string]*http.Cookie
}

func newClient(t *testing.T, h http.Handler) *client {
	return &client{t: t, handler: h, cookies: make(map[string]*http.Cookie)}
}

func (c *client) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	c.t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return rec
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(http.MethodGet, path, nil)
}

// post submits form with the current CSRF token, fetching one first if needed.
func (c *client) post(path string, form url.Values) *httptest.ResponseRecorder {
	c.t.Helper()
	if _, ok := c.cookies["csrf_token"]; !ok {
		c.get("/login")
	}
	if form == nil {
		form = url.Values{}
	}
	form.Set("csrf_token", c.cookies["csrf_token"].Value)
	return c.do(http.MethodPost, path, form)
}

func (c *client) login(email, password string) *httptest.ResponseRecorder {
	return c.post("/login", url.Values{"email": {email}, "password": {password}})
}

func TestLockoutMinutes(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		reset time.Time
		want  int
	}{
		{"full window", now.Add(15 * time.Minute), 15},
		{"partial minute rounds up", now.Add(14*time.Minute + time.Second), 15},
		{"just under a minute", now.Add(30 * time.Second), 1},
		{"already passed", now.Add(-time.Second), 1},
		{"exactly now", now, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LockoutMinutes(tt.reset, now))
		})
	}
}

func TestLockoutMessage(t *testing.T) {
	assert.Equal(t, "Too many login attempts. Please try again in 1 minute.", lockoutMessage(1))
	assert.Equal(t, "Too many login attempts. Please try again in 12 minutes.", lockoutMessage(12))
}

func TestLogin_Success(t *testing.T) {
	env := newTestEnv(t)
	c := newClient(t, env.server)

	rec := c.get("/login")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="csrf_token"`)

	rec = c.login(" Admin@Civic.org ", testPassword)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))

	auth := c.cookies[CookieName]
	require.NotNil(t, auth)
	assert.True(t, auth.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, auth.SameSite)
	assert.Equal(t, CookieMaxAge, auth.MaxAge)

	rec = c.get("/admin")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), testEmail)

	require.Len(t, env.observer.errs, 1)
	assert.NoError(t, env.observer.errs[0])
}

func TestLogin_InvalidCredentials(t *testing.T) {
	env := newTestEnv(t)
	c := newClient(t, env.server)

	rec := c.login(testEmail, "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid email or password.")
	assert.Nil(t, c.cookies[CookieName])

	rec = c.login("nobody@civic.org", testPassword)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid email or password.")
}

func TestLogin_LockoutAfterFiveAttempts(t *testing.T) {
	env := newTestEnv(t)
	c := newClient(t, env.server)

	for i := 0; i < ratelimit.MaxAttempts; i++ {
		rec := c.login(testEmail, "wrong")
		require.Equal(t, http.StatusUnauthorized, rec.Code, "attempt %d", i+1)
	}

	rec := c.login(testEmail, testPassword)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please try again in 15 minutes.")
	assert.Equal(t, "900", rec.Header().Get("Retry-After"))
	assert.Nil(t, c.cookies[CookieName])

	require.Len(t, env.observer.errs, ratelimit.MaxAttempts+1)
	assert.ErrorIs(t, env.observer.errs[ratelimit.MaxAttempts], domain.ErrTooManyAttempts)

	// another identifier is unaffected
	rec = c.login("someone@civic.org", "whatever")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_RequiresCSRFToken(t *testing.T) {
	env := newTestEnv(t)
	c := newClient(t, env.server)

	rec := c.do(http.MethodPost, "/login", url.Values{"email": {testEmail}, "password": {testPassword}})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, env.observer.errs)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	c := newClient(t, env.server)
	c.login(testEmail, testPassword)
	require.NotNil(t, c.cookies[CookieName])

	rec := c.post("/logout", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Nil(t, c.cookies[CookieName])

	rec = c.get("/admin")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestAdminRequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	c := newClient(t, env.server)

	for _, path := range []string{"/admin", "/admin/news/new", "/admin/entries/abc/edit"} {
		rec := c.get(path)
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/login", rec.Header().Get("Location"), path)
	}

	c.cookies[CookieName] = &http.Cookie{Name: CookieName, Value: "1:1:forged"}
	rec := c.get("/admin")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestAdminEntryLifecycle(t *testing.T) {
	env := newTestEnv(t)
	c := newClient(t, env.server)
	c.login(testEmail, testPassword)

	rec := c.get("/admin/events/new")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = c.post("/admin/events", url.Values{
		"title":     {"Town Hall Debate"},
		"summary":   {"Bring your questions"},
		"body":      {"Doors open at 6pm."},
		"published": {"1"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin?notice=saved", rec.Header().Get("Location"))

	rec = c.get("/events/town-hall-debate")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Doors open at 6pm.")

	entries, err := env.content.ListSection(context.Background(), domain.SectionEvents, false)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	id := entries[0].ID

	t.Run("duplicate slug re-renders form", func(t *testing.T) {
		rec := c.post("/admin/events", url.Values{"title": {"Town Hall Debate"}})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "That slug is already used in this section.")
	})

	t.Run("missing title re-renders form", func(t *testing.T) {
		rec := c.post("/admin/events", url.Values{"title": {"  "}, "body": {"kept"}})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "Title is required.")
		assert.Contains(t, rec.Body.String(), "kept")
	})

	t.Run("edit page", func(t *testing.T) {
		rec := c.get("/admin/entries/" + id + "/edit")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `value="Town Hall Debate"`)
	})

	t.Run("unpublish hides public page", func(t *testing.T) {
		rec := c.post("/admin/entries/"+id, url.Values{"title": {"Town Hall Debate"}, "body": {"Moved."}})
		require.Equal(t, http.StatusSeeOther, rec.Code)

		rec = c.get("/events/town-hall-debate")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("delete", func(t *testing.T) {
		rec := c.post("/admin/entries/"+id+"/delete", nil)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/admin?notice=deleted", rec.Header().Get("Location"))

		rec = c.post("/admin/entries/"+id+"/delete", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unknown section", func(t *testing.T) {
		rec := c.post("/admin/blog", url.Values{"title": {"Hello"}})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	c := newClient(t, env.server)
	c.login(testEmail, testPassword)

	rec := c.post("/admin/password", url.Values{"current_password": {"wrong"}, "new_password": {"N3wP@ssw0rd!"}})
	assert.Equal(t, "/admin?error=wrong-password", rec.Header().Get("Location"))

	rec = c.post("/admin/password", url.Values{"current_password": {testPassword}, "new_password": {"weak"}})
	assert.Equal(t, "/admin?error=weak-password", rec.Header().Get("Location"))

	rec = c.post("/admin/password", url.Values{"current_password": {testPassword}, "new_password": {"N3wP@ssw0rd!"}})
	assert.Equal(t, "/admin?notice=password", rec.Header().Get("Location"))

	rec = c.get("/admin?notice=password")
	assert.Contains(t, rec.Body.String(), "Password updated.")

	other := newClient(t, env.server)
	assert.Equal(t, http.StatusSeeOther, other.login(testEmail, "N3wP@ssw0rd!").Code)
}

func TestPublicPages(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.content.Create(ctx, domain.SectionNews, service.EntryInput{Title: "Budget Vote", Summary: "Youth budget passes", Published: true})
	require.NoError(t, err)
	_, err = env.content.Create(ctx, domain.SectionNews, service.EntryInput{Title: "Secret Draft"})
	require.NoError(t, err)

	c := newClient(t, env.server)

	rec := c.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Budget Vote")
	assert.NotContains(t, rec.Body.String(), "Secret Draft")
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))

	rec = c.get("/news")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Youth budget passes")
	assert.NotContains(t, rec.Body.String(), "Secret Draft")

	rec = c.get("/NEWS")
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, http.StatusNotFound, c.get("/news/secret-draft").Code)
	assert.Equal(t, http.StatusNotFound, c.get("/blog").Code)
	assert.Equal(t, http.StatusNotFound, c.get("/news/missing").Code)
}
