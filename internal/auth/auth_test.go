package auth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/yourusername/jobboard/internal/common"
	"github.com/yourusername/jobboard/internal/models"
)

type stubUsers struct {
	mu    sync.Mutex
	users map[int64]*models.User
	err   error
}

func (s *stubUsers) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *stubUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return u, nil
}

type harness struct {
	srv     *httptest.Server
	client  *http.Client
	manager *Manager
	users   *stubUsers

	mu    sync.Mutex
	clock time.Time
}

func (h *harness) now() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.clock
}

func (h *harness) advance(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clock = h.clock.Add(d)
}

func newHarness(t *testing.T, csrf bool) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := &harness{
		users: &stubUsers{users: map[int64]*models.User{1: {ID: 1, Username: "alice"}}},
		clock: time.Now(),
	}
	h.manager = NewManager(h.users, NewMemoryAttemptStore(), Options{IdleTimeout: 30 * time.Minute, CSRFEnabled: csrf})
	h.manager.now = h.now

	r := gin.New()
	r.Use(sessions.Sessions(SessionCookieName, NewStore([]byte("test-secret"), false)))
	r.Use(h.manager.LoadUser(), h.manager.CSRF())

	r.GET("/login-as/:id", func(c *gin.Context) {
		id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
		if err := h.manager.Login(c, &models.User{ID: id}); err != nil {
			c.String(http.StatusInternalServerError, err.Error())
			return
		}
		c.String(http.StatusOK, CSRFToken(c))
	})
	r.GET("/logout", func(c *gin.Context) {
		_ = h.manager.Logout(c)
		c.Status(http.StatusNoContent)
	})
	r.GET("/whoami", func(c *gin.Context) {
		if u := CurrentUser(c); u != nil {
			c.String(http.StatusOK, u.Username)
			return
		}
		c.String(http.StatusOK, "anonymous")
	})
	r.GET("/token", func(c *gin.Context) { c.String(http.StatusOK, CSRFToken(c)) })
	r.GET("/private", h.manager.RequireLogin(), func(c *gin.Context) { c.String(http.StatusOK, "secret") })
	r.GET("/login", h.manager.RedirectIfAuthenticated(), func(c *gin.Context) {
		var msgs []string
		for _, f := range Flashes(c) {
			msgs = append(msgs, f.Category+":"+f.Message)
		}
		c.String(http.StatusOK, strings.Join(msgs, "|"))
	})
	r.POST("/mutate", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	h.srv = httptest.NewServer(r)
	t.Cleanup(h.srv.Close)

	jar, _ := cookiejar.New(nil)
	h.client = &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return h
}

func (h *harness) get(t *testing.T, path string) (int, string, http.Header) {
	t.Helper()
	resp, err := h.client.Get(h.srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	buf := new(strings.Builder)
	_, _ = io.Copy(buf, resp.Body)
	return resp.StatusCode, buf.String(), resp.Header
}

func (h *harness) postForm(t *testing.T, path string, form url.Values) int {
	t.Helper()
	resp, err := h.client.PostForm(h.srv.URL+path, form)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	resp.Body.Close()
	return resp.StatusCode
}

func TestLoginLoadsUserAndLogoutClears(t *testing.T) {
	h := newHarness(t, false)

	if _, body, _ := h.get(t, "/whoami"); body != "anonymous" {
		t.Fatalf("expected anonymous before login, got %q", body)
	}
	if code, _, _ := h.get(t, "/login-as/1"); code != http.StatusOK {
		t.Fatalf("login-as status %d", code)
	}
	if _, body, _ := h.get(t, "/whoami"); body != "alice" {
		t.Fatalf("expected alice after login, got %q", body)
	}

	h.get(t, "/logout")
	if _, body, _ := h.get(t, "/whoami"); body != "anonymous" {
		t.Fatalf("expected anonymous after logout, got %q", body)
	}
}

func TestIdleAndAbsoluteExpiry(t *testing.T) {
	h := newHarness(t, false)
	h.get(t, "/login-as/1")

	h.advance(29 * time.Minute)
	if _, body, _ := h.get(t, "/whoami"); body != "alice" {
		t.Fatalf("session should survive within idle timeout, got %q", body)
	}

	h.advance(31 * time.Minute)
	if _, body, _ := h.get(t, "/whoami"); body != "anonymous" {
		t.Fatalf("idle session should expire, got %q", body)
	}

	h.get(t, "/login-as/1")
	for i := 0; i < 26; i++ {
		h.advance(29 * time.Minute)
		h.get(t, "/whoami")
	}
	if _, body, _ := h.get(t, "/whoami"); body != "anonymous" {
		t.Fatalf("session older than 12h should expire, got %q", body)
	}
}

func TestDeletedUserBecomesAnonymous(t *testing.T) {
	h := newHarness(t, false)
	h.get(t, "/login-as/7")

	if _, body, _ := h.get(t, "/whoami"); body != "anonymous" {
		t.Fatalf("session for missing user must be anonymous, got %q", body)
	}
}

func TestLoaderErrorAborts(t *testing.T) {
	h := newHarness(t, false)
	h.get(t, "/login-as/1")
	h.users.fail(errors.New("db down"))

	if code, _, _ := h.get(t, "/whoami"); code != http.StatusInternalServerError {
		t.Fatalf("expected 500 when user lookup fails, got %d", code)
	}
}

func TestRequireLoginRedirectsWithNext(t *testing.T) {
	h := newHarness(t, false)

	code, _, hdr := h.get(t, "/private?tab=2")
	if code != http.StatusFound {
		t.Fatalf("expected 302, got %d", code)
	}
	if loc := hdr.Get("Location"); loc != "/login?next=%2Fprivate%3Ftab%3D2" {
		t.Fatalf("unexpected Location %q", loc)
	}

	_, body, _ := h.get(t, "/login")
	if body != "info:Please log in to access this page." {
		t.Fatalf("unexpected flash %q", body)
	}
	if _, body, _ := h.get(t, "/login"); body != "" {
		t.Fatalf("flash must be shown once, got %q", body)
	}

	h.get(t, "/login-as/1")
	if code, body, _ := h.get(t, "/private"); code != http.StatusOK || body != "secret" {
		t.Fatalf("authenticated request = %d %q", code, body)
	}
	if code, _, hdr := h.get(t, "/login"); code != http.StatusFound || hdr.Get("Location") != "/" {
		t.Fatalf("logged-in user visiting /login should go home, got %d %q", code, hdr.Get("Location"))
	}
}

func TestCSRF(t *testing.T) {
	h := newHarness(t, true)

	_, token, _ := h.get(t, "/token")
	if len(token) != 64 {
		t.Fatalf("expected hex token, got %q", token)
	}
	if _, again, _ := h.get(t, "/token"); again != token {
		t.Fatalf("token should be stable within a session")
	}

	if code := h.postForm(t, "/mutate", url.Values{}); code != http.StatusBadRequest {
		t.Fatalf("missing token: want 400, got %d", code)
	}
	if code := h.postForm(t, "/mutate", url.Values{"csrf_token": {"nope"}}); code != http.StatusBadRequest {
		t.Fatalf("wrong token: want 400, got %d", code)
	}
	if code := h.postForm(t, "/mutate", url.Values{"csrf_token": {token}}); code != http.StatusOK {
		t.Fatalf("valid token: want 200, got %d", code)
	}

	req, _ := http.NewRequest(http.MethodPost, h.srv.URL+"/mutate", nil)
	req.Header.Set("X-CSRF-Token", token)
	resp, err := h.client.Do(req)
	if err != nil {
		t.Fatalf("header POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("header token: want 200, got %d", resp.StatusCode)
	}

	_, rotated, _ := h.get(t, "/login-as/1")
	if rotated == token {
		t.Fatalf("login must rotate the csrf token")
	}
}

func TestCSRFDisabled(t *testing.T) {
	h := newHarness(t, false)
	if code := h.postForm(t, "/mutate", url.Values{}); code != http.StatusOK {
		t.Fatalf("csrf disabled: want 200, got %d", code)
	}
}

func TestMemoryAttemptStoreLocksAfterFiveFailures(t *testing.T) {
	s := NewMemoryAttemptStore()
	now := time.Now()
	s.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		remaining, _ := s.RecordFailure(ctx, "1.2.3.4")
		if remaining != maxLoginAttempts-i {
			t.Fatalf("after %d failures remaining = %d", i, remaining)
		}
		if d, _ := s.LockedFor(ctx, "1.2.3.4"); d != 0 {
			t.Fatalf("locked too early after %d failures", i)
		}
	}

	if remaining, _ := s.RecordFailure(ctx, "1.2.3.4"); remaining != 0 {
		t.Fatalf("fifth failure remaining = %d", remaining)
	}
	if d, _ := s.LockedFor(ctx, "1.2.3.4"); d != lockDuration {
		t.Fatalf("locked for %v, want %v", d, lockDuration)
	}
	if d, _ := s.LockedFor(ctx, "5.6.7.8"); d != 0 {
		t.Fatalf("other clients must not be locked")
	}

	now = now.Add(lockDuration)
	if d, _ := s.LockedFor(ctx, "1.2.3.4"); d != 0 {
		t.Fatalf("lock should expire, still %v", d)
	}
}

func TestMemoryAttemptStoreWindowAndReset(t *testing.T) {
	s := NewMemoryAttemptStore()
	now := time.Now()
	s.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, _ = s.RecordFailure(ctx, "ip")
	}
	now = now.Add(loginWindow + time.Second)
	if remaining, _ := s.RecordFailure(ctx, "ip"); remaining != maxLoginAttempts-1 {
		t.Fatalf("window should restart, remaining = %d", remaining)
	}

	_ = s.Reset(ctx, "ip")
	if remaining, _ := s.RecordFailure(ctx, "ip"); remaining != maxLoginAttempts-1 {
		t.Fatalf("reset should clear failures, remaining = %d", remaining)
	}
}

func TestRedisAttemptStore(t *testing.T) {
	addr := os.Getenv("REDIS_URL")
	if addr == "" {
		t.Skip("REDIS_URL not set")
	}
	opt, err := redis.ParseURL(addr)
	if err != nil {
		t.Fatalf("parse REDIS_URL: %v", err)
	}
	rdb := redis.NewClient(opt)
	defer rdb.Close()

	s := NewRedisAttemptStore(rdb)
	ctx := context.Background()
	key := "test-" + strconv.FormatInt(time.Now().UnixNano(), 10)
	defer s.Reset(ctx, key)

	for i := 1; i < maxLoginAttempts; i++ {
		if remaining, err := s.RecordFailure(ctx, key); err != nil || remaining != maxLoginAttempts-i {
			t.Fatalf("failure %d: remaining=%d err=%v", i, remaining, err)
		}
	}
	if _, err := s.RecordFailure(ctx, key); err != nil {
		t.Fatalf("final failure: %v", err)
	}
	d, err := s.LockedFor(ctx, key)
	if err != nil || d <= 0 || d > lockDuration {
		t.Fatalf("LockedFor = %v, %v", d, err)
	}

	if err := s.Reset(ctx, key); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if d, _ := s.LockedFor(ctx, key); d != 0 {
		t.Fatalf("reset should unlock, got %v", d)
	}
}

func TestSafeRedirect(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "/"},
		{"/vacancy/add", "/vacancy/add"},
		{"/vacancies?page=2", "/vacancies?page=2"},
		{"//evil.example", "/"},
		{"/\\evil.example", "/"},
		{"https://evil.example/", "/"},
		{"javascript:alert(1)", "/"},
		{"vacancies", "/"},
		{"/ok\r\nSet-Cookie: x", "/"},
	}
	for _, tt := range tests {
		if got := SafeRedirect(tt.in); got != tt.want {
			t.Fatalf("SafeRedirect(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
