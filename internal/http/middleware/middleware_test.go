package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newSessions(t *testing.T) *auth.Sessions {
	t.Helper()
	s, err := auth.NewSessions("test-secret", time.Hour, false)
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	return s
}

func protectedRouter(s *auth.Sessions) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), Logger(zerolog.Nop()), LoadSession(s))
	api := r.Group("/api", RequireSession())
	api.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"name": SessionClaims(c).Name})
	})
	api.GET("/admin", RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/dashboard", RequirePageSession(), func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

func withSession(t *testing.T, s *auth.Sessions, req *http.Request, role string) {
	t.Helper()
	token, _, err := s.Issue(auth.Claims{MemberID: "m1", Name: "Sam", Role: role})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	req.AddCookie(s.Cookie(token))
}

func TestRequireSessionRejectsAnonymous(t *testing.T) {
	r := protectedRouter(newSessions(t))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if w.Header().Get(RequestIDHeader) == "" {
		t.Fatalf("expected request id header")
	}
}

func TestRequireSessionAcceptsCookie(t *testing.T) {
	s := newSessions(t)
	r := protectedRouter(s)
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	withSession(t, s, req, "User")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != `{"name":"Sam"}` {
		t.Fatalf("unexpected response %d %s", w.Code, w.Body.String())
	}
}

func TestRequireAdmin(t *testing.T) {
	s := newSessions(t)
	r := protectedRouter(s)

	req := httptest.NewRequest(http.MethodGet, "/api/admin", nil)
	withSession(t, s, req, "User")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/admin", nil)
	withSession(t, s, req, "Administrator")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
}

func TestPageSessionRedirects(t *testing.T) {
	r := protectedRouter(newSessions(t))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/login?next=%2Fdashboard" {
		t.Fatalf("unexpected redirect %d %q", w.Code, w.Header().Get("Location"))
	}
}

func TestRequestIDKeepsIncomingHeader(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDHeader)) })
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Body.String() != "abc-123" {
		t.Fatalf("got %q", w.Body.String())
	}
}

func TestIPRateLimiter(t *testing.T) {
	l := NewIPRateLimiter(1, 2)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	if !l.Allow("1.1.1.1") || !l.Allow("1.1.1.1") {
		t.Fatalf("burst should be allowed")
	}
	if l.Allow("1.1.1.1") {
		t.Fatalf("third request should be limited")
	}
	if !l.Allow("2.2.2.2") {
		t.Fatalf("other ip has its own bucket")
	}
	now = now.Add(time.Second)
	if !l.Allow("1.1.1.1") {
		t.Fatalf("token should refill")
	}
}

func TestIPRateLimiterSweepsIdleVisitorsPeriodically(t *testing.T) {
	l := NewIPRateLimiter(1, 1)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	l.Allow("1.1.1.1")
	l.Allow("2.2.2.2")
	if len(l.visitors) != 2 {
		t.Fatalf("expected 2 visitors, got %d", len(l.visitors))
	}

	now = now.Add(limiterIdle / 2)
	l.Allow("2.2.2.2")
	now = now.Add(limiterIdle/2 - time.Second)
	l.Allow("3.3.3.3")
	if len(l.visitors) != 3 {
		t.Fatalf("no sweep is due yet, got %d visitors", len(l.visitors))
	}

	sweptAt := l.lastSweep
	l.Allow("3.3.3.3")
	if l.lastSweep != sweptAt {
		t.Fatalf("sweep must not run again within the interval")
	}

	now = now.Add(limiterIdle + time.Second)
	l.Allow("3.3.3.3")
	if _, ok := l.visitors["1.1.1.1"]; ok {
		t.Fatalf("idle visitor should be swept")
	}
	if len(l.visitors) != 1 {
		t.Fatalf("expected only the active visitor, got %d", len(l.visitors))
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(NewIPRateLimiter(0.001, 1)))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	codes := []int{}
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("unexpected codes %v", codes)
	}
}
