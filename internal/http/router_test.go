package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/auth"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testRouter(t *testing.T) (*gin.Engine, *auth.Sessions) {
	t.Helper()
	s, err := auth.NewSessions("test-secret", time.Hour, false)
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	cfg := config.Config{CORSAllowed: "*", MaxUploadSizeMB: 16, WebhookRate: 10, WebhookBurst: 20, SessionRefresh: 5 * time.Minute}
	return Router(cfg, Deps{Sessions: s, Version: "test"}, zerolog.Nop()), s
}

func TestRouterPublicAndProtectedRoutes(t *testing.T) {
	r, s := testRouter(t)

	cases := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/api/status", http.StatusOK},
		{http.MethodGet, "/test", http.StatusOK},
		{http.MethodGet, "/api/session/status", http.StatusOK},
		{http.MethodGet, "/api/tickets", http.StatusUnauthorized},
		{http.MethodPost, "/api/webhook/cleanup", http.StatusUnauthorized},
		{http.MethodGet, "/api/does-not-exist", http.StatusNotFound},
		{http.MethodGet, "/dashboard", http.StatusFound},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		if w.Code != tc.want {
			t.Fatalf("%s %s: expected %d, got %d", tc.method, tc.path, tc.want, w.Code)
		}
	}

	token, _, err := s.Issue(auth.Claims{MemberID: "m1", Name: "Sam", Role: "User"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/webhook/cleanup", nil)
	req.AddCookie(s.Cookie(token))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("non-admin cleanup: expected 403, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/session/refresh", nil)
	req.AddCookie(s.Cookie(token))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Header().Get("Set-Cookie"), auth.CookieName+"=") {
		t.Fatalf("session refresh: expected 200 with cookie, got %d", w.Code)
	}
}

func TestRouterMetricsEndpoint(t *testing.T) {
	r, _ := testRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "# HELP") {
		t.Fatalf("metrics: %d", w.Code)
	}
}
