package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/db"
)

func TestHealthWithoutStoreIsDegraded(t *testing.T) {
	h := &Handler{Logger: zerolog.Nop(), Version: "test"}
	r := gin.New()
	r.GET("/health", h.Health)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["status"] != "degraded" || body["database"] != "disconnected" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestAPIStatusWithoutHub(t *testing.T) {
	h := &Handler{Logger: zerolog.Nop(), Version: "2.0.0"}
	r := gin.New()
	r.GET("/api/status", h.APIStatus)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["status"] != "online" || body["version"] != "2.0.0" || body["websocket_clients"] != float64(0) {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestHealthzIntegration(t *testing.T) {
	uri := os.Getenv("TEST_MONGODB_URI")
	if uri == "" {
		t.Skip("TEST_MONGODB_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	store, err := db.New(ctx, uri, "autoassist_test", zerolog.Nop())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer store.Close()

	h := &Handler{Store: store, Logger: zerolog.Nop()}
	r := gin.New()
	r.GET("/healthz", h.Healthz)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
