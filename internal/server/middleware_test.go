package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bobmcallan/folio/internal/common"
)

func TestUserHeaderMiddleware_SetsUser(t *testing.T) {
	cfg := common.NewDefaultConfig()
	handler := userHeaderMiddleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uc := common.UserContextFromContext(r.Context())
		if uc == nil {
			t.Fatal("Expected UserContext to be present")
		}
		if uc.UserID != "alice" || uc.Source != "header" {
			t.Errorf("Expected alice/header, got %s/%s", uc.UserID, uc.Source)
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/portfolios", nil)
	req.Header.Set(userIDHeader, " alice ")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rr.Code)
	}
}

func TestUserHeaderMiddleware_IgnoredWhenAuthRequired(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Auth.RequireAuth = true
	handler := userHeaderMiddleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if uc := common.UserContextFromContext(r.Context()); uc != nil {
			t.Errorf("Expected no UserContext, got %+v", uc)
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/portfolios", nil)
	req.Header.Set(userIDHeader, "alice")
	handler.ServeHTTP(httptest.NewRecorder(), req)
}

func TestUserHeaderMiddleware_BearerTakesPrecedence(t *testing.T) {
	cfg := common.NewDefaultConfig()
	handler := userHeaderMiddleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := common.ResolveUserID(r.Context()); got != "from-token" {
			t.Errorf("Expected from-token, got %s", got)
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/portfolios", nil)
	req.Header.Set(userIDHeader, "alice")
	req = req.WithContext(common.WithUserContext(req.Context(), &common.UserContext{UserID: "from-token", Source: "jwt"}))
	handler.ServeHTTP(httptest.NewRecorder(), req)
}

func TestBearerTokenMiddleware_NoHeaderPassesThrough(t *testing.T) {
	called := false
	handler := bearerTokenMiddleware(common.NewDefaultConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if !called {
		t.Error("Expected next handler to be called")
	}
}

func TestBearerTokenMiddleware_MalformedToken(t *testing.T) {
	handler := bearerTokenMiddleware(common.NewDefaultConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler must not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/portfolios", nil)
	req.Header.Set("Authorization", "Bearer not.a.jwt")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rr.Code)
	}
}

func TestCorrelationIDMiddleware(t *testing.T) {
	handler := correlationIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if got := rr.Header().Get("X-Correlation-ID"); len(got) != 8 {
		t.Errorf("Expected generated 8-char correlation id, got %q", got)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if got := rr.Header().Get("X-Correlation-ID"); got != "req-123" {
		t.Errorf("Expected req-123, got %q", got)
	}
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	handler := corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("preflight must not reach the handler")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/api/portfolios", nil))
	if rr.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected Access-Control-Allow-Origin header")
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := recoveryMiddleware(common.NewSilentLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", rr.Code)
	}
}
