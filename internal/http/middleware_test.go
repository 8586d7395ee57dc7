package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/lab-reservation/internal/application"
)

type fakeSessionValidator struct {
	principal application.Principal
	err       error

	seenToken string
}

func (f *fakeSessionValidator) ValidateSession(ctx context.Context, token string) (application.Principal, error) {
	f.seenToken = token
	if f.err != nil {
		return application.Principal{}, f.err
	}
	return f.principal, nil
}

func TestRequireSession(t *testing.T) {
	t.Run("rejects requests without a token", func(t *testing.T) {
		validator := &fakeSessionValidator{}
		handler := RequireSession(validator, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("next handler should not be called without a token")
		}))

		req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", recorder.Code)
		}
	})

	t.Run("rejects invalid tokens", func(t *testing.T) {
		validator := &fakeSessionValidator{err: application.ErrUnauthorized}
		handler := RequireSession(validator, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("next handler should not be called for invalid tokens")
		}))

		req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "bogus"})
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", recorder.Code)
		}
	})

	t.Run("rejects expired sessions with 401", func(t *testing.T) {
		validator := &fakeSessionValidator{err: application.ErrSessionExpired}
		handler := RequireSession(validator, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("next handler should not be called for expired sessions")
		}))

		req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
		req.Header.Set("Authorization", "Bearer stale")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", recorder.Code)
		}
	})

	t.Run("converts validator failures into 500", func(t *testing.T) {
		validator := &fakeSessionValidator{err: errors.New("storage down")}
		handler := RequireSession(validator, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("next handler should not be called on validator failure")
		}))

		req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
		req.Header.Set("Authorization", "Bearer token")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", recorder.Code)
		}
	})

	t.Run("attaches the principal to the request context", func(t *testing.T) {
		validator := &fakeSessionValidator{principal: application.Principal{UserName: "alice", IsAdmin: true}}
		var captured application.Principal
		handler := RequireSession(validator, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				t.Fatal("expected principal in request context")
			}
			captured = principal
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "valid-token"})
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}
		if validator.seenToken != "valid-token" {
			t.Fatalf("expected cookie token to reach the validator, got %q", validator.seenToken)
		}
		if captured.UserName != "alice" || !captured.IsAdmin {
			t.Fatalf("unexpected principal: %+v", captured)
		}
	})
}

func TestExtractTokenFromRequest(t *testing.T) {
	t.Run("prefers the authorization header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer header-token")
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "cookie-token"})

		if token := extractTokenFromRequest(req); token != "header-token" {
			t.Fatalf("expected header token, got %q", token)
		}
	})

	t.Run("falls back to the session cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "cookie-token"})

		if token := extractTokenFromRequest(req); token != "cookie-token" {
			t.Fatalf("expected cookie token, got %q", token)
		}
	})

	t.Run("returns empty when no credentials are present", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if token := extractTokenFromRequest(req); token != "" {
			t.Fatalf("expected empty token, got %q", token)
		}
	})
}
