package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func TestRequireUser(t *testing.T) {
	var gotUserID string
	handler := RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = UserIDFromContext(r.Context())
	}))

	t.Run("missing identity rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("identity placed on context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
		req.Header.Set(UserIDHeader, "user-1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
		if gotUserID != "user-1" {
			t.Errorf("expected user-1 on context, got %q", gotUserID)
		}
	})
}

type fakeProvisioner struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeProvisioner) EnsureUser(ctx context.Context, id, email, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, id+"|"+email+"|"+name)
	return f.err
}

func TestProvisionUser(t *testing.T) {
	newHandler := func(p *fakeProvisioner) http.Handler {
		return RequireUser(ProvisionUser(p)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})))
	}

	t.Run("upserts once per identity", func(t *testing.T) {
		provisioner := &fakeProvisioner{}
		handler := newHandler(provisioner)

		for range 3 {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
			req.Header.Set(UserIDHeader, "user-1")
			req.Header.Set(UserEmailHeader, "user@example.com")
			req.Header.Set(UserNameHeader, "Alex")
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
		}

		if len(provisioner.calls) != 1 {
			t.Fatalf("expected 1 provisioning call, got %d", len(provisioner.calls))
		}
		if provisioner.calls[0] != "user-1|user@example.com|Alex" {
			t.Errorf("unexpected provisioning call %q", provisioner.calls[0])
		}
	})

	t.Run("separate identities provisioned separately", func(t *testing.T) {
		provisioner := &fakeProvisioner{}
		handler := newHandler(provisioner)

		for _, userID := range []string{"user-1", "user-2"} {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
			req.Header.Set(UserIDHeader, userID)
			handler.ServeHTTP(httptest.NewRecorder(), req)
		}

		if len(provisioner.calls) != 2 {
			t.Errorf("expected 2 provisioning calls, got %d", len(provisioner.calls))
		}
	})

	t.Run("failure rejects the request and is retried", func(t *testing.T) {
		provisioner := &fakeProvisioner{err: errors.New("db down")}
		handler := newHandler(provisioner)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
		req.Header.Set(UserIDHeader, "user-1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}

		// The identity must not be remembered as provisioned after a failure.
		provisioner.err = nil
		rec = httptest.NewRecorder()
		req = httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
		req.Header.Set(UserIDHeader, "user-1")
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 after retry, got %d", rec.Code)
		}
		if len(provisioner.calls) != 2 {
			t.Errorf("expected 2 provisioning attempts, got %d", len(provisioner.calls))
		}
	})
}
