package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pep299/iracify/internal/infrastructure"
	"github.com/pep299/iracify/internal/model"
	"github.com/pep299/iracify/internal/session"
)

// mockHandler is a simple handler for testing
func mockHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("success"))
}

func TestAdmin(t *testing.T) {
	cfg := &infrastructure.Config{AdminToken: "test-secret-token"}

	tests := []struct {
		name       string
		target     string
		wantStatus int
	}{
		{"valid token", "/admin/settings?token=test-secret-token", http.StatusOK},
		{"wrong token", "/admin/settings?token=wrong-token", http.StatusUnauthorized},
		{"token prefix", "/admin/settings?token=test-secret", http.StatusUnauthorized},
		{"missing token", "/admin/settings", http.StatusUnauthorized},
	}

	handler := Admin(cfg)(http.HandlerFunc(mockHandler))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.target, nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestAdmin_Disabled(t *testing.T) {
	cfg := &infrastructure.Config{}
	handler := Admin(cfg)(http.HandlerFunc(mockHandler))

	req := httptest.NewRequest("GET", "/admin/settings?token=", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
	if IsAdmin(cfg, req) {
		t.Error("Expected empty configured token to disable admin mode")
	}
}

func TestSession(t *testing.T) {
	store := session.NewStore(time.Hour, model.Settings{}, infrastructure.NewNopLogger())

	var seen string
	handler := Session(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionID(r.Context())
	}))

	// First visit creates a session and sets the cookie
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != CookieName {
		t.Fatalf("Expected %s cookie, got %v", CookieName, cookies)
	}
	if !cookies[0].HttpOnly {
		t.Error("Expected HttpOnly cookie")
	}
	if seen != cookies[0].Value {
		t.Errorf("Expected session id %s in context, got %s", cookies[0].Value, seen)
	}

	// Second visit reuses it without a new cookie
	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if len(w.Result().Cookies()) != 0 {
		t.Error("Expected no new cookie for a known session")
	}
	if seen != cookies[0].Value {
		t.Errorf("Expected session id %s, got %s", cookies[0].Value, seen)
	}

	// Unknown id is replaced
	req = httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "stale"})
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if seen == "stale" || len(w.Result().Cookies()) != 1 {
		t.Errorf("Expected stale session to be replaced, got %q", seen)
	}
}

func TestLogging(t *testing.T) {
	handler := Logging(infrastructure.NewNopLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))

	if w.Code != http.StatusTeapot {
		t.Errorf("Expected status 418, got %d", w.Code)
	}
}
