package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aadi-novice/guardian/internal/credentials"
	"github.com/aadi-novice/guardian/internal/models"
	"github.com/aadi-novice/guardian/internal/shared"
	"github.com/golang-jwt/jwt/v5"
)

func seededStore(t *testing.T, access, refresh string) *credentials.MemoryStore {
	t.Helper()
	store := credentials.NewMemoryStore()
	if err := store.Save(models.Credentials{AccessToken: access, RefreshToken: refresh}); err != nil {
		t.Fatalf("failed to seed store: %v", err)
	}
	return store
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestRefreshCoordination(t *testing.T) {
	t.Run("Single Flight Under Concurrent Expiry", func(t *testing.T) {
		const n = 8
		var refreshCalls, staleHits atomic.Int64

		mux := http.NewServeMux()
		mux.HandleFunc("/auth/refresh/", func(w http.ResponseWriter, r *http.Request) {
			refreshCalls.Add(1)
			// Hold the refresh open until every request has observed its 401,
			// so all of them join the same cycle.
			deadline := time.Now().Add(2 * time.Second)
			for staleHits.Load() < n && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
			}
			// Grace period so the last 401 has joined the waiter queue.
			time.Sleep(50 * time.Millisecond)
			writeJSON(w, http.StatusOK, map[string]string{"access": "fresh"})
		})
		mux.HandleFunc("/protected", func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer fresh" {
				staleHits.Add(1)
				writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "token expired"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		store := seededStore(t, "stale", "r1")
		client := NewClient(ClientOpts{BaseURL: server.URL, Store: store})

		var wg sync.WaitGroup
		errs := make([]error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				var result map[string]string
				errs[i] = client.do(context.Background(), http.MethodGet, "/protected", nil, &result)
			}(i)
		}
		wg.Wait()

		for i, err := range errs {
			if err != nil {
				t.Errorf("request %d failed: %v", i, err)
			}
		}

		if got := refreshCalls.Load(); got != 1 {
			t.Errorf("expected exactly 1 refresh call, got %d", got)
		}

		creds, ok := store.Load()
		if !ok || creds.AccessToken != "fresh" {
			t.Errorf("expected refreshed access token to be persisted, got %+v", creds)
		}
		if creds.RefreshToken != "r1" {
			t.Errorf("expected refresh token to be carried over, got %s", creds.RefreshToken)
		}
	})

	t.Run("Expired Then Recovered Fetch", func(t *testing.T) {
		var protectedHits atomic.Int64

		mux := http.NewServeMux()
		mux.HandleFunc("/auth/refresh/", func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["refresh"] != "r1" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "invalid refresh"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"access": "a2"})
		})
		mux.HandleFunc("/protected", func(w http.ResponseWriter, r *http.Request) {
			protectedHits.Add(1)
			if r.Header.Get("Authorization") != "Bearer a2" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "token expired"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"value": "42"})
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		client := NewClient(ClientOpts{BaseURL: server.URL, Store: seededStore(t, "a1", "r1")})

		var result map[string]string
		if err := client.do(context.Background(), http.MethodGet, "/protected", nil, &result); err != nil {
			t.Fatalf("expected recovered request to succeed, got %v", err)
		}
		if result["value"] != "42" {
			t.Errorf("expected replayed response, got %+v", result)
		}
		if got := protectedHits.Load(); got != 2 {
			t.Errorf("expected original call plus one replay, got %d hits", got)
		}
	})

	t.Run("No Double Retry Loop", func(t *testing.T) {
		var refreshCalls, expiredSignals atomic.Int64

		mux := http.NewServeMux()
		mux.HandleFunc("/auth/refresh/", func(w http.ResponseWriter, r *http.Request) {
			refreshCalls.Add(1)
			writeJSON(w, http.StatusOK, map[string]string{"access": "a2"})
		})
		mux.HandleFunc("/protected", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "still rejected"})
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		client := NewClient(ClientOpts{
			BaseURL:          server.URL,
			Store:            seededStore(t, "a1", "r1"),
			OnSessionExpired: func() { expiredSignals.Add(1) },
		})

		err := client.do(context.Background(), http.MethodGet, "/protected", nil, nil)
		if !errors.Is(err, shared.ErrTokenExpired) {
			t.Fatalf("expected ErrTokenExpired, got %v", err)
		}
		if got := refreshCalls.Load(); got != 1 {
			t.Errorf("expected exactly 1 refresh call, got %d", got)
		}
		if got := expiredSignals.Load(); got != 1 {
			t.Errorf("expected one session-expired signal, got %d", got)
		}
	})

	t.Run("Terminal Refresh Failure Rejects Every Waiter", func(t *testing.T) {
		const n = 5
		var expiredSignals, staleHits atomic.Int64

		mux := http.NewServeMux()
		mux.HandleFunc("/auth/refresh/", func(w http.ResponseWriter, r *http.Request) {
			deadline := time.Now().Add(2 * time.Second)
			for staleHits.Load() < n && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
			}
			// Grace period so the last 401 has joined the waiter queue.
			time.Sleep(50 * time.Millisecond)
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "refresh token expired"})
		})
		mux.HandleFunc("/protected", func(w http.ResponseWriter, r *http.Request) {
			staleHits.Add(1)
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "token expired"})
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		store := seededStore(t, "a1", "r1")
		client := NewClient(ClientOpts{
			BaseURL:          server.URL,
			Store:            store,
			OnSessionExpired: func() { expiredSignals.Add(1) },
		})

		var wg sync.WaitGroup
		errs := make([]error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = client.do(context.Background(), http.MethodGet, "/protected", nil, nil)
			}(i)
		}
		wg.Wait()

		for i, err := range errs {
			if !errors.Is(err, shared.ErrRefreshFailed) {
				t.Errorf("request %d: expected ErrRefreshFailed, got %v", i, err)
			}
		}

		if _, ok := store.Load(); ok {
			t.Error("expected credentials to be cleared after terminal refresh failure")
		}
		if got := expiredSignals.Load(); got != 1 {
			t.Errorf("expected exactly one session-expired signal, got %d", got)
		}
	})

	t.Run("Proactively Refreshes Known Expired Token", func(t *testing.T) {
		var protectedHits, refreshCalls atomic.Int64

		expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		})
		expiredToken, err := expired.SignedString([]byte("secret"))
		if err != nil {
			t.Fatalf("failed to sign token: %v", err)
		}

		mux := http.NewServeMux()
		mux.HandleFunc("/auth/refresh/", func(w http.ResponseWriter, r *http.Request) {
			refreshCalls.Add(1)
			writeJSON(w, http.StatusOK, map[string]string{"access": "fresh"})
		})
		mux.HandleFunc("/protected", func(w http.ResponseWriter, r *http.Request) {
			protectedHits.Add(1)
			if r.Header.Get("Authorization") != "Bearer fresh" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "token expired"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		client := NewClient(ClientOpts{BaseURL: server.URL, Store: seededStore(t, expiredToken, "r1")})

		if err := client.do(context.Background(), http.MethodGet, "/protected", nil, nil); err != nil {
			t.Fatalf("expected request to succeed, got %v", err)
		}
		if got := refreshCalls.Load(); got != 1 {
			t.Errorf("expected one proactive refresh, got %d", got)
		}
		if got := protectedHits.Load(); got != 1 {
			t.Errorf("expected no wasted request on the expired token, got %d hits", got)
		}
	})

	t.Run("Unauthenticated Requests Never Trigger Refresh", func(t *testing.T) {
		var refreshCalls atomic.Int64

		mux := http.NewServeMux()
		mux.HandleFunc("/auth/refresh/", func(w http.ResponseWriter, r *http.Request) {
			refreshCalls.Add(1)
			writeJSON(w, http.StatusOK, map[string]string{"access": "x"})
		})
		mux.HandleFunc("/protected", func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "" {
				t.Errorf("expected no Authorization header, got %q", r.Header.Get("Authorization"))
			}
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "login required"})
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		client := NewClient(ClientOpts{BaseURL: server.URL, Store: credentials.NewMemoryStore()})

		err := client.do(context.Background(), http.MethodGet, "/protected", nil, nil)
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401 APIError, got %v", err)
		}
		if got := refreshCalls.Load(); got != 0 {
			t.Errorf("expected no refresh without a credential, got %d calls", got)
		}
	})
}

func TestLogin(t *testing.T) {
	t.Run("Happy Path", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/auth/login/", func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["username"] != "student" || body["password"] != "student123" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "invalid credentials"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"access": "a1", "refresh": "r1"})
		})
		mux.HandleFunc("/auth/me/", func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer a1" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "token missing"})
				return
			}
			writeJSON(w, http.StatusOK, models.Identity{ID: 7, Username: "student", Role: models.RoleStudent})
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		store := credentials.NewMemoryStore()
		client := NewClient(ClientOpts{BaseURL: server.URL, Store: store})

		identity, err := client.Login(context.Background(), "student", "student123")
		if err != nil {
			t.Fatalf("expected login to succeed, got %v", err)
		}
		if identity.ID != 7 {
			t.Errorf("expected identity id 7, got %d", identity.ID)
		}

		creds, ok := store.Load()
		if !ok || creds.AccessToken != "a1" || creds.RefreshToken != "r1" {
			t.Errorf("expected token pair to be persisted, got %+v", creds)
		}
	})

	t.Run("Failure Leaves Credentials Untouched", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "No active account found with the given credentials"})
		}))
		defer server.Close()

		store := credentials.NewMemoryStore()
		client := NewClient(ClientOpts{BaseURL: server.URL, Store: store})

		_, err := client.Login(context.Background(), "student", "wrong")
		if err == nil {
			t.Fatal("expected login to fail")
		}
		if err.Error() != "No active account found with the given credentials" {
			t.Errorf("expected server detail to take precedence, got %q", err.Error())
		}
		if _, ok := store.Load(); ok {
			t.Error("expected no credentials to be saved on failure")
		}
	})
}

func TestErrorDecoding(t *testing.T) {
	t.Run("Detail Takes Precedence Over Message", func(t *testing.T) {
		err := decodeError(400, []byte(`{"detail":"the detail","message":"the message"}`))
		if err.Error() != "the detail" {
			t.Errorf("expected detail, got %q", err.Error())
		}
	})

	t.Run("Message When No Detail", func(t *testing.T) {
		err := decodeError(400, []byte(`{"message":"the message"}`))
		if err.Error() != "the message" {
			t.Errorf("expected message, got %q", err.Error())
		}
	})

	t.Run("Generic Fallback", func(t *testing.T) {
		err := decodeError(500, []byte(`not json`))
		if !strings.Contains(err.Error(), "500") {
			t.Errorf("expected generic status message, got %q", err.Error())
		}
	})

	t.Run("Field Error Map", func(t *testing.T) {
		err := decodeError(400, []byte(`{"username":["already taken"],"email":["invalid"]}`))

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %T", err)
		}
		if got := vErr.Fields["username"]; len(got) != 1 || got[0] != "already taken" {
			t.Errorf("expected username field error, got %v", got)
		}
		if got := vErr.Fields["email"]; len(got) != 1 || got[0] != "invalid" {
			t.Errorf("expected email field error, got %v", got)
		}
	})

	t.Run("Transport Failure Maps To Network Error", func(t *testing.T) {
		client := NewClient(ClientOpts{BaseURL: "http://127.0.0.1:1", Store: credentials.NewMemoryStore()})

		err := client.do(context.Background(), http.MethodGet, "/courses/", nil, nil)
		if !errors.Is(err, shared.ErrNetworkUnavailable) {
			t.Errorf("expected ErrNetworkUnavailable, got %v", err)
		}
	})

	t.Run("Timeout Maps To ErrTimeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer server.Close()

		client := NewClient(ClientOpts{
			BaseURL:    server.URL,
			Store:      credentials.NewMemoryStore(),
			HTTPClient: &http.Client{Timeout: 20 * time.Millisecond},
		})

		err := client.do(context.Background(), http.MethodGet, "/courses/", nil, nil)
		if !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})
}

func TestFetchBinary(t *testing.T) {
	t.Run("Returns Body And Content Type", func(t *testing.T) {
		payload := []byte("%PDF-1.4 fake document")
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer a1" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "token missing"})
				return
			}
			w.Header().Set("Content-Type", "application/pdf")
			w.Write(payload)
		}))
		defer server.Close()

		client := NewClient(ClientOpts{BaseURL: server.URL, Store: seededStore(t, "a1", "r1")})

		body, contentType, err := client.FetchBinary(context.Background(), server.URL+"/media/1")
		if err != nil {
			t.Fatalf("expected fetch to succeed, got %v", err)
		}
		if contentType != "application/pdf" {
			t.Errorf("expected application/pdf, got %s", contentType)
		}
		if string(body) != string(payload) {
			t.Error("expected payload to round trip")
		}
	})

	t.Run("Non-2xx Maps To ErrMediaFetch", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "no such material"})
		}))
		defer server.Close()

		client := NewClient(ClientOpts{BaseURL: server.URL, Store: seededStore(t, "a1", "r1")})

		_, _, err := client.FetchBinary(context.Background(), server.URL+"/media/404")
		if !errors.Is(err, shared.ErrMediaFetch) {
			t.Errorf("expected ErrMediaFetch, got %v", err)
		}
	})
}

func TestTokenQueryURL(t *testing.T) {
	t.Run("Appends Token Parameter", func(t *testing.T) {
		client := NewClient(ClientOpts{Store: seededStore(t, "a1", "r1")})

		got, err := client.TokenQueryURL("https://cdn.example.com/media/7.pdf?sig=abc")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(got, "token=a1") {
			t.Errorf("expected token parameter, got %s", got)
		}
		if !strings.Contains(got, "sig=abc") {
			t.Errorf("expected existing query to be preserved, got %s", got)
		}
	})

	t.Run("Requires Credential", func(t *testing.T) {
		client := NewClient(ClientOpts{Store: credentials.NewMemoryStore()})

		if _, err := client.TokenQueryURL("https://cdn.example.com/media/7.pdf"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}
