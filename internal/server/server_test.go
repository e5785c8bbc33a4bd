package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/aadi-novice/guardian/internal/shared"
	"golang.org/x/oauth2"
)

func writeBlob(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "material.pdf")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write blob file: %v", err)
	}
	return path
}

func TestMediaServer(t *testing.T) {
	newRunning := func(t *testing.T) *MediaServer {
		t.Helper()
		srv := NewMediaServer(shared.ServerConfig{Host: "127.0.0.1", Port: 0}, nil)
		if err := srv.Start(); err != nil {
			t.Fatalf("failed to start media server: %v", err)
		}
		t.Cleanup(func() {
			if err := srv.Shutdown(context.Background()); err != nil {
				t.Errorf("shutdown failed: %v", err)
			}
		})
		return srv
	}

	t.Run("Serves Registered Blob", func(t *testing.T) {
		srv := newRunning(t)
		path := writeBlob(t, "%PDF-1.7 lesson three")

		url, err := srv.Registry().Publish("blob-1", path, "application/pdf")
		if err != nil {
			t.Fatalf("publish failed: %v", err)
		}

		resp, err := http.Get(url)
		if err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		if got := resp.Header.Get("Content-Type"); got != "application/pdf" {
			t.Errorf("expected application/pdf, got %q", got)
		}
		body, _ := io.ReadAll(resp.Body)
		if string(body) != "%PDF-1.7 lesson three" {
			t.Errorf("unexpected body %q", body)
		}
	})

	t.Run("Revoked Blob Is Gone", func(t *testing.T) {
		srv := newRunning(t)
		path := writeBlob(t, "secret")

		url, err := srv.Registry().Publish("blob-2", path, "application/pdf")
		if err != nil {
			t.Fatalf("publish failed: %v", err)
		}
		srv.Registry().Revoke("blob-2")
		srv.Registry().Revoke("blob-2")

		resp, err := http.Get(url)
		if err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404 after revoke, got %d", resp.StatusCode)
		}
		if got := srv.Registry().Count(); got != 0 {
			t.Errorf("expected empty registry, got %d", got)
		}
	})

	t.Run("Unknown Id Is Not Found", func(t *testing.T) {
		srv := newRunning(t)

		resp, err := http.Get(srv.BaseURL() + "/media/never-published")
		if err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("Publish Requires Running Server", func(t *testing.T) {
		registry := NewRegistry()

		if _, err := registry.Publish("blob-3", "/tmp/nope", "application/pdf"); err == nil {
			t.Error("expected publish on an unbound registry to fail")
		}
	})
}

func TestOAuthHandler(t *testing.T) {
	config := &oauth2.Config{
		ClientID:    "client",
		RedirectURL: "http://127.0.0.1:3000/callback",
		Endpoint:    oauth2.Endpoint{AuthURL: "http://127.0.0.1:1/auth", TokenURL: "http://127.0.0.1:1/token"},
	}

	t.Run("Rejects Invalid State", func(t *testing.T) {
		handler := NewOAuthHandler(config, "expected-state")

		req := httptest.NewRequest(http.MethodGet, "/callback?state=forged&code=abc", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		result := <-handler.Result()
		if result.Error() == nil {
			t.Error("expected state mismatch error")
		}
	})

	t.Run("Rejects Missing Code", func(t *testing.T) {
		handler := NewOAuthHandler(config, "s")

		req := httptest.NewRequest(http.MethodGet, "/callback?state=s&error=access_denied&error_description=user+cancelled", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		result := <-handler.Result()
		if result.Error() == nil {
			t.Error("expected authorization failure error")
		}
	})

	t.Run("Processes Callback Only Once", func(t *testing.T) {
		handler := NewOAuthHandler(config, "s")

		first := httptest.NewRequest(http.MethodGet, "/callback?state=forged", nil)
		handler.ServeHTTP(httptest.NewRecorder(), first)

		second := httptest.NewRequest(http.MethodGet, "/callback?state=s&code=abc", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, second)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected replayed callback rejected, got %d", rec.Code)
		}
	})
}
