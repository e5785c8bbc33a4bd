package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/aadi-novice/guardian/internal/shared"
	"github.com/charmbracelet/log"
)

// Registry maps revocable blob ids onto local files. It is the loopback
// analog of an object-URL table: publishing yields a URL the viewing surface
// can render, revoking makes the URL 404 immediately.
type Registry struct {
	mu      sync.Mutex
	entries map[string]blobEntry
	baseURL string
}

type blobEntry struct {
	path        string
	contentType string
}

// NewRegistry creates an empty blob registry. Publishing fails until a
// [MediaServer] starts and binds the registry to its listen address.
func NewRegistry() *Registry {
	return &Registry{entries: map[string]blobEntry{}}
}

func (reg *Registry) bind(baseURL string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.baseURL = baseURL
}

// Publish registers a local file under id and returns its loopback URL.
func (reg *Registry) Publish(id, path, contentType string) (string, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if reg.baseURL == "" {
		return "", fmt.Errorf("media server is not running")
	}
	reg.entries[id] = blobEntry{path: path, contentType: contentType}

	return reg.baseURL + "/media/" + id, nil
}

// Revoke removes a blob registration. Revoking an unknown id is a no-op.
func (reg *Registry) Revoke(id string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.entries, id)
}

// Count returns the number of live registrations.
func (reg *Registry) Count() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.entries)
}

func (reg *Registry) lookup(id string) (blobEntry, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	entry, ok := reg.entries[id]
	return entry, ok
}

// BlobHandler serves registered blobs at /media/{id}. Implements the
// [Handler] interface for registration with a [Router].
type BlobHandler struct {
	registry *Registry
}

// NewBlobHandler creates a handler backed by the given registry.
func NewBlobHandler(registry *Registry) *BlobHandler {
	return &BlobHandler{registry: registry}
}

// Routes returns the HTTP routes this handler serves.
func (h *BlobHandler) Routes() []string {
	return []string{"/media/"}
}

// ServeHTTP serves the blob body with its recorded content type. Revoked or
// unknown ids 404 even when the backing file still exists.
func (h *BlobHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/media/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	entry, ok := h.registry.lookup(id)
	if !ok {
		http.NotFound(w, r)
		return
	}

	if entry.contentType != "" {
		w.Header().Set("Content-Type", entry.contentType)
	}
	http.ServeFile(w, r, entry.path)
}

// MediaServer is the loopback HTTP server backing fetch-mode material
// viewing. It binds to the configured host and port (port 0 picks a free
// one) and serves whatever the registry currently holds.
type MediaServer struct {
	registry *Registry
	router   *BasicRouter
	httpSrv  *http.Server
	listener net.Listener
	logger   *log.Logger
	host     string
	port     int
}

// NewMediaServer creates a media server from the loopback server config.
func NewMediaServer(cfg shared.ServerConfig, logger *log.Logger) *MediaServer {
	registry := NewRegistry()
	router := NewBasicRouter()
	router.Use(Logging(logger))
	router.Handler(NewBlobHandler(registry))

	host := cfg.Host
	if host == "" {
		host = "127.0.0.1"
	}

	return &MediaServer{
		registry: registry,
		router:   router,
		logger:   logger,
		host:     host,
		port:     cfg.Port,
	}
}

// Registry returns the blob registry the loader publishes into.
func (s *MediaServer) Registry() *Registry {
	return s.registry
}

// BaseURL returns the bound address, empty before Start.
func (s *MediaServer) BaseURL() string {
	s.registry.mu.Lock()
	defer s.registry.mu.Unlock()
	return s.registry.baseURL
}

// Start binds the listener and begins serving in a background goroutine.
func (s *MediaServer) Start() error {
	listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", s.host, s.port))
	if err != nil {
		return fmt.Errorf("failed to bind media server: %w", err)
	}

	s.listener = listener
	s.registry.bind("http://" + listener.Addr().String())
	s.httpSrv = &http.Server{Handler: s.router}

	go func() {
		if err := s.httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Errorf("media server stopped: %v", err)
			}
		}
	}()

	if s.logger != nil {
		s.logger.Debugf("media server listening on %s", listener.Addr())
	}
	return nil
}

// Shutdown stops the server and drops every registration.
func (s *MediaServer) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}

	s.registry.mu.Lock()
	s.registry.entries = map[string]blobEntry{}
	s.registry.baseURL = ""
	s.registry.mu.Unlock()

	return s.httpSrv.Shutdown(ctx)
}
