package media

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aadi-novice/guardian/internal/api"
	"github.com/aadi-novice/guardian/internal/models"
	"github.com/aadi-novice/guardian/internal/shared"
	"github.com/charmbracelet/log"
)

const defaultLoadTimeout = 10 * time.Second

// Mode selects how a material is delivered to the viewing surface.
type Mode int

const (
	// ModeFetch downloads the bytes over the authenticated channel and
	// serves them from a local loopback resource.
	ModeFetch Mode = iota
	// ModeEmbed hands the rendering surface a direct URL with the access
	// credential attached as a token query parameter.
	ModeEmbed
)

// ParseMode maps a config string onto a delivery [Mode].
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "fetch":
		return ModeFetch, nil
	case "embed":
		return ModeEmbed, nil
	default:
		return 0, fmt.Errorf("%w: unknown media mode %q", shared.ErrInvalidConfig, s)
	}
}

// Request identifies one material selection.
type Request struct {
	Material models.Material
	Mode     Mode
}

// Phase is the lifecycle state of a [Handle].
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseReady
	PhaseFailed
)

// Handle is the local representation of a protected material being viewed.
// It starts Loading and always resolves to Ready or Failed within the
// loader's bounded wait.
type Handle struct {
	mu        sync.Mutex
	sourceRef string
	watermark string
	phase     Phase
	reason    string
	resource  *Resource
}

// SourceRef returns the opaque reference the material was loaded from.
func (h *Handle) SourceRef() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sourceRef
}

// Watermark returns the deterrence text the server expects rendered over
// this material, when it provided one.
func (h *Handle) Watermark() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.watermark
}

// Phase returns the current lifecycle state.
func (h *Handle) Phase() Phase {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.phase
}

// Reason returns the human-readable failure reason, empty unless Failed.
func (h *Handle) Reason() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.reason
}

// Resource returns the local resource, present only when Ready.
func (h *Handle) Resource() *Resource {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.resource
}

func (h *Handle) ready(res *Resource) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.phase = PhaseReady
	h.resource = res
}

func (h *Handle) fail(reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.phase = PhaseFailed
	h.reason = reason
}

// Gateway is the slice of the API client the loader depends on.
type Gateway interface {
	MaterialView(ctx context.Context, materialID int) (*api.ViewInfo, error)
	FetchBinary(ctx context.Context, rawURL string) ([]byte, string, error)
	TokenQueryURL(rawURL string) (string, error)
}

// Loader retrieves protected materials and manages the lifecycle of their
// local resources. The newest selection always wins: results of superseded
// loads are released, never surfaced.
type Loader struct {
	gateway   Gateway
	publisher Publisher
	timeout   time.Duration
	cacheDir  string
	logger    *log.Logger

	generation atomic.Int64

	mu      sync.Mutex
	current *Resource
}

// LoaderOpts contains configuration options for creating a [Loader].
type LoaderOpts struct {
	Gateway   Gateway
	Publisher Publisher
	Timeout   time.Duration
	CacheDir  string
	Logger    *log.Logger
}

// NewLoader creates a material loader. Publisher may be nil when only embed
// mode is used.
func NewLoader(opts LoaderOpts) *Loader {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultLoadTimeout
	}
	if opts.CacheDir == "" {
		opts.CacheDir = os.TempDir()
	}
	return &Loader{
		gateway:   opts.Gateway,
		publisher: opts.Publisher,
		timeout:   opts.Timeout,
		cacheDir:  opts.CacheDir,
		logger:    opts.Logger,
	}
}

// Load retrieves one material. The returned handle is fully resolved: Ready
// with a live resource, or Failed with a reason. A load superseded by a newer
// selection resolves Failed and its resource is released before return.
func (l *Loader) Load(ctx context.Context, req Request) *Handle {
	gen := l.generation.Add(1)
	handle := &Handle{phase: PhaseLoading}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	info, err := l.gateway.MaterialView(ctx, req.Material.ID)
	if err != nil {
		handle.fail(fmt.Sprintf("failed to resolve material: %v", err))
		return handle
	}

	handle.mu.Lock()
	handle.sourceRef = info.SignedURL
	handle.watermark = info.Watermark
	handle.mu.Unlock()

	var res *Resource
	switch req.Mode {
	case ModeEmbed:
		res, err = l.embedResource(info, req.Material)
	default:
		res, err = l.fetchResource(ctx, info)
	}
	if err != nil {
		handle.fail(err.Error())
		return handle
	}

	l.commit(gen, handle, res)
	return handle
}

// fetchResource downloads the material bytes and publishes them at a
// loopback URL backed by a temp file.
func (l *Loader) fetchResource(ctx context.Context, info *api.ViewInfo) (*Resource, error) {
	data, contentType, err := l.gateway.FetchBinary(ctx, info.SignedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve material: %w", err)
	}

	kind, err := detectKind(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: content type %q", err, contentType)
	}

	file, err := os.CreateTemp(l.cacheDir, "guardian-media-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create media temp file: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(file.Name())
		return nil, fmt.Errorf("failed to write media temp file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(file.Name())
		return nil, fmt.Errorf("failed to close media temp file: %w", err)
	}

	id := shared.GenerateID()
	localURL, err := l.publisher.Publish(id, file.Name(), contentType)
	if err != nil {
		os.Remove(file.Name())
		return nil, fmt.Errorf("failed to publish material: %w", err)
	}

	return &Resource{
		id:     id,
		url:    localURL,
		kind:   kind,
		path:   file.Name(),
		revoke: l.publisher.Revoke,
		logger: l.logger,
	}, nil
}

// embedResource attaches the access credential as a token query parameter
// and lets the surface fetch the material directly.
func (l *Loader) embedResource(info *api.ViewInfo, material models.Material) (*Resource, error) {
	kind, err := detectKindFromPath(material.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, material.Path)
	}

	tokenURL, err := l.gateway.TokenQueryURL(info.SignedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to build embed URL: %w", err)
	}

	return &Resource{url: tokenURL, kind: kind, logger: l.logger}, nil
}

// commit installs a finished load if it is still the newest selection. A
// stale result is released immediately; the previously current resource is
// released when replaced.
func (l *Loader) commit(gen int64, handle *Handle, res *Resource) {
	l.mu.Lock()
	if gen != l.generation.Load() {
		l.mu.Unlock()
		res.Release()
		handle.fail("superseded by a newer selection")
		return
	}

	prev := l.current
	l.current = res
	l.mu.Unlock()

	if prev != nil {
		prev.Release()
	}
	handle.ready(res)
}

// Release frees the currently held resource, if any. Called when the viewing
// surface unmounts.
func (l *Loader) Release() {
	l.mu.Lock()
	res := l.current
	l.current = nil
	l.mu.Unlock()

	if res != nil {
		res.Release()
	}
}
