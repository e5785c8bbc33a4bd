package media

import (
	"os"
	"strings"
	"sync"

	"github.com/aadi-novice/guardian/internal/shared"
	"github.com/charmbracelet/log"
)

// Kind classifies the format of a protected material.
type Kind int

const (
	KindPDF Kind = iota
	KindVideo
)

func (k Kind) String() string {
	switch k {
	case KindPDF:
		return "pdf"
	case KindVideo:
		return "video"
	default:
		return "unknown"
	}
}

// detectKind classifies a material by its Content-Type header.
func detectKind(contentType string) (Kind, error) {
	mediaType := contentType
	if idx := strings.Index(mediaType, ";"); idx >= 0 {
		mediaType = mediaType[:idx]
	}
	mediaType = strings.TrimSpace(strings.ToLower(mediaType))

	switch {
	case mediaType == "application/pdf":
		return KindPDF, nil
	case strings.HasPrefix(mediaType, "video/"):
		return KindVideo, nil
	default:
		return 0, shared.ErrUnsupportedFormat
	}
}

// detectKindFromPath classifies a material by file extension. Embed mode has
// no response to sniff, so the stored path is the only signal.
func detectKindFromPath(path string) (Kind, error) {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".pdf"):
		return KindPDF, nil
	case strings.HasSuffix(lower, ".mp4"), strings.HasSuffix(lower, ".webm"), strings.HasSuffix(lower, ".mov"):
		return KindVideo, nil
	default:
		return 0, shared.ErrUnsupportedFormat
	}
}

// Publisher exposes local files at loopback URLs and revokes them when the
// owning resource is released.
type Publisher interface {
	Publish(id, path, contentType string) (string, error)
	Revoke(id string)
}

// Resource is a locally owned, revocable handle to retrieved material
// content. Releasing twice is a no-op.
type Resource struct {
	id   string
	url  string
	kind Kind
	path string

	revoke func(string)
	once   sync.Once
	logger *log.Logger
}

// URL returns the address a viewing surface should render.
func (r *Resource) URL() string { return r.url }

// Kind returns the material format.
func (r *Resource) Kind() Kind { return r.kind }

// Release revokes the loopback registration and removes the backing temp
// file. Exactly-once: repeated calls do nothing.
func (r *Resource) Release() {
	r.once.Do(func() {
		if r.revoke != nil {
			r.revoke(r.id)
		}
		if r.path != "" {
			if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) && r.logger != nil {
				r.logger.Warnf("failed to remove media temp file %s: %v", r.path, err)
			}
		}
	})
}
