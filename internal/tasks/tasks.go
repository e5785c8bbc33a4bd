// package tasks implements bulk operations against the CourseGuardian API.
package tasks

import (
	"context"

	"github.com/aadi-novice/guardian/internal/api"
	"github.com/aadi-novice/guardian/internal/models"
	"github.com/charmbracelet/log"
)

// CourseAPI defines the slice of the API client the prefetch engine uses.
// This abstraction allows for easier testing and decoupling from concrete implementation.
type CourseAPI interface {
	Lessons(ctx context.Context, courseID int) ([]models.Lesson, error)
	Materials(ctx context.Context, lessonID int) ([]models.Material, error)
	MaterialView(ctx context.Context, materialID int) (*api.ViewInfo, error)
	FetchBinary(ctx context.Context, rawURL string) ([]byte, string, error)
}

// CatalogCacher refreshes the local catalog cache from listings fetched
// during a run. Implementations must tolerate repeated replacement.
type CatalogCacher interface {
	ReplaceLessons(courseID int, lessons []models.Lesson) error
	ReplaceMaterials(lessonID int, materials []models.Material) error
}

// PrefetchEngine downloads course materials in bulk.
type PrefetchEngine struct {
	api    CourseAPI
	cache  CatalogCacher
	logger *log.Logger
}

// NewPrefetchEngine creates a prefetch engine. The cache is optional; pass
// nil to skip catalog refreshes.
func NewPrefetchEngine(courseAPI CourseAPI, cache CatalogCacher, logger *log.Logger) *PrefetchEngine {
	return &PrefetchEngine{
		api:    courseAPI,
		cache:  cache,
		logger: logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *PrefetchEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}
