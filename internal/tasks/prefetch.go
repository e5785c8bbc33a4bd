package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aadi-novice/guardian/internal/formatter"
	"github.com/aadi-novice/guardian/internal/models"
	"github.com/aadi-novice/guardian/internal/shared"
	"golang.org/x/time/rate"
)

// PrefetchOpts contains configuration for bulk material downloads.
type PrefetchOpts struct {
	OutputDir  string  // Base output directory (default: guardian_prefetch_{epoch})
	NumWorkers int     // Concurrent workers (default: 4, capped at 8)
	RateLimit  float64 // Requests per second (default: 4)
}

// MaterialFetchResult records the outcome for one material.
type MaterialFetchResult struct {
	MaterialID int    `json:"material_id"`
	LessonID   int    `json:"lesson_id"`
	Title      string `json:"title"`
	File       string `json:"file,omitempty"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

// PrefetchResult summarizes a bulk download run.
type PrefetchResult struct {
	CourseID        int                   `json:"course_id"`
	TotalMaterials  int                   `json:"total_materials"`
	Downloaded      int                   `json:"downloaded"`
	Failed          int                   `json:"failed"`
	OutputDirectory string                `json:"output_directory"`
	ManifestPath    string                `json:"manifest_path,omitempty"`
	Results         []MaterialFetchResult `json:"results"`
}

type materialJob struct {
	material models.Material
}

// Prefetch downloads every material of a course concurrently with rate
// limiting and progress tracking.
//
// This method implements a worker pool pattern. It respects API rate limits,
// handles partial failures gracefully, and generates a manifest file
// summarizing the run. Every download travels through the authenticated
// channel, so an expired access token is recovered transparently.
func (e *PrefetchEngine) Prefetch(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	courseID int,
	opts PrefetchOpts,
) (*PrefetchResult, error) {
	if e.api == nil {
		return nil, fmt.Errorf("%w: API client not initialized", shared.ErrNetworkUnavailable)
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("guardian_prefetch_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 8 {
		opts.NumWorkers = 8
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 4.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	e.sendProgress(prog, fetchLessonsUpdate(courseID))
	lessons, err := e.api.Lessons(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}
	e.refreshLessonCache(courseID, lessons)

	var jobs []materialJob
	for i, lesson := range lessons {
		e.sendProgress(prog, fetchMaterialsUpdate(i+1, len(lessons), lesson.Title))

		materials, err := e.api.Materials(ctx, lesson.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list materials of lesson %d: %w", lesson.ID, err)
		}
		e.refreshMaterialCache(lesson.ID, materials)

		for _, material := range materials {
			jobs = append(jobs, materialJob{material: material})
		}
	}

	result := &PrefetchResult{
		CourseID:        courseID,
		TotalMaterials:  len(jobs),
		OutputDirectory: opts.OutputDir,
		Results:         make([]MaterialFetchResult, 0, len(jobs)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobCh := make(chan materialJob, len(jobs))
	resultCh := make(chan MaterialFetchResult, len(jobs))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.downloadWorker(ctx, &wg, limiter, jobCh, resultCh, opts)
	}

	for _, job := range jobs {
		jobCh <- job
	}
	close(jobCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	completed := 0
	for res := range resultCh {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.Downloaded++
			e.sendProgress(prog, downloadCompletedUpdate(completed, len(jobs), res.Title))
		} else {
			result.Failed++
			e.sendProgress(prog, downloadFailedUpdate(completed, len(jobs), res.Title, fmt.Errorf("%s", res.Error)))
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, "prefetch_manifest.json")
	e.sendProgress(prog, writeManifestUpdate(manifestPath))
	if err := formatter.WritePrefetchManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("prefetch completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// downloadWorker is a worker goroutine that downloads materials from the jobs channel.
func (e *PrefetchEngine) downloadWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan materialJob,
	results chan<- MaterialFetchResult,
	opts PrefetchOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := limiter.Wait(ctx); err != nil {
			return
		}

		results <- e.downloadMaterial(ctx, job.material, opts)
	}
}

// downloadMaterial resolves one material's signed URL and writes its bytes
// under the output directory.
func (e *PrefetchEngine) downloadMaterial(ctx context.Context, material models.Material, opts PrefetchOpts) MaterialFetchResult {
	result := MaterialFetchResult{
		MaterialID: material.ID,
		LessonID:   material.Lesson,
		Title:      material.Title,
	}

	info, err := e.api.MaterialView(ctx, material.ID)
	if err != nil {
		result.Error = fmt.Sprintf("failed to resolve material: %v", err)
		return result
	}

	data, contentType, err := e.api.FetchBinary(ctx, info.SignedURL)
	if err != nil {
		result.Error = fmt.Sprintf("download failed: %v", err)
		return result
	}

	ext, err := extensionFor(contentType)
	if err != nil {
		result.Error = fmt.Sprintf("%v: content type %q", err, contentType)
		return result
	}

	name := fmt.Sprintf("%d_%d_%s%s", material.Lesson, material.ID, sanitizeName(material.Title), ext)
	path := filepath.Join(opts.OutputDir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		result.Error = fmt.Sprintf("failed to write file: %v", err)
		return result
	}

	result.File = path
	result.Success = true
	return result
}

func (e *PrefetchEngine) refreshLessonCache(courseID int, lessons []models.Lesson) {
	if e.cache == nil {
		return
	}
	if err := e.cache.ReplaceLessons(courseID, lessons); err != nil && e.logger != nil {
		e.logger.Warnf("failed to refresh lesson cache: %v", err)
	}
}

func (e *PrefetchEngine) refreshMaterialCache(lessonID int, materials []models.Material) {
	if e.cache == nil {
		return
	}
	if err := e.cache.ReplaceMaterials(lessonID, materials); err != nil && e.logger != nil {
		e.logger.Warnf("failed to refresh material cache: %v", err)
	}
}

// extensionFor maps a response content type onto a file extension.
func extensionFor(contentType string) (string, error) {
	mediaType := contentType
	if idx := strings.Index(mediaType, ";"); idx >= 0 {
		mediaType = mediaType[:idx]
	}
	mediaType = strings.TrimSpace(strings.ToLower(mediaType))

	switch mediaType {
	case "application/pdf":
		return ".pdf", nil
	case "video/mp4":
		return ".mp4", nil
	case "video/webm":
		return ".webm", nil
	case "video/quicktime":
		return ".mov", nil
	default:
		return "", shared.ErrUnsupportedFormat
	}
}

// sanitizeName reduces a material title to a filesystem-safe slug.
func sanitizeName(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune('-')
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "material"
	}
	return slug
}
