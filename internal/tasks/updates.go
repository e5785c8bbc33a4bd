package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchLessons Phase = iota
	FetchMaterials
	Download
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case FetchLessons:
		return "fetch_lessons"
	case FetchMaterials:
		return "fetch_materials"
	case Download:
		return "download"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

func fetchLessonsUpdate(courseID int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchLessons,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching lessons for course %d...", courseID),
	}
}

func fetchMaterialsUpdate(step, total int, lessonTitle string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchMaterials,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Listing materials: %s...", step, total, lessonTitle),
	}
}

func downloadCompletedUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Download,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, title),
	}
}

func downloadFailedUpdate(step, total int, title string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Download,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, title, err),
	}
}

func writeManifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Writing manifest to %s...", path),
	}
}
