package formatter

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aadi-novice/guardian/internal/models"
)

var sampleCourses = []models.Course{
	{ID: 1, Title: "Go Fundamentals", Description: "start here", PDFCount: 4, Enrolled: true},
	{ID: 2, Title: "Distributed Systems", PDFCount: 9},
}

func TestCoursesToCSV(t *testing.T) {
	data, err := CoursesToCSV(sampleCourses)
	if err != nil {
		t.Fatalf("failed to render CSV: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(records))
	}
	if records[1][1] != "Go Fundamentals" || records[1][4] != "true" {
		t.Errorf("unexpected first row %v", records[1])
	}
}

func TestCoursesToText(t *testing.T) {
	out := string(CoursesToText(sampleCourses))

	if !strings.Contains(out, "Courses: 2") {
		t.Errorf("expected course count, got %q", out)
	}
	if !strings.Contains(out, "[*] Go Fundamentals") {
		t.Errorf("expected enrollment marker, got %q", out)
	}
	if !strings.Contains(out, "start here") {
		t.Errorf("expected description line, got %q", out)
	}
}

func TestLessonsToText(t *testing.T) {
	lessons := []models.Lesson{
		{ID: 10, Title: "Interfaces", Course: models.Course{ID: 1, Title: "Go Fundamentals"}},
		{ID: 11, Title: "Goroutines", Course: models.Course{ID: 1, Title: "Go Fundamentals"}},
	}

	out := string(LessonsToText(lessons))
	if !strings.Contains(out, "Course: Go Fundamentals") {
		t.Errorf("expected course header, got %q", out)
	}
	if !strings.Contains(out, "2. Goroutines (#11)") {
		t.Errorf("expected numbered lesson line, got %q", out)
	}
}

func TestStatsToMarkdown(t *testing.T) {
	stats := &models.DashboardStats{
		TotalCourses:       3,
		TotalMaterials:     20,
		CompletedMaterials: 5,
		OverallProgress:    25.0,
		Courses:            sampleCourses[:1],
	}

	out := string(StatsToMarkdown(stats))
	if !strings.Contains(out, "# Dashboard") {
		t.Errorf("expected markdown heading, got %q", out)
	}
	if !strings.Contains(out, "**Overall progress**: 25.0%") {
		t.Errorf("expected progress line, got %q", out)
	}
	if !strings.Contains(out, "## Enrolled Courses") {
		t.Errorf("expected enrolled section, got %q", out)
	}
}

func TestWritePrefetchManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	manifest := map[string]any{"course_id": 1, "downloaded": 4}

	if err := WritePrefetchManifest(manifest, path); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read manifest: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("manifest is not valid JSON: %v", err)
	}
	if decoded["downloaded"].(float64) != 4 {
		t.Errorf("unexpected manifest contents %v", decoded)
	}
}
