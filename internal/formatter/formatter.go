// package formatter renders catalog listings and run summaries for CLI
// output (CSV, Markdown, plain text, JSON).
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/aadi-novice/guardian/internal/models"
)

// MarshalJSON renders v as JSON, optionally indented.
func MarshalJSON(v any, indent bool) ([]byte, error) {
	if indent {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// CoursesToCSV converts a course list to CSV with columns: ID, Title, Description, Materials, Enrolled
func CoursesToCSV(courses []models.Course) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Description", "Materials", "Enrolled"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, course := range courses {
		record := []string{
			strconv.Itoa(course.ID),
			course.Title,
			course.Description,
			strconv.Itoa(course.PDFCount),
			strconv.FormatBool(course.Enrolled),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// CoursesToText converts a course list to plain text
func CoursesToText(courses []models.Course) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Courses: %d\n\n", len(courses)))
	for i, course := range courses {
		marker := " "
		if course.Enrolled {
			marker = "*"
		}
		buf.WriteString(fmt.Sprintf("%d. [%s] %s (#%d, %d materials)\n", i+1, marker, course.Title, course.ID, course.PDFCount))
		if course.Description != "" {
			buf.WriteString(fmt.Sprintf("   %s\n", course.Description))
		}
	}

	return buf.Bytes()
}

// LessonsToText converts a lesson list to plain text
func LessonsToText(lessons []models.Lesson) []byte {
	var buf bytes.Buffer

	if len(lessons) > 0 && lessons[0].Course.Title != "" {
		buf.WriteString(fmt.Sprintf("Course: %s\n", lessons[0].Course.Title))
	}
	buf.WriteString(fmt.Sprintf("Lessons: %d\n\n", len(lessons)))
	for i, lesson := range lessons {
		buf.WriteString(fmt.Sprintf("%d. %s (#%d)\n", i+1, lesson.Title, lesson.ID))
	}

	return buf.Bytes()
}

// MaterialsToText converts a material list to plain text
func MaterialsToText(materials []models.Material) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Materials: %d\n\n", len(materials)))
	for i, material := range materials {
		buf.WriteString(fmt.Sprintf("%d. %s (#%d)\n", i+1, material.Title, material.ID))
	}

	return buf.Bytes()
}

// StatsToMarkdown renders dashboard statistics as Markdown
func StatsToMarkdown(stats *models.DashboardStats) []byte {
	var buf bytes.Buffer

	buf.WriteString("# Dashboard\n\n")
	buf.WriteString(fmt.Sprintf("**Courses**: %d\n", stats.TotalCourses))
	buf.WriteString(fmt.Sprintf("**Materials**: %d\n", stats.TotalMaterials))
	buf.WriteString(fmt.Sprintf("**Completed**: %d\n", stats.CompletedMaterials))
	buf.WriteString(fmt.Sprintf("**Overall progress**: %.1f%%\n", stats.OverallProgress))

	if len(stats.Courses) > 0 {
		buf.WriteString("\n## Enrolled Courses\n\n")
		for i, course := range stats.Courses {
			buf.WriteString(fmt.Sprintf("%d. %s (%d materials)\n", i+1, course.Title, course.PDFCount))
		}
	}

	return buf.Bytes()
}

// WritePrefetchManifest writes a prefetch run summary as indented JSON.
func WritePrefetchManifest(manifest any, path string) error {
	data, err := MarshalJSON(manifest, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	return nil
}
