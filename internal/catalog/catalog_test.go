package catalog

import (
	"errors"
	"testing"

	"github.com/aadi-novice/guardian/internal/models"
	"github.com/aadi-novice/guardian/internal/shared"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return NewStore(db)
}

func TestCourseCache(t *testing.T) {
	courses := []models.Course{
		{ID: 1, Title: "Go Fundamentals", Description: "basics", PDFCount: 4, Enrolled: true, CreatedAt: "2026-01-10T12:00:00Z"},
		{ID: 2, Title: "Distributed Systems", PDFCount: 9},
	}

	t.Run("Replace And List", func(t *testing.T) {
		store := newTestStore(t)

		if err := store.ReplaceCourses(courses); err != nil {
			t.Fatalf("failed to cache courses: %v", err)
		}

		got, err := store.Courses()
		if err != nil {
			t.Fatalf("failed to list courses: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 courses, got %d", len(got))
		}
		if got[0].Title != "Go Fundamentals" || !got[0].Enrolled {
			t.Errorf("unexpected first course %+v", got[0])
		}
		if got[1].Description != "" {
			t.Errorf("expected empty description, got %q", got[1].Description)
		}
	})

	t.Run("Replace Drops Stale Rows", func(t *testing.T) {
		store := newTestStore(t)

		if err := store.ReplaceCourses(courses); err != nil {
			t.Fatalf("failed to cache courses: %v", err)
		}
		if err := store.ReplaceCourses(courses[:1]); err != nil {
			t.Fatalf("failed to refresh cache: %v", err)
		}

		got, err := store.Courses()
		if err != nil {
			t.Fatalf("failed to list courses: %v", err)
		}
		if len(got) != 1 || got[0].ID != 1 {
			t.Errorf("expected only course 1 after refresh, got %+v", got)
		}
	})

	t.Run("Lookup Miss", func(t *testing.T) {
		store := newTestStore(t)

		_, err := store.Course(99)
		if !errors.Is(err, shared.ErrCourseNotFound) {
			t.Errorf("expected ErrCourseNotFound, got %v", err)
		}
	})
}

func TestLessonCache(t *testing.T) {
	store := newTestStore(t)

	if err := store.ReplaceCourses([]models.Course{{ID: 1, Title: "Go Fundamentals"}}); err != nil {
		t.Fatalf("failed to cache course: %v", err)
	}
	lessons := []models.Lesson{
		{ID: 10, Title: "Interfaces", CreatedAt: "2026-02-01T09:00:00Z"},
		{ID: 11, Title: "Goroutines"},
	}
	if err := store.ReplaceLessons(1, lessons); err != nil {
		t.Fatalf("failed to cache lessons: %v", err)
	}

	got, err := store.Lessons(1)
	if err != nil {
		t.Fatalf("failed to list lessons: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 lessons, got %d", len(got))
	}
	if got[0].Course.Title != "Go Fundamentals" {
		t.Errorf("expected cached course title on lesson, got %+v", got[0].Course)
	}

	other, err := store.Lessons(2)
	if err != nil {
		t.Fatalf("failed to list lessons of another course: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("expected no lessons for course 2, got %d", len(other))
	}
}

func TestMaterialCache(t *testing.T) {
	store := newTestStore(t)

	materials := []models.Material{
		{ID: 100, Lesson: 10, Title: "Interfaces deep dive", Path: "uploads/interfaces.pdf", UploadedAt: "2026-02-02T10:00:00Z"},
		{ID: 101, Lesson: 10, Title: "Walkthrough", Path: "uploads/walkthrough.mp4"},
	}
	if err := store.ReplaceMaterials(10, materials); err != nil {
		t.Fatalf("failed to cache materials: %v", err)
	}

	t.Run("List By Lesson", func(t *testing.T) {
		got, err := store.Materials(10)
		if err != nil {
			t.Fatalf("failed to list materials: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 materials, got %d", len(got))
		}
		if got[0].Path != "uploads/interfaces.pdf" {
			t.Errorf("unexpected first material %+v", got[0])
		}
	})

	t.Run("Lookup By Id", func(t *testing.T) {
		material, err := store.Material(101)
		if err != nil {
			t.Fatalf("failed to look up material: %v", err)
		}
		if material.Lesson != 10 || material.Title != "Walkthrough" {
			t.Errorf("unexpected material %+v", material)
		}

		_, err = store.Material(999)
		if !errors.Is(err, shared.ErrMaterialNotFound) {
			t.Errorf("expected ErrMaterialNotFound, got %v", err)
		}
	})
}
