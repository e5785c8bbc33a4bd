package ui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aadi-novice/guardian/internal/api"
	"github.com/aadi-novice/guardian/internal/guard"
	"github.com/aadi-novice/guardian/internal/media"
	"github.com/aadi-novice/guardian/internal/models"
)

type stubGateway struct{}

func (stubGateway) MaterialView(ctx context.Context, materialID int) (*api.ViewInfo, error) {
	return &api.ViewInfo{SignedURL: "https://cdn.example.com/material/1", Watermark: "maria"}, nil
}

func (stubGateway) FetchBinary(ctx context.Context, rawURL string) ([]byte, string, error) {
	return []byte("%PDF-1.7"), "application/pdf", nil
}

func (stubGateway) TokenQueryURL(rawURL string) (string, error) {
	return rawURL + "?token=a1", nil
}

func newTestModel(t *testing.T) (*Model, *guard.Registry, *media.Loader) {
	t.Helper()
	registry := guard.NewRegistry()
	loader := media.NewLoader(media.LoaderOpts{Gateway: stubGateway{}, CacheDir: t.TempDir()})
	model := NewModel(context.Background(), nil, loader, registry, models.Identity{ID: 7, Username: "maria"})
	return model, registry, loader
}

func TestViewerLifecycle(t *testing.T) {
	t.Run("Close Unmounts Overlay And Releases Resource", func(t *testing.T) {
		model, registry, loader := newTestModel(t)

		material := models.Material{ID: 1, Path: "uploads/intro.pdf"}
		handle := loader.Load(context.Background(), media.Request{Material: material, Mode: media.ModeEmbed})
		if handle.Phase() != media.PhaseReady {
			t.Fatalf("expected ready handle, got %v", handle.Phase())
		}

		model.handle = handle
		model.openViewer()

		if model.view != ViewerView {
			t.Fatalf("expected viewer view, got %v", model.view)
		}
		if registry.ActiveCount() == 0 {
			t.Fatal("expected mounted interceptors")
		}
		if !strings.Contains(model.View(), "token=a1") {
			t.Error("expected the viewer to show the resource address")
		}

		model.closeViewer()

		if got := registry.ActiveCount(); got != 0 {
			t.Errorf("leaked interceptors after close: %d", got)
		}
		if model.view != MaterialListView {
			t.Errorf("expected material list after close, got %v", model.view)
		}
		if model.handle != nil {
			t.Error("expected handle dropped on close")
		}
	})

	t.Run("Escape Key Closes The Viewer", func(t *testing.T) {
		model, registry, loader := newTestModel(t)

		material := models.Material{ID: 1, Path: "uploads/intro.pdf"}
		model.handle = loader.Load(context.Background(), media.Request{Material: material, Mode: media.ModeEmbed})
		model.openViewer()

		model.Update(tea.KeyMsg{Type: tea.KeyEsc})

		if got := registry.ActiveCount(); got != 0 {
			t.Errorf("leaked interceptors after escape: %d", got)
		}
	})
}

func TestListItems(t *testing.T) {
	course := courseItem{course: models.Course{Title: "Go Fundamentals", PDFCount: 4, Enrolled: true, Description: "start here"}}
	if got := course.Description(); !strings.Contains(got, "enrolled") || !strings.Contains(got, "4 materials") {
		t.Errorf("unexpected course description %q", got)
	}

	lesson := lessonItem{lesson: models.Lesson{Title: "Interfaces", Course: models.Course{Title: "Go Fundamentals"}}}
	if lesson.Description() != "Go Fundamentals" {
		t.Errorf("unexpected lesson description %q", lesson.Description())
	}

	material := materialItem{material: models.Material{Title: "Deep dive"}}
	if material.Description() != "protected material" {
		t.Errorf("unexpected material description %q", material.Description())
	}
}
