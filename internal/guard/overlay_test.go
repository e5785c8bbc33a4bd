package guard

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

// surface is a minimal viewing surface that records the keys it receives.
type surface struct {
	keys []string
}

func (s *surface) Init() tea.Cmd { return nil }

func (s *surface) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		s.keys = append(s.keys, k.String())
	}
	return s, nil
}

func (s *surface) View() string { return "PAGE 1 OF 12" }

func TestOverlayInterception(t *testing.T) {
	t.Run("Blocked Chords Are Suppressed And Counted", func(t *testing.T) {
		inner := &surface{}
		overlay := NewOverlay(inner, NewRegistry(), "maria")
		overlay.Mount()
		defer overlay.Unmount()

		for _, kt := range []tea.KeyType{tea.KeyCtrlS, tea.KeyCtrlP, tea.KeyCtrlA, tea.KeyF12} {
			overlay.Update(tea.KeyMsg{Type: kt})
		}

		if got := overlay.Violations(); got != 4 {
			t.Errorf("expected 4 violations, got %d", got)
		}
		if len(inner.keys) != 0 {
			t.Errorf("blocked keys leaked to the surface: %v", inner.keys)
		}
		if !strings.Contains(overlay.View(), "disabled while viewing") {
			t.Error("expected a visible warning after a suppressed action")
		}
	})

	t.Run("Navigation Keys Pass Through", func(t *testing.T) {
		inner := &surface{}
		overlay := NewOverlay(inner, NewRegistry(), "maria")
		overlay.Mount()
		defer overlay.Unmount()

		for _, kt := range []tea.KeyType{tea.KeyUp, tea.KeyDown, tea.KeyPgDown, tea.KeyHome, tea.KeySpace} {
			overlay.Update(tea.KeyMsg{Type: kt})
		}

		if got := overlay.Violations(); got != 0 {
			t.Errorf("navigation must not count as violations, got %d", got)
		}
		if len(inner.keys) != 5 {
			t.Errorf("expected 5 forwarded keys, got %v", inner.keys)
		}
	})

	t.Run("Unlisted Keys Are Forwarded", func(t *testing.T) {
		inner := &surface{}
		overlay := NewOverlay(inner, NewRegistry(), "maria")
		overlay.Mount()
		defer overlay.Unmount()

		overlay.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})

		if len(inner.keys) != 1 || inner.keys[0] != "q" {
			t.Errorf("expected q forwarded, got %v", inner.keys)
		}
	})

	t.Run("Unmounted Overlay Does Not Intercept", func(t *testing.T) {
		inner := &surface{}
		overlay := NewOverlay(inner, NewRegistry(), "maria")
		overlay.Mount()
		overlay.Unmount()

		overlay.Update(tea.KeyMsg{Type: tea.KeyCtrlS})

		if got := overlay.Violations(); got != 0 {
			t.Errorf("expected no violations while unmounted, got %d", got)
		}
		if len(inner.keys) != 1 {
			t.Errorf("expected key forwarded while unmounted, got %v", inner.keys)
		}
	})
}

func TestOverlayListenerLifecycle(t *testing.T) {
	t.Run("Active Count Returns To Baseline", func(t *testing.T) {
		registry := NewRegistry()
		baseline := registry.ActiveCount()

		for range 10 {
			overlay := NewOverlay(&surface{}, registry, "maria")
			overlay.Mount()
			if registry.ActiveCount() == baseline {
				t.Fatal("expected interceptors registered while mounted")
			}
			overlay.Unmount()
			overlay.Unmount()
		}

		if got := registry.ActiveCount(); got != baseline {
			t.Errorf("leaked interceptors: baseline %d, got %d", baseline, got)
		}
	})

	t.Run("Double Mount Registers Once", func(t *testing.T) {
		registry := NewRegistry()
		overlay := NewOverlay(&surface{}, registry, "maria")

		overlay.Mount()
		installed := registry.ActiveCount()
		overlay.Mount()

		if got := registry.ActiveCount(); got != installed {
			t.Errorf("expected %d interceptors after double mount, got %d", installed, got)
		}
		overlay.Unmount()
	})
}

func TestOverlayWatermark(t *testing.T) {
	t.Run("Rendered In Two Opposite Corners", func(t *testing.T) {
		overlay := NewOverlay(&surface{}, NewRegistry(), "maria")
		overlay.Mount()
		defer overlay.Unmount()
		overlay.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

		view := overlay.View()
		if got := strings.Count(view, "maria"); got != 2 {
			t.Fatalf("expected watermark in 2 corners, found %d occurrences", got)
		}

		lines := strings.Split(view, "\n")
		if !strings.Contains(lines[0], "maria") {
			t.Error("expected watermark on the first line")
		}
		last := lines[len(lines)-1]
		if !strings.Contains(last, "maria") {
			t.Fatal("expected watermark on the last line")
		}
		if !strings.HasPrefix(last, " ") {
			t.Error("expected the bottom watermark right-aligned")
		}
	})

	t.Run("Absent While Unmounted", func(t *testing.T) {
		overlay := NewOverlay(&surface{}, NewRegistry(), "maria")

		if strings.Contains(overlay.View(), "maria") {
			t.Error("unmounted overlay must render the surface untouched")
		}
	})
}
