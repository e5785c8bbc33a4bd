package guard

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aadi-novice/guardian/internal/shared"
)

var (
	warningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")).Bold(true)
	watermarkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")).Italic(true)
)

// guardKeyMap separates chords the overlay suppresses from navigation keys
// it must let through to the embedded viewer.
type guardKeyMap struct {
	blocked key.Binding
	allowed key.Binding
}

func newGuardKeyMap() guardKeyMap {
	return guardKeyMap{
		blocked: key.NewBinding(key.WithKeys(
			"ctrl+s", "ctrl+p", "ctrl+a", "ctrl+c",
			"f12", "ctrl+shift+i", "ctrl+shift+c", "ctrl+shift+j",
			"print_screen",
		)),
		allowed: key.NewBinding(key.WithKeys(
			"up", "down", "left", "right",
			"pgup", "pgdown", "home", "end", " ",
		)),
	}
}

// Overlay wraps a viewing surface with the deterrence layer. It implements
// [tea.Model] and forwards everything the protection rules allow to the
// wrapped model.
type Overlay struct {
	inner    tea.Model
	registry *Registry
	keys     guardKeyMap

	identity  string
	nonce     string
	mountedAt time.Time

	handles    []string
	active     bool
	violations int
	warning    string

	width int
}

// NewOverlay wraps a viewing surface. The overlay starts unmounted; callers
// mount it when the surface appears and unmount it on every exit path.
func NewOverlay(inner tea.Model, registry *Registry, identity string) *Overlay {
	return &Overlay{
		inner:    inner,
		registry: registry,
		keys:     newGuardKeyMap(),
		identity: identity,
	}
}

// Mount installs the input interceptors and stamps the watermark. Mounting
// an already-mounted overlay is a no-op.
func (o *Overlay) Mount() {
	if o.active {
		return
	}

	for _, name := range []string{"keydown", "contextmenu", "dragstart", "clipboard"} {
		o.handles = append(o.handles, o.registry.Acquire(name))
	}

	o.nonce = shared.GenerateID()[:8]
	o.mountedAt = time.Now()
	o.active = true
	o.violations = 0
	o.warning = ""
}

// Unmount releases every interceptor installed by Mount. Safe to call on
// every exit path, including repeatedly.
func (o *Overlay) Unmount() {
	for _, id := range o.handles {
		o.registry.Release(id)
	}
	o.handles = nil
	o.active = false
}

// Active reports whether the deterrence layer is installed.
func (o *Overlay) Active() bool { return o.active }

// Violations returns the number of suppressed actions since mount.
func (o *Overlay) Violations() int { return o.violations }

// Init implements [tea.Model].
func (o *Overlay) Init() tea.Cmd {
	return o.inner.Init()
}

// Update suppresses blocked chords, counts the violation, and forwards
// everything else to the wrapped surface.
func (o *Overlay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		o.width = msg.Width

	case tea.KeyMsg:
		if !o.active {
			break
		}
		if key.Matches(msg, o.keys.blocked) {
			o.violations++
			o.warning = fmt.Sprintf("%q is disabled while viewing protected material", msg.String())
			return o, nil
		}
		if key.Matches(msg, o.keys.allowed) {
			var cmd tea.Cmd
			o.inner, cmd = o.inner.Update(msg)
			return o, cmd
		}
	}

	var cmd tea.Cmd
	o.inner, cmd = o.inner.Update(msg)
	return o, cmd
}

// View renders the wrapped surface between two watermark lines placed in
// opposite corners.
func (o *Overlay) View() string {
	content := o.inner.View()
	if !o.active {
		return content
	}

	mark := watermarkStyle.Render(o.watermark())
	width := o.width
	if width < lipgloss.Width(mark) {
		width = lipgloss.Width(mark)
	}

	top := lipgloss.PlaceHorizontal(width, lipgloss.Left, mark)
	bottom := lipgloss.PlaceHorizontal(width, lipgloss.Right, mark)

	out := top + "\n" + content + "\n" + bottom
	if o.warning != "" {
		out += "\n" + warningStyle.Render(o.warning)
	}
	return out
}

// watermark identifies who was viewing and when; the nonce ties a capture to
// one mount.
func (o *Overlay) watermark() string {
	return fmt.Sprintf("%s | %s | %s", o.identity, o.mountedAt.Format(time.RFC3339), o.nonce)
}
