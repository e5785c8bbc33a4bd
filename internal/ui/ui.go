package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/aadi-novice/guardian/internal/api"
	"github.com/aadi-novice/guardian/internal/guard"
	"github.com/aadi-novice/guardian/internal/media"
	"github.com/aadi-novice/guardian/internal/models"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	CourseListView ViewState = iota
	LessonListView
	MaterialListView
	ViewerView
)

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	client   *api.Client
	loader   *media.Loader
	registry *guard.Registry
	identity models.Identity

	width  int
	height int

	courseList   list.Model
	lessonList   list.Model
	materialList list.Model

	selectedCourse models.Course
	selectedLesson models.Lesson

	handle  *media.Handle
	overlay *guard.Overlay
	loading bool

	err  error
	help help.Model
	keys keyMap
}

type coursesFetchedMsg struct {
	courses []models.Course
	err     error
}

type lessonsFetchedMsg struct {
	lessons []models.Lesson
	err     error
}

type materialsFetchedMsg struct {
	materials []models.Material
	err       error
}

type materialLoadedMsg struct {
	handle *media.Handle
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, client *api.Client, loader *media.Loader, registry *guard.Registry, identity models.Identity) *Model {
	return &Model{
		ctx:      ctx,
		view:     CourseListView,
		client:   client,
		loader:   loader,
		registry: registry,
		identity: identity,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init initializes the TUI by fetching the course list.
func (m *Model) Init() tea.Cmd {
	return m.fetchCourses()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeLists()
		if m.overlay != nil {
			m.overlay.Update(msg)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case CourseListView:
			return m.handleCourseListKeys(msg)
		case LessonListView:
			return m.handleLessonListKeys(msg)
		case MaterialListView:
			return m.handleMaterialListKeys(msg)
		case ViewerView:
			return m.handleViewerKeys(msg)
		}

	case coursesFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		items := make([]list.Item, len(msg.courses))
		for i, course := range msg.courses {
			items[i] = courseItem{course: course}
		}
		m.courseList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.courseList.Title = "Courses"
		m.resizeLists()
		return m, nil

	case lessonsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = CourseListView
			return m, nil
		}
		items := make([]list.Item, len(msg.lessons))
		for i, lesson := range msg.lessons {
			items[i] = lessonItem{lesson: lesson}
		}
		m.lessonList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.lessonList.Title = fmt.Sprintf("Lessons in '%s'", m.selectedCourse.Title)
		m.resizeLists()
		m.view = LessonListView
		return m, nil

	case materialsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = LessonListView
			return m, nil
		}
		items := make([]list.Item, len(msg.materials))
		for i, material := range msg.materials {
			items[i] = materialItem{material: material}
		}
		m.materialList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.materialList.Title = fmt.Sprintf("Materials in '%s'", m.selectedLesson.Title)
		m.resizeLists()
		m.view = MaterialListView
		return m, nil

	case materialLoadedMsg:
		m.loading = false
		if msg.handle.Phase() != media.PhaseReady {
			m.err = fmt.Errorf("failed to open material: %s", msg.handle.Reason())
			return m, nil
		}
		m.err = nil
		m.handle = msg.handle
		m.openViewer()
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ViewerView {
		header := styles.err.Render(fmt.Sprintf("Error: %v", m.err))
		return fmt.Sprintf("%s\n\n%s", header, m.renderCurrentList())
	}

	if m.loading {
		return styles.help.Render("Opening material...")
	}

	switch m.view {
	case CourseListView, LessonListView, MaterialListView:
		return m.renderCurrentList()
	case ViewerView:
		return m.renderViewer()
	default:
		return ""
	}
}

// closeViewer tears the deterrence layer down and releases the material
// resource. Runs on every path out of the viewer.
func (m *Model) closeViewer() {
	if m.overlay != nil {
		m.overlay.Unmount()
		m.overlay = nil
	}
	m.loader.Release()
	m.handle = nil
	m.view = MaterialListView
}

func (m *Model) openViewer() {
	surface := newViewerSurface(m.handle)
	m.overlay = guard.NewOverlay(surface, m.registry, m.identity.FullName())
	m.overlay.Mount()
	m.view = ViewerView
}

func (m *Model) handleCourseListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.courseList.SelectedItem().(courseItem); ok {
			m.selectedCourse = item.course
			return m, m.fetchLessons(item.course.ID)
		}
	}

	var cmd tea.Cmd
	m.courseList, cmd = m.courseList.Update(msg)
	return m, cmd
}

func (m *Model) handleLessonListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = CourseListView
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.lessonList.SelectedItem().(lessonItem); ok {
			m.selectedLesson = item.lesson
			return m, m.fetchMaterials(item.lesson.ID)
		}
	}

	var cmd tea.Cmd
	m.lessonList, cmd = m.lessonList.Update(msg)
	return m, cmd
}

func (m *Model) handleMaterialListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = LessonListView
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.materialList.SelectedItem().(materialItem); ok {
			m.loading = true
			return m, m.loadMaterial(item.material)
		}
	}

	var cmd tea.Cmd
	m.materialList, cmd = m.materialList.Update(msg)
	return m, cmd
}

func (m *Model) handleViewerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.quit):
		m.closeViewer()
		return m, nil
	}

	// Everything else goes through the deterrence layer.
	_, cmd := m.overlay.Update(msg)
	return m, cmd
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case CourseListView:
		m.courseList, cmd = m.courseList.Update(msg)
	case LessonListView:
		m.lessonList, cmd = m.lessonList.Update(msg)
	case MaterialListView:
		m.materialList, cmd = m.materialList.Update(msg)
	}
	return m, cmd
}

func (m *Model) resizeLists() {
	if m.width == 0 {
		return
	}
	for _, l := range []*list.Model{&m.courseList, &m.lessonList, &m.materialList} {
		l.SetSize(m.width-4, m.height-8)
	}
}

func (m *Model) fetchCourses() tea.Cmd {
	return func() tea.Msg {
		courses, err := m.client.Courses(m.ctx, "")
		return coursesFetchedMsg{courses: courses, err: err}
	}
}

func (m *Model) fetchLessons(courseID int) tea.Cmd {
	return func() tea.Msg {
		lessons, err := m.client.Lessons(m.ctx, courseID)
		return lessonsFetchedMsg{lessons: lessons, err: err}
	}
}

func (m *Model) fetchMaterials(lessonID int) tea.Cmd {
	return func() tea.Msg {
		materials, err := m.client.Materials(m.ctx, lessonID)
		return materialsFetchedMsg{materials: materials, err: err}
	}
}

func (m *Model) loadMaterial(material models.Material) tea.Cmd {
	return func() tea.Msg {
		handle := m.loader.Load(m.ctx, media.Request{Material: material})
		return materialLoadedMsg{handle: handle}
	}
}

func (m *Model) renderCurrentList() string {
	var listView string
	switch m.view {
	case CourseListView:
		listView = m.courseList.View()
	case LessonListView:
		listView = m.lessonList.View()
	case MaterialListView:
		listView = m.materialList.View()
	}

	helpKeys := []key.Binding{m.keys.enter, m.keys.back, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s", listView, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderViewer() string {
	backKey := key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close"))
	helpView := m.help.ShortHelpView([]key.Binding{backKey})
	return fmt.Sprintf("%s\n\n%s", m.overlay.View(), helpView)
}

// viewerSurface renders the loaded material's local address; the material
// itself opens in the system viewer pointed at the loopback URL.
type viewerSurface struct {
	handle *media.Handle
}

func newViewerSurface(handle *media.Handle) *viewerSurface {
	return &viewerSurface{handle: handle}
}

func (s *viewerSurface) Init() tea.Cmd { return nil }

func (s *viewerSurface) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return s, nil
}

func (s *viewerSurface) View() string {
	res := s.handle.Resource()
	if res == nil {
		return styles.warn.Render("Material is no longer available")
	}

	title := styles.title.Render(fmt.Sprintf("Viewing %s", res.Kind()))
	body := fmt.Sprintf("Served at: %s\n\nOpen the address above in your viewer.\nThe link is revoked when this screen closes.", res.URL())
	return fmt.Sprintf("%s\n%s", title, body)
}
