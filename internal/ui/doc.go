// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for browsing and viewing course
// material:
//  1. [CourseListView] : Browse enrolled and available courses
//  2. [LessonListView] : Browse a course's lessons
//  3. [MaterialListView] : Pick a protected material
//  4. [ViewerView] : View the material behind the deterrence overlay
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View
// pattern. Material loads resolve through the protected media loader; the
// viewer wraps its surface in a guard overlay that is mounted on entry and
// unmounted on every exit path.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
