package ui

import (
	"fmt"

	"github.com/aadi-novice/guardian/internal/models"
	"github.com/charmbracelet/bubbles/list"
)

var (
	_ list.Item = courseItem{}
	_ list.Item = lessonItem{}
	_ list.Item = materialItem{}
)

// courseItem wraps [models.Course] to implement [list.Item].
type courseItem struct {
	course models.Course
}

func (i courseItem) FilterValue() string { return i.course.Title }
func (i courseItem) Title() string       { return i.course.Title }
func (i courseItem) Description() string {
	desc := fmt.Sprintf("%d materials", i.course.PDFCount)
	if i.course.Enrolled {
		desc = fmt.Sprintf("%s • enrolled", desc)
	}
	if i.course.Description != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.course.Description)
	}
	return desc
}

// lessonItem wraps [models.Lesson] to implement [list.Item].
type lessonItem struct {
	lesson models.Lesson
}

func (i lessonItem) FilterValue() string { return i.lesson.Title }
func (i lessonItem) Title() string       { return i.lesson.Title }
func (i lessonItem) Description() string {
	return i.lesson.Course.Title
}

// materialItem wraps [models.Material] to implement [list.Item].
type materialItem struct {
	material models.Material
}

func (i materialItem) FilterValue() string { return i.material.Title }
func (i materialItem) Title() string       { return i.material.Title }
func (i materialItem) Description() string {
	if i.material.UploadedAt != "" {
		return fmt.Sprintf("uploaded %s", i.material.UploadedAt)
	}
	return "protected material"
}
