package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aadi-novice/guardian/internal/formatter"
	"github.com/aadi-novice/guardian/internal/models"
	"github.com/aadi-novice/guardian/internal/shared"
	"github.com/urfave/cli/v3"
)

// offline reports whether an API failure should fall through to the local
// catalog cache.
func offline(err error) bool {
	return errors.Is(err, shared.ErrNetworkUnavailable) || errors.Is(err, shared.ErrTimeout)
}

// CoursesList lists courses, refreshing the local catalog cache on success
// and serving from it when the API is unreachable.
func (r *Runner) CoursesList(ctx context.Context, cmd *cli.Command) error {
	search := cmd.String("search")
	useJSON := cmd.Bool("json")
	useCSV := cmd.Bool("csv")
	pretty := cmd.Bool("pretty")
	cached := cmd.Bool("cached")

	var courses []models.Course
	var fromCache bool

	if cached {
		if r.catalog == nil {
			return fmt.Errorf("%w: local cache unavailable", shared.ErrMissingConfig)
		}
		var err error
		if courses, err = r.catalog.Courses(); err != nil {
			return fmt.Errorf("failed to read cached courses: %w", err)
		}
		fromCache = true
	} else {
		fetched, err := r.client.Courses(ctx, search)
		switch {
		case err == nil:
			courses = fetched
			if search == "" && r.catalog != nil {
				if err := r.catalog.ReplaceCourses(courses); err != nil {
					r.logger.Warnf("failed to refresh course cache: %v", err)
				}
			}
		case offline(err) && search == "" && r.catalog != nil:
			r.logger.Warnf("API unreachable, serving cached courses: %v", err)
			if courses, err = r.catalog.Courses(); err != nil {
				return fmt.Errorf("failed to read cached courses: %w", err)
			}
			fromCache = true
		default:
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
	}

	if useJSON {
		return r.writeJSON(courses, pretty)
	}
	if useCSV {
		data, err := formatter.CoursesToCSV(courses)
		if err != nil {
			return fmt.Errorf("failed to format courses: %w", err)
		}
		_, err = r.output.Write(data)
		return err
	}

	if fromCache {
		r.writePlain("(showing cached catalog)\n\n")
	}
	_, err := r.output.Write(formatter.CoursesToText(courses))
	return err
}

// CoursesMine lists the courses the current user is enrolled in.
func (r *Runner) CoursesMine(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	courses, err := r.client.MyCourses(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(courses, cmd.Bool("pretty"))
	}

	_, err = r.output.Write(formatter.CoursesToText(courses))
	return err
}

// CoursesEnroll enrolls the current user in a course.
func (r *Runner) CoursesEnroll(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	courseID := cmd.Int("id")
	message, err := r.client.Enroll(ctx, courseID)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	r.logger.Infof("enrolled in course %v", courseID)
	r.writePlain("✓ %s\n", message)
	return nil
}

// CoursesUnenroll removes the current user from a course.
func (r *Runner) CoursesUnenroll(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	courseID := cmd.Int("id")
	message, err := r.client.Unenroll(ctx, courseID)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	r.logger.Infof("left course %v", courseID)
	r.writePlain("✓ %s\n", message)
	return nil
}

// CoursesStats shows aggregated enrollment and progress numbers.
func (r *Runner) CoursesStats(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	stats, err := r.client.DashboardStats(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(stats, cmd.Bool("pretty"))
	}

	_, err = r.output.Write(formatter.StatsToMarkdown(stats))
	return err
}

// LessonsList lists the lessons of a course with the same cache behavior as
// [Runner.CoursesList].
func (r *Runner) LessonsList(ctx context.Context, cmd *cli.Command) error {
	courseID := cmd.Int("course")
	cached := cmd.Bool("cached")

	var lessons []models.Lesson

	if cached {
		if r.catalog == nil {
			return fmt.Errorf("%w: local cache unavailable", shared.ErrMissingConfig)
		}
		var err error
		if lessons, err = r.catalog.Lessons(courseID); err != nil {
			return fmt.Errorf("failed to read cached lessons: %w", err)
		}
	} else {
		fetched, err := r.client.Lessons(ctx, courseID)
		switch {
		case err == nil:
			lessons = fetched
			if r.catalog != nil {
				if err := r.catalog.ReplaceLessons(courseID, lessons); err != nil {
					r.logger.Warnf("failed to refresh lesson cache: %v", err)
				}
			}
		case offline(err) && r.catalog != nil:
			r.logger.Warnf("API unreachable, serving cached lessons: %v", err)
			if lessons, err = r.catalog.Lessons(courseID); err != nil {
				return fmt.Errorf("failed to read cached lessons: %w", err)
			}
		default:
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(lessons, true)
	}

	_, err := r.output.Write(formatter.LessonsToText(lessons))
	return err
}

// MaterialsList lists the protected materials of a lesson.
func (r *Runner) MaterialsList(ctx context.Context, cmd *cli.Command) error {
	lessonID := cmd.Int("lesson")
	cached := cmd.Bool("cached")

	var materials []models.Material

	if cached {
		if r.catalog == nil {
			return fmt.Errorf("%w: local cache unavailable", shared.ErrMissingConfig)
		}
		var err error
		if materials, err = r.catalog.Materials(lessonID); err != nil {
			return fmt.Errorf("failed to read cached materials: %w", err)
		}
	} else {
		fetched, err := r.client.Materials(ctx, lessonID)
		switch {
		case err == nil:
			materials = fetched
			if r.catalog != nil {
				if err := r.catalog.ReplaceMaterials(lessonID, materials); err != nil {
					r.logger.Warnf("failed to refresh material cache: %v", err)
				}
			}
		case offline(err) && r.catalog != nil:
			r.logger.Warnf("API unreachable, serving cached materials: %v", err)
			if materials, err = r.catalog.Materials(lessonID); err != nil {
				return fmt.Errorf("failed to read cached materials: %w", err)
			}
		default:
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(materials, true)
	}

	_, err := r.output.Write(formatter.MaterialsToText(materials))
	return err
}

// MaterialComplete records that the current user finished a material.
func (r *Runner) MaterialComplete(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	result, err := r.client.MarkCompleted(ctx, cmd.Int("id"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	r.writePlain("✓ %s\n", result.Message)
	if result.LessonTitle != "" {
		r.writePlain("  Lesson: %s\n", result.LessonTitle)
	}
	r.writePlain("  Course progress: %.0f%%\n", result.CourseProgress)
	return nil
}

// MaterialUpload uploads a PDF to a lesson. The server enforces the admin
// role; the client only pre-checks for a friendlier message.
func (r *Runner) MaterialUpload(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	if identity, ok := r.session.Identity(); ok && !identity.IsAdmin() {
		return fmt.Errorf("%w: uploads require the admin role", shared.ErrNotAuthenticated)
	}

	filePath := cmd.String("file")
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open upload file: %w", err)
	}
	defer f.Close()

	material, err := r.client.UploadMaterial(ctx, cmd.Int("lesson"), cmd.String("title"), filepath.Base(filePath), f)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	r.writePlain("✓ Uploaded %s (id %d)\n", material.Title, material.ID)
	return nil
}
