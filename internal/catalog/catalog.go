package catalog

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/aadi-novice/guardian/internal/models"
	"github.com/aadi-novice/guardian/internal/shared"
)

// Store caches catalog listings in the local sqlite database.
type Store struct {
	db *sql.DB
}

// NewStore creates a catalog store over an opened database connection. The
// schema is managed by the shared migration runner.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// ReplaceCourses swaps the cached course list for the given one.
func (s *Store) ReplaceCourses(courses []models.Course) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM courses"); err != nil {
		return fmt.Errorf("failed to clear cached courses: %w", err)
	}

	now := time.Now()
	for _, course := range courses {
		_, err := tx.Exec(
			`INSERT INTO courses (id, title, description, pdf_count, enrolled, created_at, cached_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			course.ID, course.Title, course.Description, course.PDFCount, course.Enrolled, course.CreatedAt, now,
		)
		if err != nil {
			return fmt.Errorf("failed to cache course %d: %w", course.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit course cache: %w", err)
	}
	return nil
}

// Courses lists the cached courses ordered by id.
func (s *Store) Courses() ([]models.Course, error) {
	rows, err := s.db.Query(
		`SELECT id, title, description, pdf_count, enrolled, created_at
		 FROM courses ORDER BY id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query cached courses: %w", err)
	}
	defer rows.Close()

	var courses []models.Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return courses, nil
}

// Course retrieves one cached course by id.
func (s *Store) Course(id int) (*models.Course, error) {
	row := s.db.QueryRow(
		`SELECT id, title, description, pdf_count, enrolled, created_at
		 FROM courses WHERE id = ?`, id,
	)

	var (
		course      models.Course
		description sql.NullString
		createdAt   sql.NullString
	)
	err := row.Scan(&course.ID, &course.Title, &description, &course.PDFCount, &course.Enrolled, &createdAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: id %d", shared.ErrCourseNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan course: %w", err)
	}

	course.Description = description.String
	course.CreatedAt = createdAt.String
	return &course, nil
}

// ReplaceLessons swaps the cached lessons of one course.
func (s *Store) ReplaceLessons(courseID int, lessons []models.Lesson) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM lessons WHERE course_id = ?", courseID); err != nil {
		return fmt.Errorf("failed to clear cached lessons: %w", err)
	}

	now := time.Now()
	for _, lesson := range lessons {
		_, err := tx.Exec(
			`INSERT INTO lessons (id, course_id, title, created_at, cached_at)
			 VALUES (?, ?, ?, ?, ?)`,
			lesson.ID, courseID, lesson.Title, lesson.CreatedAt, now,
		)
		if err != nil {
			return fmt.Errorf("failed to cache lesson %d: %w", lesson.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit lesson cache: %w", err)
	}
	return nil
}

// Lessons lists the cached lessons of a course. The nested course carries the
// cached title when the course itself is cached.
func (s *Store) Lessons(courseID int) ([]models.Lesson, error) {
	rows, err := s.db.Query(
		`SELECT l.id, l.title, l.created_at, c.title
		 FROM lessons l LEFT JOIN courses c ON c.id = l.course_id
		 WHERE l.course_id = ? ORDER BY l.id ASC`, courseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query cached lessons: %w", err)
	}
	defer rows.Close()

	var lessons []models.Lesson
	for rows.Next() {
		var (
			lesson      models.Lesson
			createdAt   sql.NullString
			courseTitle sql.NullString
		)
		if err := rows.Scan(&lesson.ID, &lesson.Title, &createdAt, &courseTitle); err != nil {
			return nil, fmt.Errorf("failed to scan lesson: %w", err)
		}
		lesson.CreatedAt = createdAt.String
		lesson.Course = models.Course{ID: courseID, Title: courseTitle.String}
		lessons = append(lessons, lesson)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return lessons, nil
}

// ReplaceMaterials swaps the cached materials of one lesson.
func (s *Store) ReplaceMaterials(lessonID int, materials []models.Material) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM materials WHERE lesson_id = ?", lessonID); err != nil {
		return fmt.Errorf("failed to clear cached materials: %w", err)
	}

	now := time.Now()
	for _, material := range materials {
		_, err := tx.Exec(
			`INSERT INTO materials (id, lesson_id, title, path, uploaded_at, cached_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			material.ID, lessonID, material.Title, material.Path, material.UploadedAt, now,
		)
		if err != nil {
			return fmt.Errorf("failed to cache material %d: %w", material.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit material cache: %w", err)
	}
	return nil
}

// Materials lists the cached materials of a lesson.
func (s *Store) Materials(lessonID int) ([]models.Material, error) {
	rows, err := s.db.Query(
		`SELECT id, lesson_id, title, path, uploaded_at
		 FROM materials WHERE lesson_id = ? ORDER BY id ASC`, lessonID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query cached materials: %w", err)
	}
	defer rows.Close()

	var materials []models.Material
	for rows.Next() {
		material, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		materials = append(materials, material)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return materials, nil
}

// Material retrieves one cached material by id.
func (s *Store) Material(id int) (*models.Material, error) {
	row := s.db.QueryRow(
		`SELECT id, lesson_id, title, path, uploaded_at
		 FROM materials WHERE id = ?`, id,
	)

	var (
		material   models.Material
		path       sql.NullString
		uploadedAt sql.NullString
	)
	err := row.Scan(&material.ID, &material.Lesson, &material.Title, &path, &uploadedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: id %d", shared.ErrMaterialNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan material: %w", err)
	}

	material.Path = path.String
	material.UploadedAt = uploadedAt.String
	return &material, nil
}

func scanCourse(rows *sql.Rows) (models.Course, error) {
	var (
		course      models.Course
		description sql.NullString
		createdAt   sql.NullString
	)
	if err := rows.Scan(&course.ID, &course.Title, &description, &course.PDFCount, &course.Enrolled, &createdAt); err != nil {
		return models.Course{}, fmt.Errorf("failed to scan course: %w", err)
	}
	course.Description = description.String
	course.CreatedAt = createdAt.String
	return course, nil
}

func scanMaterial(rows *sql.Rows) (models.Material, error) {
	var (
		material   models.Material
		path       sql.NullString
		uploadedAt sql.NullString
	)
	if err := rows.Scan(&material.ID, &material.Lesson, &material.Title, &path, &uploadedAt); err != nil {
		return models.Material{}, fmt.Errorf("failed to scan material: %w", err)
	}
	material.Path = path.String
	material.UploadedAt = uploadedAt.String
	return material, nil
}
