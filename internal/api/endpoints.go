// Typed endpoints of the CourseGuardian REST API.
//
// Endpoint shapes follow the server contract; field-level response types live
// in [models].
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/aadi-novice/guardian/internal/models"
)

// Login exchanges a username and password for a token pair, persists the
// pair, and fetches the caller's identity. On failure the stored credentials
// are left untouched.
func (c *Client) Login(ctx context.Context, username, password string) (models.Identity, error) {
	var tokens models.Credentials
	payload := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login/", payload, &tokens); err != nil {
		return models.Identity{}, err
	}

	if err := c.store.Save(tokens); err != nil {
		return models.Identity{}, fmt.Errorf("failed to persist credentials: %w", err)
	}

	identity, err := c.Me(ctx)
	if err != nil {
		return models.Identity{}, err
	}

	return identity, nil
}

// GoogleLogin exchanges a Google ID credential for a platform session.
func (c *Client) GoogleLogin(ctx context.Context, credential string) (models.Identity, error) {
	var result struct {
		Access  string          `json:"access"`
		Refresh string          `json:"refresh"`
		User    models.Identity `json:"user"`
	}
	payload := map[string]string{"credential": credential}
	if err := c.do(ctx, http.MethodPost, "/auth/google/", payload, &result); err != nil {
		return models.Identity{}, err
	}

	creds := models.Credentials{AccessToken: result.Access, RefreshToken: result.Refresh}
	if err := c.store.Save(creds); err != nil {
		return models.Identity{}, fmt.Errorf("failed to persist credentials: %w", err)
	}

	return result.User, nil
}

// Me retrieves the current authenticated user's identity.
func (c *Client) Me(ctx context.Context) (models.Identity, error) {
	var identity models.Identity
	if err := c.do(ctx, http.MethodGet, "/auth/me/", nil, &identity); err != nil {
		return models.Identity{}, err
	}
	return identity, nil
}

// Register creates a new account. Server-side field validation failures are
// returned as a [*ValidationError].
func (c *Client) Register(ctx context.Context, input models.RegisterInput) (string, error) {
	if input.Role == "" {
		input.Role = models.RoleStudent
	}

	var result struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/register/", input, &result); err != nil {
		return "", err
	}
	return result.Message, nil
}

// ForgotPassword requests a password reset email. Fire and report; no
// session state changes.
func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	var result struct {
		Message string `json:"message"`
	}
	payload := map[string]string{"email": email}
	if err := c.do(ctx, http.MethodPost, "/auth/forgot-password/", payload, &result); err != nil {
		return "", err
	}
	return result.Message, nil
}

// Courses retrieves the full course list, optionally filtered by a search
// query.
func (c *Client) Courses(ctx context.Context, search string) ([]models.Course, error) {
	path := "/courses/"
	if search != "" {
		path += "?search=" + url.QueryEscape(search)
	}

	var courses []models.Course
	if err := c.do(ctx, http.MethodGet, path, nil, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// MyCourses retrieves the courses the current user is enrolled in.
func (c *Client) MyCourses(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	if err := c.do(ctx, http.MethodGet, "/courses/my_courses/", nil, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// DashboardStats retrieves aggregated enrollment and progress numbers.
func (c *Client) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	var stats models.DashboardStats
	if err := c.do(ctx, http.MethodGet, "/courses/dashboard_stats/", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Enroll enrolls the current user in a course.
func (c *Client) Enroll(ctx context.Context, courseID int) (string, error) {
	return c.courseAction(ctx, courseID, "enroll")
}

// Unenroll removes the current user from a course.
func (c *Client) Unenroll(ctx context.Context, courseID int) (string, error) {
	return c.courseAction(ctx, courseID, "unenroll")
}

func (c *Client) courseAction(ctx context.Context, courseID int, action string) (string, error) {
	var result struct {
		Message string `json:"message"`
	}
	path := fmt.Sprintf("/courses/%d/%s/", courseID, action)
	if err := c.do(ctx, http.MethodPost, path, nil, &result); err != nil {
		return "", err
	}
	return result.Message, nil
}

// Lessons retrieves the lessons of a course.
func (c *Client) Lessons(ctx context.Context, courseID int) ([]models.Lesson, error) {
	var lessons []models.Lesson
	path := fmt.Sprintf("/lessons/?course=%d", courseID)
	if err := c.do(ctx, http.MethodGet, path, nil, &lessons); err != nil {
		return nil, err
	}
	return lessons, nil
}

// Materials retrieves the protected materials of a lesson.
func (c *Client) Materials(ctx context.Context, lessonID int) ([]models.Material, error) {
	var materials []models.Material
	path := fmt.Sprintf("/lessonpdfs/?lesson=%d", lessonID)
	if err := c.do(ctx, http.MethodGet, path, nil, &materials); err != nil {
		return nil, err
	}
	return materials, nil
}

// ViewInfo describes how to retrieve one protected material: a short-lived
// signed URL plus the watermark the server expects the viewer to render.
type ViewInfo struct {
	SignedURL string `json:"signed_url"`
	Watermark string `json:"watermark,omitempty"`
	UserID    int    `json:"user_id,omitempty"`
	CourseID  int    `json:"course_id,omitempty"`
	LessonID  int    `json:"lesson_id,omitempty"`
}

// MaterialView retrieves the signed retrieval URL for a material.
func (c *Client) MaterialView(ctx context.Context, materialID int) (*ViewInfo, error) {
	var info ViewInfo
	path := fmt.Sprintf("/lessonpdfs/%d/view_pdf/", materialID)
	if err := c.do(ctx, http.MethodGet, path, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// CompletionResult reports course progress after marking a material complete.
type CompletionResult struct {
	Message        string  `json:"message"`
	LessonTitle    string  `json:"lesson_title"`
	CourseProgress float64 `json:"course_progress"`
}

// MarkCompleted records that the current user finished a material.
func (c *Client) MarkCompleted(ctx context.Context, materialID int) (*CompletionResult, error) {
	var result CompletionResult
	path := fmt.Sprintf("/lessonpdfs/%d/mark_completed/", materialID)
	if err := c.do(ctx, http.MethodPost, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UploadMaterial uploads a PDF for a lesson. Requires the admin role
// server-side; the client does not pre-check.
func (c *Client) UploadMaterial(ctx context.Context, lessonID int, title, filename string, file io.Reader) (*models.Material, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("lesson", strconv.Itoa(lessonID)); err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if err := writer.WriteField("title", title); err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to read upload file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize upload form: %w", err)
	}

	raw, err := c.execute(ctx, http.MethodPost, "/lessonpdfs/upload/", buf.Bytes(), writer.FormDataContentType(), 0)
	if err != nil {
		return nil, err
	}
	if !raw.ok() {
		return nil, decodeError(raw.StatusCode, raw.Body)
	}

	var material models.Material
	if err := decodeInto(raw.Body, &material); err != nil {
		return nil, err
	}
	return &material, nil
}
