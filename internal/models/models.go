package models

import (
	"fmt"
	"strings"
)

// Role identifies the access level of a platform user.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
)

// Credentials holds the bearer token pair issued by POST /auth/login/.
//
// The access token has a validity window of hours, the refresh token of days.
// The credential store is the sole owner; other components hold at most a
// transient copy of the access token.
type Credentials struct {
	AccessToken  string `json:"access"`
	RefreshToken string `json:"refresh"`
}

// Empty reports whether no token pair is present.
func (c Credentials) Empty() bool {
	return c.AccessToken == "" && c.RefreshToken == ""
}

// Identity represents the authenticated user's profile.
type Identity struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      Role   `json:"role"`
	CreatedAt string `json:"createdAt"`
}

// FullName returns the user's display name, falling back to the username.
func (i Identity) FullName() string {
	name := strings.TrimSpace(i.FirstName + " " + i.LastName)
	if name == "" {
		return i.Username
	}
	return name
}

// IsAdmin reports whether the user may access upload endpoints.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Course represents a course from GET /courses/.
type Course struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	PDFCount    int    `json:"pdf_count,omitempty"`
	Enrolled    bool   `json:"enrolled,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// Lesson represents a lesson from GET /lessons/?course={id}.
type Lesson struct {
	ID        int    `json:"id"`
	Course    Course `json:"course"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
}

// Material represents a protected learning material (PDF or video) from
// GET /lessonpdfs/?lesson={id}.
type Material struct {
	ID         int    `json:"id"`
	Lesson     int    `json:"lesson"`
	Title      string `json:"title"`
	Path       string `json:"pdf_path"`
	UploadedAt string `json:"uploaded_at"`
}

// DashboardStats represents aggregated progress from GET /courses/dashboard_stats/.
type DashboardStats struct {
	TotalCourses       int      `json:"total_courses"`
	TotalMaterials     int      `json:"total_materials"`
	CompletedMaterials int      `json:"completed_materials"`
	OverallProgress    float64  `json:"overall_progress"`
	Courses            []Course `json:"courses"`
}

// RegisterInput is the payload for POST /auth/register/.
type RegisterInput struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      Role   `json:"role,omitempty"`
}

// Validate checks the registration payload before it is sent to the server.
// Server-side field validation still applies; this catches obvious mistakes
// without a round trip.
func (r RegisterInput) Validate() error {
	if r.Username == "" {
		return fmt.Errorf("username is required")
	}
	if r.Email == "" || !strings.Contains(r.Email, "@") {
		return fmt.Errorf("a valid email is required")
	}
	if len(r.Password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	return nil
}
