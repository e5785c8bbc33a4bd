// Package models defines the data model for the guardian client.
//
// The package contains two categories of types:
//
// 1. API Data Transfer Objects: structs mirroring the CourseGuardian REST API
//   - [Identity] : the authenticated user's profile from GET /auth/me/
//   - [Course], [Lesson], [Material] : the course catalog
//   - [DashboardStats] : aggregated progress from GET /courses/dashboard_stats/
//
// 2. Client-owned state:
//   - [Credentials] : the access/refresh token pair persisted locally
//   - [RegisterInput] : the payload for account registration
package models
