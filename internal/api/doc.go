// Package api implements the authenticated gateway to the CourseGuardian
// REST API.
//
// [Client] attaches the current access credential to every outbound request
// and routes 401 responses into a single-flight refresh coordinator: no
// matter how many requests observe an expired token at once, exactly one
// POST /auth/refresh/ is issued, queued requests are replayed in arrival
// order with the new token, and a terminal refresh failure rejects every
// waiter and signals the session exactly once. A replayed request that fails
// with 401 again is a terminal failure, never a second refresh cycle.
package api
