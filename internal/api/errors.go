package api

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// APIError represents a non-2xx response from the CourseGuardian API.
//
// Message precedence follows the server contract: a `detail` string wins over
// a `message` string, which wins over a generic status description.
type APIError struct {
	StatusCode int
	Detail     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// ValidationError carries per-field validation messages from the server so
// calling UI can annotate individual inputs instead of flattening everything
// into one string.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}

	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, strings.Join(e.Fields[name], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// decodeError turns an error response body into an [*APIError] or, when the
// body is a DRF-style field-error map, a [*ValidationError].
func decodeError(status int, body []byte) error {
	apiErr := &APIError{StatusCode: status}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return apiErr
	}

	fields := map[string][]string{}
	for key, value := range payload {
		switch v := value.(type) {
		case string:
			switch key {
			case "detail":
				apiErr.Detail = v
			case "message":
				apiErr.Message = v
			default:
				fields[key] = []string{v}
			}
		case []any:
			messages := make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok {
					messages = append(messages, s)
				}
			}
			if len(messages) > 0 {
				fields[key] = messages
			}
		}
	}

	if len(fields) > 0 && apiErr.Detail == "" {
		return &ValidationError{Fields: fields}
	}

	return apiErr
}
