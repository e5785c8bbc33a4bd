// Package tasks orchestrates long-running client operations with real-time progress reporting.
//
// # Core Operation
//
// [PrefetchEngine.Prefetch] downloads every protected material of a course
// through the authenticated channel:
//   - Lists the course's lessons and their materials
//   - Resolves each material's signed retrieval URL
//   - Downloads the bytes with a bounded worker pool under a rate limit
//   - Writes a manifest file summarizing the run
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Catalog Caching
//
// The optional [CatalogCacher] interface refreshes the local catalog cache
// from the listings fetched during a prefetch. Cache failures are logged and
// ignored so they never disrupt a download run.
package tasks
