// package catalog provides the local persistence layer for the course
// catalog.
//
// The catalog is a read-through cache: listings fetched from the API replace
// the cached rows wholesale, and offline listing falls back to whatever was
// cached last. Credentials are not stored here; only public catalog metadata
// is persisted.
package catalog
