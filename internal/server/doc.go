// Package server provides HTTP routing, middleware, OAuth handling, and the
// loopback media server backing protected-material viewing.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// OAuthHandler implements the OAuth2 authorization code callback flow used
// for Google sign-in.
//
// The handler validates the state parameter (CSRF protection), exchanges the authorization code for tokens,
// and sends the result through a channel.
//
// It only processes one callback to prevent replay attacks.
//
// # Media Server
//
// [MediaServer] serves downloaded learning materials at revocable loopback
// URLs. The media loader publishes a temp file into the [Registry] and hands
// the resulting URL to the viewing surface; revoking the entry makes further
// requests 404 regardless of the file still existing on disk.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
