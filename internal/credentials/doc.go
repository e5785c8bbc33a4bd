// Package credentials owns the persisted access/refresh token pair.
//
// [Store] is the single writer of credentials: the session saves a pair on
// login, the refresh coordinator replaces the access token after a refresh,
// and logout or a terminal refresh failure clears it. Reads never fail;
// storage errors are logged and reported as absence so callers can treat a
// broken store like a logged-out session.
package credentials
