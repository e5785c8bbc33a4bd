// Package session owns process-wide authentication state.
//
// [Session] is the single writer of the user identity and the lifecycle
// phase (Initializing, Unauthenticated, Authenticated). Screens and commands
// read and mutate auth state exclusively through it; the credential pair
// itself lives in the credential store and is never duplicated here beyond a
// transient read.
package session
