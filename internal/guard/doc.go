// Package guard implements the deterrence overlay wrapped around material
// viewing surfaces.
//
// The overlay intercepts save/print/copy/devtools key chords, counts each
// suppressed attempt, and renders an identity watermark in two opposite
// corners so a single screenshot crop cannot remove it. Navigation keys pass
// through to the wrapped surface untouched.
//
// Deterrence only. The underlying bytes are already on the client; the
// overlay discourages casual copying and is not an access-control boundary.
package guard
