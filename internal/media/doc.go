// Package media retrieves protected learning materials through the
// authenticated gateway and wraps them as locally addressable resources.
//
// A [Loader] supports two delivery modes. Fetch mode downloads the material
// bytes with the Authorization header and publishes them as a temp-file
// backed loopback URL. Embed mode appends the access credential as a token
// query parameter for rendering surfaces that reject an Authorization header
// on embedded documents. Both modes resolve within a bounded wait, and a new
// selection always supersedes an older in-flight load.
package media
