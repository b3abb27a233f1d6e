// Package tinypic compresses PNG trees through the TinyPNG service,
// remembering what was already compressed in per-directory manifests.
package tinypic

// Version is written into every manifest
const Version = "1.1.0"
