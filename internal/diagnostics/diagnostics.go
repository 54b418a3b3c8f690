// Package diagnostics implements the diagnostic conversation pipeline: it
// forwards an uploaded medical image to the external inference service for a
// diagnostic model, normalizes the service's model-specific response, exposes
// any Grad-CAM explanation overlay as a retrievable or inline artifact, renders
// a report, and records both turns in the caller's conversation.
package diagnostics

// Result is the normalized outcome of one inference call, independent of which
// model produced it. Label is always present; everything else is model-dependent.
type Result struct {
	Label       string
	Confidence  *float64
	Explanation string
	// Artifact holds the decoded explanation overlay bytes; ArtifactB64 retains
	// the original base64 payload for inline embedding. Both empty when the
	// response carried no overlay.
	Artifact    []byte
	ArtifactB64 string
}

// HasArtifact reports whether the inference response carried an explanation overlay.
func (r Result) HasArtifact() bool {
	return len(r.Artifact) > 0
}
