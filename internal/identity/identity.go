// Package identity resolves the caller identity from an optional signed cookie
// credential, falling back to a configurable anonymous identity. Verification
// failure is a degradation, never a rejection.
package identity

// Status tags the outcome of credential resolution.
type Status string

const (
	// StatusVerified means a credential was presented and verified.
	StatusVerified Status = "verified"
	// StatusAnonymous means no credential was presented.
	StatusAnonymous Status = "anonymous"
	// StatusMalformed means a credential was presented but failed verification.
	StatusMalformed Status = "malformed"
)

// Resolution is the tagged result of resolving a request's identity.
// Subject always carries a usable identity: the verified subject claim,
// or the anonymous sentinel for the other two statuses.
type Resolution struct {
	Subject string
	Status  Status
}

// Verified reports whether the resolution carries a verified credential subject.
func (r Resolution) Verified() bool {
	return r.Status == StatusVerified
}
