package identity

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
)

// Verifier validates a raw credential and returns its subject identifier.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// Resolver extracts a caller identity from the request's credential cookie.
type Resolver struct {
	verifier  Verifier
	cookie    string
	anonymous string
	logger    *slog.Logger
}

// New creates a Resolver with the verifier selected by the config mode.
func New(cfg *Config, logger *slog.Logger) (*Resolver, error) {
	verifier, err := newVerifier(cfg)
	if err != nil {
		return nil, fmt.Errorf("create credential verifier: %w", err)
	}

	return &Resolver{
		verifier:  verifier,
		cookie:    cfg.Cookie,
		anonymous: cfg.Anonymous,
		logger:    logger.With("system", "identity"),
	}, nil
}

// Anonymous returns the anonymous identity sentinel.
func (r *Resolver) Anonymous() string {
	return r.anonymous
}

// Resolve returns the caller identity for the request. A missing cookie yields
// the anonymous identity; a failing credential is logged and also yields the
// anonymous identity so the request proceeds.
func (r *Resolver) Resolve(req *http.Request) Resolution {
	cookie, err := req.Cookie(r.cookie)
	if err != nil || cookie.Value == "" {
		return Resolution{Subject: r.anonymous, Status: StatusAnonymous}
	}

	subject, err := r.verifier.Verify(req.Context(), cookie.Value)
	if err != nil {
		r.logger.Warn("credential verification failed, continuing as anonymous", "error", err)
		return Resolution{Subject: r.anonymous, Status: StatusMalformed}
	}

	return Resolution{Subject: subject, Status: StatusVerified}
}

func newVerifier(cfg *Config) (Verifier, error) {
	switch cfg.Mode {
	case ModeHMAC:
		return newHMACVerifier(cfg.Secret, cfg.SubjectClaim), nil
	case ModeOIDC:
		return newOIDCVerifier(context.Background(), cfg.Issuer, cfg.Audience)
	default:
		return nil, fmt.Errorf("unknown auth mode: %s", cfg.Mode)
	}
}
