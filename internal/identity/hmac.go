package identity

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

type hmacVerifier struct {
	secret       []byte
	subjectClaim string
}

func newHMACVerifier(secret, subjectClaim string) Verifier {
	return &hmacVerifier{
		secret:       []byte(secret),
		subjectClaim: subjectClaim,
	}
}

func (v *hmacVerifier) Verify(_ context.Context, token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("unexpected claims type")
	}

	subject, ok := claims[v.subjectClaim].(string)
	if !ok || subject == "" {
		return "", fmt.Errorf("token missing %s claim", v.subjectClaim)
	}

	return subject, nil
}
