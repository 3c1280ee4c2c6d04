package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// JWT-related errors
var (
	ErrInvalidToken  = errors.New("invalid token format")
	ErrWrongIssuer   = errors.New("token issued by an unexpected issuer")
	ErrMissingBearer = errors.New("missing bearer token")
)

// stripBearerPrefix removes a case-insensitive "Bearer " prefix.
func stripBearerPrefix(header string) string {
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}
	return header
}

// IssuerFromToken reads the iss claim without checking the signature.
// It only serves to reject foreign tokens before the verifier fetches keys.
func IssuerFromToken(tokenString string) (string, error) {
	token, _, err := jwt.NewParser().ParseUnverified(stripBearerPrefix(tokenString), &jwt.RegisteredClaims{})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Issuer == "" {
		return "", ErrInvalidToken
	}
	return claims.Issuer, nil
}
