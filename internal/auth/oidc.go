package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
)

// Operator is the verified caller of an operator endpoint.
type Operator struct {
	Subject string
	Email   string
	Expiry  int64 // Unix timestamp
}

type operatorKey struct{}

// WithOperator adds the verified operator to the context.
func WithOperator(ctx context.Context, op *Operator) context.Context {
	return context.WithValue(ctx, operatorKey{}, op)
}

// OperatorFrom retrieves the operator stored by BearerMiddleware.
func OperatorFrom(ctx context.Context) (*Operator, bool) {
	op, ok := ctx.Value(operatorKey{}).(*Operator)
	return op, ok
}

// TokenVerifier checks a raw bearer token.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*Operator, error)
}

// OIDCVerifier verifies ID tokens from a single issuer for one client.
type OIDCVerifier struct {
	issuer   string
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier discovers the issuer's keys. It makes a network call.
func NewOIDCVerifier(ctx context.Context, issuer, clientID string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider for issuer %s: %w", issuer, err)
	}
	return &OIDCVerifier{
		issuer:   issuer,
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

// Verify checks signature, expiry, issuer and audience.
func (v *OIDCVerifier) Verify(ctx context.Context, rawToken string) (*Operator, error) {
	iss, err := IssuerFromToken(rawToken)
	if err != nil {
		return nil, err
	}
	if strings.TrimRight(iss, "/") != strings.TrimRight(v.issuer, "/") {
		return nil, fmt.Errorf("%w: %s", ErrWrongIssuer, iss)
	}

	idToken, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}

	var claims struct {
		Email string `json:"email"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to decode claims: %w", err)
	}
	return &Operator{
		Subject: idToken.Subject,
		Email:   claims.Email,
		Expiry:  idToken.Expiry.Unix(),
	}, nil
}
