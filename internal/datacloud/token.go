package datacloud

import (
	"context"
	"fmt"
)

// Token carries what a Data Cloud call needs: a bearer token and the
// instance the token is valid for.
type Token struct {
	AccessToken string
	InstanceURL string
}

// TokenSource yields a token per request. Real deployments exchange
// credentials with the auth service behind this interface; tests and
// long-lived tokens use StaticTokenSource.
type TokenSource interface {
	Token(ctx context.Context) (Token, error)
}

type StaticTokenSource struct {
	AccessToken string
	InstanceURL string
}

func (s StaticTokenSource) Token(ctx context.Context) (Token, error) {
	if s.AccessToken == "" {
		return Token{}, fmt.Errorf("no access token configured")
	}
	return Token{AccessToken: s.AccessToken, InstanceURL: s.InstanceURL}, nil
}
