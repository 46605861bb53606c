package client

import (
	"context"
	"net/http"

	"github.com/boddenberg/ledger-client-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// Signup creates an account and returns its first token.
func (c *Client) Signup(ctx context.Context, req *domain.SignupRequest) (*domain.AuthResponse, error) {
	ctx, span := tracer.Start(ctx, "Client.Signup")
	defer span.End()
	span.SetAttributes(attribute.String("user.username", req.Username))

	return c.authenticate(ctx, "/auth/signup", "signup", req)
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error) {
	ctx, span := tracer.Start(ctx, "Client.Login")
	defer span.End()
	span.SetAttributes(attribute.String("user.username", req.Username))

	return c.authenticate(ctx, "/auth/login", "login", req)
}

func (c *Client) authenticate(ctx context.Context, path, operation string, body any) (*domain.AuthResponse, error) {
	var resp domain.AuthResponse
	ok, err := c.Do(ctx, path, RequestOptions{
		Method:    http.MethodPost,
		Body:      body,
		Operation: operation,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if !ok || resp.Token == "" {
		return nil, &domain.ErrUnexpectedResponse{Operation: operation}
	}
	return &resp, nil
}
