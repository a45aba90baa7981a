package gateway

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	domain "github.com/example/realtime-chat/domain/chat"
)

// fakeAuthPort validates exactly one token and rejects everything else.
type fakeAuthPort struct {
	token  string
	claims domain.Claims
}

func (f *fakeAuthPort) ValidateToken(_ context.Context, token string) (*domain.Claims, error) {
	if token != f.token {
		return nil, errors.New("token validation failed: invalid token")
	}
	claims := f.claims
	return &claims, nil
}

func (f *fakeAuthPort) GetUser(_ context.Context, _ string) (*domain.User, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeAuthPort) FindUser(_ context.Context, _ string) (*domain.User, error) {
	return nil, errors.New("not implemented")
}

func newProtectedApp(port *fakeAuthPort) *fiber.App {
	app := fiber.New()
	app.Get("/protected", AuthMiddleware(port), func(c *fiber.Ctx) error {
		claims := c.Locals(UserContextKey).(*domain.Claims)
		return c.JSON(fiber.Map{"user_id": claims.UserID, "username": claims.Username})
	})
	return app
}

func TestAuthMiddleware_RejectsBadHeaders(t *testing.T) {
	app := newProtectedApp(&fakeAuthPort{token: "good-token"})

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "wrong scheme", header: "Basic abc123"},
		{name: "bearer without token", header: "Bearer "},
		{name: "unknown token", header: "Bearer forged-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != fiber.StatusUnauthorized {
				t.Errorf("status = %d, want %d", resp.StatusCode, fiber.StatusUnauthorized)
			}
		})
	}
}

func TestAuthMiddleware_PassesClaimsThrough(t *testing.T) {
	port := &fakeAuthPort{
		token:  "good-token",
		claims: domain.Claims{UserID: "u1", Username: "alice"},
	}
	app := newProtectedApp(port)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer good-token")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, fiber.StatusOK)
	}
}
