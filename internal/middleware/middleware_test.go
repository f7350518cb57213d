package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"toolhost/pkg/auth"
)

func whoAmI(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"user": LocalString(c, LocalUserID),
		"org":  LocalString(c, LocalOrgID),
	})
}

func TestLocalAuthMiddleware(t *testing.T) {
	jwtAuth, _ := auth.NewLocalJWTAuth("test-secret", time.Minute)
	token, _ := jwtAuth.GenerateToken(auth.User{ID: "user-1", OrgID: "org-1"})

	app := fiber.New()
	app.Get("/me", LocalAuthMiddleware(jwtAuth, "production"), whoAmI)

	tests := []struct {
		name   string
		header string
		query  string
		status int
	}{
		{name: "bearer header", header: "Bearer " + token, status: fiber.StatusOK},
		{name: "query token", query: "?token=" + token, status: fiber.StatusOK},
		{name: "missing token", status: fiber.StatusUnauthorized},
		{name: "bad token", header: "Bearer nope", status: fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("Request failed: %v", err)
			}
			if resp.StatusCode != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, resp.StatusCode)
			}
		})
	}
}

func TestLocalAuthMiddleware_DevBypass(t *testing.T) {
	tests := []struct {
		environment string
		status      int
	}{
		{"development", fiber.StatusOK},
		{"", fiber.StatusOK},
		{"staging", fiber.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.environment, func(t *testing.T) {
			app := fiber.New()
			app.Get("/me", LocalAuthMiddleware(nil, tt.environment), whoAmI)

			resp, err := app.Test(httptest.NewRequest("GET", "/me", nil))
			if err != nil {
				t.Fatalf("Request failed: %v", err)
			}
			if resp.StatusCode != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, resp.StatusCode)
			}
		})
	}
}

func TestToolCallLimiter(t *testing.T) {
	limiter := NewToolCallLimiter(0.001, 2)

	if !limiter.Allow("user-1") || !limiter.Allow("user-1") {
		t.Fatal("Expected burst of 2 to be allowed")
	}
	if limiter.Allow("user-1") {
		t.Error("Expected third call to be limited")
	}
	if !limiter.Allow("user-2") {
		t.Error("Expected other users to have their own bucket")
	}
}

func TestToolCallLimiter_Handler(t *testing.T) {
	limiter := NewToolCallLimiter(0.001, 1)

	app := fiber.New()
	app.Post("/call", func(c *fiber.Ctx) error {
		c.Locals(LocalUserID, "user-1")
		return c.Next()
	}, limiter.Handler(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	first, _ := app.Test(httptest.NewRequest("POST", "/call", nil))
	second, _ := app.Test(httptest.NewRequest("POST", "/call", nil))

	if first.StatusCode != fiber.StatusNoContent {
		t.Errorf("Expected first call to pass, got %d", first.StatusCode)
	}
	if second.StatusCode != fiber.StatusTooManyRequests {
		t.Errorf("Expected second call to be limited, got %d", second.StatusCode)
	}
}

func TestToolCallLimiter_Disabled(t *testing.T) {
	limiter := NewToolCallLimiter(0, 0)
	for i := 0; i < 100; i++ {
		if !limiter.Allow("user-1") {
			t.Fatalf("Expected unlimited calls, call %d was limited", i+1)
		}
	}
}

func TestAdminMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		userID string
		status int
	}{
		{name: "listed admin", userID: "ops-1", status: fiber.StatusOK},
		{name: "other user", userID: "user-1", status: fiber.StatusForbidden},
		{name: "anonymous", status: fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/admin", func(c *fiber.Ctx) error {
				if tt.userID != "" {
					c.Locals(LocalUserID, tt.userID)
				}
				return c.Next()
			}, AdminMiddleware([]string{"ops-1"}), whoAmI)

			resp, err := app.Test(httptest.NewRequest("GET", "/admin", nil))
			if err != nil {
				t.Fatalf("Request failed: %v", err)
			}
			if resp.StatusCode != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, resp.StatusCode)
			}
		})
	}
}
