package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/ticket-bridge/pkg/util"
)

const principalKey = "auth_service"

// ServiceAuth validates bearer tokens on the internal bridge API.
type ServiceAuth struct {
	tokens *TokenManager
}

// NewServiceAuth constructs middleware.
func NewServiceAuth(tokens *TokenManager) *ServiceAuth {
	return &ServiceAuth{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *ServiceAuth) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	c.Locals(principalKey, claims.ServiceName)
	return c.Next()
}

// ServiceFromContext returns the authenticated service name.
func ServiceFromContext(c *fiber.Ctx) (string, bool) {
	name, ok := c.Locals(principalKey).(string)
	return name, ok && name != ""
}
