package middleware

import (
	"strings"

	"github.com/adstudio/backend/internal/auth"
	"github.com/adstudio/backend/internal/config"
	"github.com/adstudio/backend/internal/http/dto"
	"github.com/adstudio/backend/internal/rbac"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	CtxSubject = "subject"
	CtxRole    = "role"
)

// AuthMiddleware requires a bearer JWT signed with the configured secret.
// With no secret configured every request passes.
func AuthMiddleware(cfg *config.Config, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.Auth.Secret == "" {
			return c.Next()
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "missing authorization header"})
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenStr == authHeader {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "invalid authorization format"})
		}

		claims, err := auth.ParseJWT(cfg.Auth.Secret, tokenStr)
		if err != nil {
			log.Debug("jwt parse error", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "invalid or expired token"})
		}

		c.Locals(CtxSubject, claims.Subject)
		c.Locals(CtxRole, claims.Role)
		return c.Next()
	}
}

// RequirePermission rejects callers whose role lacks perm. It is a no-op
// when authentication is disabled.
func RequirePermission(cfg *config.Config, perm string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.Auth.Secret == "" {
			return c.Next()
		}
		role, _ := c.Locals(CtxRole).(string)
		if !rbac.HasPermission(role, perm) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: "insufficient permissions"})
		}
		return c.Next()
	}
}

func GetSubject(c *fiber.Ctx) string {
	s, _ := c.Locals(CtxSubject).(string)
	return s
}
