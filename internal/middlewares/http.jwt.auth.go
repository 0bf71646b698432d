package middlewares

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	sharedjwt "github.com/joshuarp/idempotency-api/internal/shared/jwt"
)

const (
	LocalAppID     = "app_id"
	LocalJWTClaims = "jwt_claims"
)

func NewHTTPJWTMiddleware(tokenManager sharedjwt.TokenManager) fiber.Handler {
	return func(c fiber.Ctx) error {
		if c.Method() == fiber.MethodPost && strings.HasSuffix(c.Path(), "/auth/token") {
			return c.Next()
		}

		authorizationHeader := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		parts := strings.SplitN(authorizationHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing or invalid authorization header",
			})
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing bearer token",
			})
		}

		claims, err := tokenManager.Verify(c.Context(), tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid token",
			})
		}

		c.Locals(LocalAppID, claims.Subject)
		c.Locals(LocalJWTClaims, claims)
		c.SetContext(sharedjwt.SetClaims(c.Context(), claims))
		return c.Next()
	}
}

// AppIDFromContext returns the authenticated app id, or "" for anonymous requests.
func AppIDFromContext(c fiber.Ctx) string {
	appID, _ := c.Locals(LocalAppID).(string)
	return appID
}
