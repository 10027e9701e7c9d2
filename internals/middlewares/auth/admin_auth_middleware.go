// internals/middlewares/auth/admin_auth_middleware.go
package auth

import (
	"crypto/subtle"
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

/*
  Operator auth for the /api/a group. Two acceptable credentials:
  - the cron shared secret (Authorization: Bearer <RETRY_JOB_SECRET>), so the
    scheduled retry trigger needs no token plumbing;
  - a staff JWT carrying role=admin.
  End-user auth is out of scope here — this guards the operator surface only.
*/

type AdminAuthOpts struct {
	JWTSecret      string
	RetryJobSecret string
}

func AdminAuth(opts AdminAuthOpts) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := extractBearerToken(c)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		// 1) Cron shared secret, constant-time compare
		if opts.RetryJobSecret != "" &&
			subtle.ConstantTimeCompare([]byte(tokenString), []byte(opts.RetryJobSecret)) == 1 {
			c.Locals("auth_subject", "retry-job")
			return c.Next()
		}

		// 2) Staff JWT
		if opts.JWTSecret == "" {
			log.Println("[ERROR] JWT_SECRET is empty")
			return fiber.NewError(fiber.StatusInternalServerError, "Missing JWT Secret")
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(opts.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Invalid token")
		}

		role, _ := claims["role"].(string)
		if role != "admin" {
			return fiber.NewError(fiber.StatusForbidden, "Forbidden - admin role required")
		}

		if sub, ok := claims["sub"].(string); ok {
			c.Locals("auth_subject", sub)
		}
		return c.Next()
	}
}

func extractBearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("Unauthorized - Missing Authorization header")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", errors.New("Unauthorized - Invalid Authorization format")
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", errors.New("Unauthorized - Empty bearer token")
	}
	return token, nil
}
