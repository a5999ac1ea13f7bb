package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"movie-quiz/internal/logger"
	"movie-quiz/internal/service"
)

const (
	AuthorizationHeader = "Authorization"
	BearerSchema        = "Bearer "
	UsernameKey         = "username" // Key for storing the username in fiber.Ctx locals
)

// Protected is a middleware function that protects routes by requiring a valid JWT.
// It validates the token using the provided TokenService and sets the username in the context.
func Protected(tokens service.TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(AuthorizationHeader)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Code:    "MISSING_AUTH_HEADER",
				Message: "Authorization header is missing",
				Status:  fiber.StatusUnauthorized,
			})
		}

		if !strings.HasPrefix(authHeader, BearerSchema) {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Code:    "INVALID_AUTH_SCHEME",
				Message: "Authorization scheme is not Bearer",
				Status:  fiber.StatusUnauthorized,
			})
		}

		tokenString := strings.TrimPrefix(authHeader, BearerSchema)
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Code:    "EMPTY_TOKEN",
				Message: "Token is empty",
				Status:  fiber.StatusUnauthorized,
			})
		}

		claims, err := tokens.ValidateToken(tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Code:    "INVALID_TOKEN",
				Message: err.Error(),
				Status:  fiber.StatusUnauthorized,
			})
		}

		c.Locals(UsernameKey, claims.Username)

		return c.Next()
	}
}

// OptionalAuth is a middleware function that optionally authenticates a user.
// If a valid token is provided, it sets the username in the context.
// Otherwise, it proceeds without setting it, allowing for anonymous access.
func OptionalAuth(tokens service.TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(AuthorizationHeader)
		if authHeader == "" {
			return c.Next()
		}

		if !strings.HasPrefix(authHeader, BearerSchema) {
			logger.Get().Debug("OptionalAuth: Authorization scheme is not Bearer, proceeding as anonymous.")
			return c.Next()
		}

		tokenString := strings.TrimPrefix(authHeader, BearerSchema)
		if tokenString == "" {
			return c.Next()
		}

		claims, err := tokens.ValidateToken(tokenString)
		if err != nil {
			logger.Get().Debug("OptionalAuth: token validation failed, proceeding as anonymous.", zap.Error(err))
			return c.Next()
		}

		c.Locals(UsernameKey, claims.Username)
		return c.Next()
	}
}

// AdminOnly lets through only the listed users. It must run after
// Protected, which sets the username.
func AdminOnly(admins []string) fiber.Handler {
	allowed := make(map[string]struct{}, len(admins))
	for _, admin := range admins {
		if admin = strings.TrimSpace(admin); admin != "" {
			allowed[admin] = struct{}{}
		}
	}
	return func(c *fiber.Ctx) error {
		username := Username(c)
		if _, ok := allowed[username]; !ok {
			logger.Get().Warn("AdminOnly: request rejected", zap.String("username", username), zap.String("path", c.Path()))
			return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
				Code:    "FORBIDDEN",
				Message: "Administrator rights are required",
				Status:  fiber.StatusForbidden,
			})
		}
		return c.Next()
	}
}

// Username returns the authenticated username, or "" for anonymous requests
func Username(c *fiber.Ctx) string {
	username, _ := c.Locals(UsernameKey).(string)
	return username
}
