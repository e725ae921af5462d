package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fieldnotes/sightings/internal/apperr"
	"github.com/fieldnotes/sightings/internal/auth"
	"github.com/fieldnotes/sightings/internal/identity"
)

const claimsLocal = "auth_claims"

// Authenticate verifies the bearer token and attaches the typed claims to
// the request. Requests without a credential fail closed before any handler
// runs.
func Authenticate(tokens *auth.TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := auth.BearerToken(c)
		if !ok {
			return apperr.MissingCredential("missing bearer token")
		}
		claims, err := tokens.Verify(token)
		if err != nil {
			return err
		}
		c.Locals(claimsLocal, claims)
		return c.Next()
	}
}

// RequireRole allows the request through only when the authenticated role is
// in the allowed set. It must be chained after Authenticate; without claims
// the request is rejected as unauthenticated, never as forbidden.
func RequireRole(allowed ...identity.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := ClaimsFromCtx(c)
		if !ok {
			return apperr.MissingCredential("authentication required")
		}
		if !claims.Role.In(allowed...) {
			return apperr.Forbidden("insufficient role")
		}
		return c.Next()
	}
}

// ClaimsFromCtx returns the claims attached by Authenticate.
func ClaimsFromCtx(c *fiber.Ctx) (*auth.Claims, bool) {
	claims, ok := c.Locals(claimsLocal).(*auth.Claims)
	return claims, ok
}
