// Package middleware provides authentication, logging, metrics and rate limiting middleware.
package middleware

import (
	"context"
	"strings"

	"conduit/internal/auth"
	"conduit/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Locals keys populated by the auth middleware.
const (
	LocalUserID = "userID"
	LocalClaims = "claims"
	LocalToken  = "token"
)

// TokenVerifier parses and validates access tokens.
type TokenVerifier interface {
	Parse(token string) (*auth.Claims, error)
}

// RevocationChecker reports whether a token ID was logged out.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) bool
}

// Authenticator builds the required and optional auth middleware.
type Authenticator struct {
	verifier    TokenVerifier
	revocations RevocationChecker
}

// NewAuthenticator creates an Authenticator. revocations may be nil.
func NewAuthenticator(verifier TokenVerifier, revocations RevocationChecker) *Authenticator {
	return &Authenticator{verifier: verifier, revocations: revocations}
}

// ExtractToken reads the token from "Authorization: Token <jwt>" or
// "Authorization: Bearer <jwt>". Browsers cannot set headers on WebSocket
// upgrades, so the "token" query parameter is accepted there too.
func ExtractToken(c *fiber.Ctx) (string, bool) {
	if header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization)); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if !found {
			return "", false
		}
		switch scheme {
		case "Token", "Bearer":
		default:
			return "", false
		}
		token = strings.TrimSpace(token)
		return token, token != ""
	}

	if strings.HasPrefix(c.Path(), "/api/ws") {
		if token := c.Query("token"); token != "" {
			return token, true
		}
	}
	return "", false
}

// Required rejects requests without a valid, unrevoked token.
func (a *Authenticator) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := ExtractToken(c)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization header required"))
		}
		if err := a.authenticate(c, token); err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}
		return c.Next()
	}
}

// Optional identifies the viewer when a valid token is present. A missing,
// malformed, expired or revoked token serves the request anonymously.
func (a *Authenticator) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := ExtractToken(c)
		if !ok {
			return c.Next()
		}
		if err := a.authenticate(c, token); err != nil {
			Logger.DebugContext(c.UserContext(), "optional auth ignored token", "path", c.Path(), "error", err)
		}
		return c.Next()
	}
}

func (a *Authenticator) authenticate(c *fiber.Ctx, token string) error {
	claims, err := a.verifier.Parse(token)
	if err != nil {
		return models.NewUnauthorizedError("Invalid or expired token")
	}
	if a.revocations != nil && a.revocations.IsRevoked(c.UserContext(), claims.ID) {
		return models.NewUnauthorizedError("Token has been revoked")
	}
	userID, err := claims.UserID()
	if err != nil {
		return models.NewUnauthorizedError("Invalid user ID in token")
	}

	c.Locals(LocalUserID, userID)
	c.Locals(LocalClaims, claims)
	c.Locals(LocalToken, token)
	c.SetUserContext(WithUserID(c.UserContext(), userID))
	return nil
}
