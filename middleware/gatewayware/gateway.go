// Package gatewayware verifies bearer tokens at the edge and rewrites
// requests with identity headers before they are forwarded upstream.
package gatewayware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ErrTokenMissingOrMalformed is returned when no usable bearer token is
// present on the request
var ErrTokenMissingOrMalformed = errors.New("missing or malformed bearer token")

// Identity headers stamped onto verified requests. Inbound values are
// always stripped first so clients cannot smuggle their own.
const (
	HeaderUserID    = "X-User-Id"
	HeaderUserEmail = "X-User-Email"
	HeaderUserRole  = "X-User-Role"
)

// AuthClaims is the verified claim set the filter needs. It mirrors the
// claims interface from the identity package without importing it.
type AuthClaims interface {
	UserID() string
	Email() string
	Role() string
}

// TokenValidator validates a raw token and returns its claims. It mirrors
// TokenService.Validate from the identity package.
type TokenValidator interface {
	Validate(tokenString string) (AuthClaims, error)
}

// TokenValidatorFunc adapts a plain function to TokenValidator
type TokenValidatorFunc func(tokenString string) (AuthClaims, error)

func (f TokenValidatorFunc) Validate(tokenString string) (AuthClaims, error) {
	return f(tokenString)
}

type Config struct {
	// Validator is required
	Validator TokenValidator

	// Filter skips verification for matching requests, in addition to
	// AllowPrefixes
	Filter func(*fiber.Ctx) bool

	// AllowPrefixes lists path prefixes that bypass verification.
	// Defaults to the auth endpoints themselves.
	AllowPrefixes []string

	// AuthScheme is the expected Authorization scheme, Bearer by default
	AuthScheme string

	// ContextKey is the locals key the claims are stored under
	ContextKey string

	// ErrorHandler renders rejections. The default responds 401 with an
	// opaque body for every failure kind.
	ErrorHandler fiber.ErrorHandler
}

// New builds the verification filter
func New(config ...Config) fiber.Handler {
	cfg := configDefault(config...)

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		if allowedPath(c.Path(), cfg.AllowPrefixes) {
			return c.Next()
		}

		raw, err := tokenFromHeader(c, cfg.AuthScheme)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		claims, err := cfg.Validator.Validate(raw)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		c.Locals(cfg.ContextKey, claims)
		stampIdentityHeaders(c, claims)

		return c.Next()
	}
}

func configDefault(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Validator == nil {
		panic("GATEWAY: verification middleware configuration: Validator is required.")
	}

	if cfg.AllowPrefixes == nil {
		cfg.AllowPrefixes = []string{"/auth"}
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}

	if cfg.ErrorHandler == nil {
		// All rejection kinds collapse to the same response so callers
		// cannot probe which check failed
		cfg.ErrorHandler = func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).SendString("Invalid or expired token")
		}
	}

	return cfg
}

func allowedPath(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if prefix != "" && strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func tokenFromHeader(c *fiber.Ctx, authScheme string) (string, error) {
	a := c.Get(fiber.HeaderAuthorization)
	l := len(authScheme)
	if l == 0 {
		return "", ErrTokenMissingOrMalformed
	}

	authScheme = strings.TrimSpace(authScheme)
	if len(a) > l+1 && strings.EqualFold(a[:l], authScheme) {
		token := strings.TrimSpace(a[l:])
		if token == "" {
			return "", ErrTokenMissingOrMalformed
		}
		return token, nil
	}

	return "", ErrTokenMissingOrMalformed
}

// stampIdentityHeaders strips any inbound identity headers and writes the
// verified values in their place
func stampIdentityHeaders(c *fiber.Ctx, claims AuthClaims) {
	h := &c.Request().Header

	h.Del(HeaderUserID)
	h.Del(HeaderUserEmail)
	h.Del(HeaderUserRole)

	h.Set(HeaderUserID, claims.UserID())
	h.Set(HeaderUserEmail, claims.Email())
	h.Set(HeaderUserRole, claims.Role())
}
