package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Authenticator holds the public operations of the auth service
type Authenticator interface {
	Register(ctx context.Context, msg ProvisionAccountMessage) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	ValidateToken(tokenString string) bool
}

// AuthResult carries the outcome of a successful register or login
type AuthResult struct {
	AccountID    uuid.UUID `json:"id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
}

// TokenService issues and validates signed bearer tokens
type TokenService interface {
	IssueAccessToken(account *Account) (string, error)
	IssueRefreshToken(account *Account) (string, error)
	IssueToken(account *Account, ttl time.Duration) (string, error)
	Validate(tokenString string) (AuthClaims, error)
}

// TokenValidator validates tokens and extracts claims without tying callers
// to a specific signing implementation.
type TokenValidator interface {
	Validate(tokenString string) (AuthClaims, error)
}

// ProfileCreator is the remote collaborator that owns profile records.
// Any error means the remote write did not happen.
type ProfileCreator interface {
	CreateProfile(ctx context.Context, req CreateProfileRequest) error
}

// CreateProfileRequest is the payload sent to the profile service
type CreateProfileRequest struct {
	AccountID uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Phone     string    `json:"phone,omitempty"`
}

// ReconciliationSink receives accounts whose compensating delete failed.
// These records require manual reconciliation; they are never retried here.
type ReconciliationSink interface {
	RecordOrphan(ctx context.Context, account *Account, cause error)
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetIssuer() string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] IDENTITY "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] IDENTITY "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] IDENTITY "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] IDENTITY "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
