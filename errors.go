package identity

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// Text codes surfaced to clients. Bodies stay opaque; these are the only
// diagnostic detail a caller gets.
const (
	TextCodeEmailTaken          = "EMAIL_TAKEN"
	TextCodeProvisioningFailed  = "PROVISIONING_FAILED"
	TextCodeAccountNotFound     = "ACCOUNT_NOT_FOUND"
	TextCodeInvalidCreds        = "INVALID_CREDENTIALS"
	TextCodeTokenExpired        = "TOKEN_EXPIRED"
	TextCodeTokenSignature      = "TOKEN_SIGNATURE_INVALID"
	TextCodeTokenMalformed      = "TOKEN_MALFORMED"
	TextCodeRefreshNotFound     = "REFRESH_TOKEN_NOT_FOUND"
	TextCodeUnresolvedOrphan    = "UNRESOLVED_ORPHAN_ACCOUNT"
)

// ErrEmailTaken is returned when the uniqueness precheck fails; no remote
// call has been attempted at that point.
var ErrEmailTaken = errors.New("email already registered", errors.CategoryConflict).
	WithTextCode(TextCodeEmailTaken)

// ErrProvisioningFailed means the remote profile write failed and the local
// account has already been compensated.
var ErrProvisioningFailed = errors.New("failed to provision account profile", errors.CategoryOperation).
	WithTextCode(TextCodeProvisioningFailed)

// ErrAccountNotFound is the error we return for lookup misses
var ErrAccountNotFound = errors.New("account not found", errors.CategoryNotFound).
	WithTextCode(TextCodeAccountNotFound)

// ErrInvalidCredentials is returned on a password mismatch during login
var ErrInvalidCredentials = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds)

// ErrRefreshTokenNotFound is the lookup miss for refresh tokens
var ErrRefreshTokenNotFound = errors.New("refresh token not found", errors.CategoryNotFound).
	WithTextCode(TextCodeRefreshNotFound)

// ErrTokenExpired means the signature verified but the expiry has passed
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired)

// ErrTokenSignatureInvalid means the token was tampered with or signed
// under a foreign key
var ErrTokenSignatureInvalid = errors.New("token signature is invalid", errors.CategoryAuth).
	WithTextCode(TextCodeTokenSignature)

// ErrTokenMalformed means the string could not be decoded as a token
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed)

// ErrMismatchedHashAndPassword is the bcrypt comparison failure
var ErrMismatchedHashAndPassword = errors.New("password does not match", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds)

// ErrNoEmptyString rejects empty passwords before hashing
var ErrNoEmptyString = errors.New("value must not be empty", errors.CategoryBadInput)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed bearer token")
}
