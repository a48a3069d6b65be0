package identity

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// IdentityService is the facade over the provisioning saga, the credential
// check, and token issuance. It implements Authenticator.
type IdentityService struct {
	repo         RepositoryManager
	provisioner  *ProvisionAccountHandler
	tokenService TokenService
	refreshTTL   time.Duration
	logger       Logger
}

var _ Authenticator = (*IdentityService)(nil)

// NewIdentityService builds the service from its collaborators
func NewIdentityService(repo RepositoryManager, profiles ProfileCreator, opts Config) *IdentityService {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetAccessTokenTTL(),
		opts.GetRefreshTokenTTL(),
		opts.GetIssuer(),
		defLogger{},
	)

	return &IdentityService{
		repo:         repo,
		provisioner:  NewProvisionAccountHandler(repo, profiles),
		tokenService: tokenService,
		refreshTTL:   opts.GetRefreshTokenTTL(),
		logger:       defLogger{},
	}
}

func (s *IdentityService) WithLogger(logger Logger) *IdentityService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithTokenService overrides the default token service
func (s *IdentityService) WithTokenService(ts TokenService) *IdentityService {
	if ts != nil {
		s.tokenService = ts
	}
	return s
}

// WithProvisioner overrides the default provisioning handler
func (s *IdentityService) WithProvisioner(handler *ProvisionAccountHandler) *IdentityService {
	if handler != nil {
		s.provisioner = handler
	}
	return s
}

// TokenService returns the token service used by this instance
func (s *IdentityService) TokenService() TokenService {
	return s.tokenService
}

// Register provisions a new account and, on success, returns a fresh token
// pair. Token issuance happens only after both the local record and the
// remote profile exist.
func (s *IdentityService) Register(ctx context.Context, msg ProvisionAccountMessage) (*AuthResult, error) {
	account, err := s.provisioner.Execute(ctx, msg)
	if err != nil {
		s.logger.Error("Register provisioning failed for %s: %v", msg.Email, err)
		return nil, err
	}

	return s.issueTokenPair(ctx, account)
}

// Login verifies the credentials and rotates the account's refresh token.
// Unknown email and wrong password both fail loudly; we do not hand back a
// response with empty tokens.
func (s *IdentityService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	account, err := s.repo.Accounts().GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) || errors.IsNotFound(err) {
			return nil, ErrAccountNotFound
		}
		s.logger.Error("Login account lookup failed: %v", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "account lookup failed")
	}

	if err := ComparePasswordAndHash(password, account.PasswordHash); err != nil {
		s.logger.Warn("Login password mismatch for %s", email)
		return nil, ErrInvalidCredentials
	}

	return s.issueTokenPair(ctx, account)
}

// ValidateToken collapses validation to a boolean for callers that only
// need a yes or no
func (s *IdentityService) ValidateToken(tokenString string) bool {
	if _, err := s.tokenService.Validate(tokenString); err != nil {
		s.logger.Debug("ValidateToken rejected token: %v", err)
		return false
	}
	return true
}

// RefreshTokenFor returns the stored refresh token for the account, if any
func (s *IdentityService) RefreshTokenFor(ctx context.Context, token string) (*RefreshToken, error) {
	return s.repo.RefreshTokens().FindByToken(ctx, token)
}

func (s *IdentityService) issueTokenPair(ctx context.Context, account *Account) (*AuthResult, error) {
	access, err := s.tokenService.IssueAccessToken(account)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to issue access token")
	}

	refresh, err := s.tokenService.IssueRefreshToken(account)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to issue refresh token")
	}

	// The stored expiry is fixed at save time; rows for replaced logins are
	// overwritten, not appended.
	expiresAt := time.Now().Add(s.refreshTTL)
	if _, err := s.repo.RefreshTokens().Save(ctx, account.ID, refresh, expiresAt); err != nil {
		s.logger.Error("failed to persist refresh token for %s: %v", account.ID, err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to persist refresh token")
	}

	return &AuthResult{
		AccountID:    account.ID,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}
