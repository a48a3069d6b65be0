package identity

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RefreshTokens persists one refresh token per account. Save replaces any
// prior row for the account: concurrent logins legitimately invalidate
// earlier tokens, so last write wins.
type RefreshTokens interface {
	Save(ctx context.Context, accountID uuid.UUID, token string, expiresAt time.Time) (*RefreshToken, error)
	SaveTx(ctx context.Context, tx bun.IDB, accountID uuid.UUID, token string, expiresAt time.Time) (*RefreshToken, error)
	FindByToken(ctx context.Context, token string) (*RefreshToken, error)
	DeleteByAccount(ctx context.Context, accountID uuid.UUID) error
	DeleteByAccountTx(ctx context.Context, tx bun.IDB, accountID uuid.UUID) error
}

type refreshTokens struct {
	db *bun.DB
}

var _ RefreshTokens = (*refreshTokens)(nil)

// NewRefreshTokensRepository creates the bun-backed RefreshTokens store
func NewRefreshTokensRepository(db *bun.DB) RefreshTokens {
	return &refreshTokens{db: db}
}

func (r *refreshTokens) Save(ctx context.Context, accountID uuid.UUID, token string, expiresAt time.Time) (*RefreshToken, error) {
	return r.SaveTx(ctx, r.db, accountID, token, expiresAt)
}

func (r *refreshTokens) SaveTx(ctx context.Context, tx bun.IDB, accountID uuid.UUID, token string, expiresAt time.Time) (*RefreshToken, error) {
	now := time.Now()
	record := &RefreshToken{
		ID:        uuid.New(),
		Token:     token,
		AccountID: accountID,
		ExpiresAt: expiresAt,
		UpdatedAt: &now,
	}

	_, err := tx.NewInsert().
		Model(record).
		On("CONFLICT (account_id) DO UPDATE").
		Set("token = EXCLUDED.token").
		Set("expires_at = EXCLUDED.expires_at").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)

	if err != nil {
		return nil, err
	}

	return record, nil
}

func (r *refreshTokens) FindByToken(ctx context.Context, token string) (*RefreshToken, error) {
	record := &RefreshToken{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.token = ?", token).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || repository.IsRecordNotFound(err) {
			return nil, ErrRefreshTokenNotFound
		}
		return nil, err
	}

	return record, nil
}

func (r *refreshTokens) DeleteByAccount(ctx context.Context, accountID uuid.UUID) error {
	return r.DeleteByAccountTx(ctx, r.db, accountID)
}

func (r *refreshTokens) DeleteByAccountTx(ctx context.Context, tx bun.IDB, accountID uuid.UUID) error {
	_, err := tx.NewDelete().
		Model((*RefreshToken)(nil)).
		Where("account_id = ?", accountID.String()).
		Exec(ctx)
	return err
}
