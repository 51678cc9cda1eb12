package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/maheshrc27/crosspost/internal/models"
)

// SocialAccountRepository stores connected accounts. Tokens are stored as
// given; callers encrypt them first.
type SocialAccountRepository interface {
	Upsert(ctx context.Context, sa *models.SocialAccount) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.SocialAccount, error)
	// GetByPlatform returns the most recently updated account for platform,
	// narrowed to accountID when it is not empty.
	GetByPlatform(ctx context.Context, platform, accountID string) (*models.SocialAccount, error)
	List(ctx context.Context) ([]*models.SocialAccount, error)
	SetToken(ctx context.Context, id int64, sa *models.SocialAccount) error
	Remove(ctx context.Context, id int64) error
}

type socialAccountRepository struct {
	db *sql.DB
}

func NewSocialAccountRepository(db *sql.DB) SocialAccountRepository {
	return &socialAccountRepository{db: db}
}

const socialAccountColumns = `id, platform, account_id, username, access_token, refresh_token, token_expires_at, created_at, updated_at`

func scanSocialAccount(row interface{ Scan(...interface{}) error }) (*models.SocialAccount, error) {
	var sa models.SocialAccount
	err := row.Scan(&sa.ID, &sa.Platform, &sa.AccountID, &sa.Username, &sa.AccessToken,
		&sa.RefreshToken, &sa.TokenExpiresAt, &sa.CreatedAt, &sa.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sa, nil
}

func (r *socialAccountRepository) Upsert(ctx context.Context, sa *models.SocialAccount) (int64, error) {
	query := `
		INSERT INTO social_accounts(platform, account_id, username, access_token, refresh_token, token_expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (platform, account_id) DO UPDATE SET
			username = EXCLUDED.username,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_expires_at = EXCLUDED.token_expires_at,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		sa.Platform,
		sa.AccountID,
		sa.Username,
		sa.AccessToken,
		sa.RefreshToken,
		sa.TokenExpiresAt,
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *socialAccountRepository) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts WHERE id = $1`

	sa, err := scanSocialAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return sa, nil
}

func (r *socialAccountRepository) GetByPlatform(ctx context.Context, platform, accountID string) (*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts
		WHERE platform = $1 AND ($2 = '' OR account_id = $2)
		ORDER BY updated_at DESC LIMIT 1`

	sa, err := scanSocialAccount(r.db.QueryRowContext(ctx, query, platform, accountID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return sa, nil
}

func (r *socialAccountRepository) List(ctx context.Context) ([]*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.SocialAccount
	for rows.Next() {
		sa, err := scanSocialAccount(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, sa)
	}
	return accounts, rows.Err()
}

func (r *socialAccountRepository) SetToken(ctx context.Context, id int64, sa *models.SocialAccount) error {
	query := `
		UPDATE social_accounts
		SET
			access_token = COALESCE(NULLIF($2, ''), access_token),
			refresh_token = COALESCE(NULLIF($3, ''), refresh_token),
			token_expires_at = $4,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id, sa.AccessToken, sa.RefreshToken, sa.TokenExpiresAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected != 1 {
		return ErrNotFound
	}
	return nil
}

func (r *socialAccountRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM social_accounts WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
