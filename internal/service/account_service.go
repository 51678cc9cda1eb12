package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/repository"
	"github.com/maheshrc27/crosspost/pkg/utils"
)

// AccountService is the token store behind connected accounts. Tokens are
// encrypted before they reach the repository.
type AccountService interface {
	TokenSource
	Save(ctx context.Context, conn *models.Connection) ([]*models.SocialAccount, error)
	List(ctx context.Context) ([]*models.SocialAccount, error)
	Delete(ctx context.Context, id int64) error
	Refresh(ctx context.Context, id int64) (*models.SocialAccount, error)
}

type accountService struct {
	accounts  repository.SocialAccountRepository
	platforms PlatformService
	secretKey []byte
}

func NewAccountService(accounts repository.SocialAccountRepository, platforms PlatformService, secretKey string) AccountService {
	return &accountService{accounts: accounts, platforms: platforms, secretKey: []byte(secretKey)}
}

// Save stores the connection. Facebook connections store one account per
// managed page, holding that page's own access token.
func (s *accountService) Save(ctx context.Context, conn *models.Connection) ([]*models.SocialAccount, error) {
	var rows []*models.SocialAccount
	if conn.Platform == models.PlatformFacebook && len(conn.Pages) > 0 {
		for _, page := range conn.Pages {
			rows = append(rows, &models.SocialAccount{
				Platform:       conn.Platform,
				AccountID:      page.ID,
				Username:       page.Name,
				AccessToken:    page.AccessToken,
				TokenExpiresAt: conn.Tokens.Expiry(),
			})
		}
	} else {
		rows = append(rows, &models.SocialAccount{
			Platform:       conn.Platform,
			AccountID:      conn.Profile.ID,
			Username:       conn.Profile.Username,
			AccessToken:    conn.Tokens.AccessToken,
			RefreshToken:   conn.Tokens.RefreshToken,
			TokenExpiresAt: conn.Tokens.Expiry(),
		})
	}

	saved := make([]*models.SocialAccount, 0, len(rows))
	for _, sa := range rows {
		plainAccess, plainRefresh := sa.AccessToken, sa.RefreshToken
		if err := s.seal(sa); err != nil {
			return nil, err
		}
		id, err := s.accounts.Upsert(ctx, sa)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		sa.ID = id
		sa.AccessToken, sa.RefreshToken = plainAccess, plainRefresh
		saved = append(saved, sa)
	}
	return saved, nil
}

func (s *accountService) List(ctx context.Context) ([]*models.SocialAccount, error) {
	return s.accounts.List(ctx)
}

func (s *accountService) Delete(ctx context.Context, id int64) error {
	return s.accounts.Remove(ctx, id)
}

// AccessToken returns the decrypted token of the most recently updated
// account for platform.
func (s *accountService) AccessToken(ctx context.Context, platform, accountID string) (string, error) {
	sa, err := s.accounts.GetByPlatform(ctx, platform, accountID)
	if err != nil {
		return "", err
	}
	if sa == nil {
		return "", fmt.Errorf("no connected %s account", platformLabel(platform))
	}
	return utils.Decrypt(sa.AccessToken, s.secretKey)
}

func (s *accountService) Refresh(ctx context.Context, id int64) (*models.SocialAccount, error) {
	sa, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sa == nil {
		return nil, repository.ErrNotFound
	}

	refreshToken := ""
	if sa.RefreshToken != "" {
		if refreshToken, err = utils.Decrypt(sa.RefreshToken, s.secretKey); err != nil {
			return nil, err
		}
	}

	tokens, err := s.platforms.RefreshToken(ctx, sa.Platform, refreshToken)
	if err != nil {
		slog.Info(err.Error(), "platform", sa.Platform)
		return nil, err
	}

	updated := &models.SocialAccount{
		AccessToken:    tokens.AccessToken,
		RefreshToken:   tokens.RefreshToken,
		TokenExpiresAt: tokens.Expiry(),
	}
	if err := s.seal(updated); err != nil {
		return nil, err
	}
	if err := s.accounts.SetToken(ctx, id, updated); err != nil {
		return nil, err
	}

	sa.TokenExpiresAt = updated.TokenExpiresAt
	sa.AccessToken, sa.RefreshToken = "", ""
	return sa, nil
}

func (s *accountService) seal(sa *models.SocialAccount) error {
	var err error
	if sa.AccessToken != "" {
		if sa.AccessToken, err = utils.Encrypt([]byte(sa.AccessToken), s.secretKey); err != nil {
			return err
		}
	}
	if sa.RefreshToken != "" {
		if sa.RefreshToken, err = utils.Encrypt([]byte(sa.RefreshToken), s.secretKey); err != nil {
			return err
		}
	}
	return nil
}
