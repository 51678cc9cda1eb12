package handlers

import (
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/crosspost/configs"
	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/repository"
	"github.com/maheshrc27/crosspost/internal/service"
	"github.com/maheshrc27/crosspost/pkg/utils"
)

const stateTTL = 10 * time.Minute

type PlatformHandler struct {
	ps       service.PlatformService
	accounts service.AccountService
	states   repository.OAuthStateRepository
	cfg      *config.Config
}

func NewPlatformHandler(ps service.PlatformService, accounts service.AccountService, states repository.OAuthStateRepository, cfg *config.Config) *PlatformHandler {
	return &PlatformHandler{
		ps:       ps,
		accounts: accounts,
		states:   states,
		cfg:      cfg,
	}
}

func (h *PlatformHandler) BeginAuth(c *fiber.Ctx) error {
	authReq, err := h.ps.BeginAuth(c.UserContext(), c.Params("platform"))
	if err != nil {
		var configErr *service.ConfigurationError
		if errors.As(err, &configErr) || errors.Is(err, service.ErrUnsupportedPlatform) {
			return badRequest(c, err.Error())
		}
		slog.Info(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unexpected server error while generating the OAuth URL",
		})
	}

	signed, err := utils.GenerateStateToken(h.cfg.SecretKey, authReq.Platform, authReq.State, stateTTL)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to start authorization",
		})
	}
	if err := h.states.Save(c.UserContext(), authReq.State, authReq.Platform, stateTTL); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to start authorization",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.StateCookieName,
		Value:    signed,
		Path:     "/auth",
		MaxAge:   int(stateTTL.Seconds()),
		HTTPOnly: true,
		Secure:   strings.HasPrefix(h.cfg.BaseURL, "https://"),
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return c.Redirect(authReq.URL)
}

// Callback finishes the OAuth flow and always answers with a redirect to the
// frontend carrying either auth_success and user_id, or error.
func (h *PlatformHandler) Callback(c *fiber.Ctx) error {
	platform := strings.ToLower(c.Params("platform"))
	code := c.Query("code")
	state := c.Query("state")
	providerErr := c.Query("error")

	c.ClearCookie(h.cfg.StateCookieName)

	if providerErr == "" && code != "" && models.IsSupportedPlatform(platform) && !h.verifyState(c, platform, state) {
		return h.redirectError(c, service.AuthCodeFailed)
	}

	conn, err := h.ps.CompleteAuth(c.UserContext(), platform, code, state, providerErr)
	if err != nil {
		var authErr *service.AuthError
		if errors.As(err, &authErr) {
			return h.redirectError(c, authErr.Code)
		}
		return h.redirectError(c, service.AuthCodeFailed)
	}

	if _, err := h.accounts.Save(c.UserContext(), conn); err != nil {
		slog.Error("unable to store connected account", "platform", platform, "error", err)
		return h.redirectError(c, service.AuthCodeFailed)
	}

	params := url.Values{}
	params.Set("auth_success", conn.Platform)
	params.Set("user_id", conn.Profile.ID)
	return c.Redirect(h.cfg.FrontendURL + "?" + params.Encode())
}

// verifyState checks the signed cookie matches the callback and that the
// state has not been used before.
func (h *PlatformHandler) verifyState(c *fiber.Ctx, platform, state string) bool {
	if state == "" {
		slog.Info("oauth callback without state", "platform", platform)
		return false
	}

	claims, err := utils.ValidateStateToken(h.cfg.SecretKey, c.Cookies(h.cfg.StateCookieName))
	if err != nil || claims.State != state || claims.Platform != platform {
		slog.Info("oauth state cookie mismatch", "platform", platform, "state", state)
		return false
	}

	issuedFor, ok, err := h.states.Consume(c.UserContext(), state)
	if err != nil {
		slog.Info(err.Error())
		return false
	}
	return ok && issuedFor == platform
}

func (h *PlatformHandler) redirectError(c *fiber.Ctx, code string) error {
	params := url.Values{}
	params.Set("error", code)
	return c.Redirect(h.cfg.FrontendURL + "?" + params.Encode())
}

func (h *PlatformHandler) ListSocialAccounts(c *fiber.Ctx) error {
	accountList, err := h.accounts.List(c.UserContext())
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch social accounts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(accountList)
}

func (h *PlatformHandler) DeleteSocialAccount(c *fiber.Ctx) error {
	accountID := c.QueryInt("id", 0)

	err := h.accounts.Delete(c.UserContext(), int64(accountID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to delete social account",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *PlatformHandler) RefreshSocialAccount(c *fiber.Ctx) error {
	accountID := c.QueryInt("id", 0)

	account, err := h.accounts.Refresh(c.UserContext(), int64(accountID))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Social account not found",
			})
		}
		slog.Info(err.Error(), "account_id", accountID)
		return upstreamError(c, err, "Unable to refresh access token")
	}

	return c.Status(fiber.StatusOK).JSON(account)
}
