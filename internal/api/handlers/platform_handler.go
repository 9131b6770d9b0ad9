package handlers

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/creatorsync/configs"
	"github.com/maheshrc27/creatorsync/internal/oauthstate"
	"github.com/maheshrc27/creatorsync/internal/service"
	"github.com/maheshrc27/creatorsync/pkg/utils"
)

type PlatformHandler struct {
	is  service.IntegrationService
	ss  service.SyncService
	cfg config.Config
}

func NewPlatformHandler(is service.IntegrationService, ss service.SyncService, cfg config.Config) *PlatformHandler {
	return &PlatformHandler{
		is:  is,
		ss:  ss,
		cfg: cfg,
	}
}

// Connect starts the OAuth handshake. The browser follows the redirect, so
// the session travels in the cookie rather than a header.
func (h *PlatformHandler) Connect(c *fiber.Ctx) error {
	tokenString := c.Cookies(h.cfg.CookieName)
	claims, err := utils.ValidateToken(h.cfg.SecretKey, tokenString)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unable to validate user",
		})
	}

	userID, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unable to validate user",
		})
	}

	profileID := int64(c.QueryInt("creatorProfileId", 0))
	provider := c.Params("provider")

	if err := h.is.VerifyProfileOwnership(c.Context(), profileID, userID); err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Creator profile not found",
		})
	}

	authURL, err := h.is.RequestAuthorization(c.Context(), provider, profileID, userID)
	if err != nil {
		if errors.Is(err, service.ErrUnsupportedProvider) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unsupported provider",
			})
		}
		log.Println(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to start authorization",
		})
	}

	return c.Redirect(authURL)
}

// Callback always redirects back to the front-end with success/error query
// params; the browser never sees JSON on this path.
func (h *PlatformHandler) Callback(c *fiber.Ctx) error {
	provider := c.Params("provider")
	code := c.Query("code")
	state := c.Query("state")

	if providerErr := c.Query("error"); providerErr != "" {
		slog.Info("provider returned authorization error", "provider", provider, "error", providerErr)
		return h.redirectWithError(c, "authorization_denied")
	}

	accountID, err := h.is.CompleteConnection(c.Context(), provider, code, state)
	if err != nil {
		slog.Info("connection failed", "provider", provider, "error", err.Error())
		switch {
		case errors.Is(err, oauthstate.ErrAuthorizationExpired):
			return h.redirectWithError(c, "authorization_expired")
		case errors.Is(err, oauthstate.ErrInvalidState):
			return h.redirectWithError(c, "invalid_state")
		default:
			return h.redirectWithError(c, "connection_failed")
		}
	}

	redirectURL := fmt.Sprintf("%s/dashboard/accounts?success=true&provider=%s&account_id=%d",
		h.cfg.FrontendURL, url.QueryEscape(provider), accountID)
	return c.Redirect(redirectURL, fiber.StatusTemporaryRedirect)
}

func (h *PlatformHandler) redirectWithError(c *fiber.Ctx, code string) error {
	redirectURL := fmt.Sprintf("%s/dashboard/accounts?success=false&error=%s", h.cfg.FrontendURL, url.QueryEscape(code))
	return c.Redirect(redirectURL, fiber.StatusTemporaryRedirect)
}

type accountsRequest struct {
	CreatorProfileID int64 `json:"creator_profile_id"`
}

func (h *PlatformHandler) ListAccounts(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req accountsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := h.is.VerifyProfileOwnership(c.Context(), req.CreatorProfileID, userID); err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Creator profile not found",
		})
	}

	accounts, err := h.is.GetConnectedAccounts(c.Context(), req.CreatorProfileID)
	if err != nil {
		log.Println(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch social accounts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(accounts)
}

type syncRequest struct {
	FullSync bool `json:"full_sync"`
}

func (h *PlatformHandler) SyncAccount(c *fiber.Ctx) error {
	userID := GetUserID(c)
	accountID, err := strconv.ParseInt(c.Params("accountId"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid account id",
		})
	}

	if err := h.is.VerifyAccountOwnership(c.Context(), accountID, userID); err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Social account not found",
		})
	}

	var req syncRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	summary, err := h.ss.SyncContent(c.Context(), accountID, req.FullSync)
	if err != nil {
		if errors.Is(err, service.ErrReauthenticationRequired) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "reauthentication_required",
			})
		}
		if errors.Is(err, service.ErrAccountNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Social account not found",
			})
		}
		log.Println(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Sync failed",
		})
	}

	return c.Status(fiber.StatusOK).JSON(summary)
}

func (h *PlatformHandler) DisconnectAccount(c *fiber.Ctx) error {
	userID := GetUserID(c)
	accountID, err := strconv.ParseInt(c.Params("accountId"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid account id",
		})
	}

	if err := h.is.VerifyAccountOwnership(c.Context(), accountID, userID); err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Social account not found",
		})
	}

	if err := h.is.DisconnectAccount(c.Context(), accountID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to disconnect social account",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *PlatformHandler) Stats(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req accountsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := h.is.VerifyProfileOwnership(c.Context(), req.CreatorProfileID, userID); err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Creator profile not found",
		})
	}

	stats, err := h.is.GetCreatorStats(c.Context(), req.CreatorProfileID)
	if err != nil {
		log.Println(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch creator stats",
		})
	}

	return c.Status(fiber.StatusOK).JSON(stats)
}

func (h *PlatformHandler) Reauthenticate(c *fiber.Ctx) error {
	userID := GetUserID(c)
	accountID, err := strconv.ParseInt(c.Params("accountId"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid account id",
		})
	}

	if err := h.is.VerifyAccountOwnership(c.Context(), accountID, userID); err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Social account not found",
		})
	}

	authURL, err := h.is.Reauthenticate(c.Context(), accountID)
	if err != nil {
		log.Println(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to start reauthorization",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"authorization_url": authURL,
	})
}
