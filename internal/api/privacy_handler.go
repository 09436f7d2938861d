package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tnhan0211/serverzola/internal/auth"
	"github.com/tnhan0211/serverzola/internal/models"
	"github.com/tnhan0211/serverzola/internal/privacy"
)

type PrivacyHandler struct {
	svc *privacy.Service
}

func NewPrivacyHandler(svc *privacy.Service) *PrivacyHandler {
	return &PrivacyHandler{svc: svc}
}

// GetSettings handles GET /api/privacy.
func (h *PrivacyHandler) GetSettings(c *fiber.Ctx) error {
	settings, err := h.svc.GetSettings(c.Context(), auth.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	return jsonSuccess(c, fiber.StatusOK, settings)
}

// UpdateSettings handles PATCH /api/privacy. Absent fields are left
// untouched.
func (h *PrivacyHandler) UpdateSettings(c *fiber.Ctx) error {
	var body struct {
		AllowMessagesFrom models.MessagePolicy `json:"allow_messages_from"`
		ReadReceipts      *bool                `json:"read_receipts"`
	}
	if err := c.BodyParser(&body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "malformed body")
	}
	uid := auth.UserID(c)
	if err := h.svc.UpdateSettings(c.Context(), uid, body.AllowMessagesFrom, body.ReadReceipts); err != nil {
		return fail(c, err)
	}
	settings, err := h.svc.GetSettings(c.Context(), uid)
	if err != nil {
		return fail(c, err)
	}
	return jsonSuccess(c, fiber.StatusOK, settings)
}

// Block handles POST /api/privacy/block/:user_id.
func (h *PrivacyHandler) Block(c *fiber.Ctx) error {
	if err := h.svc.Block(c.Context(), auth.UserID(c), c.Params("user_id")); err != nil {
		return fail(c, err)
	}
	return jsonSuccess(c, fiber.StatusOK, fiber.Map{"blocked": true})
}

// Unblock handles DELETE /api/privacy/block/:user_id.
func (h *PrivacyHandler) Unblock(c *fiber.Ctx) error {
	if err := h.svc.Unblock(c.Context(), auth.UserID(c), c.Params("user_id")); err != nil {
		return fail(c, err)
	}
	return jsonSuccess(c, fiber.StatusOK, fiber.Map{"blocked": false})
}

// BlockedUsers handles GET /api/privacy/blocked.
func (h *PrivacyHandler) BlockedUsers(c *fiber.Ctx) error {
	users, err := h.svc.BlockedUsers(c.Context(), auth.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	return jsonSuccess(c, fiber.StatusOK, users)
}
