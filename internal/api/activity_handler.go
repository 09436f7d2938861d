package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tnhan0211/serverzola/internal/auth"
	"github.com/tnhan0211/serverzola/internal/presence"
)

type ActivityHandler struct {
	presence presence.Store
}

func NewActivityHandler(store presence.Store) *ActivityHandler {
	return &ActivityHandler{presence: store}
}

// Status handles GET /api/activity/:user_id.
func (h *ActivityHandler) Status(c *fiber.Ctx) error {
	rec, err := h.presence.Get(c.Context(), c.Params("user_id"))
	if err != nil {
		return fail(c, err)
	}
	return jsonSuccess(c, fiber.StatusOK, rec)
}

// StatusBatch handles POST /api/activity/batch.
func (h *ActivityHandler) StatusBatch(c *fiber.Ctx) error {
	var body struct {
		UserIDs []string `json:"user_ids"`
	}
	if err := c.BodyParser(&body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "malformed body")
	}
	if len(body.UserIDs) == 0 || len(body.UserIDs) > 100 {
		return jsonError(c, fiber.StatusBadRequest, "user_ids must hold 1 to 100 entries")
	}
	recs, err := h.presence.GetBatch(c.Context(), body.UserIDs)
	if err != nil {
		return fail(c, err)
	}
	return jsonSuccess(c, fiber.StatusOK, recs)
}

// Heartbeat handles POST /api/activity/heartbeat; clients off the
// socket can still bump their last-active timestamp.
func (h *ActivityHandler) Heartbeat(c *fiber.Ctx) error {
	if err := h.presence.Touch(c.Context(), auth.UserID(c)); err != nil {
		return fail(c, err)
	}
	return jsonSuccess(c, fiber.StatusOK, fiber.Map{"ok": true})
}
