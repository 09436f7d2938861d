package api

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tnhan0211/serverzola/internal/auth"
	"github.com/tnhan0211/serverzola/internal/notify"
)

type NotifyHandler struct {
	emitter *notify.Emitter
}

func NewNotifyHandler(emitter *notify.Emitter) *NotifyHandler {
	return &NotifyHandler{emitter: emitter}
}

// List handles GET /api/notifications?limit=20&before=RFC3339.
func (h *NotifyHandler) List(c *fiber.Ctx) error {
	limit, _ := strconv.ParseInt(c.Query("limit"), 10, 64)
	var before time.Time
	if raw := c.Query("before"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return jsonError(c, fiber.StatusBadRequest, "before must be RFC3339")
		}
		before = t
	}
	items, err := h.emitter.List(c.Context(), auth.UserID(c), limit, before)
	if err != nil {
		return fail(c, err)
	}
	return jsonSuccess(c, fiber.StatusOK, items)
}

// MarkRead handles POST /api/notifications/read.
func (h *NotifyHandler) MarkRead(c *fiber.Ctx) error {
	var body struct {
		IDs []string `json:"ids"`
	}
	if err := c.BodyParser(&body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "malformed body")
	}
	if err := h.emitter.MarkRead(c.Context(), auth.UserID(c), body.IDs); err != nil {
		return fail(c, err)
	}
	return jsonSuccess(c, fiber.StatusOK, fiber.Map{"read": len(body.IDs)})
}

// Delete handles DELETE /api/notifications/:id.
func (h *NotifyHandler) Delete(c *fiber.Ctx) error {
	if err := h.emitter.Delete(c.Context(), auth.UserID(c), c.Params("id")); err != nil {
		return fail(c, err)
	}
	return jsonSuccess(c, fiber.StatusOK, fiber.Map{"deleted": true})
}
