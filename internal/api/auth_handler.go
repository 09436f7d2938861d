package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tnhan0211/serverzola/internal/identity"
)

type AuthHandler struct {
	svc *identity.Service
}

func NewAuthHandler(svc *identity.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var in identity.RegisterInput
	if err := c.BodyParser(&in); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "malformed body")
	}
	u, err := h.svc.Register(c.Context(), in)
	if err != nil {
		return fail(c, err)
	}
	return jsonSuccess(c, fiber.StatusCreated, u)
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "malformed body")
	}
	u, token, err := h.svc.Login(c.Context(), body.Email, body.Password)
	if err != nil {
		return fail(c, err)
	}
	return jsonSuccess(c, fiber.StatusOK, fiber.Map{"token": token, "user": u})
}
