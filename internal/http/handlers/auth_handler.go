package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"campusmart/internal/log"
	"campusmart/internal/services"
)

type AuthHandler struct {
	Auth         *services.AuthService
	CookieSecure bool
}

func (h *AuthHandler) setSID(c *fiber.Ctx, sid string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     "sid",
		Value:    sid,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   h.CookieSecure,
		Expires:  expires,
	})
}

// GET /admin/session reports the login state and hands out the CSRF token
// that every unsafe /admin request must echo in X-CSRF-Token.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	tok, _ := c.Locals("csrf").(string)
	out := fiber.Map{"csrfToken": tok, "authenticated": false}
	if a, err := h.Auth.CurrentAdmin(c.UserContext(), c.Cookies("sid")); err == nil && a != nil {
		out["authenticated"] = true
		out["username"] = a.Username
	}
	return c.JSON(out)
}

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// POST /admin/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, "auth.login", err)
	}
	if req.Username == "" || len(req.Password) > 256 {
		log.Security(c, "auth.login.fail", map[string]any{"reason": "bad_format"})
		return c.Status(fiber.StatusUnauthorized).JSON(errorBody{Error: services.ErrBadCreds.Error()})
	}

	// rotate the sid on every login
	sid := uuid.NewString()
	a, err := h.Auth.Login(c.UserContext(), sid, req.Username, req.Password)
	if err != nil {
		log.Security(c, "auth.login.fail", map[string]any{"username": req.Username})
		return writeError(c, "auth.login", err)
	}
	h.setSID(c, sid, time.Time{})
	c.Locals("adminID", a.ID)
	log.Audit(c, "auth.login.success", map[string]any{"username": a.Username})
	return c.JSON(fiber.Map{"username": a.Username})
}

// POST /admin/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := c.Cookies("sid")
	if sid != "" {
		if err := h.Auth.Logout(c.UserContext(), sid); err != nil {
			return writeError(c, "auth.logout", err)
		}
	}
	h.setSID(c, "", time.Now().Add(-time.Hour))
	log.Audit(c, "auth.logout", nil)
	return c.JSON(fiber.Map{"ok": true})
}
