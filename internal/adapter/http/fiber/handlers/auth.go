package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sokowatt/sokowatt-web/internal/adapter/http/fiber/middleware"
	"github.com/sokowatt/sokowatt-web/internal/domain"
	"github.com/sokowatt/sokowatt-web/internal/ports"
	"github.com/sokowatt/sokowatt-web/internal/service/purchase"
	"github.com/sokowatt/sokowatt-web/internal/session"
)

type AuthHandler struct {
	api      ports.MarketAPI
	sessions *session.Manager
	flows    *purchase.Registry
	toaster  ports.Toaster
	log      *zap.Logger
}

func NewAuthHandler(api ports.MarketAPI, sessions *session.Manager, flows *purchase.Registry, toaster ports.Toaster, log *zap.Logger) *AuthHandler {
	return &AuthHandler{api: api, sessions: sessions, flows: flows, toaster: toaster, log: log}
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	if middleware.SessionFrom(c) != nil {
		return c.Redirect("/", fiber.StatusSeeOther)
	}
	return c.Render("login", baseBinding(c, h.toaster, fiber.Map{
		"Next": c.Query("next", "/"),
	}))
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	email := c.FormValue("email")
	password := c.FormValue("password")
	next := c.FormValue("next", "/")

	if email == "" || password == "" {
		return h.loginError(c, email, next, "Email and password are required")
	}

	sess, err := h.api.Login(c.Context(), email, password)
	if err != nil {
		h.log.Warn("Login failed", zap.String("email", email), zap.Error(err))
		return h.loginError(c, email, next, err.Error())
	}

	if err := h.sessions.Establish(c.Context(), middleware.SIDFrom(c), *sess); err != nil {
		h.log.Error("Failed to establish session", zap.Error(err))
		return h.loginError(c, email, next, "Something went wrong, please try again")
	}

	h.toaster.Show("Welcome back, "+sess.User.Name, domain.ToastSuccess)
	return c.Redirect(next, fiber.StatusSeeOther)
}

func (h *AuthHandler) loginError(c *fiber.Ctx, email, next, message string) error {
	return c.Status(fiber.StatusUnauthorized).Render("login", baseBinding(c, h.toaster, fiber.Map{
		"Error": message,
		"Email": email,
		"Next":  next,
	}))
}

func (h *AuthHandler) RegisterForm(c *fiber.Ctx) error {
	if middleware.SessionFrom(c) != nil {
		return c.Redirect("/", fiber.StatusSeeOther)
	}
	return c.Render("register", baseBinding(c, h.toaster, nil))
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	reg := domain.Registration{
		Email:    c.FormValue("email"),
		Name:     c.FormValue("name"),
		Password: c.FormValue("password"),
		Role:     domain.UserRole(c.FormValue("role", string(domain.UserRoleConsumer))),
		Location: c.FormValue("location"),
	}

	// The only client-side password rule: confirmation must match.
	if reg.Password != c.FormValue("password_confirmation") {
		return h.registerError(c, reg, "Passwords do not match")
	}
	if reg.Email == "" || reg.Name == "" || reg.Password == "" {
		return h.registerError(c, reg, "Name, email and password are required")
	}

	sess, err := h.api.Register(c.Context(), reg)
	if err != nil {
		h.log.Warn("Registration failed", zap.String("email", reg.Email), zap.Error(err))
		return h.registerError(c, reg, err.Error())
	}

	if err := h.sessions.Establish(c.Context(), middleware.SIDFrom(c), *sess); err != nil {
		h.log.Error("Failed to establish session", zap.Error(err))
		return h.registerError(c, reg, "Something went wrong, please try again")
	}

	h.toaster.Show("Karibu SokoWatt, "+sess.User.Name, domain.ToastSuccess)
	return c.Redirect("/", fiber.StatusSeeOther)
}

func (h *AuthHandler) registerError(c *fiber.Ctx, reg domain.Registration, message string) error {
	return c.Status(fiber.StatusUnprocessableEntity).Render("register", baseBinding(c, h.toaster, fiber.Map{
		"Error":    message,
		"Name":     reg.Name,
		"Email":    reg.Email,
		"Role":     string(reg.Role),
		"Location": reg.Location,
	}))
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := middleware.SIDFrom(c)
	h.sessions.Terminate(c.Context(), sid)
	h.flows.Drop(sid)
	return c.Redirect("/", fiber.StatusSeeOther)
}
