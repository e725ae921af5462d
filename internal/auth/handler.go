package auth

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/fieldnotes/sightings/internal/apperr"
	"github.com/fieldnotes/sightings/internal/identity"
)

// Handler exposes account and credential endpoints.
type Handler struct {
	ids    *identity.Service
	tokens *TokenService
	resets *ResetService
}

// NewHandler constructs the auth HTTP handler.
func NewHandler(ids *identity.Service, tokens *TokenService, resets *ResetService) *Handler {
	return &Handler{ids: ids, tokens: tokens, resets: resets}
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Register creates a new member account.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Email == "" || req.Name == "" {
		return fiber.NewError(http.StatusBadRequest, "email and name are required")
	}
	if err := identity.ValidatePassword(req.Password); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	user, err := h.ids.Register(c.UserContext(), identity.RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"user_code": user.UserCode,
		"email":     user.Email,
		"name":      user.Name,
		"role":      user.Role,
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login verifies credentials and returns a bearer token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	user, err := h.ids.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	token, err := h.tokens.Issue(user)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"token": token})
}

// Renew re-issues the presented token with a fresh validity window.
func (h *Handler) Renew(c *fiber.Ctx) error {
	token, ok := BearerToken(c)
	if !ok {
		return apperr.MissingCredential("missing bearer token")
	}
	fresh, err := h.tokens.Renew(token)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"token": fresh})
}

type resetRequest struct {
	Email string `json:"email"`
}

// ResetPassword starts the recovery flow. The response is identical whether
// or not the email belongs to an account.
func (h *Handler) ResetPassword(c *fiber.Ctx) error {
	var req resetRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Email == "" {
		return fiber.NewError(http.StatusBadRequest, "email is required")
	}
	if err := h.resets.Initiate(c.UserContext(), req.Email); err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": "if the address is registered, a reset link has been sent",
	})
}

type setPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// SetPassword redeems a reset envelope and stores the new password.
func (h *Handler) SetPassword(c *fiber.Ctx) error {
	var req setPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Token == "" {
		return fiber.NewError(http.StatusBadRequest, "token is required")
	}
	if err := identity.ValidatePassword(req.Password); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.resets.Redeem(c.UserContext(), req.Token, req.Password); err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "password updated"})
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(c *fiber.Ctx) (string, bool) {
	authz := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(authz[len("Bearer "):])
	if token == "" {
		return "", false
	}
	return token, true
}
