package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"toolhost/internal/memory"
	"toolhost/internal/middleware"
	"toolhost/internal/services"
)

// SessionHandler manages working-memory session lifecycles
type SessionHandler struct {
	sessions *services.SessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *services.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// CreateSessionRequest optionally carries a caller-chosen session id
type CreateSessionRequest struct {
	ID string `json:"id"`
}

// SwitchBranchRequest names the branch to switch to; blank means the default branch
type SwitchBranchRequest struct {
	Branch string `json:"branch"`
}

func sessionError(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrSessionNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": err.Error(),
	})
}

// Create starts a new session for the authenticated user
func (h *SessionHandler) Create(c *fiber.Ctx) error {
	var req CreateSessionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}
	}

	session, err := h.sessions.Create(req.ID,
		middleware.LocalString(c, middleware.LocalUserID),
		middleware.LocalString(c, middleware.LocalOrgID))
	if err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(session)
}

// Get returns the full working memory of a session
func (h *SessionHandler) Get(c *fiber.Ctx) error {
	var body []byte
	err := h.sessions.Snapshot(c.Params("id"), func(s *memory.Session) error {
		var marshalErr error
		body, marshalErr = c.App().Config().JSONEncoder(s)
		return marshalErr
	})
	if err != nil {
		return sessionError(c, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}

// Delete drops a session and its working memory
func (h *SessionHandler) Delete(c *fiber.Ctx) error {
	if err := h.sessions.Delete(c.Params("id")); err != nil {
		return sessionError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SwitchBranch points the session at another fact branch
func (h *SessionHandler) SwitchBranch(c *fiber.Ctx) error {
	var req SwitchBranchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	branch, err := h.sessions.SwitchBranch(c.Params("id"), req.Branch)
	if err != nil {
		return sessionError(c, err)
	}

	return c.JSON(fiber.Map{
		"id":            c.Params("id"),
		"currentBranch": branch,
	})
}
