package handlers

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"toolhost/internal/middleware"
	"toolhost/internal/services"
	"toolhost/internal/tools"
)

// ToolsHandler serves the tool catalog and executes tool calls
type ToolsHandler struct {
	registry *tools.Registry
	sessions *services.SessionService
}

// NewToolsHandler creates a new tools handler
func NewToolsHandler(registry *tools.Registry, sessions *services.SessionService) *ToolsHandler {
	return &ToolsHandler{
		registry: registry,
		sessions: sessions,
	}
}

// ExecuteRequest is the body of a tool call. Arguments may be a JSON object
// or a string holding JSON, as function-calling models emit them.
type ExecuteRequest struct {
	SessionID string          `json:"sessionId"`
	CallID    string          `json:"callId"`
	Arguments json.RawMessage `json:"arguments"`
}

// ListTools returns the catalog in the format named by ?format=
func (h *ToolsHandler) ListTools(c *fiber.Ctx) error {
	format, err := tools.ParseCatalogFormat(c.Query("format"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	schemas := h.registry.Schemas()
	catalog, err := tools.RenderCatalog(schemas, format)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to render tool catalog",
		})
	}

	return c.JSON(fiber.Map{
		"format": format,
		"tools":  catalog,
		"total":  len(schemas),
	})
}

// toolContext builds the narrow call context from the authenticated locals
func toolContext(c *fiber.Ctx, callID string) tools.ToolContext {
	return tools.ToolContext{
		UserID:   middleware.LocalString(c, middleware.LocalUserID),
		UserName: middleware.LocalString(c, middleware.LocalUserName),
		OrgID:    middleware.LocalString(c, middleware.LocalOrgID),
		OrgName:  middleware.LocalString(c, middleware.LocalOrgName),
		CallID:   callID,
	}
}

// unwrapArguments accepts either a JSON object or a JSON string containing one
func unwrapArguments(raw json.RawMessage) json.RawMessage {
	trimmed := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(trimmed, `"`) {
		return raw
	}
	var inner string
	if err := json.Unmarshal(raw, &inner); err != nil {
		return raw
	}
	return json.RawMessage(inner)
}

// Execute runs one tool call. With a sessionId the call runs in the session
// pipeline under the session lock; without one it runs with the narrow context.
func (h *ToolsHandler) Execute(c *fiber.Ctx) error {
	name := c.Params("name")

	var req ExecuteRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}
	}

	tc := toolContext(c, req.CallID)
	args := unwrapArguments(req.Arguments)

	var result tools.Result
	if req.SessionID == "" {
		result = h.registry.Execute(c.UserContext(), name, tc, args)
	} else {
		session, release, err := h.sessions.Acquire(req.SessionID)
		if errors.Is(err, services.ErrSessionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Session not found",
			})
		}
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to load session",
			})
		}
		pc := tools.NewPipelineContext(c.UserContext(), tc, session)
		result = h.registry.ExecutePipeline(pc, name, args)
		release()
	}

	if !result.OK() {
		c.Set("X-Tool-Outcome", result.Err.Category.String())
	} else {
		c.Set("X-Tool-Outcome", "ok")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(result.Envelope)
}
