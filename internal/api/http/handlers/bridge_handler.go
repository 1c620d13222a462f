package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-bridge/internal/api/dto"
	"github.com/spec-kit/ticket-bridge/internal/bridge"
	"github.com/spec-kit/ticket-bridge/internal/config"
	"github.com/spec-kit/ticket-bridge/internal/observability"
	apperrors "github.com/spec-kit/ticket-bridge/pkg/util"
)

// BridgeHandler exposes the bridge operations to ticket-management services.
// Callers get plain success/failure plus the thread id on creation; gateway
// types never leak through this surface.
type BridgeHandler struct {
	cfg       config.GatewayConfig
	lifecycle *bridge.Lifecycle
	router    *bridge.Router
	registry  *bridge.Registry
	metrics   *observability.Metrics
}

// NewBridgeHandler constructs handler.
func NewBridgeHandler(cfg config.GatewayConfig, lifecycle *bridge.Lifecycle, router *bridge.Router, registry *bridge.Registry, metrics *observability.Metrics) *BridgeHandler {
	return &BridgeHandler{
		cfg:       cfg,
		lifecycle: lifecycle,
		router:    router,
		registry:  registry,
		metrics:   metrics,
	}
}

// CreateThread POST /bridge/tickets/:id/thread.
func (h *BridgeHandler) CreateThread(c *fiber.Ctx) error {
	var req dto.CreateThreadRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Subject == "" || req.AuthorName == "" {
		return apperrors.NewValidationError("subject, author_name required", nil)
	}

	ticketID := c.Params("id")
	result := h.lifecycle.CreateThreadForTicket(c.UserContext(), ticketID, req.Subject, req.InitialMessage, req.AuthorName)
	if !result.OK {
		return apperrors.NewBridgeUnavailable("thread could not be created")
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.CreateThreadResponse{
		TicketID: ticketID,
		ThreadID: result.ThreadID,
	}})
}

// Reply POST /bridge/tickets/:id/reply.
func (h *BridgeHandler) Reply(c *fiber.Ctx) error {
	var req dto.ReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Body == "" || req.AuthorName == "" {
		return apperrors.NewValidationError("body, author_name required", nil)
	}

	if !h.router.SendReplyToThread(c.UserContext(), c.Params("id"), req.Body, req.AuthorName, req.IsOperator) {
		return apperrors.NewBridgeUnavailable("reply could not be delivered")
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"delivered": true}})
}

// UpdateStatus PATCH /bridge/tickets/:id/status.
func (h *BridgeHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if !req.Status.Valid() {
		return apperrors.NewValidationError("status must be OPEN or CLOSED", nil)
	}
	if req.ActorName == "" {
		return apperrors.NewValidationError("actor_name required", nil)
	}

	if !h.lifecycle.UpdateThreadStatus(c.UserContext(), c.Params("id"), req.Status, req.ActorName) {
		return apperrors.NewBridgeUnavailable("status could not be relayed")
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": req.Status}})
}

// DeleteThread DELETE /bridge/tickets/:id/thread.
func (h *BridgeHandler) DeleteThread(c *fiber.Ctx) error {
	var req dto.DeleteThreadRequest
	if err := c.BodyParser(&req); err != nil {
		req.ActorName = "system"
	}
	if req.ActorName == "" {
		req.ActorName = "system"
	}

	if !h.lifecycle.DeleteTicketThread(c.UserContext(), c.Params("id"), req.ActorName) {
		return apperrors.NewBridgeUnavailable("thread could not be removed")
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": true}})
}

// Status GET /bridge/status.
func (h *BridgeHandler) Status(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": dto.BridgeStatusResponse{
		Configured:   h.cfg.Configured(),
		LiveMappings: h.registry.Len(),
		RelayedIn:    h.metrics.RelayedCount("inbound"),
		RelayedOut:   h.metrics.RelayedCount("outbound"),
	}})
}
