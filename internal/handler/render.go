package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/groupcollage/api/internal/model"
	"github.com/groupcollage/api/internal/service"
	"github.com/groupcollage/api/pkg/response"
)

type RenderHandler struct {
	service *service.RenderService
}

func NewRenderHandler(svc *service.RenderService) *RenderHandler {
	return &RenderHandler{
		service: svc,
	}
}

// Enqueue handles POST /api/orders/:orderId/render
// Starts rendering every variant of the order in the background. Repeating
// the call while a job is queued, processing or completed is a no-op unless
// force is set.
// @Summary      Enqueue render
// @Tags         Render
// @Accept       json
// @Produce      json
// @Param        orderId path string true "Order ID"
// @Param        request body model.RenderEnqueueRequest false "Render options"
// @Success      202 {object} model.RenderEnqueueResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      429 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/orders/{orderId}/render [post]
func (h *RenderHandler) Enqueue(c *fiber.Ctx) error {
	orderID := c.Params("orderId")
	if orderID == "" {
		return response.ValidationError(c, "Order ID is required", nil)
	}

	var req model.RenderEnqueueRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.ValidationError(c, "Invalid request body", nil)
		}
	}

	result, err := h.service.EnqueueRender(c.UserContext(), orderID, req.Force)
	if err != nil {
		return renderError(c, err)
	}

	return response.Accepted(c, result)
}

// Status handles GET /api/orders/:orderId/render/status
// @Summary      Get render status
// @Tags         Render
// @Produce      json
// @Param        orderId path string true "Order ID"
// @Success      200 {object} model.RenderStatusResponse
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/orders/{orderId}/render/status [get]
func (h *RenderHandler) Status(c *fiber.Ctx) error {
	orderID := c.Params("orderId")
	if orderID == "" {
		return response.ValidationError(c, "Order ID is required", nil)
	}

	result, err := h.service.GetRenderStatus(c.UserContext(), orderID)
	if err != nil {
		return renderError(c, err)
	}

	return response.OK(c, result)
}

// Variants handles GET /api/orders/:orderId/variants
// Returns square and hexagonal variants joined with their rendered image URLs.
// @Summary      List variants
// @Tags         Render
// @Produce      json
// @Param        orderId path string true "Order ID"
// @Success      200 {object} model.VariantsResponse
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/orders/{orderId}/variants [get]
func (h *RenderHandler) Variants(c *fiber.Ctx) error {
	orderID := c.Params("orderId")
	if orderID == "" {
		return response.ValidationError(c, "Order ID is required", nil)
	}

	result, err := h.service.GetVariants(c.UserContext(), orderID)
	if err != nil {
		return renderError(c, err)
	}

	return response.OK(c, result)
}

func renderError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		return response.NotFound(c, "Order not found")
	case errors.Is(err, service.ErrJobNotFound):
		return response.NotFound(c, "Render job not found")
	case errors.Is(err, service.ErrNoGridKind):
		return response.ValidationError(c, "Order has no grid kind", nil)
	default:
		return response.ServiceError(c, err.Error())
	}
}
