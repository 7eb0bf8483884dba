package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/groupcollage/api/internal/model"
	"github.com/groupcollage/api/internal/service"
	"github.com/groupcollage/api/pkg/response"
)

type OrderHandler struct {
	service   *service.RenderService
	validator *validator.Validate
}

func NewOrderHandler(svc *service.RenderService, v *validator.Validate) *OrderHandler {
	return &OrderHandler{
		service:   svc,
		validator: v,
	}
}

// Upsert handles PUT /api/orders/:orderId
// Imports or replaces the order roster pushed by the storefront.
// @Summary      Import order
// @Tags         Orders
// @Accept       json
// @Produce      json
// @Param        orderId path string true "Order ID"
// @Param        request body model.OrderUpsertRequest true "Order roster"
// @Success      200 {object} model.Order
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/orders/{orderId} [put]
func (h *OrderHandler) Upsert(c *fiber.Ctx) error {
	orderID := c.Params("orderId")
	if orderID == "" {
		return response.ValidationError(c, "Order ID is required", nil)
	}

	var req model.OrderUpsertRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	order, err := h.service.ImportOrder(c.UserContext(), orderID, &req)
	if errors.Is(err, service.ErrDuplicateMember) {
		return response.ValidationError(c, err.Error(), nil)
	}
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, order)
}
