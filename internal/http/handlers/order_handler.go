package handlers

import (
	"github.com/gofiber/fiber/v2"

	"campusmart/internal/log"
	"campusmart/internal/services"
	"campusmart/internal/validate"
)

type OrderHandler struct {
	Orders *services.OrderService
}

// POST /orders
func (h *OrderHandler) Place(c *fiber.Ctx) error {
	var in services.OrderSubmission
	if err := c.BodyParser(&in); err != nil {
		return badBody(c, "order.place", err)
	}
	o, err := h.Orders.Place(c.UserContext(), in)
	if err != nil {
		return writeError(c, "order.place", err)
	}
	log.Audit(c, "order.place", map[string]any{"order_id": o.ID, "product_id": o.ProductID, "amount": o.Amount})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"orderId": o.ID, "order": o})
}

// GET /customers/:buyerId/orders
func (h *OrderHandler) ListForBuyer(c *fiber.Ctx) error {
	orders, err := h.Orders.ListForBuyer(c.UserContext(), c.Params("buyerId"))
	if err != nil {
		return writeError(c, "order.list_buyer", err)
	}
	return c.JSON(orders)
}

type buyerCancelRequest struct {
	Reason  string `json:"reason" form:"reason"`
	BuyerID string `json:"buyerId" form:"buyerId"`
}

// POST /customers/orders/:id/cancel
func (h *OrderHandler) CancelByBuyer(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(errorBody{Error: "order not found"})
	}
	var req buyerCancelRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, "order.cancel_buyer", err)
	}
	o, err := h.Orders.CancelByBuyer(c.UserContext(), id, req.BuyerID, req.Reason)
	if err != nil {
		return writeError(c, "order.cancel_buyer", err)
	}
	log.Audit(c, "order.cancel_buyer", map[string]any{"order_id": o.ID})
	return c.JSON(o)
}
