package handlers

import (
	"path/filepath"

	"github.com/gofiber/fiber/v2"

	"campusmart/internal/domain"
	applog "campusmart/internal/log"
	"campusmart/internal/services"
	"campusmart/internal/validate"
)

type AdminHandler struct {
	Orders  *services.OrderService
	Catalog *services.CatalogService
}

func paramID(c *fiber.Ctx) (string, bool) {
	return validate.ID(c.Params("id"))
}

func notFound(c *fiber.Ctx, kind string) error {
	return c.Status(fiber.StatusNotFound).JSON(errorBody{Error: kind + " not found"})
}

// GET /admin
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	status := c.Query("status")
	orders, err := h.Orders.List(c.UserContext(), status, 100)
	if err != nil {
		applog.Error(c, "admin.dashboard.fail", err, nil)
		return c.Status(fiber.StatusBadRequest).Render("notfound", fiber.Map{"Message": "Could not load orders"})
	}
	pending, err := h.Catalog.ListForModeration(c.UserContext(), string(domain.ApprovalPending), 1, 50)
	if err != nil {
		applog.Error(c, "admin.dashboard.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load listings"})
	}
	return render(c, "admin_orders", fiber.Map{
		"Orders":   orders,
		"Status":   status,
		"Pending":  pending,
		"Statuses": []domain.OrderStatus{domain.StatusPending, domain.StatusConfirmed, domain.StatusDelivered, domain.StatusCancelled},
	})
}

// GET /admin/orders?status=
func (h *AdminHandler) ListOrders(c *fiber.Ctx) error {
	orders, err := h.Orders.List(c.UserContext(), c.Query("status"), 200)
	if err != nil {
		return writeError(c, "admin.orders.list", err)
	}
	return c.JSON(orders)
}

// POST /admin/orders/:id/confirm
func (h *AdminHandler) Confirm(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return notFound(c, "order")
	}
	o, err := h.Orders.Confirm(c.UserContext(), id)
	if err != nil {
		return writeError(c, "admin.orders.confirm", err)
	}
	applog.Audit(c, "admin.orders.confirm", map[string]any{"order_id": id})
	return c.JSON(o)
}

// POST /admin/orders/:id/deliver
func (h *AdminHandler) Deliver(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return notFound(c, "order")
	}
	o, err := h.Orders.MarkDelivered(c.UserContext(), id)
	if err != nil {
		return writeError(c, "admin.orders.deliver", err)
	}
	applog.Audit(c, "admin.orders.deliver", map[string]any{"order_id": id})
	return c.JSON(o)
}

type adminCancelRequest struct {
	Reason string `json:"reason" form:"reason"`
}

// POST /admin/orders/:id/cancel
func (h *AdminHandler) Cancel(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return notFound(c, "order")
	}
	var req adminCancelRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badBody(c, "admin.orders.cancel", err)
		}
	}
	o, err := h.Orders.CancelByAdmin(c.UserContext(), id, req.Reason)
	if err != nil {
		return writeError(c, "admin.orders.cancel", err)
	}
	applog.Audit(c, "admin.orders.cancel", map[string]any{"order_id": id, "has_reason": req.Reason != ""})
	return c.JSON(o)
}

// GET /admin/orders/:id/invoice
func (h *AdminHandler) Invoice(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return notFound(c, "order")
	}
	path, _, err := h.Orders.Invoice(c.UserContext(), id)
	if err != nil {
		return writeError(c, "admin.orders.invoice", err)
	}
	applog.Audit(c, "admin.orders.invoice", map[string]any{"order_id": id})
	c.Set(fiber.HeaderContentType, "application/pdf")
	return c.Download(path, filepath.Base(path))
}

// GET /admin/products?status=&page=&pageSize=
func (h *AdminHandler) ListProducts(c *fiber.Ctx) error {
	page, size := validate.Page(c.Query("page"), c.Query("pageSize"))
	products, err := h.Catalog.ListForModeration(c.UserContext(), c.Query("status"), page, size)
	if err != nil {
		return writeError(c, "admin.products.list", err)
	}
	return c.JSON(fiber.Map{"products": products, "page": page, "pageSize": size})
}

// POST /admin/products/:id/approve
func (h *AdminHandler) Approve(c *fiber.Ctx) error {
	return h.setApproval(c, domain.ApprovalApproved)
}

// POST /admin/products/:id/reject
func (h *AdminHandler) Reject(c *fiber.Ctx) error {
	return h.setApproval(c, domain.ApprovalRejected)
}

func (h *AdminHandler) setApproval(c *fiber.Ctx, status domain.ApprovalStatus) error {
	id, ok := paramID(c)
	if !ok {
		return notFound(c, "product")
	}
	if err := h.Catalog.SetApproval(c.UserContext(), id, status); err != nil {
		return writeError(c, "admin.products.approval", err)
	}
	applog.Audit(c, "admin.products.approval", map[string]any{"product_id": id, "status": string(status)})
	return c.JSON(fiber.Map{"id": id, "approvalStatus": status})
}

type soldOutRequest struct {
	SoldOut *bool `json:"soldOut"`
}

// POST /admin/products/:id/sold-out
func (h *AdminHandler) SoldOut(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return notFound(c, "product")
	}
	var req soldOutRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, "admin.products.sold_out", err)
	}
	if req.SoldOut == nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorBody{Error: "soldOut: is required", Field: "soldOut"})
	}
	if err := h.Catalog.SetSoldOut(c.UserContext(), id, *req.SoldOut); err != nil {
		return writeError(c, "admin.products.sold_out", err)
	}
	applog.Audit(c, "admin.products.sold_out", map[string]any{"product_id": id, "sold_out": *req.SoldOut})
	return c.JSON(fiber.Map{"id": id, "isSoldOut": *req.SoldOut})
}

// PATCH /admin/products/:id
func (h *AdminHandler) UpdateProduct(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return notFound(c, "product")
	}
	var patch services.ProductPatch
	if err := c.BodyParser(&patch); err != nil {
		return badBody(c, "admin.products.update", err)
	}
	p, err := h.Catalog.UpdateProduct(c.UserContext(), id, patch)
	if err != nil {
		return writeError(c, "admin.products.update", err)
	}
	applog.Audit(c, "admin.products.update", map[string]any{"product_id": id})
	return c.JSON(p)
}

// DELETE /admin/products/:id
func (h *AdminHandler) DeleteProduct(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return notFound(c, "product")
	}
	if err := h.Catalog.Deactivate(c.UserContext(), id); err != nil {
		return writeError(c, "admin.products.delete", err)
	}
	applog.Audit(c, "admin.products.delete", map[string]any{"product_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}
