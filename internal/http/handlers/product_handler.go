package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"campusmart/internal/log"
	"campusmart/internal/services"
	"campusmart/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

// GET /products?class=&section=&q=&page=&pageSize=
func (h *ProductHandler) List(c *fiber.Ctx) error {
	q := services.ProductQuery{Section: c.Query("section"), Q: c.Query("q")}
	if raw := strings.TrimSpace(c.Query("class")); raw != "" {
		class, ok := validate.ClassString(raw)
		if !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "class"})
			return c.Status(fiber.StatusBadRequest).JSON(errorBody{Error: "class: must be between 6 and 12", Field: "class"})
		}
		q.Class = class
	}
	q.Page, q.PageSize = validate.Page(c.Query("page"), c.Query("pageSize"))

	products, err := h.Catalog.ListProducts(c.UserContext(), q)
	if err != nil {
		return writeError(c, "product.list", err)
	}
	return c.JSON(fiber.Map{"products": products, "page": q.Page, "pageSize": q.PageSize})
}

// GET /products/:id
func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product"})
		return c.Status(fiber.StatusNotFound).JSON(errorBody{Error: "product not found"})
	}
	p, err := h.Catalog.GetProduct(c.UserContext(), id, false)
	if err != nil {
		return writeError(c, "product.detail", err)
	}
	return c.JSON(p)
}

// POST /products
func (h *ProductHandler) Submit(c *fiber.Ctx) error {
	var in services.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return badBody(c, "product.submit", err)
	}
	p, err := h.Catalog.SubmitProduct(c.UserContext(), in)
	if err != nil {
		return writeError(c, "product.submit", err)
	}
	log.Audit(c, "product.submit", map[string]any{"product_id": p.ID})
	return c.Status(fiber.StatusCreated).JSON(p)
}

// POST /products/:id/like
func (h *ProductHandler) Like(c *fiber.Ctx) error {
	return h.adjust(c, h.Catalog.Like)
}

// DELETE /products/:id/like
func (h *ProductHandler) Unlike(c *fiber.Ctx) error {
	return h.adjust(c, h.Catalog.Unlike)
}

func (h *ProductHandler) adjust(c *fiber.Ctx, op func(context.Context, string) (int, error)) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(errorBody{Error: "product not found"})
	}
	likes, err := op(c.UserContext(), id)
	if err != nil {
		return writeError(c, "product.like", err)
	}
	return c.JSON(fiber.Map{"id": id, "likes": likes})
}
