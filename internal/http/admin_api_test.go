package handlers_test

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusmart/internal/domain"
)

func TestAdminRoutesRequireSession(t *testing.T) {
	ta := newTestApp(t, testConfig(t))
	ta.seedProduct(t, "lab-coat", "45.00", true)
	id := ta.placeOrder(t, "lab-coat")

	tok := ta.csrfToken(t)
	anon := adminSession{csrf: tok}

	entries := captureLogs(t, func() {
		for _, req := range []struct{ method, path string }{
			{"GET", "/admin"},
			{"GET", "/admin/orders"},
			{"POST", "/admin/orders/" + id + "/confirm"},
			{"POST", "/admin/orders/" + id + "/cancel"},
			{"GET", "/admin/orders/" + id + "/invoice"},
			{"POST", "/admin/products/lab-coat/approve"},
		} {
			resp := ta.do(t, anon.sign(httptest.NewRequest(req.method, req.path, nil)))
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, req.path)
		}
	})
	_, ok := findAction(entries, "access.denied.admin")
	assert.True(t, ok)

	o, err := ta.deps.Orders.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, o.Status)
}

func TestAdminUnsafeRequestsNeedCSRF(t *testing.T) {
	ta := newTestApp(t, testConfig(t))
	ta.seedProduct(t, "lab-coat", "45.00", true)
	id := ta.placeOrder(t, "lab-coat")
	s := ta.login(t)

	noToken := adminSession{sid: s.sid}
	resp := ta.do(t, noToken.sign(httptest.NewRequest("POST", "/admin/orders/"+id+"/confirm", nil)))
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = ta.do(t, s.sign(httptest.NewRequest("POST", "/admin/orders/"+id+"/confirm", nil)))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAdminLogin(t *testing.T) {
	ta := newTestApp(t, testConfig(t))
	tok := ta.csrfToken(t)
	s := adminSession{csrf: tok}

	entries := captureLogs(t, func() {
		resp := ta.do(t, s.sign(jsonReq("POST", "/admin/login", map[string]string{"username": "warden", "password": "wrong-pass"})))
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		assert.Empty(t, cookie(resp, "sid"))
	})
	_, ok := findAction(entries, "auth.login.fail")
	assert.True(t, ok)

	s = ta.login(t)
	resp := ta.do(t, s.sign(httptest.NewRequest("GET", "/admin/session", nil)))
	var sess struct {
		Authenticated bool   `json:"authenticated"`
		Username      string `json:"username"`
	}
	decode(t, resp, &sess)
	assert.True(t, sess.Authenticated)
	assert.Equal(t, "warden", sess.Username)

	resp = ta.do(t, s.sign(httptest.NewRequest("POST", "/admin/logout", nil)))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp = ta.do(t, s.sign(httptest.NewRequest("GET", "/admin/orders", nil)))
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAdminLoginThrottled(t *testing.T) {
	ta := newTestApp(t, testConfig(t))
	s := adminSession{csrf: ta.csrfToken(t)}

	var last int
	for i := 0; i < 6; i++ {
		resp := ta.do(t, s.sign(jsonReq("POST", "/admin/login", map[string]string{"username": "warden", "password": "guess"})))
		last = resp.StatusCode
		if i < 5 {
			assert.Equal(t, fiber.StatusUnauthorized, last)
		}
	}
	assert.Equal(t, fiber.StatusTooManyRequests, last)
}

func TestAdminOrderLifecycle(t *testing.T) {
	ta := newTestApp(t, testConfig(t))
	ta.seedProduct(t, "lab-coat", "45.00", true)
	a := ta.placeOrder(t, "lab-coat")
	b := ta.placeOrder(t, "lab-coat")
	s := ta.login(t)

	var entries []logEntry
	entries = captureLogs(t, func() {
		resp := ta.do(t, s.sign(httptest.NewRequest("POST", "/admin/orders/"+a+"/deliver", nil)))
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, "pending cannot jump to delivered")

		resp = ta.do(t, s.sign(httptest.NewRequest("POST", "/admin/orders/"+a+"/confirm", nil)))
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		resp = ta.do(t, s.sign(httptest.NewRequest("POST", "/admin/orders/"+a+"/deliver", nil)))
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		var o domain.Order
		decode(t, resp, &o)
		assert.Equal(t, domain.StatusDelivered, o.Status)
		assert.NotEmpty(t, o.DeliveryConfirmedAt)

		resp = ta.do(t, s.sign(jsonReq("POST", "/admin/orders/"+a+"/cancel", map[string]string{"reason": "too late now"})))
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, "delivered is terminal")

		resp = ta.do(t, s.sign(httptest.NewRequest("POST", "/admin/orders/"+b+"/cancel", nil)))
		require.Equal(t, fiber.StatusOK, resp.StatusCode, "admin reason is optional")
		decode(t, resp, &o)
		assert.Equal(t, domain.ActorAdmin, o.CancelledBy)
	})

	e, ok := findAction(entries, "admin.orders.confirm")
	require.True(t, ok)
	assert.NotEmpty(t, e.Admin, "audit entries carry the admin id")

	resp := ta.do(t, s.sign(httptest.NewRequest("GET", "/admin/orders?status=cancelled", nil)))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var list []domain.OrderWithProduct
	decode(t, resp, &list)
	require.Len(t, list, 1)
	assert.Equal(t, b, list[0].ID)

	resp = ta.do(t, s.sign(httptest.NewRequest("GET", "/admin/orders?status=lost", nil)))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAdminInvoiceDownload(t *testing.T) {
	ta := newTestApp(t, testConfig(t))
	ta.seedProduct(t, "lab-coat", "45.00", true)
	id := ta.placeOrder(t, "lab-coat")
	s := ta.login(t)

	for i := 0; i < 2; i++ {
		resp := ta.do(t, s.sign(httptest.NewRequest("GET", "/admin/orders/"+id+"/invoice", nil)))
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
		assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")
		assert.Contains(t, resp.Header.Get("Content-Disposition"), "invoice-"+id+".pdf")
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "%PDF-", string(body[:5]))
	}

	resp := ta.do(t, s.sign(httptest.NewRequest("GET", "/admin/orders/nope/invoice", nil)))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestAdminProductModeration(t *testing.T) {
	ta := newTestApp(t, testConfig(t))
	ta.seedProduct(t, "lab-coat", "45.00", false)
	s := ta.login(t)

	resp := ta.do(t, s.sign(httptest.NewRequest("GET", "/admin/products?status=pending", nil)))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var page struct {
		Products []domain.Product `json:"products"`
	}
	decode(t, resp, &page)
	require.Len(t, page.Products, 1)

	resp = ta.do(t, s.sign(httptest.NewRequest("POST", "/admin/products/lab-coat/approve", nil)))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	ta.placeOrder(t, "lab-coat")

	resp = ta.do(t, s.sign(jsonReq("PATCH", "/admin/products/lab-coat", map[string]string{"price": "50.00"})))
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode, "price is frozen once ordered")
	var e errResp
	decode(t, resp, &e)
	assert.Equal(t, "price", e.Field)

	resp = ta.do(t, s.sign(jsonReq("PATCH", "/admin/products/lab-coat", map[string]string{"name": "White Lab Coat"})))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = ta.do(t, s.sign(jsonReq("POST", "/admin/products/lab-coat/sold-out", map[string]bool{"soldOut": true})))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp = ta.do(t, jsonReq("POST", "/orders", orderBody("lab-coat", "45.00")))
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	decode(t, resp, &e)
	assert.Equal(t, "productId", e.Field)

	resp = ta.do(t, s.sign(jsonReq("POST", "/admin/products/lab-coat/sold-out", map[string]string{})))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = ta.do(t, s.sign(httptest.NewRequest("DELETE", "/admin/products/lab-coat", nil)))
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	resp = ta.do(t, httptest.NewRequest("GET", "/products/lab-coat", nil))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	// the order still resolves its product after the soft delete
	resp = ta.do(t, httptest.NewRequest("GET", "/customers/buyer-7/orders", nil))
	var list []domain.OrderWithProduct
	decode(t, resp, &list)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Product)
	assert.Equal(t, "White Lab Coat", list[0].Product.Name)
}

func TestAdminDashboard(t *testing.T) {
	ta := newTestApp(t, testConfig(t))
	ta.seedProduct(t, "lab-coat", "45.00", true)
	ta.placeOrder(t, "lab-coat")
	s := ta.login(t)

	resp := ta.do(t, s.sign(httptest.NewRequest("GET", "/admin", nil)))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	html := string(body)
	assert.Contains(t, html, "Chemistry Lab Coat")
	assert.Contains(t, html, "Signed in as warden")
	assert.Contains(t, html, s.csrf)
}
