package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusmart/internal/domain"
	"campusmart/internal/repos"
	"campusmart/internal/services"
)

func listing(name, price string) services.ProductInput {
	return services.ProductInput{
		Name: name, Price: price, Class: 8, Section: "A",
		SellerName: "Ira", SellerPhone: "9876501234", SellerEmail: "ira@school.edu",
	}
}

func TestSubmitProduct_PendingAndCanonicalPrice(t *testing.T) {
	store := repos.NewMemoryStore()
	svc := services.NewCatalogService(store, store)

	p, err := svc.SubmitProduct(context.Background(), listing("Geometry Box", "80.5"))
	require.NoError(t, err)
	assert.Equal(t, "80.50", p.Price)
	assert.Equal(t, domain.ApprovalPending, p.ApprovalStatus)
	assert.True(t, p.IsActive)

	// hidden from the storefront until approved
	_, err = svc.GetProduct(context.Background(), p.ID, false)
	var nf *services.NotFoundError
	require.ErrorAs(t, err, &nf)
	listed, err := svc.ListProducts(context.Background(), services.ProductQuery{})
	require.NoError(t, err)
	assert.Empty(t, listed)

	require.NoError(t, svc.SetApproval(context.Background(), p.ID, domain.ApprovalApproved))
	listed, err = svc.ListProducts(context.Background(), services.ProductQuery{Q: "geometry"})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, p.ID, listed[0].ID)
}

func TestSubmitProduct_Validation(t *testing.T) {
	svc := services.NewCatalogService(repos.NewMemoryStore(), repos.NewMemoryStore())
	cases := map[string]services.ProductInput{
		"price": listing("Atlas", "0"),
		"name":  listing("", "10"),
	}
	bad := listing("Atlas", "12.345")
	cases["price-precision"] = bad
	noClass := listing("Atlas", "10")
	noClass.Class = 5
	cases["class"] = noClass

	for name, in := range cases {
		_, err := svc.SubmitProduct(context.Background(), in)
		var ve *services.ValidationError
		assert.ErrorAs(t, err, &ve, name)
	}
}

func TestLikes_FloorAtZero(t *testing.T) {
	store := repos.NewMemoryStore()
	svc := services.NewCatalogService(store, store)
	p, err := svc.SubmitProduct(context.Background(), listing("Calculator", "300"))
	require.NoError(t, err)

	n, err := svc.Unlike(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	n, _ = svc.Like(context.Background(), p.ID)
	n, _ = svc.Like(context.Background(), p.ID)
	assert.Equal(t, 2, n)

	_, err = svc.Like(context.Background(), "missing")
	var nf *services.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestUpdateProduct_PriceFrozenOnceOrdered(t *testing.T) {
	store := repos.NewMemoryStore()
	catalog := services.NewCatalogService(store, store)
	orders := services.NewOrderService(store, store, nil, nil, nil, 0)
	ctx := context.Background()

	p, err := catalog.SubmitProduct(ctx, listing("Lab Coat", "45"))
	require.NoError(t, err)
	require.NoError(t, catalog.SetApproval(ctx, p.ID, domain.ApprovalApproved))

	price := "50.00"
	updated, err := catalog.UpdateProduct(ctx, p.ID, services.ProductPatch{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "50.00", updated.Price)

	_, err = orders.Place(ctx, submission(p.ID, "50"))
	require.NoError(t, err)
	orders.Wait()

	price = "55.00"
	_, err = catalog.UpdateProduct(ctx, p.ID, services.ProductPatch{Price: &price})
	var ve *services.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "price", ve.Field)

	name := "White Lab Coat"
	updated, err = catalog.UpdateProduct(ctx, p.ID, services.ProductPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "White Lab Coat", updated.Name)
	assert.Equal(t, "50.00", updated.Price)
}

// orderMidEdit places an order after the catalog's order count has been read.
type orderMidEdit struct {
	*repos.MemoryStore
	place func()
}

func (s orderMidEdit) CountOrdersForProduct(ctx context.Context, productID string) (int, error) {
	n, err := s.MemoryStore.CountOrdersForProduct(ctx, productID)
	s.place()
	return n, err
}

func TestUpdateProduct_OrderPlacedDuringEditKeepsPrice(t *testing.T) {
	store := repos.NewMemoryStore()
	orders := services.NewOrderService(store, store, nil, nil, nil, 0)
	ctx := context.Background()

	seed := services.NewCatalogService(store, store)
	p, err := seed.SubmitProduct(ctx, listing("Lab Coat", "45"))
	require.NoError(t, err)
	require.NoError(t, seed.SetApproval(ctx, p.ID, domain.ApprovalApproved))

	var placed domain.Order
	catalog := services.NewCatalogService(store, orderMidEdit{store, func() {
		var perr error
		placed, perr = orders.Place(ctx, submission(p.ID, "45.00"))
		require.NoError(t, perr)
	}})

	price := "50.00"
	_, err = catalog.UpdateProduct(ctx, p.ID, services.ProductPatch{Price: &price})
	var ve *services.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "price", ve.Field)
	orders.Wait()

	got, err := seed.GetProduct(ctx, p.ID, true)
	require.NoError(t, err)
	assert.Equal(t, "45.00", got.Price)
	assert.Equal(t, got.Price, placed.Amount)
}

func TestModeration_DeactivateAndSoldOut(t *testing.T) {
	store := repos.NewMemoryStore()
	svc := services.NewCatalogService(store, store)
	ctx := context.Background()
	p, err := svc.SubmitProduct(ctx, listing("Tennis Racket", "700"))
	require.NoError(t, err)

	pending, err := svc.ListForModeration(ctx, "pending", 1, 12)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
	_, err = svc.ListForModeration(ctx, "archived", 1, 12)
	var ve *services.ValidationError
	assert.ErrorAs(t, err, &ve)

	require.NoError(t, svc.SetApproval(ctx, p.ID, domain.ApprovalApproved))
	require.NoError(t, svc.SetSoldOut(ctx, p.ID, true))
	got, err := svc.GetProduct(ctx, p.ID, false)
	require.NoError(t, err)
	assert.True(t, got.IsSoldOut)

	require.NoError(t, svc.Deactivate(ctx, p.ID))
	_, err = svc.GetProduct(ctx, p.ID, false)
	var nf *services.NotFoundError
	assert.ErrorAs(t, err, &nf)
	got, err = svc.GetProduct(ctx, p.ID, true)
	require.NoError(t, err, "admins still see deactivated listings")
	assert.False(t, got.IsActive)

	assert.ErrorAs(t, svc.Deactivate(ctx, "missing"), &nf)
	assert.ErrorAs(t, svc.SetApproval(ctx, p.ID, domain.ApprovalPending), &ve)
}
