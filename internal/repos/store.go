package repos

import (
	"context"

	"campusmart/internal/domain"
)

// OrderStore persists orders. Orders are never deleted.
type OrderStore interface {
	CreateOrder(ctx context.Context, o *domain.Order) error
	GetOrder(ctx context.Context, id string) (domain.Order, error)
	ListOrdersByBuyer(ctx context.Context, buyerID string) ([]domain.Order, error)
	ListOrders(ctx context.Context, status domain.OrderStatus, limit int) ([]domain.Order, error)
	CountOrdersForProduct(ctx context.Context, productID string) (int, error)
	// UpdateOrderStatus applies ch only while the stored status still equals ch.From.
	// It returns ErrConflict when the status moved and ErrNotFound when the order is missing.
	UpdateOrderStatus(ctx context.Context, id string, ch domain.StatusChange) error
	// MarkInvoiceGenerated flips the flag once; it reports whether this call flipped it.
	MarkInvoiceGenerated(ctx context.Context, id string) (bool, error)
}

type ProductStore interface {
	CreateProduct(ctx context.Context, p *domain.Product) error
	GetProduct(ctx context.Context, id string) (domain.Product, error)
	ListProducts(ctx context.Context, f ProductFilter) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, p domain.Product) error
	// AdjustLikes adds delta to the counter, flooring at zero, and returns the new value.
	AdjustLikes(ctx context.Context, id string, delta int) (int, error)
	SetApproval(ctx context.Context, id string, status domain.ApprovalStatus, at string) error
	SetSoldOut(ctx context.Context, id string, soldOut bool, at string) error
	SetActive(ctx context.Context, id string, active bool, at string) error
}

type ProductFilter struct {
	Approval   domain.ApprovalStatus // empty matches any
	OnlyActive bool
	Class      int    // 0 matches any
	Section    string // empty matches any
	Q          string // case-insensitive substring of name
	Limit      int
	Offset     int
}
