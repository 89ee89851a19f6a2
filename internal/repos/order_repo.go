package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"campusmart/internal/domain"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

const orderColumns = `
	id, product_id, buyer_name, buyer_class, buyer_section, buyer_email, buyer_phone,
	COALESCE(buyer_id,'') AS buyer_id, pickup_location, pickup_time, amount, status,
	COALESCE(cancelled_by,'') AS cancelled_by, COALESCE(cancellation_reason,'') AS cancellation_reason,
	COALESCE(delivery_confirmed_at,'') AS delivery_confirmed_at, invoice_generated,
	created_at, COALESCE(updated_at,'') AS updated_at`

// CreateOrder inserts a new order row as given; the caller sets id, status and timestamps.
func (r *OrderRepo) CreateOrder(ctx context.Context, o *domain.Order) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
	  INSERT INTO orders
	    (id, product_id, buyer_name, buyer_class, buyer_section, buyer_email, buyer_phone, buyer_id,
	     pickup_location, pickup_time, amount, status, invoice_generated, created_at, updated_at)
	  VALUES
	    (?, ?, ?, ?, ?, ?, ?, NULLIF(?,''), ?, ?, ?, ?, FALSE, ?, ?)
	`), o.ID, o.ProductID, o.BuyerName, o.BuyerClass, o.BuyerSection, o.BuyerEmail, o.BuyerPhone, o.BuyerID,
		o.PickupLocation, o.PickupTime, o.Amount, string(o.Status), o.CreatedAt, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order %s: %w", o.ID, err)
	}
	o.UpdatedAt = o.CreatedAt
	return nil
}

func (r *OrderRepo) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	var o domain.Order
	err := r.db.GetContext(ctx, &o, r.db.Rebind(`SELECT `+orderColumns+` FROM orders WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, ErrNotFound
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("select order %s: %w", id, err)
	}
	return o, nil
}

// ListOrdersByBuyer returns orders tied to a buyer correlation id, newest first.
func (r *OrderRepo) ListOrdersByBuyer(ctx context.Context, buyerID string) ([]domain.Order, error) {
	out := []domain.Order{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
		SELECT `+orderColumns+`
		FROM orders
		WHERE buyer_id = ?
		ORDER BY created_at DESC, id
	`), buyerID)
	if err != nil {
		return nil, fmt.Errorf("select orders for buyer: %w", err)
	}
	return out, nil
}

func (r *OrderRepo) ListOrders(ctx context.Context, status domain.OrderStatus, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	where := `1=1`
	args := []any{}
	if status != "" {
		where += ` AND status = ?`
		args = append(args, string(status))
	}
	args = append(args, limit)

	out := []domain.Order{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
		SELECT `+orderColumns+`
		FROM orders
		WHERE `+where+`
		ORDER BY created_at DESC, id
		LIMIT ?
	`), args...)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	return out, nil
}

func (r *OrderRepo) CountOrdersForProduct(ctx context.Context, productID string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM orders WHERE product_id = ?`), productID)
	return n, err
}

// UpdateOrderStatus is a compare-and-swap on status, like the conditional
// decrement the storefront used for stock: zero affected rows means the guard failed.
func (r *OrderRepo) UpdateOrderStatus(ctx context.Context, id string, ch domain.StatusChange) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE orders
		SET status = ?,
		    cancelled_by = NULLIF(?,''),
		    cancellation_reason = NULLIF(?,''),
		    delivery_confirmed_at = COALESCE(NULLIF(?,''), delivery_confirmed_at),
		    updated_at = ?
		WHERE id = ? AND status = ?
	`), string(ch.To), string(ch.CancelledBy), ch.CancellationReason, ch.DeliveryConfirmedAt, ch.At, id, string(ch.From))
	if err != nil {
		return fmt.Errorf("update order %s status: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	var exists int
	err = r.db.GetContext(ctx, &exists, r.db.Rebind(`SELECT COUNT(*) FROM orders WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("recheck order %s: %w", id, err)
	}
	if exists == 0 {
		return ErrNotFound
	}
	return ErrConflict
}

func (r *OrderRepo) MarkInvoiceGenerated(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE orders SET invoice_generated = TRUE WHERE id = ? AND invoice_generated = FALSE
	`), id)
	if err != nil {
		return false, fmt.Errorf("mark invoice %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
