package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"campusmart/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productColumns = `
	id, name, description, price, class, section, seller_id, seller_name, seller_phone, seller_email,
	likes, is_active, is_sold_out, approval_status, created_at, COALESCE(updated_at,'') AS updated_at`

func (r *ProductRepo) CreateProduct(ctx context.Context, p *domain.Product) error {
	_, err := r.db.NamedExecContext(ctx, `
	  INSERT INTO products
	    (id, name, description, price, class, section, seller_id, seller_name, seller_phone, seller_email,
	     likes, is_active, is_sold_out, approval_status, created_at, updated_at)
	  VALUES
	    (:id, :name, :description, :price, :class, :section, :seller_id, :seller_name, :seller_phone, :seller_email,
	     :likes, :is_active, :is_sold_out, :approval_status, :created_at, :created_at)
	`, p)
	if err != nil {
		return fmt.Errorf("insert product %s: %w", p.ID, err)
	}
	return nil
}

func (r *ProductRepo) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.GetContext(ctx, &p, r.db.Rebind(`SELECT `+productColumns+` FROM products WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, ErrNotFound
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("select product %s: %w", id, err)
	}
	return p, nil
}

// likeEscaper makes a search term match literally inside LIKE.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *ProductRepo) ListProducts(ctx context.Context, f ProductFilter) ([]domain.Product, error) {
	where := `1=1`
	args := []any{}
	if f.Approval != "" {
		where += ` AND approval_status = ?`
		args = append(args, string(f.Approval))
	}
	if f.OnlyActive {
		where += ` AND is_active = TRUE`
	}
	if f.Class != 0 {
		where += ` AND class = ?`
		args = append(args, f.Class)
	}
	if f.Section != "" {
		where += ` AND LOWER(section) = ?`
		args = append(args, strings.ToLower(f.Section))
	}
	if f.Q != "" {
		where += ` AND LOWER(name) LIKE ? ESCAPE '\'`
		args = append(args, "%"+likeEscaper.Replace(strings.ToLower(f.Q))+"%")
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 12
	}
	args = append(args, limit, f.Offset)

	out := []domain.Product{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
	  SELECT `+productColumns+`
	  FROM products
	  WHERE `+where+`
	  ORDER BY created_at DESC, id
	  LIMIT ? OFFSET ?`), args...)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	return out, nil
}

// UpdateProduct writes the editable listing fields. The price only moves while
// no order references the product; otherwise nothing is written and ErrPriceFrozen is returned.
func (r *ProductRepo) UpdateProduct(ctx context.Context, p domain.Product) error {
	res, err := r.db.NamedExecContext(ctx, `
	  UPDATE products
	  SET name = :name, description = :description, price = :price, class = :class, section = :section,
	      updated_at = :updated_at
	  WHERE id = :id
	    AND (price = :price OR NOT EXISTS (SELECT 1 FROM orders WHERE product_id = :id))
	`, p)
	err = affectedOne(res, err, "update product "+p.ID)
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM products WHERE id = ?`), p.ID); err != nil {
		return fmt.Errorf("select product %s: %w", p.ID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrPriceFrozen
}

func (r *ProductRepo) AdjustLikes(ctx context.Context, id string, delta int) (int, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE products
		SET likes = CASE WHEN likes + ? < 0 THEN 0 ELSE likes + ? END
		WHERE id = ? AND is_active = TRUE
	`), delta, delta, id)
	if err := affectedOne(res, err, "adjust likes "+id); err != nil {
		return 0, err
	}
	var likes int
	err = r.db.GetContext(ctx, &likes, r.db.Rebind(`SELECT likes FROM products WHERE id = ?`), id)
	return likes, err
}

func (r *ProductRepo) SetApproval(ctx context.Context, id string, status domain.ApprovalStatus, at string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE products SET approval_status = ?, updated_at = ? WHERE id = ?`),
		string(status), at, id)
	return affectedOne(res, err, "set approval "+id)
}

func (r *ProductRepo) SetSoldOut(ctx context.Context, id string, soldOut bool, at string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE products SET is_sold_out = ?, updated_at = ? WHERE id = ?`),
		soldOut, at, id)
	return affectedOne(res, err, "set sold out "+id)
}

func (r *ProductRepo) SetActive(ctx context.Context, id string, active bool, at string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE products SET is_active = ?, updated_at = ? WHERE id = ?`),
		active, at, id)
	return affectedOne(res, err, "set active "+id)
}

func affectedOne(res sql.Result, err error, op string) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
