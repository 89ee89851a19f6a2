package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"campusmart/internal/domain"
	"campusmart/internal/log"
	"campusmart/internal/repos"
	"campusmart/internal/validate"
)

// ProductInput is a seller's listing submission.
type ProductInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Class       int    `json:"class"`
	Section     string `json:"section"`
	SellerID    string `json:"sellerId"`
	SellerName  string `json:"sellerName"`
	SellerPhone string `json:"sellerPhone"`
	SellerEmail string `json:"sellerEmail"`
}

// ProductPatch carries the admin-editable fields; nil means unchanged.
type ProductPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Price       *string `json:"price"`
	Class       *int    `json:"class"`
	Section     *string `json:"section"`
}

type ProductQuery struct {
	Class    int
	Section  string
	Q        string
	Page     int
	PageSize int
}

type CatalogService struct {
	Products repos.ProductStore
	Orders   repos.OrderStore

	now func() time.Time
}

func NewCatalogService(products repos.ProductStore, orders repos.OrderStore) *CatalogService {
	return &CatalogService{Products: products, Orders: orders, now: time.Now}
}

func offset(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 12
	}
	return size, (page - 1) * size
}

// ListProducts is the storefront listing: approved, active, newest first.
func (s *CatalogService) ListProducts(ctx context.Context, q ProductQuery) ([]domain.Product, error) {
	f := repos.ProductFilter{Approval: domain.ApprovalApproved, OnlyActive: true}
	if q.Class != 0 {
		if !validate.Class(q.Class) {
			return nil, invalid("class", "must be between 6 and 12")
		}
		f.Class = q.Class
	}
	if strings.TrimSpace(q.Section) != "" {
		sec, ok := validate.Section(q.Section)
		if !ok {
			return nil, invalid("section", "is malformed")
		}
		f.Section = sec
	}
	if strings.TrimSpace(q.Q) != "" {
		term, ok := validate.Q(q.Q)
		if !ok {
			return nil, invalid("q", "contains unsupported characters")
		}
		f.Q = term
	}
	f.Limit, f.Offset = offset(q.Page, q.PageSize)
	return s.Products.ListProducts(ctx, f)
}

// GetProduct hides inactive listings from everyone but admins.
func (s *CatalogService) GetProduct(ctx context.Context, id string, admin bool) (domain.Product, error) {
	p, err := s.Products.GetProduct(ctx, id)
	if errors.Is(err, repos.ErrNotFound) || (err == nil && !admin && !p.Listed()) {
		return domain.Product{}, &NotFoundError{Kind: "product", ID: id}
	}
	return p, err
}

// SubmitProduct stores a new listing awaiting moderation.
func (s *CatalogService) SubmitProduct(ctx context.Context, in ProductInput) (domain.Product, error) {
	var p domain.Product
	var ok bool
	if p.Name, ok = validate.Name(in.Name); !ok {
		return p, invalid("name", "must be 1-60 characters")
	}
	if strings.TrimSpace(in.Description) != "" {
		if p.Description, ok = validate.Text(in.Description, 1000); !ok {
			return p, invalid("description", "must be at most 1000 characters")
		}
	}
	if p.Price, ok = validate.Price(in.Price); !ok {
		return p, invalid("price", "must be a positive amount with at most two decimals")
	}
	if !validate.Class(in.Class) {
		return p, invalid("class", "must be between 6 and 12")
	}
	p.Class = in.Class
	if p.Section, ok = validate.Section(in.Section); !ok {
		return p, invalid("section", "is required")
	}
	if strings.TrimSpace(in.SellerID) != "" {
		if p.SellerID, ok = validate.ID(in.SellerID); !ok {
			return p, invalid("sellerId", "is malformed")
		}
	}
	if p.SellerName, ok = validate.Name(in.SellerName); !ok {
		return p, invalid("sellerName", "must be 1-60 characters")
	}
	if p.SellerPhone, ok = validate.Phone(in.SellerPhone); !ok {
		return p, invalid("sellerPhone", "must be at least 10 characters of digits")
	}
	if p.SellerEmail, ok = validate.Email(in.SellerEmail); !ok {
		return p, invalid("sellerEmail", "is not a valid email address")
	}

	p.ID = uuid.NewString()
	p.IsActive = true
	p.ApprovalStatus = domain.ApprovalPending
	p.CreatedAt = domain.FormatTime(s.now())
	p.UpdatedAt = p.CreatedAt
	if err := s.Products.CreateProduct(ctx, &p); err != nil {
		return domain.Product{}, err
	}
	log.Info(nil, "product.submitted", map[string]any{"product_id": p.ID, "price": p.Price})
	return p, nil
}

func (s *CatalogService) Like(ctx context.Context, id string) (int, error) {
	return s.adjustLikes(ctx, id, 1)
}

// Unlike never takes the counter below zero.
func (s *CatalogService) Unlike(ctx context.Context, id string) (int, error) {
	return s.adjustLikes(ctx, id, -1)
}

func (s *CatalogService) adjustLikes(ctx context.Context, id string, delta int) (int, error) {
	n, err := s.Products.AdjustLikes(ctx, id, delta)
	if errors.Is(err, repos.ErrNotFound) {
		return 0, &NotFoundError{Kind: "product", ID: id}
	}
	return n, err
}

// ListForModeration shows every listing, active or not, optionally by approval status.
func (s *CatalogService) ListForModeration(ctx context.Context, status string, page, size int) ([]domain.Product, error) {
	st := domain.ApprovalStatus(status)
	switch st {
	case "", domain.ApprovalPending, domain.ApprovalApproved, domain.ApprovalRejected:
	default:
		return nil, invalid("status", "must be pending, approved or rejected")
	}
	f := repos.ProductFilter{Approval: st}
	f.Limit, f.Offset = offset(page, size)
	return s.Products.ListProducts(ctx, f)
}

func (s *CatalogService) SetApproval(ctx context.Context, id string, status domain.ApprovalStatus) error {
	if status != domain.ApprovalApproved && status != domain.ApprovalRejected {
		return invalid("status", "must be approved or rejected")
	}
	return s.productErr(id, s.Products.SetApproval(ctx, id, status, domain.FormatTime(s.now())))
}

func (s *CatalogService) SetSoldOut(ctx context.Context, id string, soldOut bool) error {
	return s.productErr(id, s.Products.SetSoldOut(ctx, id, soldOut, domain.FormatTime(s.now())))
}

// Deactivate is the only delete: orders keep pointing at the row.
func (s *CatalogService) Deactivate(ctx context.Context, id string) error {
	return s.productErr(id, s.Products.SetActive(ctx, id, false, domain.FormatTime(s.now())))
}

// UpdateProduct applies an admin edit. The price is frozen once any order references the product;
// the store re-checks it on write.
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (domain.Product, error) {
	p, err := s.GetProduct(ctx, id, true)
	if err != nil {
		return domain.Product{}, err
	}
	var ok bool
	if patch.Name != nil {
		if p.Name, ok = validate.Name(*patch.Name); !ok {
			return domain.Product{}, invalid("name", "must be 1-60 characters")
		}
	}
	if patch.Description != nil {
		p.Description = strings.TrimSpace(*patch.Description)
		if len(p.Description) > 1000 {
			return domain.Product{}, invalid("description", "must be at most 1000 characters")
		}
	}
	if patch.Class != nil {
		if !validate.Class(*patch.Class) {
			return domain.Product{}, invalid("class", "must be between 6 and 12")
		}
		p.Class = *patch.Class
	}
	if patch.Section != nil {
		if p.Section, ok = validate.Section(*patch.Section); !ok {
			return domain.Product{}, invalid("section", "is malformed")
		}
	}
	if patch.Price != nil {
		price, ok := validate.Price(*patch.Price)
		if !ok {
			return domain.Product{}, invalid("price", "must be a positive amount with at most two decimals")
		}
		if price != p.Price {
			n, err := s.Orders.CountOrdersForProduct(ctx, id)
			if err != nil {
				return domain.Product{}, err
			}
			if n > 0 {
				return domain.Product{}, invalid("price", "cannot change once the product has orders")
			}
			p.Price = price
		}
	}
	p.UpdatedAt = domain.FormatTime(s.now())
	err = s.Products.UpdateProduct(ctx, p)
	if errors.Is(err, repos.ErrPriceFrozen) {
		return domain.Product{}, invalid("price", "cannot change once the product has orders")
	}
	if err != nil {
		return domain.Product{}, s.productErr(id, err)
	}
	return p, nil
}

func (s *CatalogService) productErr(id string, err error) error {
	if errors.Is(err, repos.ErrNotFound) {
		return &NotFoundError{Kind: "product", ID: id}
	}
	return err
}
