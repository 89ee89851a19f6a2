package repos

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"campusmart/internal/domain"
)

// MemoryStore keeps orders and products in process memory. It implements
// OrderStore and ProductStore with the same guards as the SQL repos.
type MemoryStore struct {
	mu       sync.Mutex
	orders   map[string]domain.Order
	products map[string]domain.Product
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders:   map[string]domain.Order{},
		products: map[string]domain.Product{},
	}
}

var (
	_ OrderStore   = (*MemoryStore)(nil)
	_ ProductStore = (*MemoryStore)(nil)
	_ OrderStore   = (*OrderRepo)(nil)
	_ ProductStore = (*ProductRepo)(nil)
)

func (m *MemoryStore) CreateOrder(_ context.Context, o *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.orders[o.ID]; dup {
		return fmt.Errorf("insert order %s: duplicate id", o.ID)
	}
	if _, ok := m.products[o.ProductID]; !ok {
		return fmt.Errorf("insert order %s: unknown product %s", o.ID, o.ProductID)
	}
	o.UpdatedAt = o.CreatedAt
	m.orders[o.ID] = *o
	return nil
}

func (m *MemoryStore) GetOrder(_ context.Context, id string) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return domain.Order{}, ErrNotFound
	}
	return o, nil
}

func (m *MemoryStore) ListOrdersByBuyer(_ context.Context, buyerID string) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Order{}
	for _, o := range m.orders {
		if buyerID != "" && o.BuyerID == buyerID {
			out = append(out, o)
		}
	}
	m.newestFirst(out)
	return out, nil
}

func (m *MemoryStore) ListOrders(_ context.Context, status domain.OrderStatus, limit int) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 100
	}
	out := []domain.Order{}
	for _, o := range m.orders {
		if status == "" || o.Status == status {
			out = append(out, o)
		}
	}
	m.newestFirst(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) newestFirst(out []domain.Order) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
}

func (m *MemoryStore) CountOrdersForProduct(_ context.Context, productID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countOrders(productID), nil
}

// countOrders expects m.mu held.
func (m *MemoryStore) countOrders(productID string) int {
	n := 0
	for _, o := range m.orders {
		if o.ProductID == productID {
			n++
		}
	}
	return n
}

func (m *MemoryStore) UpdateOrderStatus(_ context.Context, id string, ch domain.StatusChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return ErrNotFound
	}
	if o.Status != ch.From {
		return ErrConflict
	}
	o.Status = ch.To
	o.CancelledBy = ch.CancelledBy
	o.CancellationReason = ch.CancellationReason
	if ch.DeliveryConfirmedAt != "" {
		o.DeliveryConfirmedAt = ch.DeliveryConfirmedAt
	}
	o.UpdatedAt = ch.At
	m.orders[id] = o
	return nil
}

func (m *MemoryStore) MarkInvoiceGenerated(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return false, ErrNotFound
	}
	if o.InvoiceGenerated {
		return false, nil
	}
	o.InvoiceGenerated = true
	m.orders[id] = o
	return true, nil
}

func (m *MemoryStore) CreateProduct(_ context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.products[p.ID]; dup {
		return fmt.Errorf("insert product %s: duplicate id", p.ID)
	}
	p.UpdatedAt = p.CreatedAt
	m.products[p.ID] = *p
	return nil
}

func (m *MemoryStore) GetProduct(_ context.Context, id string) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return domain.Product{}, ErrNotFound
	}
	return p, nil
}

func (m *MemoryStore) ListProducts(_ context.Context, f ProductFilter) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Product{}
	for _, p := range m.products {
		switch {
		case f.Approval != "" && p.ApprovalStatus != f.Approval:
		case f.OnlyActive && !p.IsActive:
		case f.Class != 0 && p.Class != f.Class:
		case f.Section != "" && !strings.EqualFold(p.Section, f.Section):
		case f.Q != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Q)):
		default:
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	limit := f.Limit
	if limit <= 0 {
		limit = 12
	}
	if f.Offset >= len(out) {
		return []domain.Product{}, nil
	}
	out = out[f.Offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) UpdateProduct(_ context.Context, p domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.products[p.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.Price != p.Price && m.countOrders(p.ID) > 0 {
		return ErrPriceFrozen
	}
	cur.Name, cur.Description, cur.Price = p.Name, p.Description, p.Price
	cur.Class, cur.Section, cur.UpdatedAt = p.Class, p.Section, p.UpdatedAt
	m.products[p.ID] = cur
	return nil
}

func (m *MemoryStore) AdjustLikes(_ context.Context, id string, delta int) (int, error) {
	var likes int
	err := m.mutateProduct(id, func(cur *domain.Product) bool {
		if !cur.IsActive {
			return false
		}
		cur.Likes += delta
		if cur.Likes < 0 {
			cur.Likes = 0
		}
		likes = cur.Likes
		return true
	})
	return likes, err
}

func (m *MemoryStore) SetApproval(_ context.Context, id string, status domain.ApprovalStatus, at string) error {
	return m.mutateProduct(id, func(cur *domain.Product) bool {
		cur.ApprovalStatus, cur.UpdatedAt = status, at
		return true
	})
}

func (m *MemoryStore) SetSoldOut(_ context.Context, id string, soldOut bool, at string) error {
	return m.mutateProduct(id, func(cur *domain.Product) bool {
		cur.IsSoldOut, cur.UpdatedAt = soldOut, at
		return true
	})
}

func (m *MemoryStore) SetActive(_ context.Context, id string, active bool, at string) error {
	return m.mutateProduct(id, func(cur *domain.Product) bool {
		cur.IsActive, cur.UpdatedAt = active, at
		return true
	})
}

// mutateProduct applies fn under the lock; fn returning false reports ErrNotFound.
func (m *MemoryStore) mutateProduct(id string, fn func(*domain.Product) bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok || !fn(&p) {
		return ErrNotFound
	}
	m.products[id] = p
	return nil
}
