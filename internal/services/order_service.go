package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"campusmart/internal/domain"
	"campusmart/internal/log"
	"campusmart/internal/metrics"
	"campusmart/internal/notify"
	"campusmart/internal/repos"
	"campusmart/internal/validate"
)

// Invoicer renders an order's invoice and returns where it lives.
type Invoicer interface {
	Generate(ctx context.Context, o domain.Order, p domain.Product) (string, error)
}

type OrderService struct {
	Orders    repos.OrderStore
	Products  repos.ProductStore
	Validator *OrderValidator
	Notifier  notify.Dispatcher
	Invoices  Invoicer
	Metrics   *metrics.Metrics
	// Timeout bounds each asynchronous side effect.
	Timeout time.Duration

	now func() time.Time
	wg  sync.WaitGroup
}

func NewOrderService(orders repos.OrderStore, products repos.ProductStore, notifier notify.Dispatcher,
	invoices Invoicer, m *metrics.Metrics, timeout time.Duration) *OrderService {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &OrderService{
		Orders:    orders,
		Products:  products,
		Validator: NewOrderValidator(products),
		Notifier:  notifier,
		Invoices:  invoices,
		Metrics:   m,
		Timeout:   timeout,
		now:       time.Now,
	}
}

// Place validates and stores a new pending order. Notifications and the
// invoice are produced after the write and never fail the placement.
func (s *OrderService) Place(ctx context.Context, in OrderSubmission) (domain.Order, error) {
	o, p, err := s.Validator.Validate(ctx, in)
	if err != nil {
		s.Metrics.OrderPlaced(false)
		return domain.Order{}, err
	}
	o.ID = uuid.NewString()
	o.CreatedAt = domain.FormatTime(s.now())
	if err := s.Orders.CreateOrder(ctx, &o); err != nil {
		return domain.Order{}, err
	}
	s.Metrics.OrderPlaced(true)
	log.Info(nil, "order.placed", map[string]any{"order_id": o.ID, "product_id": p.ID, "amount": o.Amount})

	s.background("order.created", o.ID, func(ctx context.Context) error {
		return s.Notifier.NotifyOrderCreated(ctx, o, p)
	})
	if s.Invoices != nil {
		s.background("invoice", o.ID, func(ctx context.Context) error {
			return s.renderInvoice(ctx, o, p)
		})
	}
	return o, nil
}

func (s *OrderService) Get(ctx context.Context, id string) (domain.Order, error) {
	o, err := s.Orders.GetOrder(ctx, id)
	if errors.Is(err, repos.ErrNotFound) {
		return domain.Order{}, &NotFoundError{Kind: "order", ID: id}
	}
	return o, err
}

// ListForBuyer returns a buyer's orders, newest first, each with its product.
// An unknown buyer yields an empty list.
func (s *OrderService) ListForBuyer(ctx context.Context, buyerID string) ([]domain.OrderWithProduct, error) {
	buyerID, ok := validate.ID(buyerID)
	if !ok {
		return nil, invalid("buyerId", "is malformed")
	}
	orders, err := s.Orders.ListOrdersByBuyer(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	return s.withProducts(ctx, orders)
}

// List is the admin view, optionally filtered by status.
func (s *OrderService) List(ctx context.Context, status string, limit int) ([]domain.OrderWithProduct, error) {
	st := domain.OrderStatus(status)
	if status != "" && !st.Valid() {
		return nil, invalid("status", "is not a known order status")
	}
	orders, err := s.Orders.ListOrders(ctx, st, limit)
	if err != nil {
		return nil, err
	}
	return s.withProducts(ctx, orders)
}

func (s *OrderService) withProducts(ctx context.Context, orders []domain.Order) ([]domain.OrderWithProduct, error) {
	cache := map[string]*domain.Product{}
	out := make([]domain.OrderWithProduct, 0, len(orders))
	for _, o := range orders {
		p, seen := cache[o.ProductID]
		if !seen {
			got, err := s.Products.GetProduct(ctx, o.ProductID)
			switch {
			case err == nil:
				p = &got
			case !errors.Is(err, repos.ErrNotFound):
				return nil, err
			}
			cache[o.ProductID] = p
		}
		out = append(out, domain.OrderWithProduct{Order: o, Product: p})
	}
	return out, nil
}

// CancelByBuyer cancels on the buyer's behalf. The reason is checked before
// the order is loaded. An order bound to another buyer reads as not found.
func (s *OrderService) CancelByBuyer(ctx context.Context, id, buyerID, reason string) (domain.Order, error) {
	reason, ok := validate.Reason(reason)
	if !ok {
		return domain.Order{}, invalid("reason", fmt.Sprintf("must be at least %d characters", validate.MinCancelReason))
	}
	o, err := s.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if o.BuyerID != "" && o.BuyerID != buyerID {
		return domain.Order{}, &NotFoundError{Kind: "order", ID: id}
	}
	return s.cancel(ctx, o, domain.ActorBuyer, reason)
}

// CancelByAdmin accepts an empty or blank reason; anything else must still be 5-500 characters.
func (s *OrderService) CancelByAdmin(ctx context.Context, id, reason string) (domain.Order, error) {
	reason = strings.TrimSpace(reason)
	if reason != "" {
		var ok bool
		if reason, ok = validate.Reason(reason); !ok {
			return domain.Order{}, invalid("reason", fmt.Sprintf("must be at least %d characters", validate.MinCancelReason))
		}
	}
	o, err := s.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	return s.cancel(ctx, o, domain.ActorAdmin, reason)
}

func (s *OrderService) cancel(ctx context.Context, o domain.Order, actor domain.Actor, reason string) (domain.Order, error) {
	o, err := s.transition(ctx, o, domain.StatusCancelled, actor, domain.StatusChange{
		CancelledBy:        actor,
		CancellationReason: reason,
	})
	if err != nil {
		return domain.Order{}, err
	}
	s.background("order.cancelled", o.ID, func(ctx context.Context) error {
		p, err := s.Products.GetProduct(ctx, o.ProductID)
		if err != nil {
			return err
		}
		return s.Notifier.NotifyOrderCancelled(ctx, o, p, reason)
	})
	return o, nil
}

func (s *OrderService) Confirm(ctx context.Context, id string) (domain.Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	return s.transition(ctx, o, domain.StatusConfirmed, domain.ActorAdmin, domain.StatusChange{})
}

func (s *OrderService) MarkDelivered(ctx context.Context, id string) (domain.Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	return s.transition(ctx, o, domain.StatusDelivered, domain.ActorAdmin, domain.StatusChange{
		DeliveryConfirmedAt: domain.FormatTime(s.now()),
	})
}

// transition writes ch only if the order still has the status it was read with.
// Losing that race surfaces as an invalid transition from the status that won.
func (s *OrderService) transition(ctx context.Context, o domain.Order, to domain.OrderStatus, actor domain.Actor, ch domain.StatusChange) (domain.Order, error) {
	if !CanTransition(o.Status, to, actor) {
		return domain.Order{}, &InvalidTransitionError{From: o.Status, To: to}
	}
	ch.From, ch.To = o.Status, to
	ch.At = domain.FormatTime(s.now())

	err := s.Orders.UpdateOrderStatus(ctx, o.ID, ch)
	switch {
	case errors.Is(err, repos.ErrNotFound):
		return domain.Order{}, &NotFoundError{Kind: "order", ID: o.ID}
	case errors.Is(err, repos.ErrConflict):
		cur, gerr := s.Get(ctx, o.ID)
		if gerr != nil {
			return domain.Order{}, gerr
		}
		return domain.Order{}, &InvalidTransitionError{From: cur.Status, To: to}
	case err != nil:
		return domain.Order{}, err
	}

	o.Status = to
	o.CancelledBy = ch.CancelledBy
	o.CancellationReason = ch.CancellationReason
	if ch.DeliveryConfirmedAt != "" {
		o.DeliveryConfirmedAt = ch.DeliveryConfirmedAt
	}
	o.UpdatedAt = ch.At
	s.Metrics.Transition(string(to), string(actor))
	log.Audit(nil, "order.transition", map[string]any{
		"order_id": o.ID, "from": string(ch.From), "to": string(to), "actor": string(actor),
	})
	return o, nil
}

// Invoice returns the invoice path for an order, rendering it first if needed.
func (s *OrderService) Invoice(ctx context.Context, id string) (string, domain.Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return "", domain.Order{}, err
	}
	if s.Invoices == nil {
		return "", domain.Order{}, &DownstreamError{Op: "invoice", Err: errors.New("invoices are not configured")}
	}
	p, err := s.Products.GetProduct(ctx, o.ProductID)
	if err != nil {
		return "", domain.Order{}, fmt.Errorf("load product: %w", err)
	}
	path, err := s.Invoices.Generate(ctx, o, p)
	if err != nil {
		return "", domain.Order{}, &DownstreamError{Op: "invoice", Err: err}
	}
	// the file is complete; a lost flag write is caught up by the next download
	if _, err := s.Orders.MarkInvoiceGenerated(ctx, o.ID); err != nil {
		s.Metrics.SideEffectFailed("invoice.flag")
		log.Error(nil, "invoice.flag_failed", err, map[string]any{"order_id": o.ID})
		return path, o, nil
	}
	o.InvoiceGenerated = true
	return path, o, nil
}

func (s *OrderService) renderInvoice(ctx context.Context, o domain.Order, p domain.Product) error {
	if _, err := s.Invoices.Generate(ctx, o, p); err != nil {
		return err
	}
	if _, err := s.Orders.MarkInvoiceGenerated(ctx, o.ID); err != nil {
		return fmt.Errorf("mark invoice generated: %w", err)
	}
	return nil
}

// background runs fn detached from the request with its own deadline.
// Failures are logged and counted, never returned.
func (s *OrderService) background(op, orderID string, fn func(ctx context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.Timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			s.Metrics.SideEffectFailed(op)
			log.Error(nil, "order.side_effect_failed", &DownstreamError{Op: op, Err: err},
				map[string]any{"order_id": orderID})
		}
	}()
}

// Wait blocks until every in-flight side effect has finished.
func (s *OrderService) Wait() { s.wg.Wait() }
