package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"campusmart/internal/domain"
	"campusmart/internal/repos"
	"campusmart/internal/validate"
)

// OrderSubmission is the raw purchase form as the buyer sent it.
type OrderSubmission struct {
	ProductID      string `json:"productId"`
	BuyerName      string `json:"buyerName"`
	BuyerClass     int    `json:"buyerClass"`
	BuyerSection   string `json:"buyerSection"`
	BuyerEmail     string `json:"buyerEmail"`
	BuyerPhone     string `json:"buyerPhone"`
	BuyerID        string `json:"buyerId"`
	PickupLocation string `json:"pickupLocation"`
	PickupTime     string `json:"pickupTime"`
	Amount         string `json:"amount"`
}

type OrderValidator struct {
	Products repos.ProductStore
}

func NewOrderValidator(products repos.ProductStore) *OrderValidator {
	return &OrderValidator{Products: products}
}

// Validate checks a submission against the stored product without writing anything.
// The returned order carries the server-side price; the submitted amount is only compared.
func (v *OrderValidator) Validate(ctx context.Context, in OrderSubmission) (domain.Order, domain.Product, error) {
	o, submitted, err := normalizeSubmission(in)
	if err != nil {
		return domain.Order{}, domain.Product{}, err
	}

	p, err := v.Products.GetProduct(ctx, o.ProductID)
	if errors.Is(err, repos.ErrNotFound) || (err == nil && !p.Listed()) {
		return domain.Order{}, domain.Product{}, &NotFoundError{Kind: "product", ID: o.ProductID}
	}
	if err != nil {
		return domain.Order{}, domain.Product{}, fmt.Errorf("load product: %w", err)
	}
	if p.IsSoldOut {
		return domain.Order{}, domain.Product{}, invalid("productId", "this item is sold out")
	}
	if !validate.SameAmount(submitted, p.Price) {
		return domain.Order{}, domain.Product{}, &PriceMismatchError{Submitted: strings.TrimSpace(in.Amount), Expected: p.Price}
	}

	o.Amount = p.Price
	o.Status = domain.StatusPending
	return o, p, nil
}

func normalizeSubmission(in OrderSubmission) (domain.Order, decimal.Decimal, error) {
	var o domain.Order
	var ok bool

	if o.ProductID, ok = validate.ID(in.ProductID); !ok {
		return o, decimal.Decimal{}, invalid("productId", "is required")
	}
	if o.BuyerName, ok = validate.Name(in.BuyerName); !ok {
		return o, decimal.Decimal{}, invalid("buyerName", "must be 1-60 characters")
	}
	if !validate.Class(in.BuyerClass) {
		return o, decimal.Decimal{}, invalid("buyerClass", "must be between 6 and 12")
	}
	o.BuyerClass = in.BuyerClass
	if o.BuyerSection, ok = validate.Section(in.BuyerSection); !ok {
		return o, decimal.Decimal{}, invalid("buyerSection", "is required")
	}
	if o.BuyerEmail, ok = validate.Email(in.BuyerEmail); !ok {
		return o, decimal.Decimal{}, invalid("buyerEmail", "is not a valid email address")
	}
	if o.BuyerPhone, ok = validate.Phone(in.BuyerPhone); !ok {
		return o, decimal.Decimal{}, invalid("buyerPhone", "must be at least 10 characters of digits")
	}
	if strings.TrimSpace(in.BuyerID) != "" {
		if o.BuyerID, ok = validate.ID(in.BuyerID); !ok {
			return o, decimal.Decimal{}, invalid("buyerId", "is malformed")
		}
	}
	if o.PickupLocation, ok = validate.Text(in.PickupLocation, 120); !ok {
		return o, decimal.Decimal{}, invalid("pickupLocation", "is required")
	}
	if o.PickupTime, ok = validate.Text(in.PickupTime, 60); !ok {
		return o, decimal.Decimal{}, invalid("pickupTime", "is required")
	}
	submitted, ok := validate.Amount(in.Amount)
	if !ok {
		return o, decimal.Decimal{}, invalid("amount", "must be a decimal number")
	}
	return o, submitted, nil
}
