package domain

import "time"

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) String() string { return string(s) }

// Terminal statuses accept no further transitions.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

type Actor string

const (
	ActorBuyer Actor = "buyer"
	ActorAdmin Actor = "admin"
)

type Order struct {
	ID                  string      `db:"id" json:"id"`
	ProductID           string      `db:"product_id" json:"productId"`
	BuyerName           string      `db:"buyer_name" json:"buyerName"`
	BuyerClass          int         `db:"buyer_class" json:"buyerClass"`
	BuyerSection        string      `db:"buyer_section" json:"buyerSection"`
	BuyerEmail          string      `db:"buyer_email" json:"buyerEmail"`
	BuyerPhone          string      `db:"buyer_phone" json:"buyerPhone"`
	BuyerID             string      `db:"buyer_id" json:"buyerId,omitempty"`
	PickupLocation      string      `db:"pickup_location" json:"pickupLocation"`
	PickupTime          string      `db:"pickup_time" json:"pickupTime"`
	Amount              string      `db:"amount" json:"amount"`
	Status              OrderStatus `db:"status" json:"status"`
	CancelledBy         Actor       `db:"cancelled_by" json:"cancelledBy,omitempty"`
	CancellationReason  string      `db:"cancellation_reason" json:"cancellationReason,omitempty"`
	DeliveryConfirmedAt string      `db:"delivery_confirmed_at" json:"deliveryConfirmedAt,omitempty"`
	InvoiceGenerated    bool        `db:"invoice_generated" json:"invoiceGenerated"`
	CreatedAt           string      `db:"created_at" json:"createdAt"`
	UpdatedAt           string      `db:"updated_at" json:"updatedAt,omitempty"`
}

// OrderWithProduct is the buyer-facing view of an order.
type OrderWithProduct struct {
	Order
	Product *Product `json:"product,omitempty"`
}

// StatusChange is the set of columns a lifecycle transition writes.
type StatusChange struct {
	From                OrderStatus
	To                  OrderStatus
	CancelledBy         Actor
	CancellationReason  string
	DeliveryConfirmedAt string
	At                  string
}

// TimeLayout is fixed-width so stored timestamps sort lexically.
const TimeLayout = "2006-01-02T15:04:05.000Z"

func FormatTime(t time.Time) string { return t.UTC().Format(TimeLayout) }
