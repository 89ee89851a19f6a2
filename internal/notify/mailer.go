package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/wneessen/go-mail"

	"campusmart/internal/domain"
)

// Email is one outgoing plain-text message.
type Email struct {
	To      string
	Subject string
	Body    string
}

type sender interface {
	DialAndSendWithContext(ctx context.Context, msgs ...*mail.Msg) error
}

// Mailer sends order emails to the buyer and the seller over SMTP.
type Mailer struct {
	mu     sync.Mutex // the SMTP client holds one connection at a time
	client sender
	from   string
}

func NewMailer(host string, port int, username, password, from string) (*Mailer, error) {
	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(username),
			mail.WithPassword(password),
		)
	}
	c, err := mail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &Mailer{client: c, from: from}, nil
}

func (m *Mailer) NotifyOrderCreated(ctx context.Context, o domain.Order, p domain.Product) error {
	return m.send(ctx, OrderCreatedEmails(o, p))
}

func (m *Mailer) NotifyOrderCancelled(ctx context.Context, o domain.Order, p domain.Product, reason string) error {
	return m.send(ctx, OrderCancelledEmails(o, p, reason))
}

func (m *Mailer) send(ctx context.Context, emails []Email) error {
	msgs := make([]*mail.Msg, 0, len(emails))
	for _, e := range emails {
		msg := mail.NewMsg()
		if err := msg.From(m.from); err != nil {
			return fmt.Errorf("from %q: %w", m.from, err)
		}
		if err := msg.To(e.To); err != nil {
			return fmt.Errorf("to %q: %w", e.To, err)
		}
		msg.Subject(e.Subject)
		msg.SetBodyString(mail.TypeTextPlain, e.Body)
		msgs = append(msgs, msg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.client.DialAndSendWithContext(ctx, msgs...)
}

// OrderCreatedEmails builds the buyer confirmation and the seller heads-up.
func OrderCreatedEmails(o domain.Order, p domain.Product) []Email {
	return []Email{
		{
			To:      o.BuyerEmail,
			Subject: fmt.Sprintf("Order received: %s", p.Name),
			Body: fmt.Sprintf("Hi %s,\n\nWe received your order for %q (Rs. %s).\n"+
				"Pickup: %s, %s.\nOrder id: %s\n\nWe will let you know once it is confirmed.\n",
				o.BuyerName, p.Name, o.Amount, o.PickupLocation, o.PickupTime, o.ID),
		},
		{
			To:      p.SellerEmail,
			Subject: fmt.Sprintf("Your item %s was ordered", p.Name),
			Body: fmt.Sprintf("Hi %s,\n\n%s (class %d-%s, %s) ordered %q for Rs. %s.\n"+
				"Pickup: %s, %s.\nOrder id: %s\n",
				p.SellerName, o.BuyerName, o.BuyerClass, o.BuyerSection, o.BuyerPhone, p.Name, o.Amount,
				o.PickupLocation, o.PickupTime, o.ID),
		},
	}
}

func OrderCancelledEmails(o domain.Order, p domain.Product, reason string) []Email {
	why := reason
	if why == "" {
		why = "no reason given"
	}
	return []Email{
		{
			To:      o.BuyerEmail,
			Subject: fmt.Sprintf("Order cancelled: %s", p.Name),
			Body: fmt.Sprintf("Hi %s,\n\nYour order %s for %q was cancelled by the %s.\nReason: %s\n",
				o.BuyerName, o.ID, p.Name, o.CancelledBy, why),
		},
		{
			To:      p.SellerEmail,
			Subject: fmt.Sprintf("Order for %s cancelled", p.Name),
			Body: fmt.Sprintf("Hi %s,\n\nThe order %s for %q was cancelled by the %s.\nReason: %s\n",
				p.SellerName, o.ID, p.Name, o.CancelledBy, why),
		},
	}
}
