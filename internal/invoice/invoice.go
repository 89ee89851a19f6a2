package invoice

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-pdf/fpdf"

	"campusmart/internal/domain"
)

// Generator writes one PDF per order under Dir. Generation is idempotent:
// an existing file at the order's path is returned untouched.
type Generator struct {
	Dir string

	mu  sync.Mutex
	now func() time.Time
}

func NewGenerator(dir string) *Generator {
	return &Generator{Dir: dir, now: time.Now}
}

// Path is the deterministic file location for an order's invoice.
func (g *Generator) Path(orderID string) (string, error) {
	if orderID == "" || strings.ContainsAny(orderID, `/\.`) {
		return "", fmt.Errorf("invoice: bad order id %q", orderID)
	}
	return filepath.Join(g.Dir, "invoice-"+orderID+".pdf"), nil
}

func (g *Generator) Generate(ctx context.Context, o domain.Order, p domain.Product) (string, error) {
	path, err := g.Path(o.ID)
	if err != nil {
		return "", err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, err := os.Stat(path); err == nil {
		return path, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(g.Dir, 0o755); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(g.Dir, ".invoice-*.pdf")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if err := g.render(o, p).Output(tmp); err != nil {
		tmp.Close()
		return "", fmt.Errorf("invoice: render %s: %w", o.ID, err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", err
	}
	return path, nil
}

func (g *Generator) render(o domain.Order, p domain.Product) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Invoice "+o.ID, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, "Campus Marketplace - Invoice", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Invoice for order "+o.ID, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Issued "+g.now().UTC().Format("02 Jan 2006"), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	row := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(50, 8, label, "1", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 8, value, "1", 1, "L", false, 0, "")
	}
	row("Item", p.Name)
	row("Seller", p.SellerName+" ("+p.SellerPhone+")")
	row("Buyer", fmt.Sprintf("%s, class %d-%s", o.BuyerName, o.BuyerClass, o.BuyerSection))
	row("Buyer contact", o.BuyerEmail+" / "+o.BuyerPhone)
	row("Pickup", o.PickupLocation+", "+o.PickupTime)
	row("Ordered at", o.CreatedAt)
	row("Status", string(o.Status))
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(50, 10, "Amount", "1", 0, "L", false, 0, "")
	pdf.CellFormat(0, 10, "Rs. "+o.Amount, "1", 1, "R", false, 0, "")
	return pdf
}
