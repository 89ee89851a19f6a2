package domain

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

type Product struct {
	ID             string         `db:"id" json:"id"`
	Name           string         `db:"name" json:"name"`
	Description    string         `db:"description" json:"description,omitempty"`
	Price          string         `db:"price" json:"price"` // two-decimal canonical form, e.g. "45.00"
	Class          int            `db:"class" json:"class"`
	Section        string         `db:"section" json:"section"`
	SellerID       string         `db:"seller_id" json:"sellerId,omitempty"`
	SellerName     string         `db:"seller_name" json:"sellerName"`
	SellerPhone    string         `db:"seller_phone" json:"sellerPhone"`
	SellerEmail    string         `db:"seller_email" json:"sellerEmail"`
	Likes          int            `db:"likes" json:"likes"`
	IsActive       bool           `db:"is_active" json:"isActive"`
	IsSoldOut      bool           `db:"is_sold_out" json:"isSoldOut"`
	ApprovalStatus ApprovalStatus `db:"approval_status" json:"approvalStatus"`
	CreatedAt      string         `db:"created_at" json:"createdAt"`
	UpdatedAt      string         `db:"updated_at" json:"updatedAt,omitempty"`
}

// Listed reports whether buyers can see and order the product.
func (p Product) Listed() bool {
	return p.IsActive && p.ApprovalStatus == ApprovalApproved
}

type Admin struct {
	ID       string `db:"id"`
	Username string `db:"username"`
	Hash     string `db:"password_hash"`
}
