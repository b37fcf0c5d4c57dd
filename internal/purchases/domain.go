package purchases

import (
	"time"

	"github.com/shopspring/decimal"
)

// Purchase statuses.
const (
	StatusPending   = "pending"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

// Statuses lists the valid purchase statuses.
func Statuses() []string {
	return []string{StatusPending, StatusDelivered, StatusCancelled}
}

// Purchase is an order of material or service placed with a supplier.
type Purchase struct {
	ID            int64
	SupplierID    int64  `validate:"gt=0"`
	CategoryID    *int64 `validate:"omitempty,gt=0"`
	StageID       *int64 `validate:"omitempty,gt=0"`
	Description   string `validate:"required,max=240"`
	Quantity      decimal.Decimal
	Unit          string `validate:"required,max=20"`
	TotalValue    decimal.Decimal
	PurchaseDate  time.Time `validate:"required"`
	DeliveryDate  *time.Time
	Status        string `validate:"oneof=pending delivered cancelled"`
	InvoiceNumber string `validate:"max=60"`
	CreatedBy     *int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Detail is the purchase joined with the names of what it references.
type Detail struct {
	Purchase
	SupplierName  string
	CategoryName  string
	StageName     string
	CreatedByName string
}

// UnitPrice divides the total by the quantity; zero when no quantity.
func (p Purchase) UnitPrice() decimal.Decimal {
	if !p.Quantity.IsPositive() {
		return decimal.Zero
	}
	return p.TotalValue.DivRound(p.Quantity, 2)
}

// Filters narrows purchase listings.
type Filters struct {
	Status     string
	SupplierID *int64
	StageID    *int64
	Search     string
	Page       int
	Limit      int
}

// Offset converts the page into a row offset.
func (f Filters) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}
