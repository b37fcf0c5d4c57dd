package expenses

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment methods accepted for an expense.
const (
	PaymentPix           = "pix"
	PaymentCash          = "dinheiro"
	PaymentCreditCard    = "cartao_credito"
	PaymentDebitCard     = "cartao_debito"
	PaymentBankSlip      = "boleto"
	PaymentBankTransfer  = "transferencia"
	maxInstallments      = 48
	defaultPaymentMethod = PaymentPix
)

// PaymentMethods lists the accepted payment methods in display order.
func PaymentMethods() []string {
	return []string{PaymentPix, PaymentCash, PaymentCreditCard, PaymentDebitCard, PaymentBankSlip, PaymentBankTransfer}
}

// Expense is money spent on the construction.
type Expense struct {
	ID               int64
	Description      string `validate:"required,max=240"`
	Value            decimal.Decimal
	ExpenseDate      time.Time `validate:"required"`
	PaymentMethod    string    `validate:"oneof=pix dinheiro cartao_credito cartao_debito boleto transferencia"`
	InvoiceNumber    string    `validate:"max=60"`
	Installment      *int
	Installments     int `validate:"gte=1,lte=48"`
	InstallmentGroup *uuid.UUID
	SupplierID       *int64 `validate:"omitempty,gt=0"`
	CategoryID       int64  `validate:"gt=0"`
	StageID          *int64 `validate:"omitempty,gt=0"`
	CreatedBy        *int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Detail is the expense joined with supplier, category, stage and author names.
type Detail struct {
	Expense
	SupplierName  string
	CategoryName  string
	StageName     string
	CreatedByName string
}

// InstallmentLabel renders "2/5", or "" for single payments.
func (e Expense) InstallmentLabel() string {
	if e.Installment == nil || e.Installments <= 1 {
		return ""
	}
	return itoa(*e.Installment) + "/" + itoa(e.Installments)
}

// Filters narrows expense listings. Month selects a calendar month when set.
type Filters struct {
	CategoryID *int64
	StageID    *int64
	SupplierID *int64
	Month      *time.Time
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

// Listing is a page of expenses plus the sum over every matching row.
type Listing struct {
	Expenses []Detail
	Total    int
	Sum      decimal.Decimal
}
