package categories

import "time"

// Category groups expenses, purchases and budgets, e.g. "Material" or "Mão de obra".
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name" validate:"required,max=80"`
	Description string    `json:"description" validate:"max=255"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
