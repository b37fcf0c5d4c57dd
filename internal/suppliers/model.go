package suppliers

import "time"

// Supplier is a vendor or contractor working on the construction.
type Supplier struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name" validate:"required,max=160"`
	Document    string    `json:"document" validate:"max=20"`
	ServiceType string    `json:"service_type" validate:"max=120"`
	ContactName string    `json:"contact_name" validate:"max=120"`
	Phone       string    `json:"phone" validate:"max=40"`
	Email       string    `json:"email" validate:"omitempty,email"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
