package models

import "time"

// Ticket statuses keep the wire values used by the original installation.
const (
	StatusAwaitingPayment = "por_atender"
	StatusPaid            = "pagado"
)

type Ticket struct {
	ID            string     `json:"id"`
	CustomerName  string     `json:"customer_name"`
	CustomerEmail string     `json:"customer_email"`
	CustomerPhone string     `json:"customer_phone"`
	Status        string     `json:"status"`
	QRCode        string     `json:"qr_code"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	PaidBy        *string    `json:"paid_by,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	Payer         *Payer     `json:"payer,omitempty"`
}

// Payer is the joined profile of the user who confirmed payment. It is
// derived from the users table, never stored on the ticket row.
type Payer struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	ImageURL *string `json:"image_url,omitempty"`
}
