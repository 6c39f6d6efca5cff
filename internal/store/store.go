package store

import (
	"context"
	"time"

	"magnetix/ticket-service/internal/models"
)

type CreateTicketInput struct {
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	CreatedAt     time.Time
}

type MarkPaidInput struct {
	TicketID       string
	UserID         *string
	AccessPassword string
	PaidAt         time.Time
}

type SyncUserInput struct {
	ExternalID string
	Username   string
	Email      string
	FirstName  string
	LastName   string
	ImageURL   *string
}

// Stats is the derived ticket count breakdown; it is computed per call,
// never stored.
type Stats struct {
	Total           int `json:"total"`
	AwaitingPayment int `json:"awaiting_payment"`
	Paid            int `json:"paid"`
}

type TicketStore interface {
	CreateTicket(ctx context.Context, input CreateTicketInput) (models.Ticket, error)
	GetTicket(ctx context.Context, ticketID string) (models.Ticket, bool, error)
	ListTickets(ctx context.Context) ([]models.Ticket, error)
	MarkTicketPaid(ctx context.Context, input MarkPaidInput) (models.Ticket, error)
	GetTicketStats(ctx context.Context) (Stats, error)

	GetConfig(ctx context.Context) (models.TicketConfig, error)
	SaveConfig(ctx context.Context, cfg models.TicketConfig) (models.TicketConfig, error)

	SyncUser(ctx context.Context, input SyncUserInput) (models.User, models.Session, error)
	GetSession(ctx context.Context, sessionID string) (models.Session, models.User, error)
	DeleteSession(ctx context.Context, sessionID string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}
