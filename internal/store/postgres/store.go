package postgres

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"time"

	"magnetix/ticket-service/internal/models"
	"magnetix/ticket-service/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const ticketColumns = `
	t.id, t.customer_name, t.customer_email, t.customer_phone, t.status, t.qr_code,
	t.created_at, t.updated_at, t.paid_by, t.paid_at,
	u.name, u.email, u.image_url
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (models.Ticket, error) {
	var ticket models.Ticket
	var paidByNull sql.NullString
	var paidAtNull sql.NullTime
	var payerNameNull sql.NullString
	var payerEmailNull sql.NullString
	var payerImageNull sql.NullString
	err := row.Scan(
		&ticket.ID, &ticket.CustomerName, &ticket.CustomerEmail, &ticket.CustomerPhone,
		&ticket.Status, &ticket.QRCode, &ticket.CreatedAt, &ticket.UpdatedAt,
		&paidByNull, &paidAtNull,
		&payerNameNull, &payerEmailNull, &payerImageNull,
	)
	if err != nil {
		return models.Ticket{}, err
	}
	ticket.PaidBy = nullStringPtr(paidByNull)
	ticket.PaidAt = nullTimePtr(paidAtNull)
	if payerNameNull.Valid {
		ticket.Payer = &models.Payer{
			Name:     payerNameNull.String,
			Email:    payerEmailNull.String,
			ImageURL: nullStringPtr(payerImageNull),
		}
	}
	return ticket, nil
}

func (s *Store) CreateTicket(ctx context.Context, input store.CreateTicketInput) (models.Ticket, error) {
	createdAt := input.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	ticketID, err := store.NewTicketID(createdAt)
	if err != nil {
		return models.Ticket{}, err
	}

	var ticket models.Ticket
	// qr_code carries the ticket id; the scannable payload is derived
	// from it at render time.
	row := s.pool.QueryRow(ctx, `
		INSERT INTO tickets (id, customer_name, customer_email, customer_phone, status, qr_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $1, $6, $6)
		RETURNING id, customer_name, customer_email, customer_phone, status, qr_code, created_at, updated_at
	`, ticketID, input.CustomerName, input.CustomerEmail, input.CustomerPhone, models.StatusAwaitingPayment, createdAt)
	if err := row.Scan(
		&ticket.ID, &ticket.CustomerName, &ticket.CustomerEmail, &ticket.CustomerPhone,
		&ticket.Status, &ticket.QRCode, &ticket.CreatedAt, &ticket.UpdatedAt,
	); err != nil {
		return models.Ticket{}, err
	}
	return ticket, nil
}

func (s *Store) GetTicket(ctx context.Context, ticketID string) (models.Ticket, bool, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+ticketColumns+`
		FROM tickets t
		LEFT JOIN users u ON u.id = t.paid_by
		WHERE t.id = $1
	`, ticketID)
	ticket, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Ticket{}, false, store.ErrTicketNotFound
		}
		return models.Ticket{}, false, err
	}
	return ticket, true, nil
}

func (s *Store) ListTickets(ctx context.Context) ([]models.Ticket, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+ticketColumns+`
		FROM tickets t
		LEFT JOIN users u ON u.id = t.paid_by
		ORDER BY t.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []models.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tickets, nil
}

// MarkTicketPaid runs the password gate and the status transition in a
// single transaction, so concurrent confirmations of the same ticket
// serialize on the row lock and the second one fails with ErrAlreadyPaid.
func (s *Store) MarkTicketPaid(ctx context.Context, input store.MarkPaidInput) (models.Ticket, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Ticket{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var password string
	row := tx.QueryRow(ctx, `SELECT access_password FROM config WHERE id = 1`)
	if err = row.Scan(&password); err != nil {
		// No saved configuration means no known secret: fail closed.
		if errors.Is(err, pgx.ErrNoRows) {
			err = store.ErrUnauthorized
		}
		return models.Ticket{}, err
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(input.AccessPassword)) != 1 {
		err = store.ErrUnauthorized
		return models.Ticket{}, err
	}

	var status string
	row = tx.QueryRow(ctx, `SELECT status FROM tickets WHERE id = $1 FOR UPDATE`, input.TicketID)
	if err = row.Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = store.ErrTicketNotFound
		}
		return models.Ticket{}, err
	}
	if !store.ValidTransition("pay", status) {
		err = store.ErrAlreadyPaid
		return models.Ticket{}, err
	}

	paidAt := input.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now().UTC()
	}

	var ticket models.Ticket
	var paidByNull sql.NullString
	var paidAtNull sql.NullTime
	row = tx.QueryRow(ctx, `
		UPDATE tickets
		SET status = $2, paid_by = $3, paid_at = $4, updated_at = $4
		WHERE id = $1
		RETURNING id, customer_name, customer_email, customer_phone, status, qr_code, created_at, updated_at, paid_by, paid_at
	`, input.TicketID, models.StatusPaid, input.UserID, paidAt)
	if err = row.Scan(
		&ticket.ID, &ticket.CustomerName, &ticket.CustomerEmail, &ticket.CustomerPhone,
		&ticket.Status, &ticket.QRCode, &ticket.CreatedAt, &ticket.UpdatedAt,
		&paidByNull, &paidAtNull,
	); err != nil {
		return models.Ticket{}, err
	}
	ticket.PaidBy = nullStringPtr(paidByNull)
	ticket.PaidAt = nullTimePtr(paidAtNull)

	if input.UserID != nil {
		var payer models.Payer
		var imageNull sql.NullString
		row = tx.QueryRow(ctx, `SELECT name, email, image_url FROM users WHERE id = $1`, *input.UserID)
		if err = row.Scan(&payer.Name, &payer.Email, &imageNull); err != nil {
			return models.Ticket{}, err
		}
		payer.ImageURL = nullStringPtr(imageNull)
		ticket.Payer = &payer
	}

	if err = tx.Commit(ctx); err != nil {
		return models.Ticket{}, err
	}
	return ticket, nil
}

func (s *Store) GetTicketStats(ctx context.Context) (store.Stats, error) {
	var stats store.Stats
	row := s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = $1),
		       COUNT(*) FILTER (WHERE status = $2)
		FROM tickets
	`, models.StatusAwaitingPayment, models.StatusPaid)
	if err := row.Scan(&stats.Total, &stats.AwaitingPayment, &stats.Paid); err != nil {
		return store.Stats{}, err
	}
	return stats, nil
}

func nullStringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	v := value.String
	return &v
}

func nullTimePtr(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	v := value.Time
	return &v
}

func nullIfEmpty(value *string) *string {
	if value == nil || *value == "" {
		return nil
	}
	return value
}
