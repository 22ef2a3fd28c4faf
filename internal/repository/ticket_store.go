package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/godesk-io/godesk-ce/internal/database"
	"github.com/godesk-io/godesk-ce/internal/models"
)

// ErrTicketNotFound is returned when a ticket ID does not exist.
var ErrTicketNotFound = errors.New("ticket not found")

// TicketStore is the slice of ticket storage the SLA engine needs: due date
// assignment, breach bookkeeping for the sweeper, and the created-at stream
// for the heatmap. Full ticket lifecycle lives in the main ticket service.
type TicketStore interface {
	CreateTicket(ctx context.Context, ticket *models.Ticket) error
	GetTicket(ctx context.Context, id uint) (*models.Ticket, error)
	SetDueDate(ctx context.Context, id uint, due time.Time) error
	SetBreach(ctx context.Context, id uint, breached bool) error
	SetStatus(ctx context.Context, id uint, status string, closedAt *time.Time, breached bool) error
	ListOpenWithDueDate(ctx context.Context) ([]models.Ticket, error)
	ListCreatedBetween(ctx context.Context, from, to time.Time) ([]models.Ticket, error)
}

// SQLTicketStore reads and writes the SLA columns of the tickets table.
type SQLTicketStore struct {
	db *sqlx.DB
}

// NewSQLTicketStore wraps the shared connection pool.
func NewSQLTicketStore(db *sqlx.DB) *SQLTicketStore {
	return &SQLTicketStore{db: db}
}

type ticketRow struct {
	ID            uint          `db:"id"`
	Title         string        `db:"title"`
	CreatedAt     time.Time     `db:"created_at"`
	PriorityLevel int           `db:"priority_level"`
	CategoryID    uint          `db:"category_id"`
	SubCategoryID uint          `db:"sub_category_id"`
	DepartmentID  uint          `db:"department_id"`
	GroupID       uint          `db:"group_id"`
	CustomerID    uint          `db:"customer_id"`
	CompanyID     uint          `db:"company_id"`
	Status        string        `db:"status"`
	DueDate       sql.NullTime  `db:"due_date"`
	SLABreach     sql.NullBool  `db:"sla_breach"`
	ClosedAt      sql.NullTime  `db:"closed_at"`
}

const ticketColumns = `id, title, created_at, priority_level,
	category_id, sub_category_id, department_id, group_id,
	customer_id, company_id, status, due_date, sla_breach, closed_at`

func (row *ticketRow) toModel() models.Ticket {
	t := models.Ticket{
		ID:            row.ID,
		Title:         row.Title,
		CreatedAt:     row.CreatedAt,
		PriorityLevel: row.PriorityLevel,
		CategoryID:    row.CategoryID,
		SubCategoryID: row.SubCategoryID,
		DepartmentID:  row.DepartmentID,
		GroupID:       row.GroupID,
		CustomerID:    row.CustomerID,
		CompanyID:     row.CompanyID,
		Status:        row.Status,
		SLABreach:     row.SLABreach.Bool,
	}
	if row.DueDate.Valid {
		due := row.DueDate.Time
		t.DueDate = &due
	}
	if row.ClosedAt.Valid {
		closed := row.ClosedAt.Time
		t.ClosedAt = &closed
	}
	return t
}

// CreateTicket inserts a ticket with its SLA columns.
func (s *SQLTicketStore) CreateTicket(ctx context.Context, ticket *models.Ticket) error {
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now()
	}
	if ticket.Status == "" {
		ticket.Status = models.TicketStatusOpen
	}

	query := database.ConvertPlaceholders(`
		INSERT INTO tickets (
			title, created_at, priority_level,
			category_id, sub_category_id, department_id, group_id,
			customer_id, company_id, status, due_date, sla_breach, closed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`)
	query, useLastInsert := database.ConvertReturning(query)
	args := []interface{}{
		ticket.Title, ticket.CreatedAt, ticket.PriorityLevel,
		ticket.CategoryID, ticket.SubCategoryID, ticket.DepartmentID, ticket.GroupID,
		ticket.CustomerID, ticket.CompanyID, ticket.Status,
		ticket.DueDate, ticket.SLABreach, ticket.ClosedAt,
	}

	if useLastInsert {
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to create ticket: %w", err)
		}
		lastID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to determine ticket ID: %w", err)
		}
		ticket.ID = uint(lastID)
		return nil
	}

	var id uint
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return fmt.Errorf("failed to create ticket: %w", err)
	}
	ticket.ID = id
	return nil
}

// GetTicket fetches one ticket by ID.
func (s *SQLTicketStore) GetTicket(ctx context.Context, id uint) (*models.Ticket, error) {
	query := database.ConvertPlaceholders(`SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`)

	var row ticketRow
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("ticket %d: %w", id, ErrTicketNotFound)
		}
		return nil, fmt.Errorf("failed to fetch ticket %d: %w", id, err)
	}
	t := row.toModel()
	return &t, nil
}

// SetDueDate writes a computed due date.
func (s *SQLTicketStore) SetDueDate(ctx context.Context, id uint, due time.Time) error {
	query := database.ConvertPlaceholders(`UPDATE tickets SET due_date = $1 WHERE id = $2`)
	res, err := s.db.ExecContext(ctx, query, due, id)
	if err != nil {
		return fmt.Errorf("failed to set due date on ticket %d: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("ticket %d: %w", id, ErrTicketNotFound)
	}
	return nil
}

// SetBreach records the sweeper's breach verdict.
func (s *SQLTicketStore) SetBreach(ctx context.Context, id uint, breached bool) error {
	query := database.ConvertPlaceholders(`UPDATE tickets SET sla_breach = $1 WHERE id = $2`)
	res, err := s.db.ExecContext(ctx, query, breached, id)
	if err != nil {
		return fmt.Errorf("failed to set breach on ticket %d: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("ticket %d: %w", id, ErrTicketNotFound)
	}
	return nil
}

// SetStatus transitions a ticket, freezing the breach snapshot when the
// transition is terminal.
func (s *SQLTicketStore) SetStatus(ctx context.Context, id uint, status string, closedAt *time.Time, breached bool) error {
	query := database.ConvertPlaceholders(`
		UPDATE tickets SET status = $1, closed_at = $2, sla_breach = $3 WHERE id = $4
	`)
	res, err := s.db.ExecContext(ctx, query, status, closedAt, breached, id)
	if err != nil {
		return fmt.Errorf("failed to update status on ticket %d: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("ticket %d: %w", id, ErrTicketNotFound)
	}
	return nil
}

// ListOpenWithDueDate returns non-terminal tickets that have a due date,
// the sweeper's working set.
func (s *SQLTicketStore) ListOpenWithDueDate(ctx context.Context) ([]models.Ticket, error) {
	query := database.ConvertPlaceholders(`
		SELECT ` + ticketColumns + ` FROM tickets
		WHERE due_date IS NOT NULL AND status NOT IN ($1, $2)
		ORDER BY due_date
	`)

	var rows []ticketRow
	if err := s.db.SelectContext(ctx, &rows, query, models.TicketStatusResolved, models.TicketStatusClosed); err != nil {
		return nil, fmt.Errorf("failed to list open tickets: %w", err)
	}

	tickets := make([]models.Ticket, 0, len(rows))
	for i := range rows {
		tickets = append(tickets, rows[i].toModel())
	}
	return tickets, nil
}

// ListCreatedBetween returns tickets created in [from, to), newest last.
func (s *SQLTicketStore) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]models.Ticket, error) {
	query := database.ConvertPlaceholders(`
		SELECT ` + ticketColumns + ` FROM tickets
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at
	`)

	var rows []ticketRow
	if err := s.db.SelectContext(ctx, &rows, query, from, to); err != nil {
		return nil, fmt.Errorf("failed to list tickets by creation time: %w", err)
	}

	tickets := make([]models.Ticket, 0, len(rows))
	for i := range rows {
		tickets = append(tickets, rows[i].toModel())
	}
	return tickets, nil
}
