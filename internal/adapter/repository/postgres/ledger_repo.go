package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/debtflow-backend/internal/domain"
)

// ledgerRepository implements domain.LedgerRepository
type ledgerRepository struct {
	db *DB
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *DB) domain.LedgerRepository {
	return &ledgerRepository{db: db}
}

const ledgerSelect = `
	SELECT e.id, e.owner_id, e.description, e.amount, e.kind, e.payment_method,
		e.category_id, COALESCE(c.name, ''), e.entry_date, e.created_at, e.deleted_at
	FROM ledger_entries e
	LEFT JOIN categories c ON c.id = e.category_id
`

// GetByID retrieves an active entry by its ID for one owner
func (r *ledgerRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.LedgerEntry, error) {
	query := ledgerSelect + `WHERE e.id = $1 AND e.owner_id = $2 AND e.deleted_at IS NULL`

	entry, err := scanLedgerEntry(r.db.conn(ctx).QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("ledger entry %s %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get ledger entry by ID: %w", err)
	}

	return entry, nil
}

// Create creates a new ledger entry
func (r *ledgerRepository) Create(ctx context.Context, entry *domain.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (id, owner_id, description, amount, kind, payment_method,
			category_id, entry_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	var categoryID interface{}
	if entry.CategoryID != nil {
		categoryID = *entry.CategoryID
	}

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		entry.ID,
		entry.OwnerID,
		entry.Description,
		entry.Amount.String(),
		string(entry.Kind),
		entry.PaymentMethod,
		categoryID,
		domain.Day(entry.Date),
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create ledger entry: %w", err)
	}

	return nil
}

// ListBetween retrieves the active entries of an owner dated within [from, to]
func (r *ledgerRepository) ListBetween(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]*domain.LedgerEntry, error) {
	query := ledgerSelect + `
		WHERE e.owner_id = $1 AND e.deleted_at IS NULL
			AND e.entry_date >= $2 AND e.entry_date <= $3
		ORDER BY e.entry_date ASC, e.created_at ASC
	`

	return r.list(ctx, query, ownerID, domain.Day(from), domain.Day(to))
}

// List retrieves all active entries of an owner, newest first
func (r *ledgerRepository) List(ctx context.Context, ownerID uuid.UUID, order domain.EntryOrder) ([]*domain.LedgerEntry, error) {
	orderBy := `e.entry_date DESC, e.created_at DESC`
	if order == domain.EntryOrderCreatedAt {
		orderBy = `e.created_at DESC`
	}
	query := ledgerSelect + `
		WHERE e.owner_id = $1 AND e.deleted_at IS NULL
		ORDER BY ` + orderBy

	return r.list(ctx, query, ownerID)
}

func (r *ledgerRepository) list(ctx context.Context, query string, args ...interface{}) ([]*domain.LedgerEntry, error) {
	rows, err := r.db.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*domain.LedgerEntry, 0)
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger entries: %w", err)
	}

	return entries, nil
}

// SoftDelete marks an entry as deleted
func (r *ledgerRepository) SoftDelete(ctx context.Context, ownerID, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE ledger_entries
		SET deleted_at = $1
		WHERE id = $2 AND owner_id = $3 AND deleted_at IS NULL
	`

	res, err := r.db.conn(ctx).ExecContext(ctx, query, at, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete ledger entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("ledger entry %s %w", id, domain.ErrNotFound)
	}

	return nil
}

func scanLedgerEntry(row rowScanner) (*domain.LedgerEntry, error) {
	var entry domain.LedgerEntry
	var amountStr, kind string
	var categoryID sql.NullString
	var deletedAt sql.NullTime

	if err := row.Scan(
		&entry.ID,
		&entry.OwnerID,
		&entry.Description,
		&amountStr,
		&kind,
		&entry.PaymentMethod,
		&categoryID,
		&entry.CategoryName,
		&entry.Date,
		&entry.CreatedAt,
		&deletedAt,
	); err != nil {
		return nil, err
	}

	// Parse amount (DECIMAL)
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount: %w", err)
	}
	entry.Amount = amount
	entry.Kind = domain.EntryKind(kind)

	// Parse category_id (nullable)
	if categoryID.Valid {
		cid, err := uuid.Parse(categoryID.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse category_id: %w", err)
		}
		entry.CategoryID = &cid
	}

	if deletedAt.Valid {
		at := deletedAt.Time
		entry.DeletedAt = &at
	}

	return &entry, nil
}
