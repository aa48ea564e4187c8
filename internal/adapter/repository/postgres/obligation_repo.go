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

// obligationRepository implements domain.ObligationRepository
type obligationRepository struct {
	db *DB
}

// NewObligationRepository creates a new obligation repository
func NewObligationRepository(db *DB) domain.ObligationRepository {
	return &obligationRepository{db: db}
}

const obligationColumns = `id, owner_id, name, principal, facility_id, interest_rate,
		start_date, end_date, installments, created_at, deleted_at`

// GetByID retrieves an active obligation by its ID for one owner
func (r *obligationRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Obligation, error) {
	query := `SELECT ` + obligationColumns + `
		FROM obligations
		WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL
	`
	if inTx(ctx) {
		query += ` FOR UPDATE`
	}

	obligation, err := scanObligation(r.db.conn(ctx).QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("obligation %s %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get obligation by ID: %w", err)
	}

	return obligation, nil
}

// ListActive retrieves all active obligations of an owner
func (r *obligationRepository) ListActive(ctx context.Context, ownerID uuid.UUID) ([]*domain.Obligation, error) {
	query := `SELECT ` + obligationColumns + `
		FROM obligations
		WHERE owner_id = $1 AND deleted_at IS NULL
		ORDER BY start_date ASC, created_at ASC
	`
	return r.list(ctx, query, ownerID)
}

// ListActiveByFacility retrieves the active obligations of a facility, oldest first.
// Inside a unit of work the rows stay locked until commit so that concurrent
// repayments against the same facility serialize.
func (r *obligationRepository) ListActiveByFacility(ctx context.Context, ownerID, facilityID uuid.UUID) ([]*domain.Obligation, error) {
	query := `SELECT ` + obligationColumns + `
		FROM obligations
		WHERE owner_id = $1 AND facility_id = $2 AND deleted_at IS NULL
		ORDER BY start_date ASC, created_at ASC
	`
	if inTx(ctx) {
		query += ` FOR UPDATE`
	}
	return r.list(ctx, query, ownerID, facilityID)
}

func (r *obligationRepository) list(ctx context.Context, query string, args ...interface{}) ([]*domain.Obligation, error) {
	rows, err := r.db.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query obligations: %w", err)
	}
	defer rows.Close()

	obligations := make([]*domain.Obligation, 0)
	for rows.Next() {
		obligation, err := scanObligation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan obligation: %w", err)
		}
		obligations = append(obligations, obligation)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating obligations: %w", err)
	}

	return obligations, nil
}

// Create creates a new obligation
func (r *obligationRepository) Create(ctx context.Context, obligation *domain.Obligation) error {
	query := `
		INSERT INTO obligations (id, owner_id, name, principal, facility_id, interest_rate,
			start_date, end_date, installments, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	var facilityID interface{}
	if obligation.FacilityID != nil {
		facilityID = *obligation.FacilityID
	}
	var rate interface{}
	if obligation.InterestRate.Valid {
		rate = obligation.InterestRate.Decimal.String()
	}
	var endDate interface{}
	if obligation.EndDate != nil {
		endDate = *obligation.EndDate
	}
	var installments interface{}
	if obligation.Installments != nil {
		installments = *obligation.Installments
	}

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		obligation.ID,
		obligation.OwnerID,
		obligation.Name,
		obligation.Principal.String(),
		facilityID,
		rate,
		obligation.StartDate,
		endDate,
		installments,
		obligation.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create obligation: %w", err)
	}

	return nil
}

// UpdatePrincipal sets the outstanding principal of an active obligation
func (r *obligationRepository) UpdatePrincipal(ctx context.Context, ownerID, id uuid.UUID, principal decimal.Decimal) error {
	if principal.IsNegative() {
		return fmt.Errorf("%w: principal cannot be negative", domain.ErrInvalidAmount)
	}

	query := `
		UPDATE obligations
		SET principal = $1
		WHERE id = $2 AND owner_id = $3 AND deleted_at IS NULL
	`
	return r.execOne(ctx, "update principal of", id, query, principal.String(), id, ownerID)
}

// LinkFacility attaches an obligation to a facility with a snapshot of its rate
func (r *obligationRepository) LinkFacility(ctx context.Context, ownerID, id, facilityID uuid.UUID, rate decimal.Decimal) error {
	query := `
		UPDATE obligations
		SET facility_id = $1, interest_rate = $2
		WHERE id = $3 AND owner_id = $4 AND deleted_at IS NULL
	`
	return r.execOne(ctx, "link", id, query, facilityID, rate.String(), id, ownerID)
}

// SoftDelete marks an obligation as deleted
func (r *obligationRepository) SoftDelete(ctx context.Context, ownerID, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE obligations
		SET deleted_at = $1
		WHERE id = $2 AND owner_id = $3 AND deleted_at IS NULL
	`
	return r.execOne(ctx, "delete", id, query, at, id, ownerID)
}

// execOne runs an update that must touch exactly one active row
func (r *obligationRepository) execOne(ctx context.Context, action string, id uuid.UUID, query string, args ...interface{}) error {
	res, err := r.db.conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s obligation: %w", action, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("obligation %s %w", id, domain.ErrNotFound)
	}
	return nil
}

func scanObligation(row rowScanner) (*domain.Obligation, error) {
	var obligation domain.Obligation
	var principalStr string
	var facilityID, rateStr sql.NullString
	var endDate, deletedAt sql.NullTime
	var installments sql.NullInt64

	if err := row.Scan(
		&obligation.ID,
		&obligation.OwnerID,
		&obligation.Name,
		&principalStr,
		&facilityID,
		&rateStr,
		&obligation.StartDate,
		&endDate,
		&installments,
		&obligation.CreatedAt,
		&deletedAt,
	); err != nil {
		return nil, err
	}

	// Parse principal (DECIMAL)
	principal, err := decimal.NewFromString(principalStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse principal: %w", err)
	}
	obligation.Principal = principal

	// Parse facility_id (nullable)
	if facilityID.Valid {
		fid, err := uuid.Parse(facilityID.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse facility_id: %w", err)
		}
		obligation.FacilityID = &fid
	}

	// Parse interest_rate (nullable DECIMAL)
	if rateStr.Valid {
		rate, err := decimal.NewFromString(rateStr.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse interest_rate: %w", err)
		}
		obligation.InterestRate = decimal.NewNullDecimal(rate)
	}

	if endDate.Valid {
		end := endDate.Time
		obligation.EndDate = &end
	}
	if installments.Valid {
		n := int(installments.Int64)
		obligation.Installments = &n
	}
	if deletedAt.Valid {
		at := deletedAt.Time
		obligation.DeletedAt = &at
	}

	return &obligation, nil
}
