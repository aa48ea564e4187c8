package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/debtflow-backend/internal/domain"
)

// facilityRepository implements domain.FacilityRepository
type facilityRepository struct {
	db *DB
}

// NewFacilityRepository creates a new facility repository
func NewFacilityRepository(db *DB) domain.FacilityRepository {
	return &facilityRepository{db: db}
}

const facilityColumns = `id, owner_id, name, credit_limit, interest_rate, created_at`

// GetByID retrieves a facility by its ID for one owner
func (r *facilityRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Facility, error) {
	query := `SELECT ` + facilityColumns + `
		FROM facilities
		WHERE id = $1 AND owner_id = $2
	`
	// Held until commit so corrections on one facility run one at a time,
	// even when it has no obligations to lock yet
	if inTx(ctx) {
		query += ` FOR UPDATE`
	}

	facility, err := scanFacility(r.db.conn(ctx).QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("facility %s %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get facility by ID: %w", err)
	}

	return facility, nil
}

// List retrieves all facilities of an owner in creation order
func (r *facilityRepository) List(ctx context.Context, ownerID uuid.UUID) ([]*domain.Facility, error) {
	query := `SELECT ` + facilityColumns + `
		FROM facilities
		WHERE owner_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query facilities: %w", err)
	}
	defer rows.Close()

	facilities := make([]*domain.Facility, 0)
	for rows.Next() {
		facility, err := scanFacility(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan facility: %w", err)
		}
		facilities = append(facilities, facility)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating facilities: %w", err)
	}

	return facilities, nil
}

// Create creates a new facility
func (r *facilityRepository) Create(ctx context.Context, facility *domain.Facility) error {
	query := `
		INSERT INTO facilities (id, owner_id, name, credit_limit, interest_rate, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		facility.ID,
		facility.OwnerID,
		facility.Name,
		facility.Limit.String(),
		facility.InterestRate.String(),
		facility.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create facility: %w", err)
	}

	return nil
}

// Delete removes a facility; the schema unlinks its obligations (ON DELETE SET NULL)
func (r *facilityRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	query := `DELETE FROM facilities WHERE id = $1 AND owner_id = $2`

	res, err := r.db.conn(ctx).ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete facility: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("facility %s %w", id, domain.ErrNotFound)
	}

	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFacility(row rowScanner) (*domain.Facility, error) {
	var facility domain.Facility
	var limitStr, rateStr string

	if err := row.Scan(
		&facility.ID,
		&facility.OwnerID,
		&facility.Name,
		&limitStr,
		&rateStr,
		&facility.CreatedAt,
	); err != nil {
		return nil, err
	}

	// Parse credit_limit and interest_rate (DECIMAL)
	limit, err := decimal.NewFromString(limitStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credit_limit: %w", err)
	}
	rate, err := decimal.NewFromString(rateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse interest_rate: %w", err)
	}
	facility.Limit = limit
	facility.InterestRate = rate

	return &facility, nil
}
