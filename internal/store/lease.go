package store

import (
	"context"
	"database/sql"

	stderrors "rentdesk/internal/common/errors"
	"rentdesk/internal/common/logger"
	"rentdesk/internal/models"
)

type LeaseStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewLeaseStore(db *sql.DB, log logger.Logger) *LeaseStore {
	return &LeaseStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"store": "lease"}),
	}
}

// Insert writes the lease inside the caller's transaction.
func (s *LeaseStore) Insert(ctx context.Context, tx *sql.Tx, lease models.Lease) (*models.Lease, error) {
	query := `
		INSERT INTO leases (start_date, end_date, rent, deposit, property_id, tenant_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	stored := lease
	err := tx.QueryRowContext(ctx, query,
		lease.StartDate, lease.EndDate, lease.Rent, lease.Deposit,
		lease.PropertyID, lease.TenantID,
	).Scan(&stored.ID)
	if err != nil {
		return nil, stderrors.NewDatabaseInsertFailedError(err)
	}

	return &stored, nil
}

// GetByID returns one lease, or RESOURCE_NOT_FOUND.
func (s *LeaseStore) GetByID(ctx context.Context, id string) (*models.Lease, error) {
	query := `
		SELECT id, start_date, end_date, rent, deposit, property_id, tenant_id
		FROM leases
		WHERE id = $1`

	var lease models.Lease
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&lease.ID, &lease.StartDate, &lease.EndDate, &lease.Rent,
		&lease.Deposit, &lease.PropertyID, &lease.TenantID,
	)
	if err == sql.ErrNoRows {
		return nil, stderrors.NewResourceNotFoundError("lease", id)
	}
	if err != nil {
		return nil, stderrors.NewDatabaseQueryFailedError("get lease", err)
	}
	return &lease, nil
}

// ListByProperty returns the property's leases, newest start date first.
func (s *LeaseStore) ListByProperty(ctx context.Context, propertyID string) ([]models.Lease, error) {
	query := `
		SELECT id, start_date, end_date, rent, deposit, property_id, tenant_id
		FROM leases
		WHERE property_id = $1
		ORDER BY start_date DESC`

	rows, err := s.db.QueryContext(ctx, query, propertyID)
	if err != nil {
		return nil, stderrors.NewDatabaseQueryFailedError("list leases", err)
	}
	defer rows.Close()

	leases := make([]models.Lease, 0)
	for rows.Next() {
		var lease models.Lease
		err := rows.Scan(
			&lease.ID, &lease.StartDate, &lease.EndDate, &lease.Rent,
			&lease.Deposit, &lease.PropertyID, &lease.TenantID,
		)
		if err != nil {
			return nil, stderrors.NewDatabaseQueryFailedError("scan lease", err)
		}
		leases = append(leases, lease)
	}
	if err := rows.Err(); err != nil {
		return nil, stderrors.NewDatabaseQueryFailedError("iterate leases", err)
	}

	return leases, nil
}
