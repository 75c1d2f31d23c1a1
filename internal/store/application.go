package store

import (
	"context"
	"database/sql"

	stderrors "rentdesk/internal/common/errors"
	"rentdesk/internal/common/logger"
	"rentdesk/internal/models"
)

type ApplicationStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewApplicationStore(db *sql.DB, log logger.Logger) *ApplicationStore {
	return &ApplicationStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"store": "application"}),
	}
}

const applicationColumns = `
	a.id, a.application_date, a.status, a.property_id, a.tenant_id,
	a.name, a.email, a.phone_number, a.message, a.lease_id`

// ListForTenant returns the tenant's applications with the property, its
// location, the tenant profile, and the bound lease (when one exists)
// attached.
func (s *ApplicationStore) ListForTenant(ctx context.Context, tenantID string) ([]models.Application, error) {
	return s.list(ctx, "a.tenant_id = $1", tenantID)
}

// ListForManager returns applications for every property the manager owns.
func (s *ApplicationStore) ListForManager(ctx context.Context, managerID string) ([]models.Application, error) {
	return s.list(ctx, "p.manager_id = $1", managerID)
}

func (s *ApplicationStore) list(ctx context.Context, scope string, arg interface{}) ([]models.Application, error) {
	query := `
		SELECT` + applicationColumns + `,
			p.id, p.name, p.price_per_month, p.security_deposit, p.manager_id,
			l.address, l.city, l.state, l.country, l.postal_code,
			t.id, t.name, t.email, t.phone_number,
			le.id, le.start_date, le.end_date, le.rent, le.deposit
		FROM applications a
		JOIN properties p ON a.property_id = p.id
		JOIN locations l ON p.location_id = l.id
		LEFT JOIN tenants t ON a.tenant_id = t.id
		LEFT JOIN leases le ON a.lease_id = le.id
		WHERE ` + scope + `
		ORDER BY a.application_date DESC`

	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, stderrors.NewDatabaseQueryFailedError("list applications", err)
	}
	defer rows.Close()

	applications := make([]models.Application, 0)
	for rows.Next() {
		var a models.Application
		var property models.Property
		var loc models.Location
		var tenantID, tenantName, tenantEmail, tenantPhone sql.NullString
		var leaseID, leaseBound sql.NullString
		var leaseStart, leaseEnd sql.NullTime
		var leaseRent, leaseDeposit sql.NullFloat64

		err := rows.Scan(
			&a.ID, &a.ApplicationDate, &a.Status, &a.PropertyID, &a.TenantID,
			&a.Name, &a.Email, &a.PhoneNumber, &a.Message, &leaseID,
			&property.ID, &property.Name, &property.PricePerMonth,
			&property.SecurityDeposit, &property.ManagerID,
			&loc.Address, &loc.City, &loc.State, &loc.Country, &loc.PostalCode,
			&tenantID, &tenantName, &tenantEmail, &tenantPhone,
			&leaseBound, &leaseStart, &leaseEnd, &leaseRent, &leaseDeposit,
		)
		if err != nil {
			return nil, stderrors.NewDatabaseQueryFailedError("scan application", err)
		}

		property.Location = &loc
		a.Property = &property

		if tenantID.Valid {
			a.Tenant = &models.Tenant{
				ID:          tenantID.String,
				Name:        tenantName.String,
				Email:       tenantEmail.String,
				PhoneNumber: tenantPhone.String,
			}
		}

		if leaseID.Valid {
			a.LeaseID = &leaseID.String
		}
		if leaseBound.Valid {
			a.Lease = &models.Lease{
				ID:         leaseBound.String,
				StartDate:  leaseStart.Time,
				EndDate:    leaseEnd.Time,
				Rent:       leaseRent.Float64,
				Deposit:    leaseDeposit.Float64,
				PropertyID: a.PropertyID,
				TenantID:   a.TenantID,
			}
		}

		applications = append(applications, a)
	}
	if err := rows.Err(); err != nil {
		return nil, stderrors.NewDatabaseQueryFailedError("iterate applications", err)
	}

	return applications, nil
}

// GetDetailed returns one application with the property, tenant, and lease
// joined, the same projection the list queries use.
func (s *ApplicationStore) GetDetailed(ctx context.Context, id string) (*models.Application, error) {
	applications, err := s.list(ctx, "a.id = $1", id)
	if err != nil {
		return nil, err
	}
	if len(applications) == 0 {
		return nil, stderrors.NewResourceNotFoundError("application", id)
	}
	return &applications[0], nil
}

// GetByID returns the bare application row, or RESOURCE_NOT_FOUND.
func (s *ApplicationStore) GetByID(ctx context.Context, id string) (*models.Application, error) {
	query := `
		SELECT` + applicationColumns + `
		FROM applications a
		WHERE a.id = $1`

	var a models.Application
	var leaseID sql.NullString
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.ApplicationDate, &a.Status, &a.PropertyID, &a.TenantID,
		&a.Name, &a.Email, &a.PhoneNumber, &a.Message, &leaseID,
	)
	if err == sql.ErrNoRows {
		return nil, stderrors.NewResourceNotFoundError("application", id)
	}
	if err != nil {
		return nil, stderrors.NewDatabaseQueryFailedError("get application", err)
	}
	if leaseID.Valid {
		a.LeaseID = &leaseID.String
	}
	return &a, nil
}

// Insert writes the application inside the caller's transaction, bound to the
// lease created alongside it.
func (s *ApplicationStore) Insert(ctx context.Context, tx *sql.Tx, a models.Application) (*models.Application, error) {
	query := `
		INSERT INTO applications (
			application_date, status, property_id, tenant_id,
			name, email, phone_number, message, lease_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	stored := a
	err := tx.QueryRowContext(ctx, query,
		a.ApplicationDate, a.Status, a.PropertyID, a.TenantID,
		a.Name, a.Email, a.PhoneNumber, a.Message, a.LeaseID,
	).Scan(&stored.ID)
	if err != nil {
		return nil, stderrors.NewDatabaseInsertFailedError(err)
	}

	return &stored, nil
}

// UpdateStatus sets the status, and the lease binding when approval minted a
// new lease. leaseID may be nil to leave the binding untouched.
func (s *ApplicationStore) UpdateStatus(ctx context.Context, tx *sql.Tx, id string, status models.ApplicationStatus, leaseID *string) error {
	var err error
	if leaseID != nil {
		_, err = tx.ExecContext(ctx,
			`UPDATE applications SET status = $1, lease_id = $2 WHERE id = $3`,
			status, *leaseID, id)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE applications SET status = $1 WHERE id = $2`,
			status, id)
	}
	if err != nil {
		return stderrors.NewDatabaseInsertFailedError(err)
	}
	return nil
}
