package store

import (
	"context"
	"database/sql"
	"fmt"

	stderrors "rentdesk/internal/common/errors"
	"rentdesk/internal/common/logger"
	"rentdesk/internal/models"
)

// UserStore persists manager and tenant profiles. Identity lives in the
// external provider; rows here are keyed by its opaque subject id.
type UserStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewUserStore(db *sql.DB, log logger.Logger) *UserStore {
	return &UserStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"store": "user"}),
	}
}

func (s *UserStore) GetManager(ctx context.Context, id string) (*models.Manager, error) {
	var m models.Manager
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, phone_number FROM managers WHERE id = $1`, id,
	).Scan(&m.ID, &m.Name, &m.Email, &m.PhoneNumber)
	if err == sql.ErrNoRows {
		return nil, stderrors.NewResourceNotFoundError("manager", id)
	}
	if err != nil {
		return nil, stderrors.NewDatabaseQueryFailedError("get manager", err)
	}
	return &m, nil
}

// CreateManager upserts the profile keyed on the provider's subject id; a
// repeated create for the same subject overwrites the contact fields.
func (s *UserStore) CreateManager(ctx context.Context, m models.Manager) (*models.Manager, error) {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO managers (id, name, email, phone_number)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE
		 SET name = EXCLUDED.name, email = EXCLUDED.email, phone_number = EXCLUDED.phone_number
		 RETURNING id, name, email, phone_number`,
		m.ID, m.Name, m.Email, m.PhoneNumber,
	).Scan(&m.ID, &m.Name, &m.Email, &m.PhoneNumber)
	if err != nil {
		return nil, stderrors.NewDatabaseInsertFailedError(err)
	}
	return &m, nil
}

func (s *UserStore) UpdateManager(ctx context.Context, m models.Manager) (*models.Manager, error) {
	err := s.db.QueryRowContext(ctx,
		`UPDATE managers SET name = $2, email = $3, phone_number = $4
		 WHERE id = $1
		 RETURNING id, name, email, phone_number`,
		m.ID, m.Name, m.Email, m.PhoneNumber,
	).Scan(&m.ID, &m.Name, &m.Email, &m.PhoneNumber)
	if err == sql.ErrNoRows {
		return nil, stderrors.NewResourceNotFoundError("manager", m.ID)
	}
	if err != nil {
		return nil, stderrors.NewDatabaseInsertFailedError(err)
	}
	return &m, nil
}

func (s *UserStore) GetTenant(ctx context.Context, id string) (*models.Tenant, error) {
	var t models.Tenant
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, phone_number FROM tenants WHERE id = $1`, id,
	).Scan(&t.ID, &t.Name, &t.Email, &t.PhoneNumber)
	if err == sql.ErrNoRows {
		return nil, stderrors.NewResourceNotFoundError("tenant", id)
	}
	if err != nil {
		return nil, stderrors.NewDatabaseQueryFailedError("get tenant", err)
	}
	return &t, nil
}

// CreateTenant upserts the profile keyed on the provider's subject id.
func (s *UserStore) CreateTenant(ctx context.Context, t models.Tenant) (*models.Tenant, error) {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO tenants (id, name, email, phone_number)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE
		 SET name = EXCLUDED.name, email = EXCLUDED.email, phone_number = EXCLUDED.phone_number
		 RETURNING id, name, email, phone_number`,
		t.ID, t.Name, t.Email, t.PhoneNumber,
	).Scan(&t.ID, &t.Name, &t.Email, &t.PhoneNumber)
	if err != nil {
		return nil, stderrors.NewDatabaseInsertFailedError(err)
	}
	return &t, nil
}

func (s *UserStore) UpdateTenant(ctx context.Context, t models.Tenant) (*models.Tenant, error) {
	err := s.db.QueryRowContext(ctx,
		`UPDATE tenants SET name = $2, email = $3, phone_number = $4
		 WHERE id = $1
		 RETURNING id, name, email, phone_number`,
		t.ID, t.Name, t.Email, t.PhoneNumber,
	).Scan(&t.ID, &t.Name, &t.Email, &t.PhoneNumber)
	if err == sql.ErrNoRows {
		return nil, stderrors.NewResourceNotFoundError("tenant", t.ID)
	}
	if err != nil {
		return nil, stderrors.NewDatabaseInsertFailedError(err)
	}
	return &t, nil
}

// AddOccupancy links the tenant to the property inside the caller's
// transaction. Idempotent on repeat approvals.
func (s *UserStore) AddOccupancy(ctx context.Context, tx *sql.Tx, propertyID, tenantID string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO tenant_properties (property_id, tenant_id)
		 VALUES ($1, $2)
		 ON CONFLICT (property_id, tenant_id) DO NOTHING`,
		propertyID, tenantID)
	if err != nil {
		return stderrors.NewDatabaseInsertFailedError(err)
	}
	return nil
}

// CurrentResidences returns the properties the tenant currently occupies.
func (s *UserStore) CurrentResidences(ctx context.Context, tenantID string) ([]models.Property, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM tenant_properties tp
		JOIN properties p ON tp.property_id = p.id
		JOIN locations l ON p.location_id = l.id
		WHERE tp.tenant_id = $1
		ORDER BY p.posted_date DESC`, propertyColumns)

	rows, err := s.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, stderrors.NewDatabaseQueryFailedError("current residences", err)
	}
	defer rows.Close()

	properties := make([]models.Property, 0)
	for rows.Next() {
		property, err := scanProperty(rows)
		if err != nil {
			return nil, stderrors.NewDatabaseQueryFailedError("scan property", err)
		}
		properties = append(properties, *property)
	}
	if err := rows.Err(); err != nil {
		return nil, stderrors.NewDatabaseQueryFailedError("iterate properties", err)
	}

	return properties, nil
}
