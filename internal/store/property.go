// Package store holds the raw-SQL persistence layer.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	stderrors "rentdesk/internal/common/errors"
	"rentdesk/internal/common/logger"
	"rentdesk/internal/models"
)

const propertyColumns = `
	p.id, p.name, p.description, p.price_per_month, p.security_deposit,
	p.application_fee, p.beds, p.baths, p.square_feet, p.property_type,
	p.is_pets_allowed, p.is_parking_included, p.amenities, p.highlights,
	p.photo_urls, p.location_id, p.manager_id, p.posted_date,
	l.address, l.city, l.state, l.country, l.postal_code,
	ST_X(l.coordinates::geometry) AS longitude,
	ST_Y(l.coordinates::geometry) AS latitude`

type PropertyStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPropertyStore(db *sql.DB, log logger.Logger) *PropertyStore {
	return &PropertyStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"store": "property"}),
	}
}

// Search returns all properties matching the filter set, newest first. An
// empty filter returns every listing.
func (s *PropertyStore) Search(ctx context.Context, filters models.PropertyFilter) ([]models.Property, error) {
	whereClause, args := applyFilters(filters)

	query := fmt.Sprintf(`
		SELECT %s
		FROM properties p
		JOIN locations l ON p.location_id = l.id
		%s
		ORDER BY p.posted_date DESC`, propertyColumns, whereClause)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, stderrors.NewDatabaseQueryFailedError("search properties", err)
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

// GetByID returns one property with its location, or RESOURCE_NOT_FOUND.
func (s *PropertyStore) GetByID(ctx context.Context, id string) (*models.Property, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM properties p
		JOIN locations l ON p.location_id = l.id
		WHERE p.id = $1`, propertyColumns)

	row := s.db.QueryRowContext(ctx, query, id)
	property, err := scanProperty(row)
	if err == sql.ErrNoRows {
		return nil, stderrors.NewResourceNotFoundError("property", id)
	}
	if err != nil {
		return nil, stderrors.NewDatabaseQueryFailedError("get property", err)
	}
	return property, nil
}

// InsertLocation writes the geocoded point inside the caller's transaction
// and returns the stored location with coordinates read back from the
// database.
func (s *PropertyStore) InsertLocation(ctx context.Context, tx *sql.Tx, loc models.Location) (*models.Location, error) {
	query := `
		INSERT INTO locations (address, city, state, country, postal_code, coordinates)
		VALUES ($1, $2, $3, $4, $5, ST_SetSRID(ST_MakePoint($6, $7), 4326)::geography)
		RETURNING id, ST_X(coordinates::geometry), ST_Y(coordinates::geometry)`

	stored := loc
	err := tx.QueryRowContext(ctx, query,
		loc.Address, loc.City, loc.State, loc.Country, loc.PostalCode,
		loc.Coordinates.Longitude, loc.Coordinates.Latitude,
	).Scan(&stored.ID, &stored.Coordinates.Longitude, &stored.Coordinates.Latitude)
	if err != nil {
		return nil, stderrors.NewDatabaseInsertFailedError(err)
	}

	return &stored, nil
}

// InsertProperty writes the listing inside the caller's transaction.
func (s *PropertyStore) InsertProperty(ctx context.Context, tx *sql.Tx, property models.Property) (*models.Property, error) {
	query := `
		INSERT INTO properties (
			name, description, price_per_month, security_deposit, application_fee,
			beds, baths, square_feet, property_type, is_pets_allowed,
			is_parking_included, amenities, highlights, photo_urls,
			location_id, manager_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, posted_date`

	stored := property
	err := tx.QueryRowContext(ctx, query,
		property.Name, property.Description, property.PricePerMonth,
		property.SecurityDeposit, property.ApplicationFee, property.Beds,
		property.Baths, property.SquareFeet, property.PropertyType,
		property.IsPetsAllowed, property.IsParkingIncluded,
		pq.Array(property.Amenities), pq.Array(property.Highlights),
		pq.Array(property.PhotoURLs), property.LocationID, property.ManagerID,
	).Scan(&stored.ID, &stored.PostedDate)
	if err != nil {
		return nil, stderrors.NewDatabaseInsertFailedError(err)
	}

	return &stored, nil
}

// ListByManager returns every listing owned by the manager, newest first.
func (s *PropertyStore) ListByManager(ctx context.Context, managerID string) ([]models.Property, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM properties p
		JOIN locations l ON p.location_id = l.id
		WHERE p.manager_id = $1
		ORDER BY p.posted_date DESC`, propertyColumns)

	rows, err := s.db.QueryContext(ctx, query, managerID)
	if err != nil {
		return nil, stderrors.NewDatabaseQueryFailedError("list manager properties", err)
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

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProperty(row rowScanner) (*models.Property, error) {
	var p models.Property
	var loc models.Location

	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.PricePerMonth, &p.SecurityDeposit,
		&p.ApplicationFee, &p.Beds, &p.Baths, &p.SquareFeet, &p.PropertyType,
		&p.IsPetsAllowed, &p.IsParkingIncluded,
		pq.Array(&p.Amenities), pq.Array(&p.Highlights), pq.Array(&p.PhotoURLs),
		&p.LocationID, &p.ManagerID, &p.PostedDate,
		&loc.Address, &loc.City, &loc.State, &loc.Country, &loc.PostalCode,
		&loc.Coordinates.Longitude, &loc.Coordinates.Latitude,
	)
	if err != nil {
		return nil, err
	}

	loc.ID = p.LocationID
	p.Location = &loc
	return &p, nil
}
