package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stderrors "rentdesk/internal/common/errors"
	"rentdesk/internal/common/logger"
	"rentdesk/internal/models"
)

var propertyRowColumns = []string{
	"id", "name", "description", "price_per_month", "security_deposit",
	"application_fee", "beds", "baths", "square_feet", "property_type",
	"is_pets_allowed", "is_parking_included", "amenities", "highlights",
	"photo_urls", "location_id", "manager_id", "posted_date",
	"address", "city", "state", "country", "postal_code", "longitude", "latitude",
}

func samplePropertyRow(rows *sqlmock.Rows, id string) *sqlmock.Rows {
	return rows.AddRow(
		id, "Maple Court 4B", "Sunny two-bed", 1450.0, 1450.0,
		75.0, 2, 1.5, 820, "Apartment",
		true, false, []byte("{Pool,Gym}"), []byte("{Renovated}"),
		[]byte("{https://bucket.s3.us-east-1.amazonaws.com/properties/1-a.jpg}"),
		int64(7), "mgr-123", time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		"12 Maple St", "Springfield", "IL", "USA", "62701", -89.65, 39.78,
	)
}

func newPropertyStore(t *testing.T) (*PropertyStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPropertyStore(db, logger.NewTestLogger(t)), mock
}

func TestSearchNoFiltersReturnsEverything(t *testing.T) {
	store, mock := newPropertyStore(t)

	rows := sqlmock.NewRows(propertyRowColumns)
	samplePropertyRow(rows, "prop-1")
	samplePropertyRow(rows, "prop-2")

	mock.ExpectQuery(`SELECT(?s:.*)FROM properties p\s+JOIN locations l ON p\.location_id = l\.id\s+ORDER BY p\.posted_date DESC`).
		WillReturnRows(rows)

	properties, err := store.Search(context.Background(), models.PropertyFilter{})
	require.NoError(t, err)
	require.Len(t, properties, 2)

	assert.Equal(t, "prop-1", properties[0].ID)
	assert.Equal(t, []string{"Pool", "Gym"}, properties[0].Amenities)
	require.NotNil(t, properties[0].Location)
	assert.Equal(t, -89.65, properties[0].Location.Coordinates.Longitude)
	assert.Equal(t, 39.78, properties[0].Location.Coordinates.Latitude)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchContradictoryRangeReturnsEmptySet(t *testing.T) {
	store, mock := newPropertyStore(t)

	mock.ExpectQuery(`WHERE p\.price_per_month >= \$1 AND p\.price_per_month <= \$2`).
		WithArgs(2000.0, 500.0).
		WillReturnRows(sqlmock.NewRows(propertyRowColumns))

	properties, err := store.Search(context.Background(), models.PropertyFilter{
		PriceMin: floatPtr(2000),
		PriceMax: floatPtr(500),
	})
	require.NoError(t, err)
	assert.Empty(t, properties)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	store, mock := newPropertyStore(t)

	mock.ExpectQuery(`WHERE p\.id = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(propertyRowColumns))

	_, err := store.GetByID(context.Background(), "missing")
	require.Error(t, err)

	stdErr := stderrors.AsStandardError(err)
	assert.Equal(t, stderrors.ErrCodeResourceNotFound, stdErr.Code)
}

func TestInsertLocationAndProperty(t *testing.T) {
	store, mock := newPropertyStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO locations")).
		WithArgs("12 Maple St", "Springfield", "IL", "USA", "62701", -89.65, 39.78).
		WillReturnRows(sqlmock.NewRows([]string{"id", "st_x", "st_y"}).AddRow(int64(7), -89.65, 39.78))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO properties")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "posted_date"}).
			AddRow("prop-9", time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)))
	mock.ExpectCommit()

	db := store.db
	tx, err := db.Begin()
	require.NoError(t, err)

	loc, err := store.InsertLocation(context.Background(), tx, models.Location{
		Address:    "12 Maple St",
		City:       "Springfield",
		State:      "IL",
		Country:    "USA",
		PostalCode: "62701",
		Coordinates: models.Coordinates{
			Longitude: -89.65,
			Latitude:  39.78,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), loc.ID)

	property, err := store.InsertProperty(context.Background(), tx, models.Property{
		Name:          "Maple Court 4B",
		PricePerMonth: 1450,
		Beds:          2,
		Baths:         1.5,
		SquareFeet:    820,
		PropertyType:  "Apartment",
		Amenities:     []string{"Pool"},
		LocationID:    loc.ID,
		ManagerID:     "mgr-123",
	})
	require.NoError(t, err)
	assert.Equal(t, "prop-9", property.ID)
	assert.False(t, property.PostedDate.IsZero())

	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertLocationStoresUnknownPointVerbatim(t *testing.T) {
	store, mock := newPropertyStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO locations")).
		WithArgs("1 Nowhere Rd", "Atlantis", "", "Atlantis", "00000", 0.0, 0.0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "st_x", "st_y"}).AddRow(int64(8), 0.0, 0.0))
	mock.ExpectCommit()

	tx, err := store.db.Begin()
	require.NoError(t, err)

	loc, err := store.InsertLocation(context.Background(), tx, models.Location{
		Address:    "1 Nowhere Rd",
		City:       "Atlantis",
		Country:    "Atlantis",
		PostalCode: "00000",
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, loc.Coordinates.Longitude)
	assert.Equal(t, 0.0, loc.Coordinates.Latitude)

	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}
