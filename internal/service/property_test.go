package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stderrors "rentdesk/internal/common/errors"
	"rentdesk/internal/common/geocode"
	"rentdesk/internal/common/logger"
	"rentdesk/internal/models"
)

type fakeUploader struct {
	uploaded []string
	failOn   string
}

func (f *fakeUploader) Upload(_ context.Context, fileName, _ string, _ io.Reader) (string, error) {
	if fileName == f.failOn {
		return "", errors.New("s3 unavailable")
	}
	key := "properties/" + fileName
	f.uploaded = append(f.uploaded, key)
	return key, nil
}

func (f *fakeUploader) ObjectURL(key string) string {
	return "https://bucket.s3.us-east-1.amazonaws.com/" + key
}

type fakeGeocoder struct {
	point    geocode.Point
	err      error
	resolved []geocode.Address
}

func (f *fakeGeocoder) Resolve(_ context.Context, addr geocode.Address) (geocode.Point, error) {
	f.resolved = append(f.resolved, addr)
	return f.point, f.err
}

type fakePropertyStore struct {
	locations  []models.Location
	properties []models.Property
}

func (f *fakePropertyStore) Search(_ context.Context, _ models.PropertyFilter) ([]models.Property, error) {
	return f.properties, nil
}

func (f *fakePropertyStore) GetByID(_ context.Context, id string) (*models.Property, error) {
	for i := range f.properties {
		if f.properties[i].ID == id {
			return &f.properties[i], nil
		}
	}
	return nil, stderrors.NewResourceNotFoundError("property", id)
}

func (f *fakePropertyStore) ListByManager(_ context.Context, _ string) ([]models.Property, error) {
	return f.properties, nil
}

func (f *fakePropertyStore) InsertLocation(_ context.Context, _ *sql.Tx, loc models.Location) (*models.Location, error) {
	loc.ID = int64(len(f.locations) + 1)
	f.locations = append(f.locations, loc)
	return &loc, nil
}

func (f *fakePropertyStore) InsertProperty(_ context.Context, _ *sql.Tx, property models.Property) (*models.Property, error) {
	property.ID = fmt.Sprintf("prop-%d", len(f.properties)+1)
	f.properties = append(f.properties, property)
	return &property, nil
}

type fakeManagerStore struct {
	managers map[string]*models.Manager
}

func (f *fakeManagerStore) GetManager(_ context.Context, id string) (*models.Manager, error) {
	if m, ok := f.managers[id]; ok {
		return m, nil
	}
	return nil, stderrors.NewResourceNotFoundError("manager", id)
}

func newPropertyService(t *testing.T) (*PropertyService, *fakePropertyStore, *fakeUploader, *fakeGeocoder, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	props := &fakePropertyStore{}
	uploader := &fakeUploader{}
	geocoder := &fakeGeocoder{point: geocode.Point{Longitude: -89.65, Latitude: 39.78}}
	managers := &fakeManagerStore{managers: map[string]*models.Manager{
		"mgr-123": {ID: "mgr-123", Name: "Morgan Leigh", Email: "morgan@rentdesk.example"},
	}}

	svc := NewPropertyService(db, props, managers, uploader, geocoder, logger.NewTestLogger(t))
	return svc, props, uploader, geocoder, mock
}

func validCreateInput() CreatePropertyInput {
	return CreatePropertyInput{
		Name:            "Maple Court 4B",
		Description:     "Sunny two-bed",
		PricePerMonth:   "1450",
		SecurityDeposit: "1450",
		ApplicationFee:  "75",
		Beds:            "2",
		Baths:           "1.5",
		SquareFeet:      "820",
		PropertyType:    "Apartment",
		IsPetsAllowed:   "true",
		IsParkingIncl:   "false",
		Amenities:       "Pool, Gym",
		Highlights:      "Renovated",
		Address:         "12 Maple St",
		City:            "Springfield",
		State:           "IL",
		Country:         "USA",
		PostalCode:      "62701",
		ManagerID:       "mgr-123",
		Photos: []PhotoUpload{
			{FileName: "front.jpg", ContentType: "image/jpeg", Body: strings.NewReader("jpeg")},
			{FileName: "kitchen.jpg", ContentType: "image/jpeg", Body: strings.NewReader("jpeg")},
		},
	}
}

func TestCreateListingPipeline(t *testing.T) {
	svc, props, uploader, geocoder, mock := newPropertyService(t)

	mock.ExpectBegin()
	mock.ExpectCommit()

	stored, err := svc.Create(context.Background(), validCreateInput())
	require.NoError(t, err)

	assert.Len(t, uploader.uploaded, 2)
	assert.Equal(t, []string{
		"https://bucket.s3.us-east-1.amazonaws.com/properties/front.jpg",
		"https://bucket.s3.us-east-1.amazonaws.com/properties/kitchen.jpg",
	}, stored.PhotoURLs)

	require.Len(t, geocoder.resolved, 1)
	assert.Equal(t, "Springfield", geocoder.resolved[0].City)

	require.Len(t, props.locations, 1)
	assert.Equal(t, -89.65, props.locations[0].Coordinates.Longitude)

	assert.Equal(t, 1450.0, stored.PricePerMonth)
	assert.Equal(t, 2, stored.Beds)
	assert.True(t, stored.IsPetsAllowed)
	assert.False(t, stored.IsParkingIncluded)
	assert.Equal(t, []string{"Pool", "Gym"}, stored.Amenities)
	assert.Equal(t, props.locations[0].ID, stored.LocationID)
	assert.Equal(t, "mgr-123", stored.ManagerID)
	require.NotNil(t, stored.Manager)
	assert.Equal(t, "Morgan Leigh", stored.Manager.Name)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithoutManagerProfileStillSucceeds(t *testing.T) {
	svc, _, _, _, mock := newPropertyService(t)
	svc.managers = &fakeManagerStore{managers: map[string]*models.Manager{}}

	mock.ExpectBegin()
	mock.ExpectCommit()

	stored, err := svc.Create(context.Background(), validCreateInput())
	require.NoError(t, err)
	assert.Nil(t, stored.Manager)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUploadFailureAborts(t *testing.T) {
	svc, props, uploader, geocoder, mock := newPropertyService(t)
	uploader.failOn = "kitchen.jpg"

	_, err := svc.Create(context.Background(), validCreateInput())
	require.Error(t, err)

	stdErr := stderrors.AsStandardError(err)
	assert.Equal(t, stderrors.ErrCodeUploadFailed, stdErr.Code)

	// the first photo stays in the bucket, nothing else runs
	assert.Len(t, uploader.uploaded, 1)
	assert.Empty(t, geocoder.resolved)
	assert.Empty(t, props.locations)
	assert.Empty(t, props.properties)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateGeocodeMissStoresUnknownLocation(t *testing.T) {
	svc, props, _, geocoder, mock := newPropertyService(t)
	geocoder.point = geocode.Point{}

	mock.ExpectBegin()
	mock.ExpectCommit()

	_, err := svc.Create(context.Background(), validCreateInput())
	require.NoError(t, err)

	require.Len(t, props.locations, 1)
	assert.Equal(t, 0.0, props.locations[0].Coordinates.Longitude)
	assert.Equal(t, 0.0, props.locations[0].Coordinates.Latitude)
}

func TestCreateGeocodeErrorFails(t *testing.T) {
	svc, _, _, geocoder, _ := newPropertyService(t)
	geocoder.err = errors.New("nominatim timeout")

	_, err := svc.Create(context.Background(), validCreateInput())
	require.Error(t, err)

	stdErr := stderrors.AsStandardError(err)
	assert.Equal(t, stderrors.ErrCodeGeocodingFailed, stdErr.Code)
}

func TestCreateRejectsNonNumericPrice(t *testing.T) {
	svc, _, _, _, mock := newPropertyService(t)

	input := validCreateInput()
	input.PricePerMonth = "cheap"

	_, err := svc.Create(context.Background(), input)
	require.Error(t, err)

	stdErr := stderrors.AsStandardError(err)
	assert.Equal(t, stderrors.ErrCodeValidationFailed, stdErr.Code)
	assert.Equal(t, "pricePerMonth", stdErr.Metadata["field"])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRejectsBadBoolean(t *testing.T) {
	svc, _, _, _, _ := newPropertyService(t)

	input := validCreateInput()
	input.IsPetsAllowed = "yes"

	_, err := svc.Create(context.Background(), input)
	require.Error(t, err)

	stdErr := stderrors.AsStandardError(err)
	assert.Equal(t, "isPetsAllowed", stdErr.Metadata["field"])
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"Pool", "Gym"}, splitList("Pool, Gym"))
	assert.Equal(t, []string{"Pool"}, splitList("Pool,,  "))
	assert.Empty(t, splitList(""))
}
