// Package service holds the domain workflows between the HTTP handlers and
// the stores.
package service

import (
	"context"
	"database/sql"
	"io"
	"strconv"
	"strings"

	"rentdesk/internal/common/database"
	stderrors "rentdesk/internal/common/errors"
	"rentdesk/internal/common/geocode"
	"rentdesk/internal/common/logger"
	"rentdesk/internal/common/metrics"
	"rentdesk/internal/models"
)

// Uploader abstracts the object store for testability.
type Uploader interface {
	Upload(ctx context.Context, fileName, contentType string, body io.Reader) (string, error)
	ObjectURL(key string) string
}

// Geocoder abstracts the address lookup service.
type Geocoder interface {
	Resolve(ctx context.Context, addr geocode.Address) (geocode.Point, error)
}

// PhotoUpload is one multipart photo from a listing submission.
type PhotoUpload struct {
	FileName    string
	ContentType string
	Body        io.Reader
}

// CreatePropertyInput carries the raw form fields of a listing submission.
// Numeric and boolean fields arrive as strings and are normalized here.
type CreatePropertyInput struct {
	Name            string
	Description     string
	PricePerMonth   string
	SecurityDeposit string
	ApplicationFee  string
	Beds            string
	Baths           string
	SquareFeet      string
	PropertyType    string
	IsPetsAllowed   string
	IsParkingIncl   string
	Amenities       string
	Highlights      string

	Address    string
	City       string
	State      string
	Country    string
	PostalCode string

	ManagerID string
	Photos    []PhotoUpload
}

type PropertyService struct {
	db       *sql.DB
	props    propertyStore
	managers managerGetter
	uploader Uploader
	geocoder Geocoder
	logger   logger.Logger
}

type managerGetter interface {
	GetManager(ctx context.Context, id string) (*models.Manager, error)
}

type propertyStore interface {
	Search(ctx context.Context, filters models.PropertyFilter) ([]models.Property, error)
	GetByID(ctx context.Context, id string) (*models.Property, error)
	ListByManager(ctx context.Context, managerID string) ([]models.Property, error)
	InsertLocation(ctx context.Context, tx *sql.Tx, loc models.Location) (*models.Location, error)
	InsertProperty(ctx context.Context, tx *sql.Tx, property models.Property) (*models.Property, error)
}

func NewPropertyService(db *sql.DB, props propertyStore, managers managerGetter, uploader Uploader, geocoder Geocoder, log logger.Logger) *PropertyService {
	return &PropertyService{
		db:       db,
		props:    props,
		managers: managers,
		uploader: uploader,
		geocoder: geocoder,
		logger:   log.WithFields(map[string]interface{}{"service": "property"}),
	}
}

func (s *PropertyService) Search(ctx context.Context, filters models.PropertyFilter) ([]models.Property, error) {
	properties, err := s.props.Search(ctx, filters)
	if err != nil {
		return nil, err
	}
	metrics.PropertySearchResults.Observe(float64(len(properties)))
	return properties, nil
}

func (s *PropertyService) Get(ctx context.Context, id string) (*models.Property, error) {
	return s.props.GetByID(ctx, id)
}

func (s *PropertyService) ListByManager(ctx context.Context, managerID string) ([]models.Property, error) {
	return s.props.ListByManager(ctx, managerID)
}

// Create runs the listing pipeline: upload photos, geocode the address, then
// persist location and property in one transaction. A failed upload aborts
// the whole pipeline; photos already stored are logged, never removed.
func (s *PropertyService) Create(ctx context.Context, input CreatePropertyInput) (*models.Property, error) {
	photoURLs := make([]string, 0, len(input.Photos))
	for _, photo := range input.Photos {
		key, err := s.uploader.Upload(ctx, photo.FileName, photo.ContentType, photo.Body)
		if err != nil {
			s.logger.Error("photo upload failed, aborting listing", map[string]interface{}{
				"fileName": photo.FileName,
				"stored":   len(photoURLs),
			})
			return nil, stderrors.NewUploadFailedError(photo.FileName, err)
		}
		photoURLs = append(photoURLs, s.uploader.ObjectURL(key))
	}

	point, err := s.geocoder.Resolve(ctx, geocode.Address{
		Street:     input.Address,
		City:       input.City,
		Country:    input.Country,
		PostalCode: input.PostalCode,
	})
	if err != nil {
		metrics.GeocodeLookups.WithLabelValues("error").Inc()
		return nil, stderrors.NewGeocodingFailedError(err)
	}
	if point.IsUnknown() {
		metrics.GeocodeLookups.WithLabelValues("miss").Inc()
	} else {
		metrics.GeocodeLookups.WithLabelValues("hit").Inc()
	}

	property, err := normalizeProperty(input)
	if err != nil {
		return nil, err
	}
	property.PhotoURLs = photoURLs
	property.ManagerID = input.ManagerID

	var stored *models.Property
	err = database.WithinTx(ctx, s.db, func(tx *sql.Tx) error {
		loc, err := s.props.InsertLocation(ctx, tx, models.Location{
			Address:    input.Address,
			City:       input.City,
			State:      input.State,
			Country:    input.Country,
			PostalCode: input.PostalCode,
			Coordinates: models.Coordinates{
				Longitude: point.Longitude,
				Latitude:  point.Latitude,
			},
		})
		if err != nil {
			return err
		}

		property.LocationID = loc.ID
		stored, err = s.props.InsertProperty(ctx, tx, *property)
		if err != nil {
			return err
		}
		stored.Location = loc
		return nil
	})
	if err != nil {
		return nil, err
	}

	// the stored row only carries manager_id; attach the profile so the
	// response returns the listing with its location and manager
	manager, err := s.managers.GetManager(ctx, input.ManagerID)
	if err != nil {
		s.logger.Warn("manager profile not attached to listing", map[string]interface{}{
			"managerId": input.ManagerID,
			"error":     err.Error(),
		})
	} else {
		stored.Manager = manager
	}

	s.logger.Info("listing created", map[string]interface{}{
		"propertyId": stored.ID,
		"managerId":  stored.ManagerID,
		"photos":     len(photoURLs),
	})
	return stored, nil
}

func normalizeProperty(input CreatePropertyInput) (*models.Property, error) {
	price, err := parseFloatField("pricePerMonth", input.PricePerMonth)
	if err != nil {
		return nil, err
	}
	deposit, err := parseFloatField("securityDeposit", input.SecurityDeposit)
	if err != nil {
		return nil, err
	}
	fee, err := parseFloatField("applicationFee", input.ApplicationFee)
	if err != nil {
		return nil, err
	}
	beds, err := parseIntField("beds", input.Beds)
	if err != nil {
		return nil, err
	}
	baths, err := parseFloatField("baths", input.Baths)
	if err != nil {
		return nil, err
	}
	squareFeet, err := parseIntField("squareFeet", input.SquareFeet)
	if err != nil {
		return nil, err
	}
	pets, err := parseBoolField("isPetsAllowed", input.IsPetsAllowed)
	if err != nil {
		return nil, err
	}
	parking, err := parseBoolField("isParkingIncluded", input.IsParkingIncl)
	if err != nil {
		return nil, err
	}

	if input.Name == "" {
		return nil, stderrors.NewValidationFailedError("name", "must not be empty")
	}

	return &models.Property{
		Name:              input.Name,
		Description:       input.Description,
		PricePerMonth:     price,
		SecurityDeposit:   deposit,
		ApplicationFee:    fee,
		Beds:              beds,
		Baths:             baths,
		SquareFeet:        squareFeet,
		PropertyType:      input.PropertyType,
		IsPetsAllowed:     pets,
		IsParkingIncluded: parking,
		Amenities:         splitList(input.Amenities),
		Highlights:        splitList(input.Highlights),
	}, nil
}

func parseFloatField(field, value string) (float64, error) {
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, stderrors.NewValidationFailedError(field, "must be numeric")
	}
	return parsed, nil
}

func parseIntField(field, value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, stderrors.NewValidationFailedError(field, "must be an integer")
	}
	return parsed, nil
}

func parseBoolField(field, value string) (bool, error) {
	switch strings.ToLower(value) {
	case "", "false":
		return false, nil
	case "true":
		return true, nil
	default:
		return false, stderrors.NewValidationFailedError(field, `must be "true" or "false"`)
	}
}

// splitList turns a comma-separated form value into a set, dropping empty
// entries.
func splitList(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
