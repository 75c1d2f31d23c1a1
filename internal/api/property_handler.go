package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"rentdesk/internal/auth"
	stderrors "rentdesk/internal/common/errors"
	"rentdesk/internal/common/logger"
	"rentdesk/internal/models"
	"rentdesk/internal/service"
)

// 32 MB, matching typical listing submissions with a handful of photos.
const maxUploadMemory = 32 << 20

type PropertyHandler struct {
	properties *service.PropertyService
	logger     logger.Logger
}

func NewPropertyHandler(properties *service.PropertyService, log logger.Logger) *PropertyHandler {
	return &PropertyHandler{
		properties: properties,
		logger:     log.WithFields(map[string]interface{}{"handler": "property"}),
	}
}

// Search handles GET /properties.
func (h *PropertyHandler) Search(w http.ResponseWriter, r *http.Request) {
	filters, err := parsePropertyFilters(r)
	if err != nil {
		stderrors.WriteError(w, err)
		return
	}

	properties, err := h.properties.Search(r.Context(), *filters)
	if err != nil {
		stderrors.WriteError(w, err)
		return
	}

	stderrors.WriteJSON(w, http.StatusOK, properties)
}

// Get handles GET /properties/{propertyId}.
func (h *PropertyHandler) Get(w http.ResponseWriter, r *http.Request) {
	property, err := h.properties.Get(r.Context(), chi.URLParam(r, "propertyId"))
	if err != nil {
		stderrors.WriteError(w, err)
		return
	}

	stderrors.WriteJSON(w, http.StatusOK, property)
}

// ListByManager handles GET /managers/{managerId}/properties.
func (h *PropertyHandler) ListByManager(w http.ResponseWriter, r *http.Request) {
	properties, err := h.properties.ListByManager(r.Context(), chi.URLParam(r, "managerId"))
	if err != nil {
		stderrors.WriteError(w, err)
		return
	}

	stderrors.WriteJSON(w, http.StatusOK, properties)
}

// Create handles POST /properties: a multipart form with listing fields and
// zero or more photos.
func (h *PropertyHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		stderrors.WriteError(w, stderrors.NewValidationFailedError("body", "expected multipart form data"))
		return
	}

	input := service.CreatePropertyInput{
		Name:            r.FormValue("name"),
		Description:     r.FormValue("description"),
		PricePerMonth:   r.FormValue("pricePerMonth"),
		SecurityDeposit: r.FormValue("securityDeposit"),
		ApplicationFee:  r.FormValue("applicationFee"),
		Beds:            r.FormValue("beds"),
		Baths:           r.FormValue("baths"),
		SquareFeet:      r.FormValue("squareFeet"),
		PropertyType:    r.FormValue("propertyType"),
		IsPetsAllowed:   r.FormValue("isPetsAllowed"),
		IsParkingIncl:   r.FormValue("isParkingIncluded"),
		Amenities:       r.FormValue("amenities"),
		Highlights:      r.FormValue("highlights"),
		Address:         r.FormValue("address"),
		City:            r.FormValue("city"),
		State:           r.FormValue("state"),
		Country:         r.FormValue("country"),
		PostalCode:      r.FormValue("postalCode"),
		ManagerID:       auth.SubjectFromContext(r.Context()),
	}
	if input.ManagerID == "" {
		input.ManagerID = r.FormValue("managerId")
	}

	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["photos"] {
			file, err := header.Open()
			if err != nil {
				stderrors.WriteError(w, stderrors.NewValidationFailedError("photos", "unreadable upload"))
				return
			}
			defer file.Close()
			input.Photos = append(input.Photos, service.PhotoUpload{
				FileName:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Body:        file,
			})
		}
	}

	stored, err := h.properties.Create(r.Context(), input)
	if err != nil {
		stderrors.WriteError(w, err)
		return
	}

	stderrors.WriteJSON(w, http.StatusCreated, stored)
}

func parsePropertyFilters(r *http.Request) (*models.PropertyFilter, error) {
	q := r.URL.Query()
	filters := &models.PropertyFilter{}

	var err error
	if filters.PriceMin, err = queryFloat(q.Get("priceMin"), "priceMin"); err != nil {
		return nil, err
	}
	if filters.PriceMax, err = queryFloat(q.Get("priceMax"), "priceMax"); err != nil {
		return nil, err
	}
	if filters.SquareFeetMin, err = queryInt(q.Get("squareFeetMin"), "squareFeetMin"); err != nil {
		return nil, err
	}
	if filters.SquareFeetMax, err = queryInt(q.Get("squareFeetMax"), "squareFeetMax"); err != nil {
		return nil, err
	}
	if filters.BedsMin, err = queryInt(q.Get("beds"), "beds"); err != nil {
		return nil, err
	}
	if filters.BathsMin, err = queryFloat(q.Get("baths"), "baths"); err != nil {
		return nil, err
	}
	if filters.Latitude, err = queryFloat(q.Get("latitude"), "latitude"); err != nil {
		return nil, err
	}
	if filters.Longitude, err = queryFloat(q.Get("longitude"), "longitude"); err != nil {
		return nil, err
	}

	filters.PropertyType = q.Get("propertyType")

	if raw := q.Get("amenities"); raw != "" && raw != "any" {
		filters.Amenities = splitQueryList(raw)
	}
	if raw := q.Get("ids"); raw != "" {
		filters.IDs = splitQueryList(raw)
	}

	if raw := q.Get("availableFrom"); raw != "" && raw != "any" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			parsed, err = time.Parse("2006-01-02", raw)
		}
		if err != nil {
			return nil, stderrors.NewValidationFailedError("availableFrom", "must be an RFC 3339 timestamp or YYYY-MM-DD date")
		}
		filters.AvailableFrom = &parsed
	}

	return filters, nil
}

func queryFloat(raw, name string) (*float64, error) {
	if raw == "" || raw == "any" {
		return nil, nil
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, stderrors.NewValidationFailedError(name, "must be numeric")
	}
	return &parsed, nil
}

func queryInt(raw, name string) (*int, error) {
	if raw == "" || raw == "any" {
		return nil, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return nil, stderrors.NewValidationFailedError(name, "must be an integer")
	}
	return &parsed, nil
}

func splitQueryList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
