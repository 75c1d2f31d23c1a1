package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"rentdesk/internal/auth"
	stderrors "rentdesk/internal/common/errors"
	"rentdesk/internal/common/logger"
	"rentdesk/internal/common/validation"
	"rentdesk/internal/service"
)

type ApplicationHandler struct {
	applications *service.ApplicationService
	logger       logger.Logger
}

func NewApplicationHandler(applications *service.ApplicationService, log logger.Logger) *ApplicationHandler {
	return &ApplicationHandler{
		applications: applications,
		logger:       log.WithFields(map[string]interface{}{"handler": "application"}),
	}
}

// List handles GET /applications?userId=&userType=. The defaults come from
// the caller's token.
func (h *ApplicationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		userID = auth.SubjectFromContext(r.Context())
	}
	userType := r.URL.Query().Get("userType")
	if userType == "" {
		userType = auth.RoleFromContext(r.Context())
	}

	applications, err := h.applications.List(r.Context(), userID, userType)
	if err != nil {
		stderrors.WriteError(w, err)
		return
	}

	stderrors.WriteJSON(w, http.StatusOK, applications)
}

// Create handles POST /applications.
func (h *ApplicationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		stderrors.WriteError(w, stderrors.NewValidationFailedError("body", "malformed JSON"))
		return
	}

	if err := validation.Validate(validation.SchemaApplicationCreate, payload); err != nil {
		stderrors.WriteError(w, err)
		return
	}

	input := service.CreateApplicationInput{
		PropertyID:  stringField(payload, "propertyId"),
		TenantID:    auth.SubjectFromContext(r.Context()),
		Name:        stringField(payload, "name"),
		Email:       stringField(payload, "email"),
		PhoneNumber: stringField(payload, "phoneNumber"),
		Message:     stringField(payload, "message"),
	}
	if raw := stringField(payload, "applicationDate"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			stderrors.WriteError(w, stderrors.NewValidationFailedError("applicationDate", "must be an RFC 3339 timestamp"))
			return
		}
		input.ApplicationDate = parsed
	}

	stored, err := h.applications.Create(r.Context(), input)
	if err != nil {
		stderrors.WriteError(w, err)
		return
	}

	stderrors.WriteJSON(w, http.StatusCreated, stored)
}

// UpdateStatus handles PATCH /applications/{applicationId}/status.
func (h *ApplicationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		stderrors.WriteError(w, stderrors.NewValidationFailedError("body", "malformed JSON"))
		return
	}

	if err := validation.Validate(validation.SchemaApplicationStatus, payload); err != nil {
		stderrors.WriteError(w, err)
		return
	}

	updated, err := h.applications.UpdateStatus(r.Context(),
		chi.URLParam(r, "applicationId"), stringField(payload, "status"))
	if err != nil {
		stderrors.WriteError(w, err)
		return
	}

	stderrors.WriteJSON(w, http.StatusOK, updated)
}

func stringField(payload map[string]interface{}, key string) string {
	if value, ok := payload[key].(string); ok {
		return value
	}
	return ""
}
