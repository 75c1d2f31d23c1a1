package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rentdesk/internal/auth"
	stderrors "rentdesk/internal/common/errors"
	"rentdesk/internal/common/logger"
	"rentdesk/internal/common/validation"
	"rentdesk/internal/models"
	"rentdesk/internal/service"
)

type ProfileHandler struct {
	profiles *service.ProfileService
	logger   logger.Logger
}

func NewProfileHandler(profiles *service.ProfileService, log logger.Logger) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		logger:   log.WithFields(map[string]interface{}{"handler": "profile"}),
	}
}

func (h *ProfileHandler) GetManager(w http.ResponseWriter, r *http.Request) {
	manager, err := h.profiles.GetManager(r.Context(), chi.URLParam(r, "managerId"))
	if err != nil {
		stderrors.WriteError(w, err)
		return
	}
	stderrors.WriteJSON(w, http.StatusOK, manager)
}

func (h *ProfileHandler) CreateManager(w http.ResponseWriter, r *http.Request) {
	payload, err := decodeProfile(r, validation.SchemaManagerProfile)
	if err != nil {
		stderrors.WriteError(w, err)
		return
	}

	manager, err := h.profiles.CreateManager(r.Context(), models.Manager{
		ID:          auth.SubjectFromContext(r.Context()),
		Name:        stringField(payload, "name"),
		Email:       stringField(payload, "email"),
		PhoneNumber: stringField(payload, "phoneNumber"),
	})
	if err != nil {
		stderrors.WriteError(w, err)
		return
	}
	stderrors.WriteJSON(w, http.StatusCreated, manager)
}

func (h *ProfileHandler) UpdateManager(w http.ResponseWriter, r *http.Request) {
	payload, err := decodeProfile(r, validation.SchemaManagerProfile)
	if err != nil {
		stderrors.WriteError(w, err)
		return
	}

	manager, err := h.profiles.UpdateManager(r.Context(), models.Manager{
		ID:          chi.URLParam(r, "managerId"),
		Name:        stringField(payload, "name"),
		Email:       stringField(payload, "email"),
		PhoneNumber: stringField(payload, "phoneNumber"),
	})
	if err != nil {
		stderrors.WriteError(w, err)
		return
	}
	stderrors.WriteJSON(w, http.StatusOK, manager)
}

func (h *ProfileHandler) GetTenant(w http.ResponseWriter, r *http.Request) {
	tenant, err := h.profiles.GetTenant(r.Context(), chi.URLParam(r, "tenantId"))
	if err != nil {
		stderrors.WriteError(w, err)
		return
	}
	stderrors.WriteJSON(w, http.StatusOK, tenant)
}

func (h *ProfileHandler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	payload, err := decodeProfile(r, validation.SchemaTenantProfile)
	if err != nil {
		stderrors.WriteError(w, err)
		return
	}

	tenant, err := h.profiles.CreateTenant(r.Context(), models.Tenant{
		ID:          auth.SubjectFromContext(r.Context()),
		Name:        stringField(payload, "name"),
		Email:       stringField(payload, "email"),
		PhoneNumber: stringField(payload, "phoneNumber"),
	})
	if err != nil {
		stderrors.WriteError(w, err)
		return
	}
	stderrors.WriteJSON(w, http.StatusCreated, tenant)
}

func (h *ProfileHandler) UpdateTenant(w http.ResponseWriter, r *http.Request) {
	payload, err := decodeProfile(r, validation.SchemaTenantProfile)
	if err != nil {
		stderrors.WriteError(w, err)
		return
	}

	tenant, err := h.profiles.UpdateTenant(r.Context(), models.Tenant{
		ID:          chi.URLParam(r, "tenantId"),
		Name:        stringField(payload, "name"),
		Email:       stringField(payload, "email"),
		PhoneNumber: stringField(payload, "phoneNumber"),
	})
	if err != nil {
		stderrors.WriteError(w, err)
		return
	}
	stderrors.WriteJSON(w, http.StatusOK, tenant)
}

func (h *ProfileHandler) CurrentResidences(w http.ResponseWriter, r *http.Request) {
	properties, err := h.profiles.CurrentResidences(r.Context(), chi.URLParam(r, "tenantId"))
	if err != nil {
		stderrors.WriteError(w, err)
		return
	}
	stderrors.WriteJSON(w, http.StatusOK, properties)
}

func decodeProfile(r *http.Request, schema string) (map[string]interface{}, error) {
	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return nil, stderrors.NewValidationFailedError("body", "malformed JSON")
	}
	if err := validation.Validate(schema, payload); err != nil {
		return nil, err
	}
	return payload, nil
}
