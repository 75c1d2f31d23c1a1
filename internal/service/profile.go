package service

import (
	"context"

	"rentdesk/internal/common/logger"
	"rentdesk/internal/models"
)

// ContactSyncer mirrors a saved profile into the CRM.
type ContactSyncer interface {
	Enabled() bool
	SyncContact(ctx context.Context, name, email, phone, source string) (string, error)
}

type userStore interface {
	GetManager(ctx context.Context, id string) (*models.Manager, error)
	CreateManager(ctx context.Context, m models.Manager) (*models.Manager, error)
	UpdateManager(ctx context.Context, m models.Manager) (*models.Manager, error)
	GetTenant(ctx context.Context, id string) (*models.Tenant, error)
	CreateTenant(ctx context.Context, t models.Tenant) (*models.Tenant, error)
	UpdateTenant(ctx context.Context, t models.Tenant) (*models.Tenant, error)
	CurrentResidences(ctx context.Context, tenantID string) ([]models.Property, error)
}

type ProfileService struct {
	users  userStore
	crm    ContactSyncer
	logger logger.Logger
}

func NewProfileService(users userStore, crm ContactSyncer, log logger.Logger) *ProfileService {
	return &ProfileService{
		users:  users,
		crm:    crm,
		logger: log.WithFields(map[string]interface{}{"service": "profile"}),
	}
}

func (s *ProfileService) GetManager(ctx context.Context, id string) (*models.Manager, error) {
	return s.users.GetManager(ctx, id)
}

func (s *ProfileService) CreateManager(ctx context.Context, m models.Manager) (*models.Manager, error) {
	stored, err := s.users.CreateManager(ctx, m)
	if err != nil {
		return nil, err
	}
	s.syncContact(ctx, stored.Name, stored.Email, stored.PhoneNumber, "manager_signup")
	return stored, nil
}

func (s *ProfileService) UpdateManager(ctx context.Context, m models.Manager) (*models.Manager, error) {
	return s.users.UpdateManager(ctx, m)
}

func (s *ProfileService) GetTenant(ctx context.Context, id string) (*models.Tenant, error) {
	return s.users.GetTenant(ctx, id)
}

func (s *ProfileService) CreateTenant(ctx context.Context, t models.Tenant) (*models.Tenant, error) {
	stored, err := s.users.CreateTenant(ctx, t)
	if err != nil {
		return nil, err
	}
	s.syncContact(ctx, stored.Name, stored.Email, stored.PhoneNumber, "tenant_signup")
	return stored, nil
}

func (s *ProfileService) UpdateTenant(ctx context.Context, t models.Tenant) (*models.Tenant, error) {
	return s.users.UpdateTenant(ctx, t)
}

func (s *ProfileService) CurrentResidences(ctx context.Context, tenantID string) ([]models.Property, error) {
	return s.users.CurrentResidences(ctx, tenantID)
}

// syncContact is best-effort: a CRM outage never fails the profile save.
func (s *ProfileService) syncContact(ctx context.Context, name, email, phone, source string) {
	if s.crm == nil || !s.crm.Enabled() {
		return
	}
	if _, err := s.crm.SyncContact(ctx, name, email, phone, source); err != nil {
		s.logger.Warn("CRM sync failed", map[string]interface{}{
			"email":  email,
			"source": source,
			"error":  err.Error(),
		})
	}
}
