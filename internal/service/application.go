package service

import (
	"context"
	"database/sql"
	"time"

	"rentdesk/internal/common/database"
	stderrors "rentdesk/internal/common/errors"
	"rentdesk/internal/common/logger"
	"rentdesk/internal/common/metrics"
	"rentdesk/internal/common/notify"
	"rentdesk/internal/models"
)

// Notifier delivers best-effort lifecycle notifications; failures never roll
// back the transaction they follow.
type Notifier interface {
	Send(ctx context.Context, event notify.Event, rcpt notify.Recipient, data map[string]interface{}) (*notify.Result, error)
}

type applicationStore interface {
	ListForTenant(ctx context.Context, tenantID string) ([]models.Application, error)
	ListForManager(ctx context.Context, managerID string) ([]models.Application, error)
	GetByID(ctx context.Context, id string) (*models.Application, error)
	GetDetailed(ctx context.Context, id string) (*models.Application, error)
	Insert(ctx context.Context, tx *sql.Tx, a models.Application) (*models.Application, error)
	UpdateStatus(ctx context.Context, tx *sql.Tx, id string, status models.ApplicationStatus, leaseID *string) error
}

type leaseStore interface {
	Insert(ctx context.Context, tx *sql.Tx, lease models.Lease) (*models.Lease, error)
}

type occupancyStore interface {
	AddOccupancy(ctx context.Context, tx *sql.Tx, propertyID, tenantID string) error
}

type propertyGetter interface {
	GetByID(ctx context.Context, id string) (*models.Property, error)
}

// CreateApplicationInput is a validated application submission.
type CreateApplicationInput struct {
	PropertyID      string
	TenantID        string
	Name            string
	Email           string
	PhoneNumber     string
	Message         string
	ApplicationDate time.Time
}

type ApplicationService struct {
	db         *sql.DB
	apps       applicationStore
	leases     leaseStore
	occupancy  occupancyStore
	properties propertyGetter
	notifier   Notifier
	logger     logger.Logger

	now func() time.Time
}

func NewApplicationService(db *sql.DB, apps applicationStore, leases leaseStore, occupancy occupancyStore, properties propertyGetter, notifier Notifier, log logger.Logger) *ApplicationService {
	return &ApplicationService{
		db:         db,
		apps:       apps,
		leases:     leases,
		occupancy:  occupancy,
		properties: properties,
		notifier:   notifier,
		logger:     log.WithFields(map[string]interface{}{"service": "application"}),
		now:        time.Now,
	}
}

// List returns the applications visible to the caller: a tenant sees their
// own, a manager sees those on properties they own. Bound leases get their
// next payment date stamped relative to now.
func (s *ApplicationService) List(ctx context.Context, userID, userType string) ([]models.Application, error) {
	var applications []models.Application
	var err error

	switch userType {
	case "tenant":
		applications, err = s.apps.ListForTenant(ctx, userID)
	case "manager":
		applications, err = s.apps.ListForManager(ctx, userID)
	default:
		return nil, stderrors.NewValidationFailedError("userType", `must be "tenant" or "manager"`)
	}
	if err != nil {
		return nil, err
	}

	now := s.now()
	for i := range applications {
		if applications[i].Lease != nil {
			next := nextPaymentDate(applications[i].Lease.StartDate, now)
			applications[i].Lease.NextPaymentDate = &next
		}
	}

	return applications, nil
}

// Create opens a lease starting now and the Pending application bound to it,
// in one transaction. The lease runs one year at the listing's posted rent.
func (s *ApplicationService) Create(ctx context.Context, input CreateApplicationInput) (*models.Application, error) {
	property, err := s.properties.GetByID(ctx, input.PropertyID)
	if err != nil {
		return nil, err
	}

	applicationDate := input.ApplicationDate
	if applicationDate.IsZero() {
		applicationDate = s.now()
	}
	startDate := s.now()

	var stored *models.Application
	err = database.WithinTx(ctx, s.db, func(tx *sql.Tx) error {
		lease, err := s.leases.Insert(ctx, tx, models.Lease{
			StartDate:  startDate,
			EndDate:    startDate.AddDate(1, 0, 0),
			Rent:       property.PricePerMonth,
			Deposit:    property.SecurityDeposit,
			PropertyID: property.ID,
			TenantID:   input.TenantID,
		})
		if err != nil {
			return err
		}

		stored, err = s.apps.Insert(ctx, tx, models.Application{
			ApplicationDate: applicationDate,
			Status:          models.StatusPending,
			PropertyID:      input.PropertyID,
			TenantID:        input.TenantID,
			Name:            input.Name,
			Email:           input.Email,
			PhoneNumber:     input.PhoneNumber,
			Message:         input.Message,
			LeaseID:         &lease.ID,
		})
		if err != nil {
			return err
		}
		stored.Lease = lease
		stored.Property = property
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ApplicationsSubmitted.Inc()
	s.notify(ctx, notify.EventApplicationSubmitted, stored, property)

	return stored, nil
}

// UpdateStatus records the decision. Approval mints a second, independent
// lease starting at decision time, links the tenant as an occupant, and binds
// the new lease to the application. Any other status is stored as-is.
func (s *ApplicationService) UpdateStatus(ctx context.Context, applicationID string, status models.ApplicationStatus) (*models.Application, error) {
	application, err := s.apps.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	property, err := s.properties.GetByID(ctx, application.PropertyID)
	if err != nil {
		return nil, err
	}

	err = database.WithinTx(ctx, s.db, func(tx *sql.Tx) error {
		if status == models.StatusApproved {
			startDate := s.now()
			lease, err := s.leases.Insert(ctx, tx, models.Lease{
				StartDate:  startDate,
				EndDate:    startDate.AddDate(1, 0, 0),
				Rent:       property.PricePerMonth,
				Deposit:    property.SecurityDeposit,
				PropertyID: application.PropertyID,
				TenantID:   application.TenantID,
			})
			if err != nil {
				return err
			}
			if err := s.occupancy.AddOccupancy(ctx, tx, application.PropertyID, application.TenantID); err != nil {
				return err
			}
			return s.apps.UpdateStatus(ctx, tx, applicationID, status, &lease.ID)
		}
		return s.apps.UpdateStatus(ctx, tx, applicationID, status, nil)
	})
	if err != nil {
		return nil, err
	}

	metrics.ApplicationStatusChanges.WithLabelValues(string(status)).Inc()

	// re-fetch with tenant and lease joined; the full property projection
	// was already loaded above
	updated, err := s.apps.GetDetailed(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	updated.Property = property

	switch status {
	case models.StatusApproved:
		s.notify(ctx, notify.EventApplicationApproved, updated, property)
	case models.StatusDenied:
		s.notify(ctx, notify.EventApplicationDenied, updated, property)
	}

	return updated, nil
}

func (s *ApplicationService) notify(ctx context.Context, event notify.Event, application *models.Application, property *models.Property) {
	if s.notifier == nil {
		return
	}
	_, err := s.notifier.Send(ctx, event, notify.Recipient{
		Email: application.Email,
		Phone: application.PhoneNumber,
	}, map[string]interface{}{
		"propertyName": property.Name,
	})
	if err != nil {
		s.logger.Warn("notification delivery failed", map[string]interface{}{
			"applicationId": application.ID,
			"event":         string(event),
			"error":         err.Error(),
		})
	}
}

// nextPaymentDate advances one month at a time from the lease start until the
// result lands strictly after now.
func nextPaymentDate(startDate, now time.Time) time.Time {
	next := startDate
	for !next.After(now) {
		next = next.AddDate(0, 1, 0)
	}
	return next
}
