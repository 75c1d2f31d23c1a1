// internal/models/application.go
package models

import "time"

// ApplicationStatus is an open-ended tag; only Approved triggers lease
// creation, anything else is stored as-is.
type ApplicationStatus = string

const (
	StatusPending  ApplicationStatus = "Pending"
	StatusApproved ApplicationStatus = "Approved"
	StatusDenied   ApplicationStatus = "Denied"
)

type Application struct {
	ID              string            `json:"id"`
	ApplicationDate time.Time         `json:"applicationDate"`
	Status          ApplicationStatus `json:"status"`
	PropertyID      string            `json:"propertyId"`
	TenantID        string            `json:"tenantId"`
	Name            string            `json:"name"`
	Email           string            `json:"email"`
	PhoneNumber     string            `json:"phoneNumber"`
	Message         string            `json:"message,omitempty"`
	LeaseID         *string           `json:"leaseId,omitempty"`

	Property *Property `json:"property,omitempty"`
	Tenant   *Tenant   `json:"tenant,omitempty"`
	Lease    *Lease    `json:"lease,omitempty"`
}

type Lease struct {
	ID         string    `json:"id"`
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"`
	Rent       float64   `json:"rent"`
	Deposit    float64   `json:"deposit"`
	PropertyID string    `json:"propertyId"`
	TenantID   string    `json:"tenantId"`

	// NextPaymentDate is derived at read time, always strictly in the future.
	NextPaymentDate *time.Time `json:"nextPaymentDate,omitempty"`
}
