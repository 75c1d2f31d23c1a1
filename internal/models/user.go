// internal/models/user.go
package models

// Manager and Tenant are owned by the external identity provider; the
// subject id is an opaque string, referenced but never issued here.

type Manager struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
}

type Tenant struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
}
