// Package crm mirrors tenant and manager profiles into an external CRM.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"rentdesk/internal/common/config"
	"rentdesk/internal/common/logger"
)

type Client struct {
	enabled    bool
	oauthToken string
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger
}

type Contact struct {
	ID        string `json:"id,omitempty"`
	Email     string `json:"Email"`
	FirstName string `json:"First_Name"`
	LastName  string `json:"Last_Name"`
	Phone     string `json:"Phone,omitempty"`
	Source    string `json:"Lead_Source,omitempty"`
}

type createContactResponse struct {
	Data []struct {
		Code    string `json:"code"`
		Details struct {
			ID string `json:"id"`
		} `json:"details"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"data"`
}

func New(cfg config.CRMConfig, log logger.Logger) *Client {
	return &Client{
		enabled:    cfg.Enabled,
		oauthToken: cfg.AuthToken,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: log.WithFields(map[string]interface{}{"component": "crm"}),
	}
}

// Enabled reports whether CRM sync is configured on.
func (c *Client) Enabled() bool {
	return c.enabled
}

// SyncContact creates the named contact in the CRM and returns its CRM id.
// Callers treat failures as best-effort: a profile save never rolls back on a
// CRM error.
func (c *Client) SyncContact(ctx context.Context, name, email, phone, source string) (string, error) {
	if !c.enabled {
		return "", nil
	}

	first, last := splitName(name)
	contact := Contact{
		Email:     email,
		FirstName: first,
		LastName:  last,
		Phone:     phone,
		Source:    source,
	}

	url := fmt.Sprintf("%s/Contacts", c.baseURL)

	payload := map[string]interface{}{
		"data": []Contact{contact},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal contact: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Zoho-oauthtoken "+c.oauthToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to create contact (status %d): %s", resp.StatusCode, string(body))
	}

	var createResp createContactResponse
	if err := json.Unmarshal(body, &createResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(createResp.Data) == 0 {
		return "", fmt.Errorf("no data in response")
	}

	if createResp.Data[0].Status != "success" {
		return "", fmt.Errorf("contact creation failed: %s", createResp.Data[0].Message)
	}

	contactID := createResp.Data[0].Details.ID
	c.logger.Info("contact synced", map[string]interface{}{
		"contactId": contactID,
		"source":    source,
	})
	return contactID, nil
}

func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	if len(parts) == 1 {
		return "", parts[0]
	}
	return parts[0], strings.Join(parts[1:], " ")
}
