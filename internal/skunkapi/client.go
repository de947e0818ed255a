// internal/skunkapi/client.go
package skunkapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/sirupsen/logrus"
)

// TestKey always validates, for every product, without ever touching the
// network.
const TestKey = "SKUNK-PRO-2024-DEMO-8F3A2B9C5E7D1A6F"

const userAgent = "SkunkSuite-Server"

var keyFormat = regexp.MustCompile(`^[A-Z0-9]{4}-[A-Z0-9]{4}-[A-Z0-9]{4}-[A-Z0-9]{4}$`)

// ValidKeyFormat reports whether a normalized key is acceptable: the test key
// literal or four hyphen-separated groups of four alphanumerics.
func ValidKeyFormat(key string) bool {
	return key == TestKey || keyFormat.MatchString(key)
}

// LicensePayload is the plan data the license API returns alongside a
// successful activation or validation.
type LicensePayload struct {
	Valid           bool     `json:"valid,omitempty"`
	Success         bool     `json:"success,omitempty"`
	Product         string   `json:"product,omitempty"`
	PlanType        string   `json:"plan_type,omitempty"`
	MaxSites        int      `json:"max_sites,omitempty"`
	Billing         string   `json:"billing,omitempty"`
	ProductsCovered []string `json:"products_covered,omitempty"`
	Message         string   `json:"message,omitempty"`
	Error           string   `json:"error,omitempty"`
}

// Result is the outcome envelope for a license API action.
type Result struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    *LicensePayload `json:"data,omitempty"`
}

// Client talks to the Skunk license and update APIs. Calls use one fixed
// timeout and are never retried; failures degrade to failure results.
type Client struct {
	http    *http.Client
	baseURL string
	siteURL string
}

// NewClient builds a client for the given API base. siteURL must already be
// normalized (no scheme, no trailing slash).
func NewClient(baseURL, siteURL string, timeout time.Duration) *Client {
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
		siteURL: siteURL,
	}
}

func (c *Client) Activate(key string) Result   { return c.licenseAction("activate", key) }
func (c *Client) Validate(key string) Result   { return c.licenseAction("validate", key) }
func (c *Client) Deactivate(key string) Result { return c.licenseAction("deactivate", key) }

func (c *Client) licenseAction(action, key string) Result {
	if key == "" {
		return Result{Success: false, Message: "Empty license key."}
	}

	// Test key always succeeds and never reaches the network
	if key == TestKey {
		return Result{
			Success: true,
			Message: fmt.Sprintf("Test license %sd.", action),
			Data: &LicensePayload{
				Valid:           true,
				Product:         "bundle",
				PlanType:        "pro_annual",
				MaxSites:        999,
				Billing:         "annual",
				ProductsCovered: []string{"crm", "forms", "pages"},
			},
		}
	}

	// Format validation (skip for deactivate)
	if action != "deactivate" && !keyFormat.MatchString(key) {
		return Result{Success: false, Message: "Invalid license key format."}
	}

	endpoint := "/api/license/validate"
	switch action {
	case "activate":
		endpoint = "/api/license/activate"
	case "deactivate":
		endpoint = "/api/license/deactivate"
	}

	body, _ := json.Marshal(map[string]string{
		"license_key": key,
		"site_url":    c.siteURL,
	})

	req, err := http.NewRequest(http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{Success: false, Message: "Unable to connect to license server."}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		logrus.WithError(err).Debug("License API request failed")
		return Result{Success: false, Message: "Unable to connect to license server."}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	var data LicensePayload
	decodeErr := json.Unmarshal(raw, &data)

	if resp.StatusCode != http.StatusOK || decodeErr != nil {
		message := "License server error."
		if decodeErr == nil {
			if data.Error != "" {
				message = data.Error
			} else if data.Message != "" {
				message = data.Message
			}
		}
		return Result{Success: false, Message: message}
	}

	// For activate/validate, check the 'valid' field
	if action != "deactivate" {
		if data.Valid {
			return Result{Success: true, Message: "License is valid.", Data: &data}
		}
		message := "Invalid license key."
		if data.Message != "" {
			message = data.Message
		}
		return Result{Success: false, Message: message}
	}

	// For deactivate, check the 'success' field
	if data.Success {
		return Result{Success: true, Message: "License deactivated."}
	}

	message := "Deactivation failed."
	if data.Message != "" {
		message = data.Message
	}
	return Result{Success: false, Message: message}
}
