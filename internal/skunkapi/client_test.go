// internal/skunkapi/client_test.go
package skunkapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, status int, payload interface{}, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)

		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "SkunkSuite-Server", r.Header.Get("User-Agent"))

		w.WriteHeader(status)
		json.NewEncoder(w).Encode(payload)
	}))
}

func TestValidKeyFormat(t *testing.T) {
	assert.True(t, ValidKeyFormat("ABCD-1234-WXYZ-0000"))
	assert.True(t, ValidKeyFormat(TestKey))

	assert.False(t, ValidKeyFormat(""))
	assert.False(t, ValidKeyFormat("abcd-1234-wxyz-0000")) // lowercase
	assert.False(t, ValidKeyFormat("ABCD-1234-WXYZ"))
	assert.False(t, ValidKeyFormat("ABCD-1234-WXYZ-00000"))
	assert.False(t, ValidKeyFormat("ABCD 1234 WXYZ 0000"))
}

func TestTestKeyNeverHitsNetwork(t *testing.T) {
	var calls int32
	server := newTestServer(t, http.StatusOK, LicensePayload{Valid: true}, &calls)
	defer server.Close()

	client := NewClient(server.URL, "example.com", time.Second)

	for _, action := range []func(string) Result{client.Activate, client.Validate, client.Deactivate} {
		result := action(TestKey)
		assert.True(t, result.Success)
		require.NotNil(t, result.Data)
		assert.Equal(t, "bundle", result.Data.Product)
		assert.Equal(t, "pro_annual", result.Data.PlanType)
		assert.Equal(t, 999, result.Data.MaxSites)
		assert.Equal(t, "annual", result.Data.Billing)
		assert.Equal(t, []string{"crm", "forms", "pages"}, result.Data.ProductsCovered)
	}

	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestEmptyKeyFailsLocally(t *testing.T) {
	var calls int32
	server := newTestServer(t, http.StatusOK, LicensePayload{Valid: true}, &calls)
	defer server.Close()

	client := NewClient(server.URL, "example.com", time.Second)

	result := client.Activate("")
	assert.False(t, result.Success)
	assert.Equal(t, "Empty license key.", result.Message)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestMalformedKeyFailsLocally(t *testing.T) {
	var calls int32
	server := newTestServer(t, http.StatusOK, LicensePayload{Valid: true}, &calls)
	defer server.Close()

	client := NewClient(server.URL, "example.com", time.Second)

	result := client.Validate("not-a-license-key")
	assert.False(t, result.Success)
	assert.Equal(t, "Invalid license key format.", result.Message)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestDeactivateSkipsFormatCheck(t *testing.T) {
	var calls int32
	server := newTestServer(t, http.StatusOK, LicensePayload{Success: true}, &calls)
	defer server.Close()

	client := NewClient(server.URL, "example.com", time.Second)

	// Legacy keys may not match the current shape; deactivation still goes out
	result := client.Deactivate("legacy-key-123")
	assert.True(t, result.Success)
	assert.Equal(t, "License deactivated.", result.Message)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestActivateValidKey(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ABCD-1234-WXYZ-0000", body["license_key"])
		assert.Equal(t, "example.com", body["site_url"])

		json.NewEncoder(w).Encode(LicensePayload{
			Valid:    true,
			Product:  "crm",
			PlanType: "pro_monthly",
			MaxSites: 3,
			Billing:  "monthly",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "example.com", time.Second)

	result := client.Activate("ABCD-1234-WXYZ-0000")
	assert.True(t, result.Success)
	assert.Equal(t, "License is valid.", result.Message)
	require.NotNil(t, result.Data)
	assert.Equal(t, "crm", result.Data.Product)
	assert.Equal(t, 3, result.Data.MaxSites)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestActivateRejectedKey(t *testing.T) {
	var calls int32
	server := newTestServer(t, http.StatusOK, LicensePayload{Valid: false, Message: "Key revoked"}, &calls)
	defer server.Close()

	client := NewClient(server.URL, "example.com", time.Second)

	result := client.Activate("ABCD-1234-WXYZ-0000")
	assert.False(t, result.Success)
	assert.Equal(t, "Key revoked", result.Message)
}

func TestActivateRejectedKeyDefaultMessage(t *testing.T) {
	var calls int32
	server := newTestServer(t, http.StatusOK, LicensePayload{Valid: false}, &calls)
	defer server.Close()

	client := NewClient(server.URL, "example.com", time.Second)

	result := client.Activate("ABCD-1234-WXYZ-0000")
	assert.False(t, result.Success)
	assert.Equal(t, "Invalid license key.", result.Message)
}

func TestServerErrorMessageExtraction(t *testing.T) {
	var calls int32
	server := newTestServer(t, http.StatusForbidden, LicensePayload{Error: "Domain not allowed"}, &calls)
	defer server.Close()

	client := NewClient(server.URL, "example.com", time.Second)

	result := client.Validate("ABCD-1234-WXYZ-0000")
	assert.False(t, result.Success)
	assert.Equal(t, "Domain not allowed", result.Message)
}

func TestServerErrorDefaultMessage(t *testing.T) {
	var calls int32
	server := newTestServer(t, http.StatusInternalServerError, LicensePayload{}, &calls)
	defer server.Close()

	client := NewClient(server.URL, "example.com", time.Second)

	result := client.Validate("ABCD-1234-WXYZ-0000")
	assert.False(t, result.Success)
	assert.Equal(t, "License server error.", result.Message)
}

func TestUnreachableServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, "example.com", time.Second)

	result := client.Validate("ABCD-1234-WXYZ-0000")
	assert.False(t, result.Success)
	assert.Equal(t, "Unable to connect to license server.", result.Message)
}

func TestDeactivateFailure(t *testing.T) {
	var calls int32
	server := newTestServer(t, http.StatusOK, LicensePayload{Success: false, Message: "Unknown site"}, &calls)
	defer server.Close()

	client := NewClient(server.URL, "example.com", time.Second)

	result := client.Deactivate("ABCD-1234-WXYZ-0000")
	assert.False(t, result.Success)
	assert.Equal(t, "Unknown site", result.Message)
}

func TestCheckUpdate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/plugin-updates/check", r.URL.Path)

		var req UpdateCheckRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "skunkcrm", req.PluginSlug)
		assert.Equal(t, "1.0.0", req.CurrentVersion)
		assert.Equal(t, "example.com", req.SiteURL)

		json.NewEncoder(w).Encode(UpdateInfo{
			NewVersion:      "1.2.0",
			Package:         "https://skunkglobal.com/dl/skunkcrm-1.2.0.zip",
			UpdateAvailable: true,
			Tested:          "6.8.3",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "example.com", time.Second)

	info, err := client.CheckUpdate(UpdateCheckRequest{
		PluginSlug:     "skunkcrm",
		CurrentVersion: "1.0.0",
		SiteURL:        "example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "1.2.0", info.NewVersion)
	assert.True(t, info.UpdateAvailable)
	assert.Equal(t, "6.8.3", info.Tested)
}

func TestCheckUpdateTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, "example.com", time.Second)

	info, err := client.CheckUpdate(UpdateCheckRequest{PluginSlug: "skunkcrm"})
	assert.Error(t, err)
	assert.Nil(t, info)
}
