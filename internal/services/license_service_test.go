// internal/services/license_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skunkglobal/suite-server/internal/cache"
	"github.com/skunkglobal/suite-server/internal/models"
	"github.com/skunkglobal/suite-server/internal/skunkapi"
)

// fakeLicenseStore is an in-memory LicenseStore with call counters.
type fakeLicenseStore struct {
	licenses map[string]*models.License // key -> license
	index    map[string]string          // product -> key

	getCalls    int
	upsertCalls int
}

func newFakeLicenseStore() *fakeLicenseStore {
	return &fakeLicenseStore{
		licenses: make(map[string]*models.License),
		index:    make(map[string]string),
	}
}

func (f *fakeLicenseStore) GetByProduct(product string) (*models.License, error) {
	f.getCalls++
	key, ok := f.index[product]
	if !ok {
		return nil, nil
	}
	return f.licenses[key], nil
}

func (f *fakeLicenseStore) FindCovering(product string) (*models.License, error) {
	for _, license := range f.licenses {
		if license.Covers(product) {
			return license, nil
		}
	}
	return nil, nil
}

func (f *fakeLicenseStore) Upsert(license *models.License, products []string) error {
	f.upsertCalls++
	f.licenses[license.Key] = license
	for _, product := range products {
		f.index[product] = license.Key
	}
	return nil
}

func (f *fakeLicenseStore) RemoveProducts(key string, products []string) error {
	for _, product := range products {
		if f.index[product] == key {
			delete(f.index, product)
		}
	}
	for _, indexed := range f.index {
		if indexed == key {
			return nil
		}
	}
	delete(f.licenses, key)
	return nil
}

// fakeLicenseAPI scripts remote results and counts calls per action.
type fakeLicenseAPI struct {
	activateResult   skunkapi.Result
	validateResult   skunkapi.Result
	deactivateResult skunkapi.Result

	activateCalls   int
	validateCalls   int
	deactivateCalls int
}

func (f *fakeLicenseAPI) Activate(key string) skunkapi.Result {
	f.activateCalls++
	if key == skunkapi.TestKey {
		return testKeyResult("activate")
	}
	return f.activateResult
}

func (f *fakeLicenseAPI) Validate(key string) skunkapi.Result {
	f.validateCalls++
	if key == skunkapi.TestKey {
		return testKeyResult("validate")
	}
	return f.validateResult
}

func (f *fakeLicenseAPI) Deactivate(key string) skunkapi.Result {
	f.deactivateCalls++
	return f.deactivateResult
}

func testKeyResult(action string) skunkapi.Result {
	return skunkapi.Result{
		Success: true,
		Message: "Test license " + action + "d.",
		Data: &skunkapi.LicensePayload{
			Valid:           true,
			Product:         "bundle",
			PlanType:        "pro_annual",
			MaxSites:        999,
			Billing:         "annual",
			ProductsCovered: []string{"crm", "forms", "pages"},
		},
	}
}

func newTestLicenseService() (*LicenseService, *fakeLicenseStore, *fakeLicenseAPI) {
	store := newFakeLicenseStore()
	api := &fakeLicenseAPI{}
	return NewLicenseService(store, api, cache.New()), store, api
}

func TestActivateRejectsUnknownProduct(t *testing.T) {
	service, store, api := newTestLicenseService()

	result := service.Activate("mailer", "ABCD-1234-WXYZ-0000")
	assert.False(t, result.Success)
	assert.Equal(t, "Invalid product.", result.Message)
	assert.Equal(t, 0, api.activateCalls)
	assert.Equal(t, 0, store.upsertCalls)
}

func TestActivateRejectsMalformedKey(t *testing.T) {
	service, store, api := newTestLicenseService()

	result := service.Activate("crm", "not-a-key")
	assert.False(t, result.Success)
	assert.Equal(t, "Invalid license key format.", result.Message)
	assert.Equal(t, 0, api.activateCalls)
	assert.Equal(t, 0, store.upsertCalls)
}

func TestActivateNormalizesKey(t *testing.T) {
	service, _, api := newTestLicenseService()
	api.activateResult = skunkapi.Result{
		Success: true,
		Message: "License is valid.",
		Data:    &skunkapi.LicensePayload{Valid: true, Product: "crm"},
	}

	result := service.Activate("crm", "  abcd-1234-wxyz-0000  ")
	assert.True(t, result.Success)

	license := service.GetLicense("crm")
	require.NotNil(t, license)
	assert.Equal(t, "ABCD-1234-WXYZ-0000", license.Key)
}

func TestActivateBundleFansOutToCoveredProducts(t *testing.T) {
	service, store, _ := newTestLicenseService()

	result := service.Activate("crm", skunkapi.TestKey)
	require.True(t, result.Success)

	// One canonical row, three index slots
	assert.Len(t, store.licenses, 1)
	for _, product := range models.ProductKeys {
		license := service.GetLicense(product)
		require.NotNil(t, license, "product %s", product)
		assert.Equal(t, skunkapi.TestKey, license.Key)
		assert.True(t, service.IsPro(product), "product %s", product)
	}
}

func TestActivateAPIRejection(t *testing.T) {
	service, store, api := newTestLicenseService()
	api.activateResult = skunkapi.Result{Success: false, Message: "Key revoked"}

	result := service.Activate("crm", "ABCD-1234-WXYZ-0000")
	assert.False(t, result.Success)
	assert.Equal(t, "Key revoked", result.Message)
	assert.Equal(t, 0, store.upsertCalls)
	assert.Nil(t, service.GetLicense("crm"))
}

func TestDeactivateWithoutLicense(t *testing.T) {
	service, _, api := newTestLicenseService()

	result := service.Deactivate("forms")
	assert.True(t, result.Success)
	assert.Equal(t, "No license to deactivate.", result.Message)
	assert.Equal(t, 0, api.deactivateCalls)
}

func TestDeactivateTestKeySkipsRemote(t *testing.T) {
	service, _, api := newTestLicenseService()
	service.Activate("crm", skunkapi.TestKey)

	result := service.Deactivate("crm")
	assert.True(t, result.Success)
	assert.Equal(t, "License deactivated.", result.Message)
	assert.Equal(t, 0, api.deactivateCalls)
}

func TestDeactivateClearsAllCoveredProducts(t *testing.T) {
	service, store, _ := newTestLicenseService()
	service.Activate("crm", skunkapi.TestKey)

	result := service.Deactivate("crm")
	require.True(t, result.Success)

	assert.Empty(t, store.licenses)
	for _, product := range models.ProductKeys {
		assert.Nil(t, service.GetLicense(product), "product %s", product)
		assert.False(t, service.IsPro(product), "product %s", product)
	}
}

func TestIsProUsesCache(t *testing.T) {
	service, store, _ := newTestLicenseService()
	service.Activate("crm", skunkapi.TestKey)

	store.getCalls = 0
	assert.True(t, service.IsPro("crm"))
	assert.True(t, service.IsPro("crm"))
	assert.True(t, service.IsPro("crm"))
	assert.Equal(t, 1, store.getCalls)
}

func TestIsProCachesNegativeAnswer(t *testing.T) {
	service, store, _ := newTestLicenseService()

	assert.False(t, service.IsPro("pages"))
	getCalls := store.getCalls
	assert.False(t, service.IsPro("pages"))
	assert.Equal(t, getCalls, store.getCalls)
}

func TestValidateWithoutKey(t *testing.T) {
	service, _, api := newTestLicenseService()

	result := service.Validate("crm", false)
	assert.False(t, result.Success)
	assert.Equal(t, "No license key found.", result.Message)
	assert.Equal(t, 0, api.validateCalls)
}

func TestValidateCacheHitSkipsRemote(t *testing.T) {
	service, _, api := newTestLicenseService()
	api.activateResult = skunkapi.Result{
		Success: true,
		Message: "License is valid.",
		Data:    &skunkapi.LicensePayload{Valid: true, Product: "crm"},
	}
	service.Activate("crm", "ABCD-1234-WXYZ-0000")

	result := service.Validate("crm", false)
	assert.True(t, result.Success)
	assert.Equal(t, "License is valid (cached).", result.Message)
	assert.Equal(t, 0, api.validateCalls)
}

func TestValidateForceAlwaysCallsRemote(t *testing.T) {
	service, _, api := newTestLicenseService()
	api.activateResult = skunkapi.Result{
		Success: true,
		Message: "License is valid.",
		Data:    &skunkapi.LicensePayload{Valid: true, Product: "crm"},
	}
	api.validateResult = skunkapi.Result{
		Success: true,
		Message: "License is valid.",
		Data:    &skunkapi.LicensePayload{Valid: true, Product: "crm"},
	}
	service.Activate("crm", "ABCD-1234-WXYZ-0000")

	result := service.Validate("crm", true)
	assert.True(t, result.Success)
	assert.Equal(t, "License is valid.", result.Message)
	assert.Equal(t, 1, api.validateCalls)

	service.Validate("crm", true)
	assert.Equal(t, 2, api.validateCalls)
}

func TestValidateFailureMarksInvalid(t *testing.T) {
	service, _, api := newTestLicenseService()
	api.activateResult = skunkapi.Result{
		Success: true,
		Message: "License is valid.",
		Data:    &skunkapi.LicensePayload{Valid: true, Product: "crm"},
	}
	api.validateResult = skunkapi.Result{Success: false, Message: "Invalid license key."}
	service.Activate("crm", "ABCD-1234-WXYZ-0000")

	result := service.Validate("crm", true)
	assert.False(t, result.Success)

	license := service.GetLicense("crm")
	require.NotNil(t, license)
	assert.Equal(t, models.LicenseStatusInvalid, license.Status)
	assert.False(t, service.IsPro("crm"))

	// Failure result is cached too
	cached := service.Validate("crm", false)
	assert.False(t, cached.Success)
	assert.Equal(t, "License is invalid (cached).", cached.Message)
	assert.Equal(t, 1, api.validateCalls)
}

func TestGetLicenseInfoDefaults(t *testing.T) {
	service, _, _ := newTestLicenseService()

	info := service.GetLicenseInfo("forms")
	assert.Equal(t, "inactive", info.Status)
	assert.False(t, info.IsPro)
	assert.Equal(t, 1, info.MaxSites)
	assert.Equal(t, "forms", info.Product)
	assert.Empty(t, info.Key)
}

func TestGetLicenseInfoMasksKey(t *testing.T) {
	service, _, api := newTestLicenseService()
	api.activateResult = skunkapi.Result{
		Success: true,
		Message: "License is valid.",
		Data:    &skunkapi.LicensePayload{Valid: true, Product: "crm", PlanType: "pro_monthly", MaxSites: 3},
	}
	service.Activate("crm", "ABCD-1234-WXYZ-0000")

	info := service.GetLicenseInfo("crm")
	assert.Equal(t, "ABCD-****-****-0000", info.Key)
	assert.Equal(t, "ABCD-1234-WXYZ-0000", info.FullKey)
	assert.True(t, info.IsPro)
	assert.Equal(t, "pro_monthly", info.PlanType)
	assert.Equal(t, 3, info.MaxSites)
}

func TestMaskLicenseKey(t *testing.T) {
	assert.Equal(t, "ABCD-****-****-0000", MaskLicenseKey("ABCD-1234-WXYZ-0000"))
	assert.Equal(t, "SKUN-****-****-1A6F", MaskLicenseKey(skunkapi.TestKey))
	assert.Equal(t, "short", MaskLicenseKey("short"))
	assert.Equal(t, "", MaskLicenseKey(""))
}
