// internal/services/license_service.go
package services

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/skunkglobal/suite-server/internal/cache"
	"github.com/skunkglobal/suite-server/internal/models"
	"github.com/skunkglobal/suite-server/internal/skunkapi"
)

// LicenseStore is the persistence surface the registry needs. The gorm
// implementation lives in internal/store; tests supply fakes.
type LicenseStore interface {
	GetByProduct(product string) (*models.License, error)
	FindCovering(product string) (*models.License, error)
	Upsert(license *models.License, products []string) error
	RemoveProducts(key string, products []string) error
}

// LicenseAPI is the remote license endpoint surface.
type LicenseAPI interface {
	Activate(key string) skunkapi.Result
	Validate(key string) skunkapi.Result
	Deactivate(key string) skunkapi.Result
}

type LicenseService struct {
	store LicenseStore
	api   LicenseAPI
	cache *cache.Store
}

// LicenseResult is the success/failure envelope every registry operation
// returns. Errors are never raised past this boundary.
type LicenseResult struct {
	Success bool                     `json:"success"`
	Message string                   `json:"message"`
	Data    *skunkapi.LicensePayload `json:"data,omitempty"`
}

// LicenseInfo is the display projection of a product's license state.
type LicenseInfo struct {
	Key             string   `json:"key"`
	FullKey         string   `json:"full_key"`
	Status          string   `json:"status"`
	IsPro           bool     `json:"is_pro"`
	PlanType        string   `json:"plan_type"`
	MaxSites        int      `json:"max_sites"`
	Billing         string   `json:"billing"`
	LastCheck       int64    `json:"last_check"`
	Product         string   `json:"product"`
	ProductsCovered []string `json:"products_covered"`
}

type validationCacheEntry struct {
	Status    models.LicenseStatus
	Data      *skunkapi.LicensePayload
	Error     string
	CheckedAt time.Time
}

func NewLicenseService(store LicenseStore, api LicenseAPI, cacheStore *cache.Store) *LicenseService {
	return &LicenseService{
		store: store,
		api:   api,
		cache: cacheStore,
	}
}

// IsPro reports whether a product holds a valid Pro license. The answer is
// cached for an hour either way; a product with no entry is not pro.
func (s *LicenseService) IsPro(product string) bool {
	cacheKey := cache.Key(product, "is_pro")
	if cached, ok := s.cache.Get(cacheKey); ok {
		if isPro, ok := cached.(bool); ok {
			return isPro
		}
	}

	license := s.GetLicense(product)
	isPro := license != nil && license.Status == models.LicenseStatusValid

	s.cache.Set(cacheKey, isPro, cache.ProStatusTTL)

	return isPro
}

// GetLicense returns the stored license for a product: the direct slot first,
// then any bundle license whose coverage includes the product. Nil when
// nothing is found — including for unknown product identifiers.
func (s *LicenseService) GetLicense(product string) *models.License {
	license, err := s.store.GetByProduct(product)
	if err != nil {
		logrus.WithError(err).WithField("product", product).Warn("License lookup failed")
		return nil
	}
	if license != nil {
		return license
	}

	license, err = s.store.FindCovering(product)
	if err != nil {
		logrus.WithError(err).WithField("product", product).Warn("Bundle license scan failed")
		return nil
	}

	return license
}

// Activate validates and activates a license key for a product, fanning the
// index out to every product the key's bundle covers.
func (s *LicenseService) Activate(product, licenseKey string) LicenseResult {
	licenseKey = strings.ToUpper(strings.TrimSpace(licenseKey))

	if !models.IsValidProduct(product) {
		return LicenseResult{Success: false, Message: "Invalid product."}
	}

	if !skunkapi.ValidKeyFormat(licenseKey) {
		return LicenseResult{Success: false, Message: "Invalid license key format."}
	}

	apiResult := s.api.Activate(licenseKey)
	if !apiResult.Success {
		return LicenseResult{Success: false, Message: apiResult.Message}
	}

	data := apiResult.Data

	license := &models.License{
		Key:             licenseKey,
		Status:          models.LicenseStatusValid,
		MaxSites:        1,
		LastCheck:       time.Now(),
		ProductsCovered: models.StringList{product},
	}
	if data != nil {
		if data.Product != "" {
			license.ProductFromAPI = data.Product
		} else {
			license.ProductFromAPI = product
		}
		license.PlanType = data.PlanType
		if data.MaxSites > 0 {
			license.MaxSites = data.MaxSites
		}
		license.Billing = data.Billing
		if len(data.ProductsCovered) > 0 {
			license.ProductsCovered = models.StringList(data.ProductsCovered)
		}
	} else {
		license.ProductFromAPI = product
	}

	// Index under the requested product plus every known covered product
	indexed := []string{product}
	for _, covered := range license.ProductsCovered {
		if covered != product && models.IsValidProduct(covered) {
			indexed = append(indexed, covered)
		}
	}

	if err := s.store.Upsert(license, indexed); err != nil {
		logrus.WithError(err).WithField("product", product).Error("Failed to persist license")
		return LicenseResult{Success: false, Message: "Failed to store license."}
	}

	s.clearProCaches(license.ProductsCovered)

	s.cache.Set(cache.Key(licenseKey, "validation"), validationCacheEntry{
		Status:    models.LicenseStatusValid,
		Data:      data,
		CheckedAt: time.Now(),
	}, cache.ValidLicenseTTL)

	return LicenseResult{Success: true, Message: "License activated successfully.", Data: data}
}

// Deactivate releases a product's license. Absent entry is a successful
// no-op. The remote call is best-effort and skipped for the test key.
func (s *LicenseService) Deactivate(product string) LicenseResult {
	license, err := s.store.GetByProduct(product)
	if err != nil {
		logrus.WithError(err).WithField("product", product).Warn("License lookup failed")
	}
	if license == nil {
		return LicenseResult{Success: true, Message: "No license to deactivate."}
	}

	licenseKey := license.Key

	if licenseKey != "" && licenseKey != skunkapi.TestKey {
		s.api.Deactivate(licenseKey)
	}

	productsToClear := []string(license.ProductsCovered)
	if len(productsToClear) == 0 {
		productsToClear = []string{product}
	}

	if err := s.store.RemoveProducts(licenseKey, productsToClear); err != nil {
		logrus.WithError(err).WithField("product", product).Error("Failed to remove license")
		return LicenseResult{Success: false, Message: "Failed to remove license."}
	}

	s.clearProCaches(productsToClear)
	s.cache.Delete(cache.Key(licenseKey, "validation"))

	return LicenseResult{Success: true, Message: "License deactivated."}
}

// Validate re-checks a product's license against the API. Unless forced, a
// cached validation result short-circuits without a remote call.
func (s *LicenseService) Validate(product string, force bool) LicenseResult {
	license := s.GetLicense(product)

	if license == nil || license.Key == "" {
		return LicenseResult{Success: false, Message: "No license key found."}
	}

	licenseKey := license.Key
	validationKey := cache.Key(licenseKey, "validation")

	if !force {
		if cached, ok := s.cache.Get(validationKey); ok {
			if entry, ok := cached.(validationCacheEntry); ok {
				if entry.Status == models.LicenseStatusValid {
					return LicenseResult{Success: true, Message: "License is valid (cached)."}
				}
				return LicenseResult{Success: false, Message: "License is invalid (cached)."}
			}
		}
	}

	apiResult := s.api.Validate(licenseKey)

	if apiResult.Success {
		data := apiResult.Data

		license.Status = models.LicenseStatusValid
		license.LastCheck = time.Now()
		if data != nil {
			if data.PlanType != "" {
				license.PlanType = data.PlanType
			}
			if data.MaxSites > 0 {
				license.MaxSites = data.MaxSites
			}
			if data.Billing != "" {
				license.Billing = data.Billing
			}
			if len(data.ProductsCovered) > 0 {
				license.ProductsCovered = models.StringList(data.ProductsCovered)
			}
		}

		if err := s.store.Upsert(license, s.indexProducts(product, license)); err != nil {
			logrus.WithError(err).WithField("product", product).Error("Failed to persist license")
		}

		s.cache.Set(validationKey, validationCacheEntry{
			Status:    models.LicenseStatusValid,
			Data:      data,
			CheckedAt: time.Now(),
		}, cache.ValidLicenseTTL)
	} else {
		license.Status = models.LicenseStatusInvalid
		license.LastCheck = time.Now()

		if err := s.store.Upsert(license, s.indexProducts(product, license)); err != nil {
			logrus.WithError(err).WithField("product", product).Error("Failed to persist license")
		}

		s.cache.Set(validationKey, validationCacheEntry{
			Status:    models.LicenseStatusInvalid,
			Error:     apiResult.Message,
			CheckedAt: time.Now(),
		}, cache.InvalidLicenseTTL)
	}

	productsToClear := []string(license.ProductsCovered)
	if len(productsToClear) == 0 {
		productsToClear = []string{product}
	}
	s.clearProCaches(productsToClear)

	return LicenseResult{Success: apiResult.Success, Message: apiResult.Message, Data: apiResult.Data}
}

// GetLicenseInfo projects a product's license for display. The key is masked;
// every field has a default when no entry exists. No side effects.
func (s *LicenseService) GetLicenseInfo(product string) LicenseInfo {
	license := s.GetLicense(product)

	if license == nil {
		return LicenseInfo{
			Status:          string(models.LicenseStatusInactive),
			MaxSites:        1,
			Product:         product,
			ProductsCovered: []string{},
		}
	}

	return LicenseInfo{
		Key:             MaskLicenseKey(license.Key),
		FullKey:         license.Key,
		Status:          string(license.Status),
		IsPro:           license.Status == models.LicenseStatusValid,
		PlanType:        license.PlanType,
		MaxSites:        license.MaxSites,
		Billing:         license.Billing,
		LastCheck:       license.LastCheck.Unix(),
		Product:         product,
		ProductsCovered: append([]string{}, license.ProductsCovered...),
	}
}

// MaskLicenseKey keeps the first and last four characters of a key and hides
// the middle. Keys shorter than 8 characters are returned unmasked.
func MaskLicenseKey(key string) string {
	if len(key) < 8 {
		return key
	}
	return key[:4] + "-****-****-" + key[len(key)-4:]
}

func (s *LicenseService) indexProducts(product string, license *models.License) []string {
	indexed := []string{product}
	for _, covered := range license.ProductsCovered {
		if covered != product && models.IsValidProduct(covered) {
			indexed = append(indexed, covered)
		}
	}
	return indexed
}

func (s *LicenseService) clearProCaches(products []string) {
	for _, product := range products {
		s.cache.Delete(cache.Key(product, "is_pro"))
	}
}
