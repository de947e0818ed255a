// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAdminAccessDenied      = "admin.access_denied"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"

	// Licenses
	KeyLicenseActivated    = "license.activated"
	KeyLicenseDeactivated  = "license.deactivated"
	KeyLicenseNotFound     = "license.not_found"
	KeyLicenseInvalid      = "license.invalid"
	KeyLicenseFieldsNeeded = "license.fields_needed"

	// Updates
	KeyUpdatePluginUnknown = "update.plugin_unknown"

	// Products
	KeyProductNotFound = "product.not_found"
)
