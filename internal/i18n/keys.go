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
	KeyAuthInvalidSignature   = "auth.invalid_signature"
	KeyAuthChallengeExpired   = "auth.challenge_expired"
	KeyAuthWalletNotFound     = "auth.wallet_not_found"
	KeyAuthInvalidWallet      = "auth.invalid_wallet"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthAccountInactive    = "auth.account_inactive"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthRegisterSuccess    = "auth.register_success"
	KeyAuthForbidden          = "auth.forbidden"

	// User Management
	KeyUserProfileUpdated = "user.profile_updated"
	KeyUserNotFound       = "user.not_found"
	KeyUserBanned         = "user.banned"

	// Prompts
	KeyPromptCreated     = "prompt.created"
	KeyPromptUpdated     = "prompt.updated"
	KeyPromptDeactivated = "prompt.deactivated"
	KeyPromptNotFound    = "prompt.not_found"
	KeyPromptInactive    = "prompt.inactive"

	// Purchases
	KeyPurchaseInitiated     = "purchase.initiated"
	KeyPurchaseCompleted     = "purchase.completed"
	KeyPurchaseFailed        = "purchase.failed"
	KeyPurchaseNotFound      = "purchase.not_found"
	KeyPurchaseDuplicate     = "purchase.duplicate"
	KeyPurchaseSelf          = "purchase.self_purchase"
	KeyPurchasePriceMismatch = "purchase.price_mismatch"
	KeyPurchasePendingChain  = "purchase.pending_confirmation"
	KeyPurchaseAccessDenied  = "purchase.access_denied"
	KeyPurchaseAlreadyRated  = "purchase.already_rated"

	// Earnings
	KeyEarningsUnavailable = "earnings.unavailable"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"
	KeyValidationTooShort = "validation.too_short"
	KeyValidationTooLong  = "validation.too_long"
	KeyValidationEmail    = "validation.invalid_email"
	KeyValidationPassword = "validation.invalid_password"

	// File handling
	KeyFileUploadSuccess = "file.upload_success"
	KeyFileUploadFailed  = "file.upload_failed"
	KeyFileTooBig        = "file.too_big"
	KeyFileInvalidType   = "file.invalid_type"

	// Rate limiting
	KeyRateLimitExceeded = "rate_limit.exceeded"
)
