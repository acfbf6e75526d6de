package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "STOREFRONT_APP_ENV"
	EnvPort     = "STOREFRONT_APP_PORT"
	EnvLogLevel = "STOREFRONT_LOG_LEVEL"
	EnvLogFmt   = "STOREFRONT_LOG_FORMAT"

	EnvDBDSN  = "STOREFRONT_DB_DSN"
	EnvDBHost = "STOREFRONT_DB_HOST"
	EnvDBUser = "STOREFRONT_DB_USER"
	EnvDBName = "STOREFRONT_DB_NAME"

	EnvUseSQLite = "STOREFRONT_USE_SQLITE"
	EnvRedisURL  = "STOREFRONT_REDIS_URL"

	EnvJWTSecret  = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer  = "STOREFRONT_JWT_ISSUER"
	EnvJWTExpMins = "STOREFRONT_JWT_EXPIRATION_MINUTES"

	EnvAdminEmail        = "STOREFRONT_ADMIN_EMAIL"
	EnvAdminPasswordHash = "STOREFRONT_ADMIN_PASSWORD_HASH"

	EnvGCSBucket = "STOREFRONT_GCS_BUCKET_NAME"

	EnvPayeeVPA           = "STOREFRONT_PAYEE_VPA"
	EnvPaymentCountdown   = "STOREFRONT_PAYMENT_COUNTDOWN_SECONDS"
	EnvPaymentSuccessRate = "STOREFRONT_PAYMENT_SIMULATED_SUCCESS_RATE"

	EnvOperatorEmail    = "STOREFRONT_OPERATOR_EMAIL"
	EnvEmailJSServiceID = "STOREFRONT_EMAILJS_SERVICE_ID"
	EnvEmailJSPublicKey = "STOREFRONT_EMAILJS_PUBLIC_KEY"
	EnvBrevoAPIKey      = "STOREFRONT_BREVO_API_KEY"
	EnvDocumentChain    = "STOREFRONT_DOCUMENT_DELIVERY_CHAIN"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
