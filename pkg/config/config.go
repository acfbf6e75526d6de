package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	Admin         AdminConfig
	RateLimit     RateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	CORS          CORSConfig
	GCP           GCPConfig
	GCS           GCSConfig
	Payments      PaymentsConfig
	Notifications NotificationsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Payments.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"STOREFRONT_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STOREFRONT_DB_DSN"`
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STOREFRONT_DB_HOST"`
	LegacyPort     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOREFRONT_DB_USER"`
	LegacyPassword string `envconfig:"STOREFRONT_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOREFRONT_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"STOREFRONT_SQLITE_PATH" default:"storefront.db"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"STOREFRONT_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"STOREFRONT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"STOREFRONT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"STOREFRONT_JWT_EXPIRATION_MINUTES" default:"120"`
}

// Expiration returns the admin token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"STOREFRONT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"STOREFRONT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"STOREFRONT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"STOREFRONT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"STOREFRONT_ARGON_KEY_LEN" default:"32"`
}

// AdminConfig holds the single back-office operator account. PasswordHash is
// an argon2id encoded hash produced by `cmd/admin-hash`.
type AdminConfig struct {
	Email        string `envconfig:"STOREFRONT_ADMIN_EMAIL"`
	PasswordHash string `envconfig:"STOREFRONT_ADMIN_PASSWORD_HASH"`
}

func (a AdminConfig) Enabled() bool {
	return strings.TrimSpace(a.Email) != "" && strings.TrimSpace(a.PasswordHash) != ""
}

type RateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"STOREFRONT_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"STOREFRONT_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"STOREFRONT_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	ContactWindow   time.Duration `envconfig:"STOREFRONT_RATE_LIMIT_CONTACT_WINDOW" default:"10m"`
	ContactIPLimit  int           `envconfig:"STOREFRONT_RATE_LIMIT_CONTACT_IP_LIMIT" default:"5"`
	CheckoutWindow  time.Duration `envconfig:"STOREFRONT_RATE_LIMIT_CHECKOUT_WINDOW" default:"1m"`
	CheckoutIPLimit int           `envconfig:"STOREFRONT_RATE_LIMIT_CHECKOUT_IP_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STOREFRONT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"STOREFRONT_CORS_ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"STOREFRONT_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"STOREFRONT_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"STOREFRONT_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName        string        `envconfig:"STOREFRONT_GCS_BUCKET_NAME"`
	UploadURLExpiry   time.Duration `envconfig:"STOREFRONT_GCS_UPLOAD_URL_EXPIRY" default:"15m"`
	DownloadURLExpiry time.Duration `envconfig:"STOREFRONT_GCS_DOWNLOAD_URL_EXPIRY" default:"1h"`
	MaxUploadMB       int           `envconfig:"STOREFRONT_GCS_MAX_UPLOAD_MB" default:"50"`
}

func (g GCSConfig) Enabled() bool {
	return strings.TrimSpace(g.BucketName) != ""
}

// PaymentsConfig drives the UPI checkout flow.
type PaymentsConfig struct {
	PayeeVPA          string        `envconfig:"STOREFRONT_PAYEE_VPA" required:"true"`
	PayeeName         string        `envconfig:"STOREFRONT_PAYEE_NAME" default:"TechCreator"`
	TransactionPrefix string        `envconfig:"STOREFRONT_TRANSACTION_PREFIX" default:"TXN"`
	CountdownSeconds  int           `envconfig:"STOREFRONT_PAYMENT_COUNTDOWN_SECONDS" default:"600"`
	TickInterval      time.Duration `envconfig:"STOREFRONT_PAYMENT_TICK_INTERVAL" default:"1s"`
	VerifyDelay       time.Duration `envconfig:"STOREFRONT_PAYMENT_VERIFY_DELAY" default:"10s"`
	PollInterval      time.Duration `envconfig:"STOREFRONT_PAYMENT_POLL_INTERVAL" default:"5s"`
	VerifyTimeout     time.Duration `envconfig:"STOREFRONT_PAYMENT_VERIFY_TIMEOUT" default:"5s"`
	SimulatedSuccess  float64       `envconfig:"STOREFRONT_PAYMENT_SIMULATED_SUCCESS_RATE" default:"0.7"`
	SessionTTL        time.Duration `envconfig:"STOREFRONT_CHECKOUT_SESSION_TTL" default:"30m"`
	QRCodeEndpoint    string        `envconfig:"STOREFRONT_QR_CODE_ENDPOINT" default:"https://api.qrserver.com/v1/create-qr-code/"`
	QRCodeSize        int           `envconfig:"STOREFRONT_QR_CODE_SIZE" default:"200"`
	PersistAttempts   int           `envconfig:"STOREFRONT_ORDER_PERSIST_ATTEMPTS" default:"3"`
	PersistBackoff    time.Duration `envconfig:"STOREFRONT_ORDER_PERSIST_BACKOFF" default:"200ms"`
}

func (p PaymentsConfig) validate() error {
	if p.CountdownSeconds <= 0 {
		return fmt.Errorf("%s must be positive", EnvPaymentCountdown)
	}
	if p.SimulatedSuccess < 0 || p.SimulatedSuccess > 1 {
		return fmt.Errorf("%s must be between 0 and 1", EnvPaymentSuccessRate)
	}
	return nil
}

// NotificationsConfig lists the email providers and the ordered delivery
// chains. Step names are resolved by the notifications package.
type NotificationsConfig struct {
	OperatorEmail string        `envconfig:"STOREFRONT_OPERATOR_EMAIL" required:"true"`
	SupportEmail  string        `envconfig:"STOREFRONT_SUPPORT_EMAIL"`
	Timeout       time.Duration `envconfig:"STOREFRONT_EMAIL_TIMEOUT" default:"10s"`

	EmailJSURL              string `envconfig:"STOREFRONT_EMAILJS_URL" default:"https://api.emailjs.com/api/v1.0/email/send"`
	EmailJSServiceID        string `envconfig:"STOREFRONT_EMAILJS_SERVICE_ID"`
	EmailJSPublicKey        string `envconfig:"STOREFRONT_EMAILJS_PUBLIC_KEY"`
	EmailJSPrivateKey       string `envconfig:"STOREFRONT_EMAILJS_PRIVATE_KEY"`
	EmailJSContactTemplate  string `envconfig:"STOREFRONT_EMAILJS_CONTACT_TEMPLATE" default:"template_k92zaj2"`
	EmailJSOrderTemplate    string `envconfig:"STOREFRONT_EMAILJS_ORDER_TEMPLATE" default:"purchase_confirmation"`
	EmailJSDocumentTemplate string `envconfig:"STOREFRONT_EMAILJS_DOCUMENT_TEMPLATE" default:"template_document_delivery"`

	BrevoURL         string `envconfig:"STOREFRONT_BREVO_URL" default:"https://api.brevo.com/v3/smtp/email"`
	BrevoAPIKey      string `envconfig:"STOREFRONT_BREVO_API_KEY"`
	BrevoSenderEmail string `envconfig:"STOREFRONT_BREVO_SENDER_EMAIL"`
	BrevoSenderName  string `envconfig:"STOREFRONT_BREVO_SENDER_NAME" default:"TechCreator"`

	DocumentChain     []string `envconfig:"STOREFRONT_DOCUMENT_DELIVERY_CHAIN" default:"emailjs_documents,emailjs_notice"`
	ConfirmationChain []string `envconfig:"STOREFRONT_ORDER_CONFIRMATION_CHAIN" default:"emailjs_confirmation"`
	ContactChain      []string `envconfig:"STOREFRONT_CONTACT_CHAIN" default:"emailjs_contact"`
}

// Support returns the customer-facing support address.
func (n NotificationsConfig) Support() string {
	if s := strings.TrimSpace(n.SupportEmail); s != "" {
		return s
	}
	return n.OperatorEmail
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" || useSQLite {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
