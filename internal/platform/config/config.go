package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendS3       = "s3"
	BackendLog      = "log"
	BackendSMTP     = "smtp"

	AuthModeSession = "session"
	AuthModeDev     = "dev"

	minSessionSecretBytes = 32
)

// Config is the full runtime configuration of the back office.
type Config struct {
	Env      string
	Port     string
	LogLevel string
	// AuthMode "dev" trusts the X-Debug-Admin header; development only.
	AuthMode   string
	DevAdminID string

	Storage StorageConfig
	Session SessionConfig
	Blob    BlobConfig
	Mail    MailConfig

	InvitationTTL     time.Duration
	PublicBaseURL     string
	LoginRateLimitRPM int
	// TrustedProxies may set X-Forwarded-For / X-Real-IP for the client address.
	TrustedProxies  []netip.Prefix
	PictureMaxBytes int64
	PDFFontPath     string
	IdempotencyTTL  time.Duration

	BootstrapAdminEmail    string
	BootstrapAdminPassword string
}

type StorageConfig struct {
	Backend     string
	DatabaseURL string
	MaxConns    int32
}

// SessionConfig configures HS256 session tokens.
type SessionConfig struct {
	Secret   []byte
	Issuer   string
	Audience string
	TTL      time.Duration
}

type BlobConfig struct {
	Backend    string
	Region     string
	Endpoint   string
	Bucket     string
	AccessKey  string
	SecretKey  string
	PresignTTL time.Duration
}

type MailConfig struct {
	Backend  string
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

func (c Config) IsDevelopment() bool { return c.Env == EnvDevelopment }

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return LoadFromEnv()
}

func LoadFromEnv() (Config, error) {
	var errs []string
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	cfg := Config{
		Env:           getEnv("APP_ENV", EnvProduction),
		Port:          getEnv("PORT", "8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		AuthMode:      getEnv("AUTH_MODE", AuthModeSession),
		DevAdminID:    os.Getenv("DEV_ADMIN_ID"),
		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		PDFFontPath:   os.Getenv("PDF_FONT_PATH"),
		Storage: StorageConfig{
			Backend:     getEnv("STORAGE_BACKEND", BackendMemory),
			DatabaseURL: os.Getenv("DATABASE_URL"),
		},
		Session: SessionConfig{
			Secret:   []byte(os.Getenv("SESSION_SECRET")),
			Issuer:   getEnv("SESSION_ISSUER", "climbing-backoffice"),
			Audience: getEnv("SESSION_AUDIENCE", "climbing-backoffice"),
		},
		Blob: BlobConfig{
			Backend:   getEnv("BLOB_BACKEND", BackendMemory),
			Region:    getEnv("S3_REGION", "us-east-1"),
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			Bucket:    os.Getenv("S3_BUCKET"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
		},
		Mail: MailConfig{
			Backend:  getEnv("MAIL_BACKEND", BackendLog),
			Host:     os.Getenv("SMTP_HOST"),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnv("MAIL_FROM", "no-reply@localhost"),
		},
		BootstrapAdminEmail:    strings.TrimSpace(os.Getenv("BOOTSTRAP_ADMIN_EMAIL")),
		BootstrapAdminPassword: os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),
	}

	var err error
	if cfg.Session.TTL, err = getDuration("SESSION_TTL", 12*time.Hour); err != nil {
		fail("%v", err)
	}
	if cfg.InvitationTTL, err = getDuration("INVITATION_TTL", 72*time.Hour); err != nil {
		fail("%v", err)
	}
	if cfg.Blob.PresignTTL, err = getDuration("S3_PRESIGN_TTL", 15*time.Minute); err != nil {
		fail("%v", err)
	}
	if cfg.IdempotencyTTL, err = getDuration("IDEMPOTENCY_TTL", 24*time.Hour); err != nil {
		fail("%v", err)
	}
	maxConns, err := getInt("DB_MAX_CONNS", 10)
	if err != nil {
		fail("%v", err)
	}
	cfg.Storage.MaxConns = int32(maxConns)
	if cfg.Mail.Timeout, err = getDuration("SMTP_TIMEOUT", 10*time.Second); err != nil {
		fail("%v", err)
	}
	if cfg.Mail.Port, err = getInt("SMTP_PORT", 587); err != nil {
		fail("%v", err)
	}
	if cfg.LoginRateLimitRPM, err = getInt("LOGIN_RATE_LIMIT_RPM", 10); err != nil {
		fail("%v", err)
	}
	if cfg.TrustedProxies, err = getPrefixes("TRUSTED_PROXIES"); err != nil {
		fail("%v", err)
	}
	pictureMax, err := getInt("PICTURE_MAX_BYTES", 5<<20)
	if err != nil {
		fail("%v", err)
	}
	cfg.PictureMaxBytes = int64(pictureMax)

	switch cfg.Env {
	case EnvDevelopment, EnvProduction, "test":
	default:
		fail("APP_ENV must be one of development, production, test")
	}
	switch cfg.AuthMode {
	case AuthModeSession:
	case AuthModeDev:
		if cfg.Env != EnvDevelopment {
			fail("AUTH_MODE=dev is only allowed with APP_ENV=development")
		}
	default:
		fail("AUTH_MODE must be session or dev")
	}
	switch cfg.Storage.Backend {
	case BackendMemory:
	case BackendPostgres:
		if cfg.Storage.DatabaseURL == "" {
			fail("DATABASE_URL is required when STORAGE_BACKEND=postgres")
		}
	default:
		fail("STORAGE_BACKEND must be memory or postgres")
	}
	if len(cfg.Session.Secret) < minSessionSecretBytes {
		fail("SESSION_SECRET must be at least %d bytes", minSessionSecretBytes)
	}
	if cfg.Session.TTL <= 0 || cfg.InvitationTTL <= 0 {
		fail("SESSION_TTL and INVITATION_TTL must be positive")
	}
	switch cfg.Blob.Backend {
	case BackendMemory:
	case BackendS3:
		if cfg.Blob.Bucket == "" {
			fail("S3_BUCKET is required when BLOB_BACKEND=s3")
		}
	default:
		fail("BLOB_BACKEND must be memory or s3")
	}
	switch cfg.Mail.Backend {
	case BackendLog:
	case BackendSMTP:
		if cfg.Mail.Host == "" {
			fail("SMTP_HOST is required when MAIL_BACKEND=smtp")
		}
	default:
		fail("MAIL_BACKEND must be log or smtp")
	}
	if cfg.LoginRateLimitRPM <= 0 {
		fail("LOGIN_RATE_LIMIT_RPM must be positive")
	}
	if cfg.PictureMaxBytes <= 0 {
		fail("PICTURE_MAX_BYTES must be positive")
	}
	if (cfg.BootstrapAdminEmail == "") != (cfg.BootstrapAdminPassword == "") {
		fail("BOOTSTRAP_ADMIN_EMAIL and BOOTSTRAP_ADMIN_PASSWORD must be set together")
	}

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return def, fmt.Errorf("%s must be a duration (e.g. 30m)", key)
	}
	return d, nil
}

func getInt(key string, def int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def, fmt.Errorf("%s must be an integer", key)
	}
	return n, nil
}

// getPrefixes parses a comma-separated list of CIDRs or bare IPs.
func getPrefixes(key string) ([]netip.Prefix, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil, nil
	}
	var out []netip.Prefix
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.Contains(part, "/") {
			p, err := netip.ParsePrefix(part)
			if err != nil {
				return nil, fmt.Errorf("%s: invalid CIDR %q", key, part)
			}
			out = append(out, p.Masked())
			continue
		}
		ip, err := netip.ParseAddr(part)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid address %q", key, part)
		}
		ip = ip.Unmap()
		out = append(out, netip.PrefixFrom(ip, ip.BitLen()))
	}
	return out, nil
}
