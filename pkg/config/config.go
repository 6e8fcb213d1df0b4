package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Auth         AuthConfig
	CORS         CORSConfig
	Kafka        KafkaConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.JWT.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"USERSVC_APP_ENV" required:"true"`
	Port         string `envconfig:"USERSVC_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"USERSVC_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"USERSVC_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"USERSVC_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"USERSVC_DB_DSN"`
	Driver string `envconfig:"USERSVC_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"USERSVC_DB_HOST"`
	LegacyPort     int    `envconfig:"USERSVC_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"USERSVC_DB_USER"`
	LegacyPassword string `envconfig:"USERSVC_DB_PASSWORD"`
	LegacyName     string `envconfig:"USERSVC_DB_NAME"`
	LegacySSLMode  string `envconfig:"USERSVC_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"USERSVC_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"USERSVC_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"USERSVC_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"USERSVC_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the service runs against the embedded sqlite driver.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

// RedisConfig is optional: without a URL or address the registration guard is disabled.
type RedisConfig struct {
	URL          string        `envconfig:"USERSVC_REDIS_URL"`
	Address      string        `envconfig:"USERSVC_REDIS_ADDR"`
	Password     string        `envconfig:"USERSVC_REDIS_PASSWORD"`
	DB           int           `envconfig:"USERSVC_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"USERSVC_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"USERSVC_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"USERSVC_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"USERSVC_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"USERSVC_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint has been configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret                 string `envconfig:"USERSVC_JWT_SECRET" required:"true"`
	ExpirationMinutes      int    `envconfig:"USERSVC_JWT_EXPIRATION_MINUTES" default:"15"`
	RefreshTokenTTLMinutes int    `envconfig:"USERSVC_REFRESH_TOKEN_TTL_MINUTES" default:"10080"`
}

// AccessTokenTTL returns the access token lifetime configured in minutes.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

func (j JWTConfig) validate() error {
	if strings.TrimSpace(j.Secret) == "" {
		return fmt.Errorf("%s is required", EnvJWTSecret)
	}
	if j.AccessTokenTTL() <= 0 {
		return fmt.Errorf("%s must be positive", EnvJWTExpMins)
	}
	if j.RefreshTokenTTL() <= j.AccessTokenTTL() {
		return fmt.Errorf("%s must exceed %s", EnvRefreshTokenTTLMinutes, EnvJWTExpMins)
	}
	return nil
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"USERSVC_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"USERSVC_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"USERSVC_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"USERSVC_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"USERSVC_ARGON_KEY_LEN" default:"32"`
}

type AuthConfig struct {
	TrackLoginActivity    bool          `envconfig:"USERSVC_AUTH_TRACK_LOGIN_ACTIVITY" default:"true"`
	RegistrationGuardTTL  time.Duration `envconfig:"USERSVC_AUTH_REGISTRATION_GUARD_TTL" default:"10s"`
	RefreshCookieName     string        `envconfig:"USERSVC_AUTH_REFRESH_COOKIE_NAME" default:"refreshToken"`
	RefreshCookieMaxAge   time.Duration `envconfig:"USERSVC_AUTH_REFRESH_COOKIE_MAX_AGE" default:"168h"`
	RefreshCookieSecure   bool          `envconfig:"USERSVC_AUTH_REFRESH_COOKIE_SECURE" default:"false"`
	RefreshCookieSameSite string        `envconfig:"USERSVC_AUTH_REFRESH_COOKIE_SAMESITE" default:"none"`
}

type CORSConfig struct {
	AllowedOrigins []string      `envconfig:"USERSVC_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	MaxAge         time.Duration `envconfig:"USERSVC_CORS_MAX_AGE" default:"5m"`
}

// KafkaConfig is optional: without brokers user events are not published.
type KafkaConfig struct {
	Brokers      []string      `envconfig:"USERSVC_KAFKA_BROKERS"`
	Topic        string        `envconfig:"USERSVC_KAFKA_TOPIC" default:"user-events"`
	Username     string        `envconfig:"USERSVC_KAFKA_USERNAME"`
	Password     string        `envconfig:"USERSVC_KAFKA_PASSWORD"`
	TLS          bool          `envconfig:"USERSVC_KAFKA_TLS" default:"false"`
	WriteTimeout time.Duration `envconfig:"USERSVC_KAFKA_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether at least one broker has been configured.
func (k KafkaConfig) Enabled() bool {
	for _, b := range k.Brokers {
		if strings.TrimSpace(b) != "" {
			return true
		}
	}
	return false
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"USERSVC_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
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
