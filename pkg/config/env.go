package config

const EnvPrefix = "USERSVC"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv   = "USERSVC_APP_ENV"
	EnvPort     = "USERSVC_APP_PORT"
	EnvLogLevel = "USERSVC_LOG_LEVEL"

	EnvDBDSN    = "USERSVC_DB_DSN"
	EnvDBDriver = "USERSVC_DB_DRIVER"
	EnvDBHost   = "USERSVC_DB_HOST"
	EnvDBUser   = "USERSVC_DB_USER"
	EnvDBName   = "USERSVC_DB_NAME"

	EnvRedisURL = "USERSVC_REDIS_URL"

	EnvJWTSecret              = "USERSVC_JWT_SECRET"
	EnvJWTExpMins             = "USERSVC_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "USERSVC_REFRESH_TOKEN_TTL_MINUTES"

	EnvTrackLoginActivity = "USERSVC_AUTH_TRACK_LOGIN_ACTIVITY"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
