package config

const EnvPrefix = "CAMPGROUND"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "CAMPGROUND_APP_ENV"
	EnvPort     = "CAMPGROUND_APP_PORT"
	EnvLogLevel = "CAMPGROUND_LOG_LEVEL"

	EnvDBDSN  = "CAMPGROUND_DB_DSN"
	EnvDBHost = "CAMPGROUND_DB_HOST"
	EnvDBPort = "CAMPGROUND_DB_PORT"
	EnvDBUser = "CAMPGROUND_DB_USER"
	EnvDBPass = "CAMPGROUND_DB_PASSWORD"
	EnvDBName = "CAMPGROUND_DB_NAME"

	EnvRedisURL = "CAMPGROUND_REDIS_URL"

	EnvJWTSecret  = "CAMPGROUND_JWT_SECRET"
	EnvJWTIssuer  = "CAMPGROUND_JWT_ISSUER"
	EnvJWTExpMins = "CAMPGROUND_JWT_EXPIRATION_MINUTES"

	EnvBookingMaxPerUser = "CAMPGROUND_BOOKING_MAX_PER_USER"
	EnvCronInterval      = "CAMPGROUND_CRON_INTERVAL"

	EnvGCPProjectID      = "CAMPGROUND_GCP_PROJECT_ID"
	EnvPubSubDomainTopic = "CAMPGROUND_PUBSUB_DOMAIN_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
