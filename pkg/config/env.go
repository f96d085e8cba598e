package config

// Environment variable names shared between Load, tests, and error messages.
const (
	EnvPrefix = "QUICKBITES"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "QUICKBITES_APP_ENV"
	EnvPort     = "QUICKBITES_APP_PORT"
	EnvLogLevel = "QUICKBITES_LOG_LEVEL"

	EnvDBDSN      = "QUICKBITES_DB_DSN"
	EnvDBHost     = "QUICKBITES_DB_HOST"
	EnvDBPort     = "QUICKBITES_DB_PORT"
	EnvDBUser     = "QUICKBITES_DB_USER"
	EnvDBPassword = "QUICKBITES_DB_PASSWORD"
	EnvDBName     = "QUICKBITES_DB_NAME"

	EnvRedisURL = "QUICKBITES_REDIS_URL"

	EnvGCPProjectID = "QUICKBITES_GCP_PROJECT_ID"

	EnvPubSubDispatchTopic   = "QUICKBITES_PUBSUB_DISPATCH_TOPIC"
	EnvPubSubDispatchSub     = "QUICKBITES_PUBSUB_DISPATCH_SUBSCRIPTION"
	EnvPubSubNotificationSub = "QUICKBITES_PUBSUB_NOTIFICATION_SUBSCRIPTION"

	EnvDispatchMaxRadiusKm      = "QUICKBITES_DISPATCH_MAX_RADIUS_KM"
	EnvDispatchWorkloadStatuses = "QUICKBITES_DISPATCH_WORKLOAD_STATUSES"
	EnvTrackingSubscriberBuffer = "QUICKBITES_TRACKING_SUBSCRIBER_BUFFER"
)

// legacyDBEnvVars are the discrete connection vars accepted when the DSN is
// not set directly.
var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
