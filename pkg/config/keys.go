package config

// EnvPrefix is the envconfig prefix shared by every setting.
const EnvPrefix = "PROCUREHUB"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Env var names referenced outside struct tags (tests, error messages).
const (
	EnvAppEnv = "PROCUREHUB_APP_ENV"
	EnvPort   = "PROCUREHUB_APP_PORT"

	EnvDBDSN  = "PROCUREHUB_DB_DSN"
	EnvDBHost = "PROCUREHUB_DB_HOST"
	EnvDBUser = "PROCUREHUB_DB_USER"
	EnvDBName = "PROCUREHUB_DB_NAME"

	EnvRedisURL = "PROCUREHUB_REDIS_URL"

	EnvJWTSecret  = "PROCUREHUB_JWT_SECRET"
	EnvJWTIssuer  = "PROCUREHUB_JWT_ISSUER"
	EnvJWTExpMins = "PROCUREHUB_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID = "PROCUREHUB_GCP_PROJECT_ID"

	EnvPubSubEventsTopic = "PROCUREHUB_PUBSUB_EVENTS_TOPIC"
	EnvPubSubEventsSub   = "PROCUREHUB_PUBSUB_EVENTS_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
