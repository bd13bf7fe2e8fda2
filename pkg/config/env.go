package config

// EnvPrefix namespaces every variable the services read.
const EnvPrefix = "MERCADITO"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "MERCADITO_APP_ENV"
	EnvPort     = "MERCADITO_APP_PORT"
	EnvLogLevel = "MERCADITO_LOG_LEVEL"

	EnvDBDSN  = "MERCADITO_DB_DSN"
	EnvDBHost = "MERCADITO_DB_HOST"
	EnvDBUser = "MERCADITO_DB_USER"
	EnvDBName = "MERCADITO_DB_NAME"

	EnvRedisURL = "MERCADITO_REDIS_URL"

	EnvJWTSecret  = "MERCADITO_JWT_SECRET"
	EnvJWTIssuer  = "MERCADITO_JWT_ISSUER"
	EnvJWTExpMins = "MERCADITO_JWT_EXPIRATION_MINUTES"

	EnvCartStore                 = "MERCADITO_CART_STORE"
	EnvCartSharedSessionFallback = "MERCADITO_CART_SHARED_SESSION_FALLBACK"
	EnvCartTTL                   = "MERCADITO_CART_TTL"

	EnvMongoURI      = "MERCADITO_MONGO_URI"
	EnvMongoDatabase = "MERCADITO_MONGO_DATABASE"

	EnvShippingFee      = "MERCADITO_ORDERS_SHIPPING_FEE"
	EnvFreeShippingOver = "MERCADITO_ORDERS_FREE_SHIPPING_OVER"

	EnvGCPProjectID      = "MERCADITO_GCP_PROJECT_ID"
	EnvPubSubDomainTopic = "MERCADITO_PUBSUB_DOMAIN_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
