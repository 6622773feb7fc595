package config

const (
	EnvPrefix = "SECONDSTORY"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "SECONDSTORY_DB_DSN"
	EnvDBHost = "SECONDSTORY_DB_HOST"
	EnvDBUser = "SECONDSTORY_DB_USER"
	EnvDBName = "SECONDSTORY_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
