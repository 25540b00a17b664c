package config

type Config interface {
	EnvConfig
	IdentityConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
}

// IdentityConfig exposes the hosting-environment variables that select the
// active source variant and its endpoint.
type IdentityConfig interface {
	GetIMDSEndpoint() string
	GetCredentialEndpoint() string
	GetIdentityEndpoint() string
	GetIdentityHeader() string
	GetIdentityServerThumbprint() string
	GetMSIEndpoint() string
	GetClientID() string
}

type mainConfig struct {
	EnvVars
	Identity
}

func New() Config {
	return mainConfig{}
}
