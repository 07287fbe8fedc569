package config

import (
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config interface {
	EnvConfig
	CorsConfig
	ConsoleConfig
	SecurityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Console
	Security
}

// New builds the configuration from environment variables, optionally
// layered over the file named by CONFIG_FILE.
func New() Config {
	v := newViper()
	return mainConfig{
		EnvVars:  EnvVars{v: v},
		Cors:     Cors{v: v},
		Console:  Console{v: v},
		Security: Security{v: v},
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault(portEnvVar, "8080")
	v.SetDefault(appNameVar, "Mentions Console")
	v.SetDefault(envVar, "DEV")
	v.SetDefault(logLevelVar, "info")

	v.SetDefault(apiOriginVar, "http://localhost:8000")
	v.SetDefault(apiTimeoutVar, 15*time.Second)
	v.SetDefault(pageSizeVar, 25)
	v.SetDefault(queryCacheTTLVar, 30*time.Second)

	v.SetDefault(sessionCookieVar, "optimai_agents_admin_session")
	v.SetDefault(sessionMaxAgeVar, 12*time.Hour)
	v.SetDefault(sessionDBVar, "")
	v.SetDefault(sessionSecretVar, "")

	v.SetDefault(allowedOriginsVar, "")

	if file := os.Getenv("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			log.Warn().Err(err).Str("file", file).Msg("Failed to read config file, using environment only")
		}
	}
	return v
}
