package config

import "github.com/kelseyhightower/envconfig"

// EnvPrefix prefixes every environment variable, e.g. TODOBOT_HTTP_ADDR.
const EnvPrefix = "TODOBOT"

// parseEnv overlays TODOBOT_* variables. Unset variables leave fields
// untouched; a malformed value panics.
func parseEnv(config *Config) {
	if err := envconfig.Process(EnvPrefix, config); err != nil {
		panic(err)
	}
}
