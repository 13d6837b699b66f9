package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// RELAY_ADDR points the suite at an already-running relay
	// (host:port). When empty, the suite starts one in-process.
	RelayAddr string `envconfig:"RELAY_ADDR"`
	// E2E_JWT_SECRET must match the target relay's secret so the suite
	// can mint its own handshake tokens.
	JWTSecret string `envconfig:"E2E_JWT_SECRET" default:"e2e-secret"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
	// E2E_USE_COOKIE selects the cookie credential carrier instead of
	// the token query field.
	UseCookie bool `envconfig:"E2E_USE_COOKIE" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
