// Package config loads service configuration from the environment.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/samber/oops"
)

// Config carries everything the server needs to start. Every field has a
// working default so a bare `blogd serve` comes up on a local database.
type Config struct {
	Addr        string        `env:"BLOG_ADDR"         envDefault:":8080"`
	DBPath      string        `env:"BLOG_DB_PATH"      envDefault:"blog.db"`
	SessionTTL  time.Duration `env:"BLOG_SESSION_TTL"  envDefault:"24h"`
	LogFormat   string        `env:"BLOG_LOG_FORMAT"   envDefault:"json"`
	SiteTitle   string        `env:"BLOG_SITE_TITLE"   envDefault:"Yet Another Blog"`
	TemplateDir string        `env:"BLOG_TEMPLATE_DIR" envDefault:"web/templates"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, oops.Code("CONFIG_PARSE_FAILED").Wrapf(err, "parsing environment")
	}
	return cfg, nil
}
