package config

import (
	"os"

	"github.com/pseudomuto/chmigrate/pkg/consts"
	"go.uber.org/fx"
)

// Module provides the base *Config for the CLI. It is read from the file named
// by CH_MIGRATIONS_CONFIG, or from chmigrate.yaml in the working directory when
// that file exists. Commands layer their flags on top of it.
var Module = fx.Module("config", fx.Provide(
	func() (*Config, error) {
		if path := os.Getenv(consts.EnvConfig); path != "" {
			return Load(path, false)
		}

		return Load(consts.DefaultConfigFile, true)
	},
))
