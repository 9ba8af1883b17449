package config

import (
	"time"

	"github.com/leeforge/essentials/logging"
	"github.com/leeforge/essentials/redis_client"
)

// Settings is the full application configuration.
type Settings struct {
	Server    ServerSettings      `mapstructure:"server"`
	Store     StoreSettings       `mapstructure:"store"`
	Redis     redis_client.Config `mapstructure:"redis"`
	Installer InstallerSettings   `mapstructure:"installer"`
	Catalog   CatalogSettings     `mapstructure:"catalog"`
	Log       logging.Config      `mapstructure:"log"`
}

type ServerSettings struct {
	Addr            string        `mapstructure:"addr" default:":8080" validate:"required"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout" default:"10s"`
}

// StoreSettings selects where install states live. The deployed side holds
// the states baked into the running application.
type StoreSettings struct {
	Driver            string `mapstructure:"driver" default:"file" validate:"oneof=file redis"`
	Directory         string `mapstructure:"directory" default:"data/state" validate:"required_if=Driver file"`
	DeployedDirectory string `mapstructure:"deployed-directory" default:"data/deployed" validate:"required_if=Driver file"`
	RedisKey          string `mapstructure:"redis-key" default:"essentials:install-state" validate:"required_if=Driver redis"`
	DeployedRedisKey  string `mapstructure:"deployed-redis-key" default:"essentials:deployed-state" validate:"required_if=Driver redis"`
}

type InstallerSettings struct {
	// ConfirmParameters makes every plugin that declares parameters wait
	// for user input. Reloaded live when the config is watched.
	ConfirmParameters bool `mapstructure:"confirm-parameters"`
}

type CatalogSettings struct {
	Path string `mapstructure:"path" default:"config/plugins.json" validate:"required"`
}

// Options controls where and how settings are read.
type Options struct {
	BasePath  string
	FileName  string
	FileType  string
	EnvPrefix string
}
