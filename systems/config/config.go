// Package config loads raw configuration files.
package config

import (
	"path/filepath"

	"go-home.io/x/kasa/plugins/common"
	"go-home.io/x/kasa/systems/logger"
	"go-home.io/x/kasa/utils"
)

// IConfigProvider provides capabilities for loading system configuration.
type IConfigProvider interface {
	Load() chan []byte
}

// ConstructConfig contains data required for a new config provider.
type ConstructConfig struct {
	Options      map[string]string
	PluginLogger common.ILoggerProvider
}

// NewConfigProvider constructs a new file system config provider.
func NewConfigProvider(ctor *ConstructConfig) IConfigProvider {
	configLoggerCtor := &logger.ConstructPluginLogger{
		SystemLogger: ctor.PluginLogger,
		Provider:     "fs",
		System:       "config",
	}

	configLogger := logger.NewPluginLogger(configLoggerCtor)

	loc, ok := ctor.Options["location"]
	if !ok || loc == "" {
		loc = utils.GetDefaultConfigsDir()
		configLogger.Info("Using default location", "location", loc)
	}

	return &fsConfig{
		location: loc,
		logger:   configLogger,
	}
}

// IsValidConfigFileName checks whether config file name is valid.
// Files starting with underscore are ignored.
func IsValidConfigFileName(name string) bool {
	name = filepath.Base(name)

	if name == "" || name[0] == '_' {
		return false
	}

	name = filepath.Ext(name)
	return name == ".yaml" || name == ".yml"
}
