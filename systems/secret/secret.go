// Package secret contains file based secrets store used by config templates.
package secret

import (
	"fmt"
	"path/filepath"

	"go-home.io/x/kasa/plugins/common"
	"go-home.io/x/kasa/systems/logger"
)

const (
	// Config logs system value.
	logSystem = "secret"
	// Secrets file name, ignored by the config loader.
	secretsFile = "_secrets.yaml"
)

// ISecretProvider defines secrets store logic.
type ISecretProvider interface {
	Get(name string) (string, error)
	Set(name string, data string) error
}

// ConstructSecret has data required for a new secrets provider.
type ConstructSecret struct {
	Location string
	Logger   common.ILoggerProvider
}

// ErrSecretNotFound defines missing secret error.
type ErrSecretNotFound struct {
	Name string
}

// Error formats output.
func (e *ErrSecretNotFound) Error() string {
	return fmt.Sprintf("secret %s is not found", e.Name)
}

// NewSecretProvider constructs a new file system secrets store.
func NewSecretProvider(ctor *ConstructSecret) ISecretProvider {
	secretLogger := logger.NewPluginLogger(&logger.ConstructPluginLogger{
		SystemLogger: ctor.Logger,
		Provider:     "fs",
		System:       logSystem,
	})

	s := &fsSecret{
		location: filepath.Join(ctor.Location, secretsFile),
		logger:   secretLogger,
		secrets:  make(map[string]string),
	}

	if err := s.load(); err != nil {
		secretLogger.Warn("Secrets file is not loaded", common.LogFileToken, s.location,
			common.LogErrorToken, err.Error())
	}

	return s
}
