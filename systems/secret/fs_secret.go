package secret

import (
	"io/ioutil"
	"os"
	"sync"

	"github.com/pkg/errors"
	"go-home.io/x/kasa/plugins/common"
	"gopkg.in/yaml.v2"
)

// Default file system secrets store.
type fsSecret struct {
	sync.Mutex

	location string
	logger   common.ILoggerProvider
	secrets  map[string]string
}

// Get returns secret value or an error if it wasn't found.
func (s *fsSecret) Get(name string) (string, error) {
	s.Lock()
	defer s.Unlock()

	s.logger.Debug("Requesting secret", common.LogSecretToken, name)
	value, ok := s.secrets[name]
	if !ok {
		err := &ErrSecretNotFound{Name: name}
		s.logger.Error("Can't find requested secret", err, common.LogSecretToken, name)
		return "", err
	}

	return value, nil
}

// Set saves a new secret or updates existing one.
func (s *fsSecret) Set(name string, data string) error {
	s.Lock()
	defer s.Unlock()

	s.secrets[name] = data
	out, err := yaml.Marshal(s.secrets)
	if err != nil {
		return errors.Wrap(err, "marshal secrets")
	}

	if err := ioutil.WriteFile(s.location, out, 0600); err != nil {
		s.logger.Error("Failed to save secrets file", err, common.LogFileToken, s.location)
		return errors.Wrap(err, "write secrets")
	}

	return nil
}

// Reads secrets file.
func (s *fsSecret) load() error {
	data, err := ioutil.ReadFile(s.location)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return errors.Wrap(err, "read secrets")
	}

	if err := yaml.Unmarshal(data, &s.secrets); err != nil {
		return errors.Wrap(err, "parse secrets")
	}

	if nil == s.secrets {
		s.secrets = make(map[string]string)
	}

	return nil
}
