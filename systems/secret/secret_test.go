package secret

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-home.io/x/kasa/mocks"
	"gopkg.in/yaml.v2"
)

// Creates temporary folder with optional secrets file.
func prepareDir(t *testing.T, data string) string {
	dir, err := ioutil.TempDir("", "kasa_secrets")
	require.NoError(t, err)

	if data != "" {
		require.NoError(t, ioutil.WriteFile(filepath.Join(dir, secretsFile), []byte(data), 0600))
	}

	return dir
}

// Tests reading secrets.
func TestGet(t *testing.T) {
	dir := prepareDir(t, "password: qwerty\n")
	defer os.RemoveAll(dir) // nolint: errcheck

	s := NewSecretProvider(&ConstructSecret{Location: dir, Logger: mocks.FakeNewLogger(nil)})

	v, err := s.Get("password")
	require.NoError(t, err)
	assert.Equal(t, "qwerty", v)

	_, err = s.Get("missing")
	assert.IsType(t, &ErrSecretNotFound{}, err)
}

// Tests saving secrets.
func TestSet(t *testing.T) {
	dir := prepareDir(t, "")
	defer os.RemoveAll(dir) // nolint: errcheck

	s := NewSecretProvider(&ConstructSecret{Location: dir, Logger: mocks.FakeNewLogger(nil)})
	require.NoError(t, s.Set("user", "admin"))

	data, err := ioutil.ReadFile(filepath.Join(dir, secretsFile))
	require.NoError(t, err)

	saved := make(map[string]string)
	require.NoError(t, yaml.Unmarshal(data, saved))
	assert.Equal(t, "admin", saved["user"])

	v, err := s.Get("user")
	require.NoError(t, err)
	assert.Equal(t, "admin", v)
}

// Tests save error.
func TestSetError(t *testing.T) {
	s := NewSecretProvider(&ConstructSecret{Location: "/definitely/missing/folder",
		Logger: mocks.FakeNewLogger(nil)})
	assert.Error(t, s.Set("user", "admin"))
}

// Tests wrong file format.
func TestWrongFormat(t *testing.T) {
	dir := prepareDir(t, "- a\n- b\n")
	defer os.RemoveAll(dir) // nolint: errcheck

	logged := false
	s := NewSecretProvider(&ConstructSecret{Location: dir, Logger: mocks.FakeNewLogger(func(string) {
		logged = true
	})})

	assert.True(t, logged)
	_, err := s.Get("a")
	assert.Error(t, err)
}
