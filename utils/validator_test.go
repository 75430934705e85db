package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go-home.io/x/kasa/mocks"
	"go-home.io/x/kasa/providers"
)

type testStruct struct {
	Percent  uint8  `validate:"percent"`
	Signed   int    `validate:"percent"`
	Port     int32  `validate:"port"`
	IpPort   string `validate:"ipv4port"`
	Protocol string `validate:"transport" default:"udp"`
	Level    string `validate:"loglevel" default:"warn"`
}

// Tests success validation
func TestSuccessValidation(t *testing.T) {
	in := []*testStruct{
		{
			Percent: 0,
			Port:    8080,
			IpPort:  "127.0.0.1",
		},
		{
			Percent:  100,
			Signed:   100,
			Port:     65535,
			IpPort:   "10.0.0.100:8080",
			Protocol: "tcp",
			Level:    "silent",
		},
	}

	validator := NewValidator(mocks.FakeNewLogger(nil))
	for _, v := range in {
		assert.True(t, validator.Validate(v), v.IpPort)
	}

	assert.Equal(t, "udp", in[0].Protocol)
	assert.Equal(t, "warn", in[0].Level)
}

// Tests validation without pointer.
func TestNotPointer(t *testing.T) {
	validator := NewValidator(mocks.FakeNewLogger(nil))
	d := testStruct{
		Percent: 0,
		Port:    8080,
		IpPort:  "127.0.0.1",
	}

	assert.False(t, validator.Validate(d))
}

// Tests incorrect data
func TestFailedValidation(t *testing.T) {
	in := []*testStruct{
		{
			Percent: 120,
		},
		{
			Signed: -1,
		},
		{
			Port: 100000,
		},
		{
			IpPort: "10.0.0.100:test",
		},
		{
			IpPort: "10.0.0.100:22:123",
		},
		{
			Port:     80,
			IpPort:   "10.0.0.1",
			Protocol: "http",
		},
		{
			Port:   80,
			IpPort: "10.0.0.1",
			Level:  "verbose",
		},
	}

	validator := NewValidator(mocks.FakeNewLogger(nil))
	for k, v := range in {
		assert.False(t, validator.Validate(v), "%d", k)
	}
}

// Tests discovery settings defaults.
func TestDiscoveryDefaults(t *testing.T) {
	s := &providers.DiscoverySettings{}
	assert.True(t, NewValidator(mocks.FakeNewLogger(nil)).Validate(s))

	assert.Equal(t, providers.TransportUDP, s.Transport)
	assert.Equal(t, 10000, s.Timeout)
	assert.Equal(t, "255.255.255.255", s.Broadcast)
	assert.Equal(t, 9999, s.Port)
	assert.Equal(t, 10, s.Interval)
	assert.Equal(t, 3, s.OfflineTolerance)
	assert.Equal(t, "warn", s.LogLevel)
	assert.Equal(t, int64(20000), s.SharedSocketIdle().Nanoseconds()/1000000)
	assert.False(t, s.UseSharedSocket())
}

// Tests log level names.
func TestIsValidLogLevel(t *testing.T) {
	assert.True(t, IsValidLogLevel("TRACE"))
	assert.True(t, IsValidLogLevel("silent"))
	assert.False(t, IsValidLogLevel("dbg"))
}
