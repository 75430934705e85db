package logger

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"go-home.io/x/kasa/mocks"
)

// Tests that every operation invoked correctly.
func TestPluginLogger(t *testing.T) {
	debug := false
	info := false
	warn := false
	err := false
	fatal := false

	ctor := &ConstructPluginLogger{
		Provider: "test",
		SystemLogger: mocks.FakeNewLogger(func(s string) {
			switch s {
			case "Debug":
				debug = true
			case "Info":
				info = true
			case "Warn":
				warn = true
			case "Error":
				err = true
			case "Fatal":
				fatal = true
			}
		}),
		System: "test",
	}

	l := NewPluginLogger(ctor)
	l.Debug("Debug")
	l.Info("Info")
	l.Warn("Warn")
	l.Error("Error", errors.New(""))
	l.Fatal("Fatal", errors.New(""))

	assert.True(t, debug, "debug")
	assert.True(t, info, "info")
	assert.True(t, warn, "warn")
	assert.True(t, err, "err")
	assert.True(t, fatal, "fatal")
}

// Tests component level filtering.
func TestPluginLoggerLevel(t *testing.T) {
	data := []struct {
		level    string
		expected []string
	}{
		{level: "warn", expected: []string{"Warn", "Error", "Fatal"}},
		{level: "silent", expected: []string{"Fatal"}},
		{level: "", expected: []string{"Debug", "Info", "Warn", "Error", "Fatal"}},
		{level: "trace", expected: []string{"Debug", "Info", "Warn", "Error", "Fatal"}},
	}

	for _, v := range data {
		got := make([]string, 0)
		l := NewPluginLogger(&ConstructPluginLogger{
			Provider:     "test",
			System:       "test",
			Level:        v.level,
			SystemLogger: mocks.FakeNewLogger(func(s string) { got = append(got, s) }),
		})

		l.Debug("Debug")
		l.Info("Info")
		l.Warn("Warn")
		l.Error("Error", errors.New(""))
		l.Fatal("Fatal", errors.New(""))

		assert.Equal(t, v.expected, got, v.level)
	}
}

// Tests shared level changes affecting existing loggers.
func TestPluginLoggerSharedLevel(t *testing.T) {
	got := make([]string, 0)
	level := NewComponentLevel("error")
	l := NewPluginLogger(&ConstructPluginLogger{
		Provider:     "test",
		System:       "test",
		Level:        "trace",
		Shared:       level,
		SystemLogger: mocks.FakeNewLogger(func(s string) { got = append(got, s) }),
	})

	l.Debug("Debug")
	l.Warn("Warn")
	assert.Equal(t, 0, len(got), "shared level is ignored")
	assert.Equal(t, "error", level.String())

	level.Set("trace")
	l.Debug("Debug")
	assert.Equal(t, []string{"Debug"}, got)
	assert.Equal(t, "trace", level.String())
}
