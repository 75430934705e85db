package logger

import (
	"strings"
	"sync/atomic"

	"go-home.io/x/kasa/plugins/common"
)

// Filtering order of component log levels.
var componentLevels = map[string]int{
	"trace":  0,
	"debug":  1,
	"info":   2,
	"warn":   3,
	"error":  4,
	"silent": 5,
}

// ComponentLevel is a minimal log level shared by component loggers.
type ComponentLevel struct {
	level int32
}

// NewComponentLevel constructs a new shared level.
func NewComponentLevel(level string) *ComponentLevel {
	c := &ComponentLevel{}
	c.Set(level)
	return c
}

// Set changes level of every logger using it.
// Unknown level enables everything.
func (c *ComponentLevel) Set(level string) {
	v, ok := componentLevels[strings.ToLower(level)]
	if !ok {
		v = 0
	}

	atomic.StoreInt32(&c.level, int32(v))
}

// String returns level name.
func (c *ComponentLevel) String() string {
	v := c.get()
	for k, l := range componentLevels {
		if l == v {
			return k
		}
	}

	return ""
}

func (c *ComponentLevel) get() int {
	return int(atomic.LoadInt32(&c.level))
}

// Component logger implementation.
type pluginLogger struct {
	systemLogger common.ILoggerProvider
	pluginFields []string
	level        *ComponentLevel
}

// ConstructPluginLogger has data required for a new component logger.
// Shared level takes precedence over Level.
type ConstructPluginLogger struct {
	SystemLogger common.ILoggerProvider
	System       string
	Provider     string
	Level        string
	Shared       *ComponentLevel
}

// NewPluginLogger constructs a new component logger.
// This is another level of abstraction which adds system and provider
// names to the actual logger and optionally raises minimal level.
func NewPluginLogger(ctor *ConstructPluginLogger) common.ILoggerProvider {
	level := ctor.Shared
	if nil == level {
		level = NewComponentLevel(ctor.Level)
	}

	return &pluginLogger{
		systemLogger: ctor.SystemLogger,
		pluginFields: []string{common.LogSystemToken, ctor.System, common.LogProviderToken, ctor.Provider},
		level:        level,
	}
}

// Debug sends debug level message.
func (l *pluginLogger) Debug(msg string, fields ...string) {
	if l.level.get() > componentLevels["debug"] {
		return
	}

	l.systemLogger.Debug(msg, append(fields, l.pluginFields...)...)
}

// Info sends info level message.
func (l *pluginLogger) Info(msg string, fields ...string) {
	if l.level.get() > componentLevels["info"] {
		return
	}

	l.systemLogger.Info(msg, append(fields, l.pluginFields...)...)
}

// Warn sends warning level message.
func (l *pluginLogger) Warn(msg string, fields ...string) {
	if l.level.get() > componentLevels["warn"] {
		return
	}

	l.systemLogger.Warn(msg, append(fields, l.pluginFields...)...)
}

// Error sends error level message.
func (l *pluginLogger) Error(msg string, err error, fields ...string) {
	if l.level.get() > componentLevels["error"] {
		return
	}

	l.systemLogger.Error(msg, err, append(fields, l.pluginFields...)...)
}

// Fatal sends fatal level message and exits.
// Fatal messages are never filtered.
func (l *pluginLogger) Fatal(msg string, err error, fields ...string) {
	l.systemLogger.Fatal(msg, err, append(fields, l.pluginFields...)...)
}
