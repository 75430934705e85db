// Package logger provides logrus-backed implementation of the kasa logger.
package logger

import (
	"io"
	"io/ioutil"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"go-home.io/x/kasa/plugins/common"
)

// Logger provider implementation.
type provider struct {
	logger *logrus.Logger
	nodeID string
}

// ConstructLogger has data required for a new logger.
type ConstructLogger struct {
	Level  string
	NodeID string
	Output io.Writer
}

// ConsoleSettings has configured data for the console logger.
type ConsoleSettings struct {
	Level string `yaml:"level" validate:"loglevel" default:"info"`
}

// NewConsoleLogger constructs a default info level logger.
func NewConsoleLogger() common.ILoggerProvider {
	return NewLoggerProvider(&ConstructLogger{Level: "info"})
}

// NewLoggerProvider constructs a new logger.
func NewLoggerProvider(ctor *ConstructLogger) common.ILoggerProvider {
	l := logrus.New()
	l.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	l.Out = os.Stdout
	if nil != ctor.Output {
		l.Out = ctor.Output
	}

	if strings.ToLower(ctor.Level) == "silent" {
		l.Out = ioutil.Discard
	}

	l.SetLevel(getLogLevel(ctor.Level))
	return &provider{
		logger: l,
		nodeID: ctor.NodeID,
	}
}

// Debug sends debug level message.
func (p *provider) Debug(msg string, fields ...string) {
	p.entry(fields...).Debug(msg)
}

// Info sends info level message.
func (p *provider) Info(msg string, fields ...string) {
	p.entry(fields...).Info(msg)
}

// Warn sends warning level message.
func (p *provider) Warn(msg string, fields ...string) {
	p.entry(fields...).Warn(msg)
}

// Error sends error level message.
func (p *provider) Error(msg string, err error, fields ...string) {
	p.entry(fields...).WithError(err).Error(msg)
}

// Fatal sends fatal level message and exits.
func (p *provider) Fatal(msg string, err error, fields ...string) {
	p.entry(fields...).WithError(err).Fatal(msg)
}

// Builds entry with key-value fields and current node ID.
func (p *provider) entry(fields ...string) *logrus.Entry {
	return p.logger.WithFields(withFields(append(fields, common.LogNodeToken, p.nodeID)...))
}

// Helper method to convert key-value pairs into logrus fields.
func withFields(fields ...string) logrus.Fields {
	fLen := len(fields)
	result := make(logrus.Fields, fLen/2)
	for ii := 0; ii+1 < fLen; ii += 2 {
		if fields[ii] == common.LogNodeToken && fields[ii+1] == "" {
			continue
		}

		result[fields[ii]] = fields[ii+1]
	}

	return result
}

// Converts configured level into logrus level.
// Trace is reported as debug.
func getLogLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "trace", "debug", "dbg":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error", "err":
		return logrus.ErrorLevel
	case "silent":
		return logrus.PanicLevel
	}

	return logrus.InfoLevel
}
