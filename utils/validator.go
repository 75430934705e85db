package utils

import (
	"net"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/creasty/defaults"
	"go-home.io/x/kasa/plugins/common"
	"go-home.io/x/kasa/providers"
	"gopkg.in/go-playground/validator.v9"
)

// Known log levels.
var logLevels = []string{"trace", "debug", "info", "warn", "error", "silent"}

// Validator implementation.
type validatorProvider struct {
	sync.Mutex
	validator *validator.Validate
	logger    common.ILoggerProvider
}

// NewValidator constructs a new validator.
func NewValidator(logger common.ILoggerProvider) providers.IValidatorProvider {
	val := &validatorProvider{
		logger: logger,
	}
	v := validator.New()
	loadNewValidator(v, logger, "percent", percent)
	loadNewValidator(v, logger, "port", port)
	loadNewValidator(v, logger, "ipv4port", ipv4port)
	loadNewValidator(v, logger, "transport", transport)
	loadNewValidator(v, logger, "loglevel", logLevel)

	val.validator = v
	return val
}

// SetLogger updates the logger.
// Since logger is loaded after first init, we need to re-assign it.
func (v *validatorProvider) SetLogger(logger common.ILoggerProvider) {
	v.logger = logger
}

// Validate sets default values and performs validation of a config record.
func (v *validatorProvider) Validate(object interface{}) bool {
	v.Lock()
	defer v.Unlock()

	err := defaults.Set(object)

	if err != nil {
		v.logger.Error("Failed to set default field values", err)
		return false
	}

	err = v.validator.Struct(object)
	if err == nil {
		return true
	}

	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		v.logger.Error("Failed to validate object", err)
		return false
	}

	for _, e := range errs {
		v.logger.Warn("Validation error", common.LogFieldToken, e.Field())
	}

	return false
}

// Percent type validation.
func percent(fl validator.FieldLevel) bool {
	switch fl.Field().Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		val := fl.Field().Int()
		return val >= 0 && val <= 100
	}

	return fl.Field().Uint() <= 100
}

// Port type validation.
func port(fl validator.FieldLevel) bool {
	return isPort(fl.Field().Int())
}

// Ipv4:port type validation.
func ipv4port(fl validator.FieldLevel) bool {
	parts := strings.Split(fl.Field().String(), ":")
	if len(parts) > 2 {
		return false
	}

	ip := net.ParseIP(parts[0])
	if ip == nil || ip.To4() == nil {
		return false
	}

	if 2 == len(parts) {
		port, err := strconv.Atoi(parts[1])
		if err != nil {
			return false
		}

		return isPort(int64(port))
	}

	return true
}

// Discovery transport validation.
func transport(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	return val == providers.TransportUDP || val == providers.TransportTCP
}

// Log level validation.
func logLevel(fl validator.FieldLevel) bool {
	return IsValidLogLevel(fl.Field().String())
}

// IsValidLogLevel checks whether log level is known.
func IsValidLogLevel(level string) bool {
	level = strings.ToLower(level)
	for _, v := range logLevels {
		if v == level {
			return true
		}
	}

	return false
}

// Validates whether value could be used as a port.
func isPort(val int64) bool {
	return val > 0 && val <= 65535
}

// Attempt to register a new validator
func loadNewValidator(validator *validator.Validate, logger common.ILoggerProvider,
	name string, function validator.Func) {
	if err := validator.RegisterValidation(name, function); err != nil {
		logger.Error("Failed to register validator type", err, "type", name)
	}
}
