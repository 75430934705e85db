// Package settings is responsible for parsing yaml-based configuration.
package settings

import (
	"bytes"
	"io"
	"strings"
	"sync"

	"github.com/docker/docker/pkg/namesgenerator"
	"github.com/pkg/errors"
	"go-home.io/x/kasa/plugins/common"
	"go-home.io/x/kasa/providers"
	"go-home.io/x/kasa/systems/config"
	"go-home.io/x/kasa/systems/fanout"
	"go-home.io/x/kasa/systems/logger"
	"go-home.io/x/kasa/systems/secret"
	"go-home.io/x/kasa/utils"
	"gopkg.in/yaml.v2"
)

const (
	// Logger system.
	logSystem = "settings"
)

const (
	// Describes kasa config records.
	configSystemKasa = "kasa"
	// Describes logger config records.
	configSystemLogger = "logger"
	// Describes manually configured devices.
	configSystemDevice = "device"

	configProviderDiscovery = "discovery"
	configProviderServer    = "server"
	configProviderRegistry  = "registry"
	configProviderConsole   = "console"
	configProviderManual    = "manual"
)

// StartUpOptions defines arguments allowed by the system.
type StartUpOptions struct {
	Config string `short:"c" long:"config" description:"Config files location. Defaults to ./configs."`
	Name   string `short:"n" long:"name" description:"Node name. Random if empty."`
}

// Defines loaded provider record.
type rawProvider struct {
	System   string
	Provider string
	Config   []byte
}

// System settings.
type settingsProvider struct {
	sync.Mutex

	logger         common.ILoggerProvider
	componentLevel *logger.ComponentLevel
	nodeID         string
	cron           providers.ICronProvider
	validator      providers.IValidatorProvider
	fanOut         providers.IInternalFanOutProvider

	discovery *providers.DiscoverySettings
	server    *providers.ServerSettings
	registry  *providers.RegistrySettings
	manual    []*providers.ManualDevice
}

// Load system configuration.
func Load(options *StartUpOptions) (providers.ISettingsProvider, error) {
	settings := &settingsProvider{
		logger:         logger.NewConsoleLogger(),
		componentLevel: logger.NewComponentLevel(""),
		nodeID:         options.Name,
		manual:         make([]*providers.ManualDevice, 0),
	}

	if "" == settings.nodeID {
		settings.nodeID = namesgenerator.GetRandomName(0)
	}

	settings.validator = utils.NewValidator(settings.logger)

	location := options.Config
	if "" == location {
		location = utils.GetDefaultConfigsDir()
	}

	templateProvider := newTemplateProvider(&constructTemplate{
		Logger: settings.logger,
		Secrets: secret.NewSecretProvider(&secret.ConstructSecret{
			Location: location,
			Logger:   settings.logger,
		}),
	})

	configProvider := config.NewConfigProvider(&config.ConstructConfig{
		Options:      map[string]string{"location": location},
		PluginLogger: settings.logger,
	})

	dataChan := configProvider.Load()
	if nil == dataChan {
		return nil, errors.Errorf("failed to read configuration from %s", location)
	}

	allProviders := make([]*rawProvider, 0)
	for fileData := range dataChan {
		provs, err := settings.loadFile(fileData, templateProvider)
		if err != nil {
			for range dataChan {
			}

			return nil, err
		}

		allProviders = append(allProviders, provs...)
	}

	allProviders, err := settings.loadLoggerProvider(allProviders)
	if err != nil {
		return nil, err
	}

	for _, v := range allProviders {
		if err := settings.parseProvider(v); err != nil {
			return nil, err
		}
	}

	if err := settings.validate(); err != nil {
		return nil, err
	}

	return settings, nil
}

// Fills absent sections with defaults and creates shared providers.
func (s *settingsProvider) validate() error {
	if nil == s.discovery {
		s.logger.Info("Discovery settings are not defined, using the default ones",
			common.LogSystemToken, logSystem)
		s.discovery = &providers.DiscoverySettings{}
		if !s.validator.Validate(s.discovery) {
			return &utils.ErrInvalidConfig{}
		}
	}

	if nil == s.server {
		s.logger.Info("Server settings are not defined, using the default ones",
			common.LogSystemToken, logSystem)
		s.server = &providers.ServerSettings{}
		if !s.validator.Validate(s.server) {
			return &utils.ErrInvalidConfig{}
		}
	}

	if nil == s.registry {
		s.registry = &providers.RegistrySettings{}
	}

	s.componentLevel.Set(s.discovery.LogLevel)
	s.cron = utils.NewCron()
	s.fanOut = fanout.NewFanOut(s.PluginLogger(logSystem, "fanout"))
	return nil
}

// Processes single yaml file.
func (s *settingsProvider) loadFile(fileData []byte, templateProvider ITemplateProvider) ([]*rawProvider, error) {
	fileData, err := templateProvider.Process(fileData)
	if err != nil {
		return nil, err
	}

	provs := make([]*rawProvider, 0)
	decoder := yaml.NewDecoder(bytes.NewReader(fileData))
	for {
		var value map[string]interface{}
		err := decoder.Decode(&value)
		if err == io.EOF {
			break
		}

		if err != nil {
			s.logger.Error("Failed to parse config file", err, common.LogSystemToken, logSystem)
			return nil, errors.Wrap(err, "parse config")
		}

		componentType := ""
		componentProvider := ""

		if cs, ok := value["system"].(string); ok {
			componentType = strings.ToLower(cs)
		}

		if ct, ok := value["provider"].(string); ok {
			componentProvider = strings.ToLower(ct)
		}

		if componentType == "" || componentProvider == "" {
			s.logger.Warn("Failed to parse a record in the config file: system or provider is not defined",
				common.LogSystemToken, logSystem)
			continue
		}

		byteData, err := yaml.Marshal(value)
		if err != nil {
			s.logger.Error("Failed to parse config file", err, common.LogSystemToken, componentType,
				common.LogProviderToken, componentProvider)
			continue
		}

		provs = append(provs, &rawProvider{
			Provider: componentProvider,
			System:   componentType,
			Config:   byteData,
		})
	}

	return provs, nil
}

// Loads logger configuration.
func (s *settingsProvider) loadLoggerProvider(provs []*rawProvider) ([]*rawProvider, error) {
	providersLeft := make([]*rawProvider, 0, len(provs))
	loaded := false
	for _, v := range provs {
		if v.System != configSystemLogger {
			providersLeft = append(providersLeft, v)
			continue
		}

		if v.Provider != configProviderConsole {
			s.logger.Warn("Unknown logger provider", common.LogProviderToken, v.Provider,
				common.LogSystemToken, logSystem)
			continue
		}

		if loaded {
			s.logger.Warn("Duplicated logger", common.LogProviderToken, v.Provider,
				common.LogSystemToken, logSystem)
			continue
		}

		set := &logger.ConsoleSettings{}
		if err := s.unmarshal(v, set); err != nil {
			return nil, err
		}

		loaded = true
		s.logger = logger.NewLoggerProvider(&logger.ConstructLogger{
			Level:  set.Level,
			NodeID: s.nodeID,
		})

		s.validator.SetLogger(logger.NewPluginLogger(&logger.ConstructPluginLogger{
			SystemLogger: s.logger,
			Provider:     "kasa",
			System:       "validator",
		}))
	}

	return providersLeft, nil
}

// Processes single provider config.
func (s *settingsProvider) parseProvider(provider *rawProvider) error {
	s.logger.Debug("Processing config", common.LogProviderToken, provider.Provider,
		common.LogSystemToken, provider.System)

	switch provider.System {
	case configSystemKasa:
		return s.processKasa(provider)
	case configSystemDevice:
		return s.processDevice(provider)
	}

	s.logger.Warn("Unknown provider's system", common.LogProviderToken, provider.Provider,
		common.LogSystemToken, provider.System)
	return nil
}

// Processes kasa sections.
func (s *settingsProvider) processKasa(provider *rawProvider) error {
	switch provider.Provider {
	case configProviderDiscovery:
		if s.duplicated(provider, nil != s.discovery) {
			return nil
		}

		set := &providers.DiscoverySettings{}
		if err := s.unmarshal(provider, set); err != nil {
			return err
		}

		s.discovery = set
	case configProviderServer:
		if s.duplicated(provider, nil != s.server) {
			return nil
		}

		set := &providers.ServerSettings{}
		if err := s.unmarshal(provider, set); err != nil {
			return err
		}

		s.server = set
	case configProviderRegistry:
		if s.duplicated(provider, nil != s.registry) {
			return nil
		}

		set := &providers.RegistrySettings{}
		if err := s.unmarshal(provider, set); err != nil {
			return err
		}

		s.registry = set
	default:
		s.logger.Warn("Unknown kasa record", common.LogProviderToken, provider.Provider,
			common.LogSystemToken, provider.System)
	}

	return nil
}

// Processes manually configured devices.
func (s *settingsProvider) processDevice(provider *rawProvider) error {
	if provider.Provider != configProviderManual {
		s.logger.Warn("Unknown device record", common.LogProviderToken, provider.Provider,
			common.LogSystemToken, provider.System)
		return nil
	}

	d := &providers.ManualDevice{}
	if err := s.unmarshal(provider, d); err != nil {
		return err
	}

	for _, v := range s.manual {
		if v.Address == d.Address && v.Port == d.Port {
			s.logger.Warn("Ignoring device since address is duplicated", common.LogSystemToken, logSystem,
				common.LogDeviceHostToken, d.Address)
			return nil
		}
	}

	s.manual = append(s.manual, d)
	return nil
}

// Warns about duplicated record.
func (s *settingsProvider) duplicated(provider *rawProvider, exists bool) bool {
	if exists {
		s.logger.Warn("Duplicated config record, ignoring", common.LogProviderToken, provider.Provider,
			common.LogSystemToken, provider.System)
	}

	return exists
}

// Unmarshals and validates config record.
func (s *settingsProvider) unmarshal(provider *rawProvider, out interface{}) error {
	if err := yaml.Unmarshal(provider.Config, out); err != nil {
		s.logger.Error("Failed to unmarshal config record", err, common.LogProviderToken, provider.Provider,
			common.LogSystemToken, provider.System)
		return errors.Wrapf(err, "%s/%s", provider.System, provider.Provider)
	}

	if !s.validator.Validate(out) {
		s.logger.Error("Config record is invalid", &utils.ErrInvalidConfig{},
			common.LogProviderToken, provider.Provider, common.LogSystemToken, provider.System)
		return errors.Wrapf(&utils.ErrInvalidConfig{}, "%s/%s", provider.System, provider.Provider)
	}

	return nil
}
