package settings

import (
	"go-home.io/x/kasa/plugins/common"
	"go-home.io/x/kasa/providers"
	"go-home.io/x/kasa/systems/logger"
)

// SystemLogger returns default system logger.
func (s *settingsProvider) SystemLogger() common.ILoggerProvider {
	return s.logger
}

// PluginLogger returns logger for the component.
// Discovery log level is applied to kasa components.
func (s *settingsProvider) PluginLogger(system string, provider string) common.ILoggerProvider {
	return logger.NewPluginLogger(&logger.ConstructPluginLogger{
		SystemLogger: s.logger,
		System:       system,
		Provider:     provider,
		Shared:       s.componentLevel,
	})
}

// NodeID returns current instance node ID.
func (s *settingsProvider) NodeID() string {
	return s.nodeID
}

// Cron returns system's cron provider.
func (s *settingsProvider) Cron() providers.ICronProvider {
	return s.cron
}

// Validator returns yaml validator provider.
func (s *settingsProvider) Validator() providers.IValidatorProvider {
	return s.validator
}

// FanOut returns fan out channel.
func (s *settingsProvider) FanOut() providers.IInternalFanOutProvider {
	return s.fanOut
}

// DiscoverySettings returns active discovery settings.
func (s *settingsProvider) DiscoverySettings() *providers.DiscoverySettings {
	s.Lock()
	defer s.Unlock()
	return s.discovery
}

// SetDiscoverySettings replaces active discovery settings.
// Log level is changed for every component logger.
func (s *settingsProvider) SetDiscoverySettings(settings *providers.DiscoverySettings) {
	s.Lock()
	defer s.Unlock()

	s.discovery = settings
	s.componentLevel.Set(settings.LogLevel)
}

// ServerSettings returns directory API settings.
func (s *settingsProvider) ServerSettings() *providers.ServerSettings {
	return s.server
}

// RegistrySettings returns device registry settings.
func (s *settingsProvider) RegistrySettings() *providers.RegistrySettings {
	return s.registry
}

// ManualDevices returns devices configured by address.
func (s *settingsProvider) ManualDevices() []*providers.ManualDevice {
	return s.manual
}
