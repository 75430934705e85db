//+build !release

package mocks

import (
	"go-home.io/x/kasa/plugins/common"
	"go-home.io/x/kasa/providers"
)

// IFakeSettings adds additional capabilities to a fake settings provider.
type IFakeSettings interface {
	providers.ISettingsProvider
	FakeCron() IFakeCron
	FakeFanOut() IFakeFanOut
	SetRegistrySettings(*providers.RegistrySettings)
	SetServerSettings(*providers.ServerSettings)
	AddManualDevice(*providers.ManualDevice)
	FailValidation(bool)
}

type fakeSettings struct {
	logger    common.ILoggerProvider
	cron      IFakeCron
	fanOut    IFakeFanOut
	discovery *providers.DiscoverySettings
	registry  *providers.RegistrySettings
	server    *providers.ServerSettings
	manual    []*providers.ManualDevice
	invalid   bool
}

func (f *fakeSettings) SystemLogger() common.ILoggerProvider {
	return f.logger
}

func (f *fakeSettings) PluginLogger(string, string) common.ILoggerProvider {
	return f.logger
}

func (f *fakeSettings) NodeID() string {
	return "kasa-tests"
}

func (f *fakeSettings) Cron() providers.ICronProvider {
	return f.cron
}

func (f *fakeSettings) Validator() providers.IValidatorProvider {
	return FakeNewValidator(!f.invalid)
}

func (f *fakeSettings) FanOut() providers.IInternalFanOutProvider {
	return f.fanOut
}

func (f *fakeSettings) DiscoverySettings() *providers.DiscoverySettings {
	return f.discovery
}

func (f *fakeSettings) ServerSettings() *providers.ServerSettings {
	return f.server
}

func (f *fakeSettings) RegistrySettings() *providers.RegistrySettings {
	return f.registry
}

func (f *fakeSettings) ManualDevices() []*providers.ManualDevice {
	return f.manual
}

func (f *fakeSettings) FakeCron() IFakeCron {
	return f.cron
}

func (f *fakeSettings) FakeFanOut() IFakeFanOut {
	return f.fanOut
}

func (f *fakeSettings) SetDiscoverySettings(s *providers.DiscoverySettings) {
	f.discovery = s
}

func (f *fakeSettings) SetRegistrySettings(s *providers.RegistrySettings) {
	f.registry = s
}

func (f *fakeSettings) SetServerSettings(s *providers.ServerSettings) {
	f.server = s
}

func (f *fakeSettings) AddManualDevice(d *providers.ManualDevice) {
	f.manual = append(f.manual, d)
}

func (f *fakeSettings) FailValidation(fail bool) {
	f.invalid = fail
}

// FakeNewSettings creates a new fake settings provider.
func FakeNewSettings(logCallback func(string)) IFakeSettings {
	return &fakeSettings{
		logger: FakeNewLogger(logCallback),
		cron:   FakeNewCron(),
		fanOut: FakeNewFanOut(),
		discovery: &providers.DiscoverySettings{
			Transport:        providers.TransportUDP,
			Timeout:          1000,
			Broadcast:        "255.255.255.255",
			Port:             9999,
			Interval:         10,
			OfflineTolerance: 3,
			LogLevel:         "warn",
		},
		registry: &providers.RegistrySettings{},
		server:   &providers.ServerSettings{Port: 8080},
		manual:   make([]*providers.ManualDevice, 0),
	}
}
