// Package providers contains interfaces for internal system providers.
package providers

import (
	"time"

	"go-home.io/x/kasa/plugins/common"
)

const (
	// TransportUDP describes broadcast discovery.
	TransportUDP = "udp"
	// TransportTCP describes unicast scan discovery.
	TransportTCP = "tcp"
)

const (
	defaultSharedSocketTimeout = 20000
	defaultPollInterval        = 10
)

// ISettingsProvider defines settings loader provider logic.
type ISettingsProvider interface {
	SystemLogger() common.ILoggerProvider
	PluginLogger(system string, provider string) common.ILoggerProvider
	NodeID() string
	Cron() ICronProvider
	Validator() IValidatorProvider
	FanOut() IInternalFanOutProvider
	DiscoverySettings() *DiscoverySettings
	SetDiscoverySettings(*DiscoverySettings)
	ServerSettings() *ServerSettings
	RegistrySettings() *RegistrySettings
	ManualDevices() []*ManualDevice
}

// DiscoverySettings has configured data for the discovery transport and device clients.
type DiscoverySettings struct {
	Transport           string            `yaml:"transport" json:"transport" validate:"transport" default:"udp"`
	Timeout             int               `yaml:"timeout" json:"timeout" validate:"gt=0" default:"10000"`
	Broadcast           string            `yaml:"broadcast" json:"broadcast" validate:"ipv4" default:"255.255.255.255"`
	Port                int               `yaml:"port" json:"port" validate:"port" default:"9999"`
	ScanNetwork         string            `yaml:"scanNetwork" json:"scanNetwork" validate:"omitempty,cidrv4"`
	Interval            int               `yaml:"interval" json:"interval" validate:"gt=0" default:"10"`
	OfflineTolerance    int               `yaml:"offlineTolerance" json:"offlineTolerance" validate:"gt=0" default:"3"`
	SharedSocket        bool              `yaml:"sharedSocket" json:"sharedSocket"`
	SharedSocketTimeout *int              `yaml:"sharedSocketTimeout" json:"sharedSocketTimeout" validate:"omitempty,gte=0"`
	PollInterval        *int              `yaml:"pollInterval" json:"pollInterval" validate:"omitempty,gte=0"`
	Filter              string            `yaml:"filter" json:"filter"`
	NameOverrides       map[string]string `yaml:"nameOverrides" json:"nameOverrides"`
	LogLevel            string            `yaml:"logLevel" json:"logLevel" validate:"loglevel" default:"warn"`
}

// TimeoutDuration returns per-request timeout.
func (s *DiscoverySettings) TimeoutDuration() time.Duration {
	return time.Duration(s.Timeout) * time.Millisecond
}

// IntervalDuration returns delay between probe cycles.
func (s *DiscoverySettings) IntervalDuration() time.Duration {
	return time.Duration(s.Interval) * time.Second
}

// SharedSocketIdle returns idle period after which shared socket is closed.
// Zero disables auto-close.
func (s *DiscoverySettings) SharedSocketIdle() time.Duration {
	if nil == s.SharedSocketTimeout {
		return defaultSharedSocketTimeout * time.Millisecond
	}

	return time.Duration(*s.SharedSocketTimeout) * time.Millisecond
}

// PollDuration returns delay between device state polls.
// Zero disables polling.
func (s *DiscoverySettings) PollDuration() time.Duration {
	if nil == s.PollInterval {
		return defaultPollInterval * time.Second
	}

	return time.Duration(*s.PollInterval) * time.Second
}

// UseSharedSocket returns whether device commands should share one socket.
func (s *DiscoverySettings) UseSharedSocket() bool {
	return s.SharedSocket && s.Transport == TransportUDP
}

// ServerSettings has configured data for the directory API.
type ServerSettings struct {
	Port  int               `yaml:"port" validate:"required,port" default:"8080"`
	Users map[string]string `yaml:"users"`
}

// RegistrySettings has configured data for the device registry.
type RegistrySettings struct {
	StaleTTL int `yaml:"staleTTL" validate:"gte=0"`
}

// StaleDuration returns period after which offline entry is evicted.
// Zero keeps offline entries forever.
func (s *RegistrySettings) StaleDuration() time.Duration {
	return time.Duration(s.StaleTTL) * time.Second
}

// ManualDevice has data describing device, configured by address.
type ManualDevice struct {
	Address string `yaml:"address" validate:"required"`
	Port    int    `yaml:"port" validate:"port" default:"9999"`
	Name    string `yaml:"name"`
}
