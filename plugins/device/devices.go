// Package device contains kasa device definitions shared between
// discovery, device client and reconciliation.
package device

import (
	"context"

	"go-home.io/x/kasa/plugins/device/enums"
)

// IConnector defines device client factory.
type IConnector interface {
	Open(*Descriptor) (IClient, error)
	Describe(ctx context.Context, host string, port int) ([]*Descriptor, error)
}

// Features contains feature flags reported by the device.
type Features struct {
	Dimmable         bool `json:"dimmable"`
	Color            bool `json:"color"`
	ColorTemperature bool `json:"color_temperature"`
}

// TemperatureRange contains supported color temperature range in Kelvin.
type TemperatureRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// InitialState contains device state reported in the discovery response.
type InitialState struct {
	On         bool
	Brightness int
	Hue        int
	Saturation int
	ColorTemp  int
	InUse      bool
}

// Descriptor contains data received from a single probe response.
// Multi-outlet devices produce one descriptor per outlet.
type Descriptor struct {
	ID               string
	Host             string
	Port             int
	Class            enums.DeviceClass
	Alias            string
	Model            string
	MAC              string
	HardwareVersion  string
	FirmwareVersion  string
	ParentID         string
	ChildID          string
	Features         Features
	TemperatureRange *TemperatureRange
	State            InitialState
}

// Name returns display name of the device.
func (d *Descriptor) Name() string {
	if d.Alias != "" {
		return d.Alias
	}

	return d.ID
}

// SameAddress checks whether both descriptors point to the same endpoint.
func (d *Descriptor) SameAddress(other *Descriptor) bool {
	return other != nil && d.Host == other.Host && d.Port == other.Port
}
