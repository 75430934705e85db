package providers

import (
	"context"

	"go-home.io/x/kasa/plugins/device"
	"go-home.io/x/kasa/plugins/device/enums"
)

// IDirectoryProvider defines external catalog of announced devices.
type IDirectoryProvider interface {
	Announce(*Announcement) error
	Forget(id string)
}

// Announcement contains data sent to the directory when identity appears
// or its capabilities grow.
type Announcement struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Type       enums.DeviceType  `json:"type"`
	Interfaces []enums.Interface `json:"interfaces"`
	Info       *DeviceInfo       `json:"info"`
}

// DeviceInfo contains static device information.
type DeviceInfo struct {
	Model           string `json:"model"`
	MAC             string `json:"mac"`
	Manufacturer    string `json:"manufacturer"`
	SerialNumber    string `json:"serial_number"`
	Firmware        string `json:"firmware"`
	HardwareVersion string `json:"version"`
}

// IDeviceHandle defines logical device operations available to the directory.
type IDeviceHandle interface {
	ID() string
	State() *device.State
	Capabilities() []enums.Interface
	InvokeCommand(ctx context.Context, cmd enums.Command, params map[string]interface{}) error
}

// IReconcilerProvider defines reconciliation loop operations available to the directory.
type IReconcilerProvider interface {
	Device(id string) (IDeviceHandle, error)
	Devices() []*device.State
	CreateDevice(ctx context.Context, address string, port int) (string, error)
	Reconfigure(*DiscoverySettings) error
	DiscoverySettings() *DiscoverySettings
}
