package providers

import "go-home.io/x/kasa/plugins/device"

// IConnectorProvider defines device connector with swappable transport settings.
type IConnectorProvider interface {
	device.IConnector

	UpdateSettings(*DiscoverySettings)
	Close()
}
