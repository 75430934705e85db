//+build !release

package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"go-home.io/x/kasa/plugins/device"
	"go-home.io/x/kasa/providers"
)

// IFakeConnector adds test helpers to the connector.
type IFakeConnector interface {
	providers.IConnectorProvider
	Settings() *providers.DiscoverySettings
	AddAddress(host string, port int, descriptors ...*device.Descriptor)
	Clients(id string) []IFakeClient
	FailOpen(bool)
}

type fakeConnector struct {
	sync.Mutex

	failOpen  bool
	settings  *providers.DiscoverySettings
	closed    bool
	addresses map[string][]*device.Descriptor
	clients   map[string][]IFakeClient
}

func (f *fakeConnector) Open(desc *device.Descriptor) (device.IClient, error) {
	f.Lock()
	defer f.Unlock()

	if f.failOpen {
		return nil, errors.New("open failed")
	}

	c := FakeNewClient(nil, desc.TemperatureRange)
	f.clients[desc.ID] = append(f.clients[desc.ID], c)
	return c, nil
}

func (f *fakeConnector) Describe(_ context.Context, host string, port int) ([]*device.Descriptor, error) {
	f.Lock()
	defer f.Unlock()

	d, ok := f.addresses[fmt.Sprintf("%s:%d", host, port)]
	if !ok {
		return nil, errors.Errorf("no device at %s:%d", host, port)
	}

	return d, nil
}

func (f *fakeConnector) UpdateSettings(settings *providers.DiscoverySettings) {
	f.Lock()
	f.settings = settings
	f.Unlock()
}

func (f *fakeConnector) Close() {
	f.Lock()
	f.closed = true
	f.Unlock()
}

// Settings returns the latest applied settings.
func (f *fakeConnector) Settings() *providers.DiscoverySettings {
	f.Lock()
	defer f.Unlock()
	return f.settings
}

// AddAddress registers descriptors returned by Describe.
func (f *fakeConnector) AddAddress(host string, port int, descriptors ...*device.Descriptor) {
	f.Lock()
	defer f.Unlock()
	f.addresses[fmt.Sprintf("%s:%d", host, port)] = descriptors
}

// Clients returns every client opened for the identity.
func (f *fakeConnector) Clients(id string) []IFakeClient {
	f.Lock()
	defer f.Unlock()
	return append([]IFakeClient{}, f.clients[id]...)
}

// FailOpen forces Open errors.
func (f *fakeConnector) FailOpen(fail bool) {
	f.Lock()
	f.failOpen = fail
	f.Unlock()
}

// FakeNewConnector creates a fake device connector.
func FakeNewConnector() IFakeConnector {
	return &fakeConnector{
		addresses: make(map[string][]*device.Descriptor),
		clients:   make(map[string][]IFakeClient),
	}
}
