// Package worker contains kasa reconciliation loop.
package worker

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go-home.io/x/kasa/plugins/common"
	"go-home.io/x/kasa/plugins/device"
	"go-home.io/x/kasa/plugins/device/enums"
	"go-home.io/x/kasa/providers"
	"go-home.io/x/kasa/systems/discovery"
)

const (
	// Default logger system.
	logSystem = "worker"
)

// TransportFactory creates discovery transport for the settings.
type TransportFactory func(*discovery.ConstructDiscovery) discovery.IDiscoveryProvider

// ConstructWorker has data required for a new worker.
type ConstructWorker struct {
	Settings  providers.ISettingsProvider
	Connector providers.IConnectorProvider
	Directory providers.IDirectoryProvider
	Transport TransportFactory
}

// KasaWorker is the reconciliation loop definition.
type KasaWorker struct {
	sync.Mutex

	Settings providers.ISettingsProvider
	Logger   common.ILoggerProvider

	connector providers.IConnectorProvider
	factory   TransportFactory
	state     *workerState

	discovery   *providers.DiscoverySettings
	transport   discovery.IDiscoveryProvider
	dispatchers sync.WaitGroup
}

// NewWorker constructs a reconciliation loop.
func NewWorker(ctor *ConstructWorker) *KasaWorker {
	factory := ctor.Transport
	if nil == factory {
		factory = discovery.NewDiscoveryProvider
	}

	return &KasaWorker{
		Settings:  ctor.Settings,
		Logger:    ctor.Settings.SystemLogger(),
		connector: ctor.Connector,
		factory:   factory,
		discovery: ctor.Settings.DiscoverySettings(),
		state:     newWorkerState(ctor.Settings, ctor.Connector, ctor.Directory),
	}
}

// Start starts discovery and creates configured manual devices.
func (w *KasaWorker) Start() error {
	w.Lock()
	err := w.startTransport(w.discovery)
	timeout := 2*w.discovery.TimeoutDuration() + time.Second
	transport := w.discovery.Transport
	w.Unlock()

	if err != nil {
		return err
	}

	for _, v := range w.Settings.ManualDevices() {
		go w.createManual(v, timeout)
	}

	w.Logger.Info("Successfully started kasa worker", common.LogSystemToken, logSystem,
		common.LogTransportToken, transport)
	return nil
}

// Stop stops discovery and drops all device clients.
func (w *KasaWorker) Stop() {
	w.Lock()
	w.stopTransport()
	w.Unlock()

	w.dispatchers.Wait()
	w.state.wait()
	w.state.unbindAll()
	w.connector.Close()
	w.Logger.Info("Stopped kasa worker", common.LogSystemToken, logSystem)
}

// Reconfigure restarts discovery with the new settings.
// In-flight device commands are not cancelled.
func (w *KasaWorker) Reconfigure(settings *providers.DiscoverySettings) error {
	if !w.Settings.Validator().Validate(settings) {
		return &ErrInvalidSettings{}
	}

	w.Lock()
	defer w.Unlock()

	old := w.discovery
	w.stopTransport()
	w.connector.UpdateSettings(settings)
	w.Settings.SetDiscoverySettings(settings)

	if err := w.startTransport(settings); err != nil {
		w.Logger.Error("Failed to apply discovery settings, restoring previous ones", err,
			common.LogSystemToken, logSystem)
		w.connector.UpdateSettings(old)
		w.Settings.SetDiscoverySettings(old)
		if restoreErr := w.startTransport(old); restoreErr != nil {
			w.Logger.Error("Failed to restore discovery", restoreErr, common.LogSystemToken, logSystem)
		}
		return err
	}

	w.discovery = settings
	w.Logger.Info("Applied new discovery settings", common.LogSystemToken, logSystem,
		common.LogTransportToken, settings.Transport)
	return nil
}

// DiscoverySettings returns active discovery settings.
func (w *KasaWorker) DiscoverySettings() *providers.DiscoverySettings {
	w.Lock()
	defer w.Unlock()
	return w.discovery
}

// CreateDevice describes the address and reconciles every returned unit
// the same way as discovered ones. Returns identity of the first unit.
func (w *KasaWorker) CreateDevice(ctx context.Context, address string, port int) (string, error) {
	return w.createDevice(ctx, address, port, "")
}

// Creates device with optional display name of the first unit.
func (w *KasaWorker) createDevice(ctx context.Context, address string, port int, name string) (string, error) {
	descriptors, err := w.connector.Describe(ctx, address, port)
	if err != nil {
		w.Logger.Error("Failed to describe device", err, common.LogSystemToken, logSystem,
			common.LogDeviceHostToken, address, common.LogDevicePortToken, strconv.Itoa(port))
		return "", errors.Wrap(err, "describe")
	}

	if 0 == len(descriptors) {
		return "", &ErrNothingDescribed{Address: net.JoinHostPort(address, strconv.Itoa(port))}
	}

	if name != "" {
		descriptors[0].Alias = name
	}

	waiters := make([]chan struct{}, 0, len(descriptors))
	for _, v := range descriptors {
		done := make(chan struct{})
		waiters = append(waiters, done)
		w.state.enqueue(&discovery.Event{Kind: enums.EventNew, Descriptor: v}, done)
	}

	for _, v := range waiters {
		select {
		case <-v:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	return descriptors[0].ID, nil
}

// Device returns logical device by identity.
func (w *KasaWorker) Device(id string) (providers.IDeviceHandle, error) {
	entry, ok := w.state.registry.Lookup(id)
	if !ok {
		err := &ErrUnknownDevice{ID: id}
		w.Logger.Error("Requested unknown device", err, common.LogSystemToken, logSystem,
			common.LogDeviceIDToken, id)
		return nil, err
	}

	return entry.Wrapper, nil
}

// Devices returns snapshots of all registered devices.
func (w *KasaWorker) Devices() []*device.State {
	entries := w.state.registry.All()
	result := make([]*device.State, 0, len(entries))
	for _, v := range entries {
		result = append(result, v.Wrapper.State())
	}

	return result
}

// Starts transport and its dispatcher, must be called under the lock.
// Online devices are handed over, so the new transport reports them offline if they vanish.
func (w *KasaWorker) startTransport(settings *providers.DiscoverySettings) error {
	known := make([]*device.Descriptor, 0)
	for _, v := range w.state.registry.All() {
		if v.Online() {
			known = append(known, v.Descriptor())
		}
	}

	transport := w.factory(&discovery.ConstructDiscovery{
		Logger:    w.Settings.PluginLogger("kasa", "discovery"),
		Settings:  settings,
		Cron:      w.Settings.Cron(),
		Connector: w.connector,
		Known:     known,
	})

	events, err := transport.Start()
	if err != nil {
		return errors.Wrap(err, "start discovery")
	}

	w.transport = transport
	w.dispatchers.Add(1)
	go w.dispatch(events)
	return nil
}

// Stops active transport, must be called under the lock.
func (w *KasaWorker) stopTransport() {
	if nil == w.transport {
		return
	}

	w.transport.Stop()
	w.transport = nil
}

// Routes transport events to identity queues.
func (w *KasaWorker) dispatch(events <-chan *discovery.Event) {
	defer w.dispatchers.Done()

	for e := range events {
		if nil == e || nil == e.Descriptor || "" == e.Descriptor.ID {
			continue
		}

		w.state.enqueue(e, nil)
	}
}

// Creates configured device.
func (w *KasaWorker) createManual(d *providers.ManualDevice, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	id, err := w.createDevice(ctx, d.Address, d.Port, d.Name)
	if err != nil {
		w.Logger.Warn("Failed to create configured device", common.LogSystemToken, logSystem,
			common.LogDeviceHostToken, d.Address, common.LogErrorToken, err.Error())
		return
	}

	w.Logger.Info("Created configured device", common.LogSystemToken, logSystem,
		common.LogDeviceIDToken, id, common.LogDeviceHostToken, d.Address)
}
