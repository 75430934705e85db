package worker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-home.io/x/kasa/mocks"
	"go-home.io/x/kasa/plugins/device"
	"go-home.io/x/kasa/plugins/device/enums"
	"go-home.io/x/kasa/providers"
	dev "go-home.io/x/kasa/systems/device"
	"go-home.io/x/kasa/systems/discovery"
)

// Scripted discovery transport.
type fakeTransport struct {
	sync.Mutex

	settings *providers.DiscoverySettings
	known    []*device.Descriptor
	startErr error
	events   chan *discovery.Event
	stopped  bool
}

func (f *fakeTransport) Start() (<-chan *discovery.Event, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}

	return f.events, nil
}

func (f *fakeTransport) Stop() {
	f.Lock()
	defer f.Unlock()

	if !f.stopped {
		f.stopped = true
		close(f.events)
	}
}

func (f *fakeTransport) Probe() {
}

func (f *fakeTransport) isStopped() bool {
	f.Lock()
	defer f.Unlock()
	return f.stopped
}

type testEnv struct {
	settings   mocks.IFakeSettings
	connector  mocks.IFakeConnector
	directory  mocks.IFakeDirectory
	worker     *KasaWorker
	transports []*fakeTransport
	startErr   error
	logs       []string
	sync.Mutex
}

func (e *testEnv) transport(ii int) *fakeTransport {
	e.Lock()
	defer e.Unlock()
	return e.transports[ii]
}

func (e *testEnv) send(kind enums.EventKind, desc *device.Descriptor) {
	e.Lock()
	t := e.transports[len(e.transports)-1]
	e.Unlock()
	t.events <- &discovery.Event{Kind: kind, Descriptor: desc}
}

func (e *testEnv) hasLog(msg string) bool {
	e.Lock()
	defer e.Unlock()
	for _, v := range e.logs {
		if strings.Contains(v, msg) {
			return true
		}
	}
	return false
}

func newTestEnv(t *testing.T) *testEnv {
	env := &testEnv{
		connector:  mocks.FakeNewConnector(),
		directory:  mocks.FakeNewDirectory(),
		transports: make([]*fakeTransport, 0),
		logs:       make([]string, 0),
	}

	env.settings = mocks.FakeNewSettings(func(msg string) {
		env.Lock()
		env.logs = append(env.logs, msg)
		env.Unlock()
	})

	env.worker = NewWorker(&ConstructWorker{
		Settings:  env.settings,
		Connector: env.connector,
		Directory: env.directory,
		Transport: func(ctor *discovery.ConstructDiscovery) discovery.IDiscoveryProvider {
			env.Lock()
			defer env.Unlock()

			tr := &fakeTransport{
				settings: ctor.Settings,
				known:    ctor.Known,
				startErr: env.startErr,
				events:   make(chan *discovery.Event, 10),
			}
			if env.startErr == nil {
				env.transports = append(env.transports, tr)
			}
			return tr
		},
	})

	require.NoError(t, env.worker.Start())
	return env
}

func waitFor(t *testing.T, msg string, check func() bool) {
	for ii := 0; ii < 400; ii++ {
		if check() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}

	t.Fatal(msg)
}

func dimmerDescriptor() *device.Descriptor {
	return &device.Descriptor{
		ID:              "ABC123",
		Host:            "192.168.1.50",
		Port:            9999,
		Class:           enums.ClassPlug,
		Alias:           "Hall",
		Model:           "HS220(US)",
		MAC:             "50:C7:BF:00:00:02",
		FirmwareVersion: "1.0.8",
		HardwareVersion: "1.0",
		Features:        device.Features{Dimmable: true},
		State:           device.InitialState{On: false, Brightness: 42},
	}
}

func plainPlug(id string) *device.Descriptor {
	return &device.Descriptor{
		ID:    id,
		Host:  "192.168.1.60",
		Port:  9999,
		Class: enums.ClassPlug,
		Alias: "plug " + id,
	}
}

func colorBulb() *device.Descriptor {
	return &device.Descriptor{
		ID:               "8012BULB",
		Host:             "192.168.1.70",
		Port:             9999,
		Class:            enums.ClassBulb,
		Alias:            "Bulb",
		Features:         device.Features{Dimmable: true, Color: true, ColorTemperature: true},
		TemperatureRange: &device.TemperatureRange{Min: 2500, Max: 9000},
		State:            device.InitialState{On: true, Brightness: 70, ColorTemp: 3000},
	}
}

func online(env *testEnv, id string) func() bool {
	return func() bool {
		for _, v := range env.worker.Devices() {
			if v.ID == id {
				return v.Online
			}
		}
		return false
	}
}

func announced(env *testEnv, id string, count int) func() bool {
	return func() bool {
		return len(env.directory.Announcements(id)) == count
	}
}

func offline(env *testEnv, id string) func() bool {
	return func() bool {
		for _, v := range env.worker.Devices() {
			if v.ID == id {
				return !v.Online
			}
		}
		return false
	}
}

// Tests discovery of the dimmer and its offline/online cycle.
func TestDimmerScenario(t *testing.T) {
	env := newTestEnv(t)
	defer env.worker.Stop()

	env.send(enums.EventNew, dimmerDescriptor())
	waitFor(t, "device is not announced", announced(env, "ABC123", 1))

	handle, err := env.worker.Device("ABC123")
	require.NoError(t, err)
	assert.Equal(t, 42, handle.State().Brightness)

	ann := env.directory.Announcements("ABC123")
	require.Equal(t, 1, len(ann))
	assert.Equal(t, enums.DevSwitch, ann[0].Type)
	assert.Equal(t, "Hall", ann[0].Name)
	assert.True(t, enums.SliceContainsInterface(ann[0].Interfaces, enums.IfaceBrightness))
	assert.Equal(t, &providers.DeviceInfo{
		Model:           "HS220(US)",
		MAC:             "50:C7:BF:00:00:02",
		Manufacturer:    "TP-Link Kasa",
		SerialNumber:    "ABC123",
		Firmware:        "1.0.8",
		HardwareVersion: "1.0",
	}, ann[0].Info)

	env.send(enums.EventOffline, dimmerDescriptor())
	waitFor(t, "device is not offline", offline(env, "ABC123"))
	assert.Equal(t, 42, handle.State().Brightness)
	assert.True(t, env.hasLog("Device went offline"))

	clients := env.connector.Clients("ABC123")
	require.Equal(t, 1, len(clients))
	assert.True(t, clients[0].IsClosed(), "client wasn't dropped")

	env.send(enums.EventOnline, dimmerDescriptor())
	waitFor(t, "device is not back online", online(env, "ABC123"))

	again, err := env.worker.Device("ABC123")
	require.NoError(t, err)
	assert.True(t, handle.(*dev.Wrapper) == again.(*dev.Wrapper), "wrapper was replaced")
	assert.Equal(t, 2, len(env.connector.Clients("ABC123")))
	assert.Equal(t, 1, len(env.directory.Announcements("ABC123")), "duplicate announcement")
}

// Tests that offline keeps values set through commands.
func TestOfflineKeepsCommandState(t *testing.T) {
	env := newTestEnv(t)
	defer env.worker.Stop()

	env.send(enums.EventNew, colorBulb())
	waitFor(t, "bulb is not online", online(env, "8012BULB"))

	handle, err := env.worker.Device("8012BULB")
	require.NoError(t, err)
	require.NoError(t, handle.InvokeCommand(context.Background(), enums.CmdSetHsv,
		map[string]interface{}{"hue": 200, "saturation": 60}))

	env.send(enums.EventOffline, colorBulb())
	waitFor(t, "bulb is not offline", offline(env, "8012BULB"))

	s := handle.State()
	assert.Equal(t, 200, s.Hue)
	assert.Equal(t, 60, s.Saturation)
	assert.Equal(t, 0, s.ColorTemp)

	err = handle.InvokeCommand(context.Background(), enums.CmdOn, nil)
	_, ok := err.(*dev.ErrDeviceOffline)
	assert.True(t, ok, "command sent to offline device")
}

// Tests concurrent events for the same identity.
func TestDedupConcurrentEvents(t *testing.T) {
	env := newTestEnv(t)
	defer env.worker.Stop()

	wg := sync.WaitGroup{}
	for ii := 0; ii < 30; ii++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			d := plainPlug("8006DUP")
			d.Host = fmt.Sprintf("192.168.1.%d", 100+n%3)
			kind := enums.EventOnline
			if n%2 == 0 {
				kind = enums.EventNew
			}
			env.worker.state.enqueue(&discovery.Event{Kind: kind, Descriptor: d}, nil)
		}(ii)
	}
	wg.Wait()
	env.worker.state.wait()

	assert.Equal(t, 1, len(env.worker.Devices()))
	assert.Equal(t, 1, len(env.directory.Announcements("8006DUP")))
	assert.Equal(t, 1, env.worker.state.registry.Count())
}

// Tests that events of one identity are applied in arrival order.
func TestEventOrder(t *testing.T) {
	env := newTestEnv(t)
	defer env.worker.Stop()

	kinds := []enums.EventKind{enums.EventNew, enums.EventOffline, enums.EventOnline, enums.EventOffline,
		enums.EventOnline, enums.EventOffline}
	for _, v := range kinds {
		env.worker.state.enqueue(&discovery.Event{Kind: v, Descriptor: plainPlug("8006ORD")}, nil)
	}
	env.worker.state.wait()

	devices := env.worker.Devices()
	require.Equal(t, 1, len(devices))
	assert.False(t, devices[0].Online)

	clients := env.connector.Clients("8006ORD")
	require.Equal(t, 3, len(clients))
	for _, v := range clients {
		assert.True(t, v.IsClosed())
	}
}

// Tests capability growth announcement.
func TestMonotonicAnnouncement(t *testing.T) {
	env := newTestEnv(t)
	defer env.worker.Stop()

	d := plainPlug("8006GROW")
	env.worker.state.enqueue(&discovery.Event{Kind: enums.EventNew, Descriptor: d}, nil)
	env.worker.state.wait()

	grown := plainPlug("8006GROW")
	grown.Features.Dimmable = true
	env.worker.state.enqueue(&discovery.Event{Kind: enums.EventOnline, Descriptor: grown}, nil)
	env.worker.state.wait()

	env.worker.state.enqueue(&discovery.Event{Kind: enums.EventOnline, Descriptor: plainPlug("8006GROW")}, nil)
	env.worker.state.wait()

	ann := env.directory.Announcements("8006GROW")
	require.Equal(t, 2, len(ann))
	assert.False(t, enums.SliceContainsInterface(ann[0].Interfaces, enums.IfaceBrightness))
	assert.True(t, enums.SliceContainsInterface(ann[1].Interfaces, enums.IfaceBrightness))

	for ii := 1; ii < len(ann); ii++ {
		for _, v := range ann[ii-1].Interfaces {
			assert.True(t, enums.SliceContainsInterface(ann[ii].Interfaces, v), "announcement shrank")
		}
	}
}

// Tests announce retry after directory failure.
func TestAnnounceRetry(t *testing.T) {
	env := newTestEnv(t)
	defer env.worker.Stop()

	env.directory.FailAnnounce(true)
	env.worker.state.enqueue(&discovery.Event{Kind: enums.EventNew, Descriptor: plainPlug("8006RETRY")}, nil)
	env.worker.state.wait()
	assert.Equal(t, 0, len(env.directory.Announcements("8006RETRY")))

	env.directory.FailAnnounce(false)
	env.worker.state.enqueue(&discovery.Event{Kind: enums.EventOnline, Descriptor: plainPlug("8006RETRY")}, nil)
	env.worker.state.wait()
	assert.Equal(t, 1, len(env.directory.Announcements("8006RETRY")))
}

// Tests rebinding on address change only.
func TestAddressChange(t *testing.T) {
	env := newTestEnv(t)
	defer env.worker.Stop()

	env.worker.state.enqueue(&discovery.Event{Kind: enums.EventNew, Descriptor: plainPlug("8006MOVE")}, nil)
	env.worker.state.enqueue(&discovery.Event{Kind: enums.EventOnline, Descriptor: plainPlug("8006MOVE")}, nil)
	env.worker.state.wait()
	assert.Equal(t, 1, len(env.connector.Clients("8006MOVE")))

	moved := plainPlug("8006MOVE")
	moved.Host = "192.168.1.61"
	env.worker.state.enqueue(&discovery.Event{Kind: enums.EventOnline, Descriptor: moved}, nil)
	env.worker.state.wait()

	clients := env.connector.Clients("8006MOVE")
	require.Equal(t, 2, len(clients))
	assert.True(t, clients[0].IsClosed())
	assert.False(t, clients[1].IsClosed())

	h, err := env.worker.Device("8006MOVE")
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.61", h.State().Host)
}

// Tests failed client open retried on the next sighting.
func TestOpenFailureRetried(t *testing.T) {
	env := newTestEnv(t)
	defer env.worker.Stop()

	env.connector.FailOpen(true)
	env.worker.state.enqueue(&discovery.Event{Kind: enums.EventNew, Descriptor: plainPlug("8006FAIL")}, nil)
	env.worker.state.wait()
	assert.Equal(t, 0, len(env.connector.Clients("8006FAIL")))

	env.connector.FailOpen(false)
	env.worker.state.enqueue(&discovery.Event{Kind: enums.EventOnline, Descriptor: plainPlug("8006FAIL")}, nil)
	env.worker.state.wait()
	assert.Equal(t, 1, len(env.connector.Clients("8006FAIL")))
}

// Tests manual creation producing the same state as discovery.
func TestManualCreation(t *testing.T) {
	organic := newTestEnv(t)
	defer organic.worker.Stop()
	organic.send(enums.EventNew, dimmerDescriptor())
	waitFor(t, "organic device is not announced", announced(organic, "ABC123", 1))

	manual := newTestEnv(t)
	defer manual.worker.Stop()
	manual.connector.AddAddress("192.168.1.50", 9999, dimmerDescriptor())

	id, err := manual.worker.CreateDevice(context.Background(), "192.168.1.50", 9999)
	require.NoError(t, err)
	assert.Equal(t, "ABC123", id)

	assert.Equal(t, organic.worker.Devices(), manual.worker.Devices())
	assert.Equal(t, organic.directory.Announcements("ABC123"), manual.directory.Announcements("ABC123"))

	_, err = manual.worker.CreateDevice(context.Background(), "192.168.1.51", 9999)
	assert.Error(t, err)
}

// Tests configured manual devices.
func TestConfiguredManualDevices(t *testing.T) {
	env := &testEnv{}
	env.settings = mocks.FakeNewSettings(nil)
	env.settings.AddManualDevice(&providers.ManualDevice{Address: "192.168.1.50", Port: 9999, Name: "Front"})
	env.connector = mocks.FakeNewConnector()
	env.connector.AddAddress("192.168.1.50", 9999, dimmerDescriptor())
	env.directory = mocks.FakeNewDirectory()
	env.worker = NewWorker(&ConstructWorker{
		Settings:  env.settings,
		Connector: env.connector,
		Directory: env.directory,
		Transport: func(*discovery.ConstructDiscovery) discovery.IDiscoveryProvider {
			return &fakeTransport{events: make(chan *discovery.Event)}
		},
	})

	require.NoError(t, env.worker.Start())
	defer env.worker.Stop()

	waitFor(t, "configured device is not created", announced(env, "ABC123", 1))
	ann := env.directory.Announcements("ABC123")
	require.Equal(t, 1, len(ann))
	assert.Equal(t, "Front", ann[0].Name)
}

// Tests unknown identity lookup.
func TestUnknownDevice(t *testing.T) {
	env := newTestEnv(t)
	defer env.worker.Stop()

	_, err := env.worker.Device("missing")
	_, ok := err.(*ErrUnknownDevice)
	assert.True(t, ok, "wrong error")
	assert.True(t, env.hasLog("Requested unknown device"))
}

// Tests offline event for identity never seen.
func TestOfflineUnknown(t *testing.T) {
	env := newTestEnv(t)
	defer env.worker.Stop()

	env.worker.state.enqueue(&discovery.Event{Kind: enums.EventOffline, Descriptor: plainPlug("8006NONE")}, nil)
	env.worker.state.wait()
	assert.Equal(t, 0, len(env.worker.Devices()))
}

// Tests discovery reconfiguration.
func TestReconfigure(t *testing.T) {
	env := newTestEnv(t)
	defer env.worker.Stop()

	settings := &providers.DiscoverySettings{
		Transport:        providers.TransportTCP,
		Timeout:          500,
		Broadcast:        "192.168.1.255",
		Port:             9999,
		Interval:         5,
		OfflineTolerance: 2,
	}

	env.settings.FailValidation(true)
	_, ok := env.worker.Reconfigure(settings).(*ErrInvalidSettings)
	assert.True(t, ok, "validation is ignored")
	assert.False(t, env.transport(0).isStopped())

	env.settings.FailValidation(false)
	require.NoError(t, env.worker.Reconfigure(settings))
	assert.True(t, env.transport(0).isStopped())
	assert.True(t, settings == env.transport(1).settings)
	assert.True(t, settings == env.connector.Settings())
	assert.True(t, settings == env.worker.DiscoverySettings())
	assert.True(t, settings == env.settings.DiscoverySettings(), "log level is not applied")

	env.send(enums.EventNew, plainPlug("8006NEW"))
	waitFor(t, "new transport events are ignored", online(env, "8006NEW"))
}

// Tests reconfiguration failure restoring previous transport.
func TestReconfigureFailure(t *testing.T) {
	env := newTestEnv(t)
	defer env.worker.Stop()

	previous := env.worker.DiscoverySettings()
	env.Lock()
	env.startErr = errors.New("bad filter")
	env.Unlock()

	settings := &providers.DiscoverySettings{Transport: providers.TransportUDP, Filter: "("}
	assert.Error(t, env.worker.Reconfigure(settings))
	assert.True(t, previous == env.worker.DiscoverySettings())
	assert.True(t, previous == env.connector.Settings())
	assert.True(t, previous == env.settings.DiscoverySettings())
}

// Tests online devices handed over to the new transport.
func TestReconfigureKnown(t *testing.T) {
	env := newTestEnv(t)
	defer env.worker.Stop()

	assert.Equal(t, 0, len(env.transport(0).known))

	env.send(enums.EventNew, plainPlug("8006A"))
	env.send(enums.EventNew, plainPlug("8006B"))
	waitFor(t, "device is not announced", announced(env, "8006A", 1))
	waitFor(t, "device is not announced", announced(env, "8006B", 1))
	env.send(enums.EventOffline, plainPlug("8006B"))
	waitFor(t, "device is not offline", offline(env, "8006B"))

	settings := &providers.DiscoverySettings{Transport: providers.TransportUDP, Filter: `alias == "none"`}
	require.NoError(t, env.worker.Reconfigure(settings))

	known := env.transport(1).known
	if assert.Equal(t, 1, len(known)) {
		assert.Equal(t, "8006A", known[0].ID)
	}

	env.send(enums.EventOffline, plainPlug("8006A"))
	waitFor(t, "handed over device is not offline", offline(env, "8006A"))
}
