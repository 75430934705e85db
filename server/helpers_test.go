package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go-home.io/x/kasa/mocks"
	"go-home.io/x/kasa/plugins/device"
	"go-home.io/x/kasa/plugins/device/enums"
	"go-home.io/x/kasa/providers"
	"go-home.io/x/kasa/worker"
)

// Recorded device command.
type invocation struct {
	cmd    enums.Command
	params map[string]interface{}
}

// Logical device with scripted results.
type fakeHandle struct {
	sync.Mutex

	id       string
	state    *device.State
	err      error
	panics   bool
	received []*invocation
}

func (h *fakeHandle) ID() string {
	return h.id
}

func (h *fakeHandle) State() *device.State {
	s := *h.state
	return &s
}

func (h *fakeHandle) Capabilities() []enums.Interface {
	return []enums.Interface{enums.IfaceOnOff}
}

func (h *fakeHandle) InvokeCommand(_ context.Context, cmd enums.Command, params map[string]interface{}) error {
	if h.panics {
		panic("device exploded")
	}

	h.Lock()
	defer h.Unlock()
	h.received = append(h.received, &invocation{cmd: cmd, params: params})
	return h.err
}

func (h *fakeHandle) invocations() []*invocation {
	h.Lock()
	defer h.Unlock()
	return append([]*invocation{}, h.received...)
}

// Reconciliation loop with scripted results.
type fakeReconciler struct {
	sync.Mutex

	handles        map[string]*fakeHandle
	settings       *providers.DiscoverySettings
	created        []string
	createErr      error
	reconfigureErr error
}

func (r *fakeReconciler) Device(id string) (providers.IDeviceHandle, error) {
	r.Lock()
	defer r.Unlock()

	h, ok := r.handles[id]
	if !ok {
		return nil, &worker.ErrUnknownDevice{ID: id}
	}

	return h, nil
}

func (r *fakeReconciler) Devices() []*device.State {
	r.Lock()
	defer r.Unlock()

	result := make([]*device.State, 0)
	for _, v := range r.handles {
		result = append(result, v.State())
	}

	return result
}

func (r *fakeReconciler) CreateDevice(_ context.Context, address string, port int) (string, error) {
	r.Lock()
	defer r.Unlock()

	if r.createErr != nil {
		return "", r.createErr
	}

	r.created = append(r.created, address)
	return "created-" + address, nil
}

func (r *fakeReconciler) Reconfigure(s *providers.DiscoverySettings) error {
	r.Lock()
	defer r.Unlock()

	if r.reconfigureErr != nil {
		return r.reconfigureErr
	}

	r.settings = s
	return nil
}

func (r *fakeReconciler) DiscoverySettings() *providers.DiscoverySettings {
	r.Lock()
	defer r.Unlock()
	return r.settings
}

// Adds plug which is both announced and reconciled.
func (r *fakeReconciler) addPlug(d *Directory, id string, dimmable bool) *fakeHandle {
	interfaces := []enums.Interface{enums.IfaceOnOff, enums.IfaceSettings, enums.IfaceOnline,
		enums.IfaceRefresh, enums.IfacePowerSensor}
	dt := enums.DevOutlet
	if dimmable {
		interfaces = append(interfaces, enums.IfaceBrightness)
		dt = enums.DevSwitch
	}

	err := d.Announce(&providers.Announcement{
		ID:         id,
		Name:       "plug " + id,
		Type:       dt,
		Interfaces: interfaces,
		Info:       &providers.DeviceInfo{Model: "HS220(US)", Manufacturer: "TP-Link Kasa", SerialNumber: id},
	})

	if err != nil {
		panic(err)
	}

	h := &fakeHandle{
		id: id,
		state: &device.State{ID: id, Name: "plug " + id, Class: enums.ClassPlug, Online: true,
			Dimmable: dimmable},
	}

	r.Lock()
	r.handles[id] = h
	r.Unlock()
	return h
}

type testServer struct {
	settings   mocks.IFakeSettings
	reconciler *fakeReconciler
	directory  *Directory
	server     *KasaServer
	http       *httptest.Server
	logs       []string
	sync.Mutex
}

// Captured log messages.
func (e *testServer) messages() []string {
	e.Lock()
	defer e.Unlock()
	return append([]string{}, e.logs...)
}

// Performs request against the test server.
func (e *testServer) do(t *testing.T, method string, url string, body string) (int, []byte) {
	req, err := http.NewRequest(method, e.http.URL+url, bytes.NewBufferString(body))
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() // nolint: errcheck

	data, err := ioutil.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

// Performs request and decodes JSON response.
func (e *testServer) get(t *testing.T, url string, out interface{}) int {
	code, data := e.do(t, http.MethodGet, url, "")
	if code == http.StatusOK {
		require.NoError(t, json.Unmarshal(data, out), string(data))
	}

	return code
}

// Settings with replaceable fan-out.
type fanOutSettings struct {
	mocks.IFakeSettings
	fanOut providers.IInternalFanOutProvider
}

func (s *fanOutSettings) FanOut() providers.IInternalFanOutProvider {
	return s.fanOut
}

// Creates server wired to fake reconciler.
// Caller must close the http server.
func newTestServer(users map[string]string,
	fanOut providers.IInternalFanOutProvider) *testServer {
	env := &testServer{}
	env.settings = mocks.FakeNewSettings(func(msg string) {
		env.Lock()
		env.logs = append(env.logs, msg)
		env.Unlock()
	})
	env.settings.SetServerSettings(&providers.ServerSettings{Port: 0, Users: users})

	var settings providers.ISettingsProvider = env.settings
	if fanOut != nil {
		settings = &fanOutSettings{IFakeSettings: env.settings, fanOut: fanOut}
	}

	env.directory = NewDirectory(env.settings.SystemLogger())
	env.reconciler = &fakeReconciler{
		handles:  make(map[string]*fakeHandle),
		settings: env.settings.DiscoverySettings(),
	}

	env.server = NewServer(&ConstructServer{
		Settings:   settings,
		Reconciler: env.reconciler,
		Directory:  env.directory,
	})

	env.http = httptest.NewServer(env.server.handler())
	return env
}
