//+build !release

package mocks

import (
	"context"
	"sync"

	"go-home.io/x/kasa/plugins/device"
)

// IFakeClient adds test helpers to the device client.
type IFakeClient interface {
	device.IClient
	Notify(*device.Notification)
	SetError(error)
	Calls() []string
	LastPatch() *device.LightStatePatch
	IsClosed() bool
}

type fakeClient struct {
	sync.Mutex

	err       error
	on        bool
	light     *device.LightState
	tempRange *device.TemperatureRange
	calls     []string
	lastPatch *device.LightStatePatch
	closed    bool
	sub       chan *device.Notification
}

func (f *fakeClient) record(call string) error {
	f.Lock()
	defer f.Unlock()
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeClient) GetPowerState(context.Context) (bool, error) {
	if err := f.record("get-power"); err != nil {
		return false, err
	}

	f.Lock()
	defer f.Unlock()
	return f.on, nil
}

func (f *fakeClient) SetPowerState(_ context.Context, on bool) error {
	if err := f.record("set-power"); err != nil {
		return err
	}

	f.Lock()
	f.on = on
	f.Unlock()
	return nil
}

func (f *fakeClient) SetBrightness(context.Context, int) error {
	return f.record("set-brightness")
}

func (f *fakeClient) GetLightState(context.Context) (*device.LightState, error) {
	if err := f.record("get-light"); err != nil {
		return nil, err
	}

	f.Lock()
	defer f.Unlock()
	if f.light == nil {
		return &device.LightState{On: f.on}, nil
	}

	l := *f.light
	return &l, nil
}

func (f *fakeClient) SetLightState(_ context.Context, patch *device.LightStatePatch) error {
	if err := f.record("set-light"); err != nil {
		return err
	}

	f.Lock()
	f.lastPatch = patch
	f.Unlock()
	return nil
}

func (f *fakeClient) ColorTemperatureRange() *device.TemperatureRange {
	return f.tempRange
}

func (f *fakeClient) Subscribe() <-chan *device.Notification {
	f.Lock()
	defer f.Unlock()

	if f.sub == nil {
		f.sub = make(chan *device.Notification, 10)
	}

	return f.sub
}

func (f *fakeClient) Unsubscribe() {
	f.Lock()
	defer f.Unlock()

	if f.sub != nil {
		close(f.sub)
		f.sub = nil
	}
}

func (f *fakeClient) Close() {
	f.Unsubscribe()
	f.Lock()
	f.closed = true
	f.Unlock()
}

// Notify pushes notification to the subscriber.
func (f *fakeClient) Notify(n *device.Notification) {
	f.Lock()
	defer f.Unlock()

	if f.sub != nil {
		f.sub <- n
	}
}

// SetError sets error returned by every device call.
func (f *fakeClient) SetError(err error) {
	f.Lock()
	f.err = err
	f.Unlock()
}

// Calls returns invoked device calls.
func (f *fakeClient) Calls() []string {
	f.Lock()
	defer f.Unlock()
	return append([]string{}, f.calls...)
}

// LastPatch returns last light state patch.
func (f *fakeClient) LastPatch() *device.LightStatePatch {
	f.Lock()
	defer f.Unlock()
	return f.lastPatch
}

// IsClosed returns whether client was closed.
func (f *fakeClient) IsClosed() bool {
	f.Lock()
	defer f.Unlock()
	return f.closed
}

// FakeNewClient creates a fake device client.
func FakeNewClient(light *device.LightState, tempRange *device.TemperatureRange) IFakeClient {
	return &fakeClient{
		light:     light,
		tempRange: tempRange,
		calls:     make([]string, 0),
	}
}
