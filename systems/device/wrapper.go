// Package device contains logical representation of the discovered kasa units.
package device

import (
	"context"
	"strconv"
	"sync"

	"go-home.io/x/kasa/plugins/common"
	"go-home.io/x/kasa/plugins/device"
	"go-home.io/x/kasa/plugins/device/enums"
	"go-home.io/x/kasa/providers"
)

const (
	// Bulbs don't report value, we assume full.
	defaultHSVValue = 100
)

// ConstructWrapper has data required for a new wrapper.
type ConstructWrapper struct {
	Descriptor *device.Descriptor
	Logger     common.ILoggerProvider
	FanOut     providers.IInternalFanOutProvider
	Validator  providers.IValidatorProvider
}

// Plug specific cached data.
type plugPayload struct {
	dimmable      bool
	brightness    int
	powerDetected bool
}

// Bulb specific cached data.
type bulbPayload struct {
	features   device.Features
	tempRange  *device.TemperatureRange
	brightness int
	hue        int
	saturation int
	value      int
	colorTemp  int
}

// Wrapper is a logical device backed by a single kasa unit.
// Exactly one of plug and bulb payloads is set.
type Wrapper struct {
	sync.Mutex
	publishLock sync.Mutex

	logger    common.ILoggerProvider
	fanOut    providers.IInternalFanOutProvider
	validator providers.IValidatorProvider

	id     string
	class  enums.DeviceClass
	desc   *device.Descriptor
	online bool
	on     bool
	client device.IClient

	plug *plugPayload
	bulb *bulbPayload
}

// NewWrapper constructs a new logical device from the discovery descriptor.
func NewWrapper(ctor *ConstructWrapper) *Wrapper {
	w := &Wrapper{
		logger:    ctor.Logger,
		fanOut:    ctor.FanOut,
		validator: ctor.Validator,
		id:        ctor.Descriptor.ID,
		class:     ctor.Descriptor.Class,
	}

	w.populate(ctor.Descriptor)
	return w
}

// ID returns device identity.
func (w *Wrapper) ID() string {
	return w.id
}

// Class returns device class.
func (w *Wrapper) Class() enums.DeviceClass {
	return w.class
}

// Descriptor returns the latest descriptor.
func (w *Wrapper) Descriptor() *device.Descriptor {
	w.Lock()
	defer w.Unlock()
	return w.desc
}

// Capabilities returns interfaces derived from the latest descriptor.
func (w *Wrapper) Capabilities() []enums.Interface {
	return Capabilities(w.Descriptor())
}

// IsOnline returns whether wrapper has a live client.
func (w *Wrapper) IsOnline() bool {
	w.Lock()
	defer w.Unlock()
	return w.online
}

// HasClient returns whether wrapper has a bound client.
func (w *Wrapper) HasClient() bool {
	w.Lock()
	defer w.Unlock()
	return w.client != nil
}

// Sync repopulates cached state from the descriptor.
func (w *Wrapper) Sync(desc *device.Descriptor) {
	w.Lock()
	w.populate(desc)
	w.Unlock()

	w.publish(false)
}

// UpdateDescriptor replaces the descriptor without touching cached values.
func (w *Wrapper) UpdateDescriptor(desc *device.Descriptor) {
	w.Lock()
	defer w.Unlock()

	w.desc = desc
	switch {
	case w.plug != nil:
		w.plug.dimmable = desc.Features.Dimmable
	case w.bulb != nil:
		w.bulb.features = desc.Features
		w.bulb.tempRange = desc.TemperatureRange
	}
}

// Bind attaches a live client and starts listening for its notifications.
// Previously bound client is closed.
func (w *Wrapper) Bind(client device.IClient) {
	w.Lock()
	prev := w.client
	w.client = client
	w.online = true
	if w.bulb != nil {
		if r := client.ColorTemperatureRange(); r != nil {
			w.bulb.tempRange = r
		}
	}
	w.Unlock()

	if prev != nil && prev != client {
		prev.Close()
	}

	go w.listen(client, client.Subscribe())
	w.publish(false)
}

// Unbind drops the client and its subscription.
// Cached values are kept.
func (w *Wrapper) Unbind() {
	w.Lock()
	client := w.client
	w.client = nil
	w.online = false
	w.Unlock()

	if client != nil {
		client.Close()
	}

	w.publish(false)
}

// ApplyNotification applies asynchronous device update to the cached state.
func (w *Wrapper) ApplyNotification(n *device.Notification) {
	w.Lock()
	changed := w.apply(n)
	w.Unlock()

	if changed {
		w.publish(false)
	}
}

// TurnOn turns the device on.
func (w *Wrapper) TurnOn(ctx context.Context) error {
	return w.setPower(ctx, true)
}

// TurnOff turns the device off.
func (w *Wrapper) TurnOff(ctx context.Context) error {
	return w.setPower(ctx, false)
}

// SetBrightness changes brightness.
// Non dimmable device rejects the call without contacting it.
func (w *Wrapper) SetBrightness(ctx context.Context, brightness int) error {
	if brightness < 0 || brightness > 100 {
		return &ErrInvalidValue{Field: "brightness", Value: brightness}
	}

	w.Lock()
	supported := (w.bulb != nil && w.bulb.features.Dimmable) || (w.plug != nil && w.plug.dimmable)
	w.Unlock()
	if !supported {
		return &ErrNotSupported{ID: w.id, Operation: enums.CmdSetBrightness.String()}
	}

	client, err := w.boundClient()
	if err != nil {
		return err
	}

	if err := client.SetBrightness(ctx, brightness); err != nil {
		return w.failed(enums.CmdSetBrightness, err)
	}

	w.Lock()
	if w.plug != nil {
		w.plug.brightness = brightness
	} else {
		w.bulb.brightness = brightness
	}
	w.Unlock()

	w.publish(false)
	return nil
}

// SetHSV changes bulb color.
// Device is asked to leave color temperature mode, cached temperature is cleared.
func (w *Wrapper) SetHSV(ctx context.Context, hue int, saturation int, value int) error {
	if hue < 0 || hue > 360 {
		return &ErrInvalidValue{Field: "hue", Value: hue}
	}
	if saturation < 0 || saturation > 100 {
		return &ErrInvalidValue{Field: "saturation", Value: saturation}
	}
	if value < 0 || value > 100 {
		return &ErrInvalidValue{Field: "value", Value: value}
	}

	w.Lock()
	supported := w.bulb != nil && w.bulb.features.Color
	w.Unlock()
	if !supported {
		return &ErrNotSupported{ID: w.id, Operation: enums.CmdSetHsv.String()}
	}

	client, err := w.boundClient()
	if err != nil {
		return err
	}

	err = client.SetLightState(ctx, &device.LightStatePatch{
		Hue:        device.IntPtr(hue),
		Saturation: device.IntPtr(saturation),
		ColorTemp:  device.IntPtr(0),
	})
	if err != nil {
		return w.failed(enums.CmdSetHsv, err)
	}

	w.Lock()
	w.bulb.hue = hue
	w.bulb.saturation = saturation
	w.bulb.value = value
	w.bulb.colorTemp = 0
	w.Unlock()

	w.publish(false)
	return nil
}

// SetColorTemperature changes bulb white temperature in Kelvin.
func (w *Wrapper) SetColorTemperature(ctx context.Context, kelvin int) error {
	w.Lock()
	supported := w.bulb != nil && w.bulb.features.ColorTemperature
	var r *device.TemperatureRange
	if supported {
		r = w.bulb.tempRange
	}
	w.Unlock()

	if !supported {
		return &ErrNotSupported{ID: w.id, Operation: enums.CmdSetColorTemperature.String()}
	}

	if r != nil && (kelvin < r.Min || kelvin > r.Max) {
		return &ErrInvalidValue{Field: "color temperature", Value: kelvin}
	}

	client, err := w.boundClient()
	if err != nil {
		return err
	}

	if err := client.SetLightState(ctx, &device.LightStatePatch{ColorTemp: device.IntPtr(kelvin)}); err != nil {
		return w.failed(enums.CmdSetColorTemperature, err)
	}

	w.Lock()
	w.bulb.colorTemp = kelvin
	w.Unlock()

	w.publish(false)
	return nil
}

// TemperatureMinK returns minimal supported temperature or 0.
func (w *Wrapper) TemperatureMinK() int {
	w.Lock()
	defer w.Unlock()

	if w.bulb == nil || w.bulb.tempRange == nil {
		return 0
	}

	return w.bulb.tempRange.Min
}

// TemperatureMaxK returns maximal supported temperature or 0.
func (w *Wrapper) TemperatureMaxK() int {
	w.Lock()
	defer w.Unlock()

	if w.bulb == nil || w.bulb.tempRange == nil {
		return 0
	}

	return w.bulb.tempRange.Max
}

// Refresh re-reads state from the device.
func (w *Wrapper) Refresh(ctx context.Context) error {
	client, err := w.boundClient()
	if err != nil {
		return err
	}

	if w.class == enums.ClassBulb {
		light, err := client.GetLightState(ctx)
		if err != nil {
			return w.failed(enums.CmdRefresh, err)
		}

		w.ApplyNotification(&device.Notification{Kind: enums.NotifyLightStateUpdate, Light: light})
		return nil
	}

	on, err := client.GetPowerState(ctx)
	if err != nil {
		return w.failed(enums.CmdRefresh, err)
	}

	w.ApplyNotification(&device.Notification{Kind: enums.NotifyPowerUpdate, On: on})
	return nil
}

// State returns cached snapshot.
func (w *Wrapper) State() *device.State {
	w.Lock()
	defer w.Unlock()
	return w.snapshot()
}

// Populates the common envelope and class payload.
func (w *Wrapper) populate(desc *device.Descriptor) {
	w.desc = desc
	w.on = desc.State.On

	switch desc.Class {
	case enums.ClassBulb:
		w.plug = nil
		w.bulb = &bulbPayload{
			features:   desc.Features,
			tempRange:  desc.TemperatureRange,
			brightness: desc.State.Brightness,
			hue:        desc.State.Hue,
			saturation: desc.State.Saturation,
			value:      defaultHSVValue,
			colorTemp:  desc.State.ColorTemp,
		}
	default:
		w.bulb = nil
		w.plug = &plugPayload{
			dimmable:      desc.Features.Dimmable,
			brightness:    desc.State.Brightness,
			powerDetected: desc.State.InUse,
		}
	}
}

// Applies notification under the lock.
func (w *Wrapper) apply(n *device.Notification) bool {
	if n == nil {
		return false
	}

	before := w.snapshot()

	switch n.Kind {
	case enums.NotifyPowerOn, enums.NotifyPowerOff, enums.NotifyPowerUpdate:
		w.on = n.Kind == enums.NotifyPowerOn || (n.Kind == enums.NotifyPowerUpdate && n.On)

		if n.Kind == enums.NotifyPowerUpdate && n.FromSysInfo && w.plug != nil && w.plug.dimmable {
			w.plug.brightness = n.Brightness
		}
	case enums.NotifyInUse, enums.NotifyNotInUse, enums.NotifyInUseUpdate:
		if w.plug == nil {
			return false
		}

		switch n.Kind {
		case enums.NotifyInUse:
			w.plug.powerDetected = true
		case enums.NotifyNotInUse:
			w.plug.powerDetected = false
		default:
			w.plug.powerDetected = n.InUse
		}
	case enums.NotifyLightStateChange, enums.NotifyLightStateUpdate:
		if w.bulb == nil || n.Light == nil {
			return false
		}

		w.on = n.Light.On
		w.bulb.brightness = n.Light.Brightness
		w.bulb.hue = n.Light.Hue
		w.bulb.saturation = n.Light.Saturation
		w.bulb.colorTemp = n.Light.ColorTemp
	default:
		w.logger.Warn("Received unknown notification", common.LogDeviceIDToken, w.id,
			common.LogNotificationToken, n.Kind.String())
		return false
	}

	return *before != *w.snapshot()
}

// Builds state snapshot under the lock.
func (w *Wrapper) snapshot() *device.State {
	s := &device.State{
		ID:     w.id,
		Name:   w.desc.Name(),
		Class:  w.class,
		Host:   w.desc.Host,
		Port:   w.desc.Port,
		Online: w.online,
		On:     w.on,
	}

	switch {
	case w.plug != nil:
		s.Dimmable = w.plug.dimmable
		s.Brightness = w.plug.brightness
		s.PowerDetected = w.plug.powerDetected
	case w.bulb != nil:
		s.Dimmable = w.bulb.features.Dimmable
		s.Brightness = w.bulb.brightness
		s.Hue = w.bulb.hue
		s.Saturation = w.bulb.saturation
		s.Value = w.bulb.value
		s.ColorTemp = w.bulb.colorTemp
	}

	return s
}

// Sends power command and caches the result.
func (w *Wrapper) setPower(ctx context.Context, on bool) error {
	cmd := enums.CmdOff
	if on {
		cmd = enums.CmdOn
	}

	client, err := w.boundClient()
	if err != nil {
		return err
	}

	if err := client.SetPowerState(ctx, on); err != nil {
		return w.failed(cmd, err)
	}

	w.Lock()
	w.on = on
	w.Unlock()

	w.publish(false)
	return nil
}

// Returns bound client or offline error.
func (w *Wrapper) boundClient() (device.IClient, error) {
	w.Lock()
	defer w.Unlock()

	if w.client == nil {
		return nil, &ErrDeviceOffline{ID: w.id}
	}

	return w.client, nil
}

// Logs and converts device error.
func (w *Wrapper) failed(cmd enums.Command, err error) error {
	w.logger.Error("Device command failed", err, common.LogDeviceIDToken, w.id,
		common.LogDeviceCommandToken, cmd.String())
	return &ErrCommandFailed{ID: w.id, Operation: cmd.String(), Reason: err.Error()}
}

// Processes notifications of the client until subscription is closed.
// Notifications of replaced client are ignored.
func (w *Wrapper) listen(client device.IClient, ch <-chan *device.Notification) {
	for n := range ch {
		w.Lock()
		if w.client != client {
			w.Unlock()
			continue
		}
		changed := w.apply(n)
		w.Unlock()

		if changed {
			w.logger.Debug("Applied device notification", common.LogDeviceIDToken, w.id,
				common.LogNotificationToken, n.Kind.String(),
				common.LogFieldToken, strconv.FormatBool(n.FromSysInfo))
			w.publish(false)
		}
	}
}

// Publishes current state to the fan-out.
// Snapshots are delivered in the order they were taken.
func (w *Wrapper) publish(firstSeen bool) {
	if w.fanOut == nil {
		return
	}

	w.publishLock.Lock()
	defer w.publishLock.Unlock()

	w.Lock()
	msg := &common.MsgDeviceUpdate{
		ID:        w.id,
		Name:      w.desc.Name(),
		State:     w.snapshot(),
		FirstSeen: firstSeen,
		Type:      DirectoryType(w.desc),
	}
	w.Unlock()

	w.fanOut.ChannelInDeviceUpdates() <- msg
}

// Announced publishes first seen message to the fan-out.
func (w *Wrapper) Announced() {
	w.publish(true)
}
