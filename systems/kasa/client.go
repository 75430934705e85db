package kasa

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go-home.io/x/kasa/plugins/common"
	"go-home.io/x/kasa/plugins/device"
	"go-home.io/x/kasa/plugins/device/enums"
)

// Notifications buffer per subscription.
const notificationsBuffer = 16

// Client of a single controllable unit.
type client struct {
	sync.Mutex
	connector *Connector
	logger    common.ILoggerProvider

	id       string
	host     string
	port     int
	childID  string
	class    enums.DeviceClass
	model    string
	features device.Features

	last          device.InitialState
	notifications chan *device.Notification
	stop          chan struct{}
	wg            sync.WaitGroup
}

// Constructs a new client.
func newClient(connector *Connector, desc *device.Descriptor) *client {
	return &client{
		connector: connector,
		logger:    connector.logger,
		id:        desc.ID,
		host:      desc.Host,
		port:      desc.Port,
		childID:   desc.ChildID,
		class:     desc.Class,
		model:     desc.Model,
		features:  desc.Features,
		last:      desc.State,
	}
}

// GetPowerState reads current power state.
func (c *client) GetPowerState(ctx context.Context) (bool, error) {
	if c.class == enums.ClassBulb {
		ls, err := c.GetLightState(ctx)
		if err != nil {
			return false, err
		}

		return ls.On, nil
	}

	desc, err := c.describe(ctx)
	if err != nil {
		return false, err
	}

	return desc.State.On, nil
}

// SetPowerState turns device on or off.
func (c *client) SetPowerState(ctx context.Context, on bool) error {
	if c.class == enums.ClassBulb {
		return c.SetLightState(ctx, &device.LightStatePatch{On: device.BoolPtr(on)})
	}

	_, err := c.request(ctx, moduleSystem, methodSetRelayState, map[string]interface{}{
		"state": boolToInt(on),
	})
	return err
}

// SetBrightness changes brightness of dimmers and bulbs.
func (c *client) SetBrightness(ctx context.Context, brightness int) error {
	if c.class == enums.ClassBulb {
		return c.SetLightState(ctx, &device.LightStatePatch{Brightness: device.IntPtr(brightness)})
	}

	if !c.features.Dimmable {
		return &ErrNotSupported{Operation: methodSetBrightness}
	}

	_, err := c.request(ctx, moduleDimmer, methodSetBrightness, map[string]interface{}{
		"brightness": brightness,
	})
	return err
}

// GetLightState reads bulb light state.
func (c *client) GetLightState(ctx context.Context) (*device.LightState, error) {
	if c.class != enums.ClassBulb {
		return nil, &ErrNotSupported{Operation: methodGetLightState}
	}

	data, err := c.request(ctx, moduleLighting, methodGetLightState, struct{}{})
	if err != nil {
		return nil, err
	}

	raw := &rawLightState{}
	if err := json.Unmarshal(data, raw); err != nil {
		return nil, errors.Wrap(&ErrMalformedResponse{Reason: "light state is not an object"}, err.Error())
	}

	return toLightState(raw), nil
}

// SetLightState applies light state patch.
func (c *client) SetLightState(ctx context.Context, patch *device.LightStatePatch) error {
	if c.class != enums.ClassBulb {
		return &ErrNotSupported{Operation: methodTransitionLight}
	}

	params := map[string]interface{}{
		"ignore_default":    1,
		"transition_period": 0,
	}

	if nil != patch.On {
		params["on_off"] = boolToInt(*patch.On)
	}
	if nil != patch.Brightness {
		params["brightness"] = *patch.Brightness
	}
	if nil != patch.Hue {
		params["hue"] = *patch.Hue
	}
	if nil != patch.Saturation {
		params["saturation"] = *patch.Saturation
	}
	if nil != patch.ColorTemp {
		params["color_temp"] = *patch.ColorTemp
	}

	_, err := c.request(ctx, moduleLighting, methodTransitionLight, params)
	return err
}

// ColorTemperatureRange returns supported range or nil.
func (c *client) ColorTemperatureRange() *device.TemperatureRange {
	if c.class != enums.ClassBulb || !c.features.ColorTemperature {
		return nil
	}

	return ColorTemperatureRange(c.model)
}

// Subscribe starts state polling and returns notifications channel.
// Repeated calls return the same channel.
func (c *client) Subscribe() <-chan *device.Notification {
	c.Lock()
	defer c.Unlock()

	if nil != c.notifications {
		return c.notifications
	}

	c.notifications = make(chan *device.Notification, notificationsBuffer)
	c.stop = make(chan struct{})

	c.connector.RLock()
	interval := c.connector.settings.PollDuration()
	c.connector.RUnlock()

	if interval > 0 {
		c.wg.Add(1)
		go c.poll(interval, c.notifications, c.stop)
	}

	return c.notifications
}

// Unsubscribe stops polling and closes notifications channel.
func (c *client) Unsubscribe() {
	c.Lock()
	defer c.Unlock()

	if nil == c.notifications {
		return
	}

	close(c.stop)
	c.wg.Wait()
	close(c.notifications)
	c.notifications = nil
	c.stop = nil
}

// Close releases client resources.
func (c *client) Close() {
	c.Unsubscribe()
}

// Polls device and emits notifications until stopped.
func (c *client) poll(interval time.Duration, out chan *device.Notification, stop chan struct{}) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.pollOnce(out, stop)
		}
	}
}

// Reads sysinfo and emits difference with the previously seen state.
func (c *client) pollOnce(out chan *device.Notification, stop chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	desc, err := c.describe(ctx)
	if err != nil {
		c.logger.Debug("Failed to poll device state", common.LogDeviceIDToken, c.id,
			common.LogDeviceHostToken, c.host, common.LogErrorToken, err.Error())
		return
	}

	for _, n := range diffState(c.class, &c.last, &desc.State) {
		select {
		case out <- n:
		case <-stop:
			return
		}
	}

	c.last = desc.State
}

// Finds own descriptor in the sysinfo response.
func (c *client) describe(ctx context.Context) (*device.Descriptor, error) {
	descs, err := c.connector.Describe(ctx, c.host, c.port)
	if err != nil {
		return nil, err
	}

	for _, v := range descs {
		if v.ID == c.id {
			return v, nil
		}
	}

	return nil, &ErrMalformedResponse{Reason: "unit " + c.id + " is missing"}
}

// Sends request to the unit.
func (c *client) request(ctx context.Context, module string, method string, params interface{}) ([]byte, error) {
	data, err := c.connector.Send(ctx, c.host, c.port, buildRequest(c.childID, module, method, params))
	if err != nil {
		return nil, err
	}

	return parseResponse(data, module, method)
}

// Builds notifications describing state transition.
// Change notifications go before periodic updates.
func diffState(class enums.DeviceClass, prev *device.InitialState, cur *device.InitialState) []*device.Notification {
	result := make([]*device.Notification, 0)

	if prev.On != cur.On {
		kind := enums.NotifyPowerOff
		if cur.On {
			kind = enums.NotifyPowerOn
		}

		result = append(result, &device.Notification{Kind: kind, FromSysInfo: true, On: cur.On})
	}

	if class == enums.ClassBulb {
		light := &device.LightState{
			On:         cur.On,
			Hue:        cur.Hue,
			Saturation: cur.Saturation,
			ColorTemp:  cur.ColorTemp,
			Brightness: cur.Brightness,
		}

		if *prev != *cur {
			result = append(result, &device.Notification{Kind: enums.NotifyLightStateChange,
				FromSysInfo: true, On: cur.On, Light: light})
		}

		return append(result, &device.Notification{Kind: enums.NotifyLightStateUpdate,
			FromSysInfo: true, On: cur.On, Light: light})
	}

	result = append(result, &device.Notification{Kind: enums.NotifyPowerUpdate, FromSysInfo: true,
		On: cur.On, Brightness: cur.Brightness})

	if prev.InUse != cur.InUse {
		kind := enums.NotifyNotInUse
		if cur.InUse {
			kind = enums.NotifyInUse
		}

		result = append(result, &device.Notification{Kind: kind, FromSysInfo: true, InUse: cur.InUse})
	}

	return append(result, &device.Notification{Kind: enums.NotifyInUseUpdate, FromSysInfo: true, InUse: cur.InUse})
}
