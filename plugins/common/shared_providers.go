package common

import (
	"go-home.io/x/kasa/plugins/device"
	"go-home.io/x/kasa/plugins/device/enums"
)

// ILoggerProvider defines logger provider which will be passed to every component.
type ILoggerProvider interface {
	Debug(msg string, fields ...string)
	Info(msg string, fields ...string)
	Warn(msg string, fields ...string)
	Error(msg string, err error, fields ...string)
	Fatal(msg string, err error, fields ...string)
}

// MsgDeviceUpdate contains data with updates device's state.
type MsgDeviceUpdate struct {
	ID        string
	Name      string
	State     *device.State
	FirstSeen bool
	Type      enums.DeviceType
}

// IFanOutProvider defines interface used for distributing
// device updates even across all system.
type IFanOutProvider interface {
	SubscribeDeviceUpdates() (int64, chan *MsgDeviceUpdate)
	UnSubscribeDeviceUpdates(int64)
}
