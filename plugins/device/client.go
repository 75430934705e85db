package device

import (
	"context"

	"go-home.io/x/kasa/plugins/device/enums"
)

// IClient defines a live connection to a single controllable unit.
type IClient interface {
	GetPowerState(context.Context) (bool, error)
	SetPowerState(ctx context.Context, on bool) error
	SetBrightness(ctx context.Context, brightness int) error
	GetLightState(context.Context) (*LightState, error)
	SetLightState(context.Context, *LightStatePatch) error
	ColorTemperatureRange() *TemperatureRange
	Subscribe() <-chan *Notification
	Unsubscribe()
	Close()
}

// Notification contains asynchronous update received from the device.
// Light is populated only for light state notifications.
type Notification struct {
	Kind        enums.NotificationKind
	FromSysInfo bool
	On          bool
	InUse       bool
	Brightness  int
	Light       *LightState
}
