package enums

// EventKind describes enum with discovery event kinds.
type EventKind int

const (
	// EventNew describes first sighting of the identity.
	EventNew EventKind = iota
	// EventOnline describes repeated sighting: still online or back online.
	EventOnline
	// EventOffline describes identity which stopped responding.
	EventOffline
)

var eventKindNames = []string{"new", "online", "offline"}

// String returns event kind name.
func (i EventKind) String() string {
	return enumName(eventKindNames, int(i), "EventKind")
}

// NotificationKind describes enum with asynchronous device notifications.
type NotificationKind int

const (
	// NotifyPowerOn describes device which was turned on.
	NotifyPowerOn NotificationKind = iota
	// NotifyPowerOff describes device which was turned off.
	NotifyPowerOff
	// NotifyPowerUpdate describes periodic power state report.
	NotifyPowerUpdate
	// NotifyInUse describes plug which started to draw power.
	NotifyInUse
	// NotifyNotInUse describes plug which stopped to draw power.
	NotifyNotInUse
	// NotifyInUseUpdate describes periodic in-use report.
	NotifyInUseUpdate
	// NotifyLightStateChange describes changed bulb light state.
	NotifyLightStateChange
	// NotifyLightStateUpdate describes periodic bulb light state report.
	NotifyLightStateUpdate
)

var notificationKindNames = []string{"power-on", "power-off", "power-update", "in-use", "not-in-use",
	"in-use-update", "lightstate-change", "lightstate-update"}

// String returns notification name.
func (i NotificationKind) String() string {
	return enumName(notificationKindNames, int(i), "NotificationKind")
}

// NotificationKindString returns notification kind from its name.
func NotificationKindString(s string) (NotificationKind, error) {
	v, err := enumValue(notificationKindNames, s, "NotificationKind")
	return NotificationKind(v), err
}
