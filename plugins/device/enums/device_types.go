package enums

// DeviceType describes enum with device types known to the directory.
type DeviceType int

const (
	// DevUnknown describes unknown device type.
	DevUnknown DeviceType = iota
	// DevOutlet describes smart plug device type.
	DevOutlet
	// DevSwitch describes wall switch or dimmer device type.
	DevSwitch
	// DevLight describes lights device type.
	DevLight
)

var deviceTypeNames = []string{"unknown", "outlet", "switch", "light"}

// String returns device type name.
func (i DeviceType) String() string {
	return enumName(deviceTypeNames, int(i), "DeviceType")
}

// DeviceTypeString returns device type from its name.
func DeviceTypeString(s string) (DeviceType, error) {
	v, err := enumValue(deviceTypeNames, s, "DeviceType")
	return DeviceType(v), err
}

// MarshalJSON implements the json.Marshaler interface.
func (i DeviceType) MarshalJSON() ([]byte, error) {
	return marshalName(i.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (i *DeviceType) UnmarshalJSON(data []byte) error {
	v, err := unmarshalName(data, deviceTypeNames, "DeviceType")
	*i = DeviceType(v)
	return err
}
