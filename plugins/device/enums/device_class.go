package enums

// DeviceClass describes enum with device classes reported by the device itself.
type DeviceClass int

const (
	// ClassUnknown describes device which reported unknown type.
	ClassUnknown DeviceClass = iota
	// ClassPlug describes plug-like device: plugs, power strips, wall switches.
	ClassPlug
	// ClassBulb describes bulb-like device: bulbs and light strips.
	ClassBulb
)

var deviceClassNames = []string{"unknown", "plug", "bulb"}

// String returns device class name.
func (i DeviceClass) String() string {
	return enumName(deviceClassNames, int(i), "DeviceClass")
}

// DeviceClassString returns device class from its name.
func DeviceClassString(s string) (DeviceClass, error) {
	v, err := enumValue(deviceClassNames, s, "DeviceClass")
	return DeviceClass(v), err
}

// MarshalJSON implements the json.Marshaler interface.
func (i DeviceClass) MarshalJSON() ([]byte, error) {
	return marshalName(i.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (i *DeviceClass) UnmarshalJSON(data []byte) error {
	v, err := unmarshalName(data, deviceClassNames, "DeviceClass")
	*i = DeviceClass(v)
	return err
}

// DirectoryType returns type announced to the directory.
// Dimmable plugs are wall dimmers and exposed as switches.
func (i DeviceClass) DirectoryType(dimmable bool) DeviceType {
	switch i {
	case ClassPlug:
		if dimmable {
			return DevSwitch
		}
		return DevOutlet
	case ClassBulb:
		return DevLight
	}

	return DevUnknown
}
