package enums

import "sort"

// Interface describes enum with capabilities exposed to the directory.
type Interface int

const (
	// IfaceOnOff describes power control.
	IfaceOnOff Interface = iota
	// IfaceSettings describes per-device settings.
	IfaceSettings
	// IfaceOnline describes online status reporting.
	IfaceOnline
	// IfaceRefresh describes on-demand state refresh.
	IfaceRefresh
	// IfacePowerSensor describes in-use detection.
	IfacePowerSensor
	// IfaceBrightness describes brightness control.
	IfaceBrightness
	// IfaceColorSettingHsv describes hue/saturation control.
	IfaceColorSettingHsv
	// IfaceColorSettingTemperature describes color temperature control.
	IfaceColorSettingTemperature
)

var interfaceNames = []string{"OnOff", "Settings", "Online", "Refresh", "PowerSensor", "Brightness",
	"ColorSettingHsv", "ColorSettingTemperature"}

// String returns interface name.
func (i Interface) String() string {
	return enumName(interfaceNames, int(i), "Interface")
}

// InterfaceString returns interface from its name.
func InterfaceString(s string) (Interface, error) {
	v, err := enumValue(interfaceNames, s, "Interface")
	return Interface(v), err
}

// MarshalJSON implements the json.Marshaler interface.
func (i Interface) MarshalJSON() ([]byte, error) {
	return marshalName(i.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (i *Interface) UnmarshalJSON(data []byte) error {
	v, err := unmarshalName(data, interfaceNames, "Interface")
	*i = Interface(v)
	return err
}

// SliceContainsInterface checks whether slice contains certain interface.
func SliceContainsInterface(s []Interface, e Interface) bool {
	for _, a := range s {
		if a == e {
			return true
		}
	}
	return false
}

// MergeInterfaces returns sorted union of both sets and a flag
// indicating whether anything from add was missing in base.
func MergeInterfaces(base []Interface, add []Interface) ([]Interface, bool) {
	grown := false
	result := make([]Interface, len(base), len(base)+len(add))
	copy(result, base)

	for _, v := range add {
		if SliceContainsInterface(result, v) {
			continue
		}

		result = append(result, v)
		grown = true
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i] < result[j]
	})

	return result, grown
}
