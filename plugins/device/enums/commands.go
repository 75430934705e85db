// Package enums contains various enumerations and rules for kasa devices.
package enums

import "strings"

// Command describes enum with known device commands.
type Command int

const (
	// CmdOn describes turning on command.
	CmdOn Command = iota
	// CmdOff describes turning off command.
	CmdOff
	// CmdSetBrightness describes changing brightness command.
	CmdSetBrightness
	// CmdSetHsv describes changing hue, saturation and value command.
	CmdSetHsv
	// CmdSetColorTemperature describes changing color temperature command.
	CmdSetColorTemperature
	// CmdRefresh describes re-reading device state command.
	CmdRefresh
)

var commandNames = []string{"on", "off", "set-brightness", "set-hsv", "set-color-temperature", "refresh"}

// RequiredInterfaces contains interface which device must announce to accept the command.
var RequiredInterfaces = map[Command]Interface{
	CmdOn:                  IfaceOnOff,
	CmdOff:                 IfaceOnOff,
	CmdSetBrightness:       IfaceBrightness,
	CmdSetHsv:              IfaceColorSettingHsv,
	CmdSetColorTemperature: IfaceColorSettingTemperature,
	CmdRefresh:             IfaceRefresh,
}

// String returns command name.
func (i Command) String() string {
	return enumName(commandNames, int(i), "Command")
}

// CommandString returns command from its name.
// Lookup is case insensitive.
func CommandString(s string) (Command, error) {
	v, err := enumValue(commandNames, strings.ToLower(s), "Command")
	return Command(v), err
}

// IsCommandAllowed checks whether command is allowed for the announced capabilities.
func (i Command) IsCommandAllowed(capabilities []Interface) bool {
	iface, ok := RequiredInterfaces[i]
	if !ok {
		return false
	}

	return SliceContainsInterface(capabilities, iface)
}
