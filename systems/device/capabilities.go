package device

import (
	"go-home.io/x/kasa/plugins/device"
	"go-home.io/x/kasa/plugins/device/enums"
)

// Capabilities returns interfaces exposed by the described unit.
// Result is sorted and depends only on the class and feature flags.
func Capabilities(desc *device.Descriptor) []enums.Interface {
	result := []enums.Interface{enums.IfaceOnOff, enums.IfaceSettings, enums.IfaceOnline, enums.IfaceRefresh}

	switch desc.Class {
	case enums.ClassPlug:
		result = append(result, enums.IfacePowerSensor)
		if desc.Features.Dimmable {
			result = append(result, enums.IfaceBrightness)
		}
	case enums.ClassBulb:
		if desc.Features.Dimmable {
			result = append(result, enums.IfaceBrightness)
		}
		if desc.Features.Color {
			result = append(result, enums.IfaceColorSettingHsv)
		}
		if desc.Features.ColorTemperature {
			result = append(result, enums.IfaceColorSettingTemperature)
		}
	}

	sorted, _ := enums.MergeInterfaces(nil, result)
	return sorted
}

// DirectoryType returns device type announced to the directory.
func DirectoryType(desc *device.Descriptor) enums.DeviceType {
	return desc.Class.DirectoryType(desc.Features.Dimmable)
}
