package enums

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Tests whether interfaces slice properly handles contains method.
func TestSliceInterfacesContains(t *testing.T) {
	ifaces := []Interface{IfaceOnOff, IfaceBrightness, IfaceRefresh}
	for _, v := range ifaces {
		assert.True(t, SliceContainsInterface(ifaces, v), v.String())
	}

	assert.False(t, SliceContainsInterface(ifaces, IfaceColorSettingHsv))
}

// Tests that merge keeps order and reports growth.
func TestMergeInterfaces(t *testing.T) {
	base := []Interface{IfaceOnOff, IfaceSettings, IfaceOnline}

	merged, grown := MergeInterfaces(base, []Interface{IfaceOnline, IfaceOnOff})
	assert.False(t, grown)
	assert.Equal(t, base, merged)

	merged, grown = MergeInterfaces(base, []Interface{IfaceBrightness, IfaceRefresh})
	assert.True(t, grown)
	assert.Equal(t, []Interface{IfaceOnOff, IfaceSettings, IfaceOnline, IfaceRefresh, IfaceBrightness}, merged)
	assert.Equal(t, 3, len(base), "base must not be modified")
}

// Tests that merge never drops anything from the base set.
func TestMergeInterfacesNeverShrinks(t *testing.T) {
	merged, grown := MergeInterfaces([]Interface{IfaceColorSettingTemperature, IfaceOnOff}, nil)
	assert.False(t, grown)
	assert.Equal(t, []Interface{IfaceOnOff, IfaceColorSettingTemperature}, merged)
}

// Tests whether allowed commands are calculated properly.
func TestCommandAllowed(t *testing.T) {
	caps := []Interface{IfaceOnOff, IfaceRefresh}

	assert.True(t, CmdOn.IsCommandAllowed(caps))
	assert.True(t, CmdOff.IsCommandAllowed(caps))
	assert.True(t, CmdRefresh.IsCommandAllowed(caps))
	assert.False(t, CmdSetBrightness.IsCommandAllowed(caps))
	assert.False(t, CmdSetHsv.IsCommandAllowed(caps))
	assert.False(t, Command(42).IsCommandAllowed(caps))
}

// Tests command names conversion.
func TestCommandConversions(t *testing.T) {
	data := []struct {
		in  string
		cmd Command
	}{
		{in: "on", cmd: CmdOn},
		{in: "OFF", cmd: CmdOff},
		{in: "set-hsv", cmd: CmdSetHsv},
		{in: "Set-Color-Temperature", cmd: CmdSetColorTemperature},
	}

	for _, v := range data {
		cmd, err := CommandString(v.in)
		require.NoError(t, err, v.in)
		assert.Equal(t, v.cmd, cmd, v.in)
	}

	_, err := CommandString("toggle")
	assert.Error(t, err)
}

// Tests out of range enum values.
func TestOutOfRangeNames(t *testing.T) {
	assert.Equal(t, "DeviceType(10)", DeviceType(10).String())
	assert.Equal(t, "Interface(-1)", Interface(-1).String())
	assert.Equal(t, "new", EventNew.String())
	assert.Equal(t, "lightstate-update", NotifyLightStateUpdate.String())
}

// Tests directory type derivation.
func TestDirectoryType(t *testing.T) {
	assert.Equal(t, DevOutlet, ClassPlug.DirectoryType(false))
	assert.Equal(t, DevSwitch, ClassPlug.DirectoryType(true))
	assert.Equal(t, DevLight, ClassBulb.DirectoryType(false))
	assert.Equal(t, DevLight, ClassBulb.DirectoryType(true))
	assert.Equal(t, DevUnknown, ClassUnknown.DirectoryType(true))
}

// Tests json serialization of enums.
func TestEnumsJSON(t *testing.T) {
	type payload struct {
		Type   DeviceType  `json:"type"`
		Class  DeviceClass `json:"class"`
		Ifaces []Interface `json:"interfaces"`
	}

	p := &payload{Type: DevSwitch, Class: ClassPlug, Ifaces: []Interface{IfaceOnOff, IfaceBrightness}}
	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Equal(t, `{"type":"switch","class":"plug","interfaces":["OnOff","Brightness"]}`, string(data))

	decoded := &payload{}
	require.NoError(t, json.Unmarshal(data, decoded))
	assert.Equal(t, p, decoded)
}

// Tests json errors.
func TestEnumsJSONErrors(t *testing.T) {
	var dt DeviceType
	assert.Error(t, json.Unmarshal([]byte(`"fridge"`), &dt))
	assert.Error(t, json.Unmarshal([]byte(`12`), &dt))

	var iface Interface
	assert.Error(t, json.Unmarshal([]byte(`"Scenes"`), &iface))
}
