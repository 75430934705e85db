package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go-home.io/x/kasa/plugins/device/enums"
)

// Tests commands derived from interfaces.
func TestAllowedCommands(t *testing.T) {
	in := []struct {
		interfaces []enums.Interface
		commands   []string
	}{
		{nil, []string{}},
		{[]enums.Interface{enums.IfaceOnline}, []string{}},
		{[]enums.Interface{enums.IfaceOnOff, enums.IfaceRefresh}, []string{"off", "on", "refresh"}},
		{[]enums.Interface{enums.IfaceColorSettingHsv, enums.IfaceColorSettingTemperature},
			[]string{"set-color-temperature", "set-hsv"}},
	}

	for _, v := range in {
		assert.Equal(t, v.commands, allowedCommands(v.interfaces))
	}
}
