package kasa

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"github.com/savaki/jq"
	"go-home.io/x/kasa/plugins/device"
	"go-home.io/x/kasa/plugins/device/enums"
)

// Pre-compiled sysinfo selector.
var sysInfoOp jq.Op

func init() {
	op, err := jq.Parse(".system.get_sysinfo")
	if err != nil {
		panic("failed to compile sysinfo selector")
	}

	sysInfoOp = op
}

// Outlet of a multi-outlet device.
type childInfo struct {
	ID    string `json:"id"`
	State int    `json:"state"`
	Alias string `json:"alias"`
}

// Raw bulb light state.
type rawLightState struct {
	OnOff      int            `json:"on_off"`
	Hue        int            `json:"hue"`
	Saturation int            `json:"saturation"`
	ColorTemp  int            `json:"color_temp"`
	Brightness int            `json:"brightness"`
	DftOnState *rawLightState `json:"dft_on_state"`
	ErrCode    int            `json:"err_code"`
}

// Raw get_sysinfo response.
type sysInfo struct {
	Alias               string         `json:"alias"`
	DeviceID            string         `json:"deviceId"`
	Model               string         `json:"model"`
	MAC                 string         `json:"mac"`
	MicMAC              string         `json:"mic_mac"`
	Type                string         `json:"type"`
	MicType             string         `json:"mic_type"`
	SoftwareVersion     string         `json:"sw_ver"`
	HardwareVersion     string         `json:"hw_ver"`
	RelayState          *int           `json:"relay_state"`
	Brightness          *int           `json:"brightness"`
	Children            []*childInfo   `json:"children"`
	IsDimmable          int            `json:"is_dimmable"`
	IsColor             int            `json:"is_color"`
	IsVariableColorTemp int            `json:"is_variable_color_temp"`
	LightState          *rawLightState `json:"light_state"`
}

// ParseSysInfo decodes get_sysinfo response into descriptors.
// Multi-outlet devices produce one descriptor per outlet.
func ParseSysInfo(host string, port int, payload []byte) ([]*device.Descriptor, error) {
	data, err := sysInfoOp.Apply(payload)
	if err != nil {
		return nil, &ErrMalformedResponse{Reason: "sysinfo is missing"}
	}

	info := &sysInfo{}
	if err := json.Unmarshal(data, info); err != nil {
		return nil, errors.Wrap(&ErrMalformedResponse{Reason: "sysinfo is not an object"}, err.Error())
	}

	if info.DeviceID == "" {
		return nil, &ErrEmptyIdentity{Host: host}
	}

	base := &device.Descriptor{
		ID:              info.DeviceID,
		Host:            host,
		Port:            port,
		Class:           detectClass(info),
		Alias:           info.Alias,
		Model:           info.Model,
		MAC:             info.MAC,
		HardwareVersion: info.HardwareVersion,
		FirmwareVersion: info.SoftwareVersion,
	}

	if base.MAC == "" {
		base.MAC = info.MicMAC
	}

	switch base.Class {
	case enums.ClassPlug:
		return parsePlug(base, info), nil
	case enums.ClassBulb:
		parseBulb(base, info)
	}

	return []*device.Descriptor{base}, nil
}

// Detects device class from the reported type.
func detectClass(info *sysInfo) enums.DeviceClass {
	t := strings.ToLower(info.Type)
	if t == "" {
		t = strings.ToLower(info.MicType)
	}

	switch {
	case strings.Contains(t, "plug"):
		return enums.ClassPlug
	case strings.Contains(t, "bulb"):
		return enums.ClassBulb
	}

	return enums.ClassUnknown
}

// Fills plug descriptor, splitting power strips into outlets.
func parsePlug(base *device.Descriptor, info *sysInfo) []*device.Descriptor {
	if nil != info.Brightness {
		base.Features.Dimmable = true
		base.State.Brightness = *info.Brightness
	}

	if len(info.Children) == 0 {
		base.State.On = nil != info.RelayState && 1 == *info.RelayState
		base.State.InUse = base.State.On
		return []*device.Descriptor{base}
	}

	result := make([]*device.Descriptor, 0, len(info.Children))
	for _, c := range info.Children {
		d := *base
		d.ParentID = info.DeviceID
		d.ChildID = normalizeChildID(info.DeviceID, c.ID)
		d.ID = d.ChildID
		d.State.On = 1 == c.State
		d.State.InUse = d.State.On
		if c.Alias != "" {
			d.Alias = c.Alias
		}

		result = append(result, &d)
	}

	return result
}

// Short child IDs are suffixes of the parent identity.
func normalizeChildID(parentID string, childID string) string {
	if len(childID) == 1 {
		childID = "0" + childID
	}

	if len(childID) == 2 {
		return parentID + childID
	}

	return childID
}

// Fills bulb descriptor.
func parseBulb(base *device.Descriptor, info *sysInfo) {
	base.Features = device.Features{
		Dimmable:         1 == info.IsDimmable,
		Color:            1 == info.IsColor,
		ColorTemperature: 1 == info.IsVariableColorTemp,
	}

	if base.Features.ColorTemperature {
		base.TemperatureRange = ColorTemperatureRange(info.Model)
	}

	if nil == info.LightState {
		return
	}

	ls := toLightState(info.LightState)
	base.State.On = ls.On
	base.State.Brightness = ls.Brightness
	base.State.Hue = ls.Hue
	base.State.Saturation = ls.Saturation
	base.State.ColorTemp = ls.ColorTemp
}

// Converts raw light state. Bulbs which are off report values in dft_on_state.
func toLightState(raw *rawLightState) *device.LightState {
	src := raw
	if 0 == raw.OnOff && nil != raw.DftOnState {
		src = raw.DftOnState
	}

	return &device.LightState{
		On:         1 == raw.OnOff,
		Hue:        src.Hue,
		Saturation: src.Saturation,
		ColorTemp:  src.ColorTemp,
		Brightness: src.Brightness,
	}
}
