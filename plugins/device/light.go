package device

// LightState contains bulb light state.
type LightState struct {
	On         bool `json:"on_off"`
	Hue        int  `json:"hue"`
	Saturation int  `json:"saturation"`
	ColorTemp  int  `json:"color_temp"`
	Brightness int  `json:"brightness"`
}

// LightStatePatch contains light state fields which should be changed.
// Nil fields are not sent to the device.
type LightStatePatch struct {
	On         *bool `json:"on_off,omitempty"`
	Hue        *int  `json:"hue,omitempty"`
	Saturation *int  `json:"saturation,omitempty"`
	ColorTemp  *int  `json:"color_temp,omitempty"`
	Brightness *int  `json:"brightness,omitempty"`
}

// IntPtr is a helper for building patches.
func IntPtr(v int) *int {
	return &v
}

// BoolPtr is a helper for building patches.
func BoolPtr(v bool) *bool {
	return &v
}
