package device

import "go-home.io/x/kasa/plugins/device/enums"

// State contains cached snapshot of the logical device.
// This is the only data read by the directory.
type State struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Class         enums.DeviceClass `json:"class"`
	Host          string            `json:"host"`
	Port          int               `json:"port"`
	Online        bool              `json:"online"`
	On            bool              `json:"on"`
	Dimmable      bool              `json:"dimmable"`
	Brightness    int               `json:"brightness,omitempty"`
	Hue           int               `json:"hue,omitempty"`
	Saturation    int               `json:"saturation,omitempty"`
	Value         int               `json:"value,omitempty"`
	ColorTemp     int               `json:"color_temp,omitempty"`
	PowerDetected bool              `json:"power_detected,omitempty"`
}
