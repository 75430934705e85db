// Package common contains shared data available for all kasa components.
package common

// Int defines simple integer parameter type.
type Int struct {
	Value int `json:"value" validate:"required"`
}

// Percent defines percent parameter type.
type Percent struct {
	Value uint8 `json:"value" validate:"percent"`
}

// HSV defines hue, saturation and value parameter type.
type HSV struct {
	Hue        int `json:"hue" validate:"gte=0,lte=360"`
	Saturation int `json:"saturation" validate:"percent"`
	Value      int `json:"value" validate:"percent"`
}

// Address defines device address parameter type.
type Address struct {
	Address string `json:"address" validate:"required"`
	Port    int    `json:"port" validate:"omitempty,port" default:"9999"`
}
