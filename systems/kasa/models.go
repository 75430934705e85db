package kasa

import (
	"strings"

	"go-home.io/x/kasa/plugins/device"
)

// Known color temperature ranges by model prefix.
var temperatureRanges = []struct {
	prefixes []string
	min      int
	max      int
}{
	{prefixes: []string{"LB130", "KL130", "KL430"}, min: 2500, max: 9000},
	{prefixes: []string{"LB120", "KL120"}, min: 2700, max: 6500},
	{prefixes: []string{"KL125", "KL135", "KL50", "KL60"}, min: 2500, max: 6500},
	{prefixes: []string{"LB230"}, min: 2500, max: 9000},
}

// ColorTemperatureRange returns supported range for the model.
// Unknown models with variable color temperature get the common 2700-6500 range.
func ColorTemperatureRange(model string) *device.TemperatureRange {
	model = strings.ToUpper(model)
	for _, v := range temperatureRanges {
		for _, p := range v.prefixes {
			if strings.HasPrefix(model, p) {
				return &device.TemperatureRange{Min: v.min, Max: v.max}
			}
		}
	}

	return &device.TemperatureRange{Min: 2700, Max: 6500}
}
