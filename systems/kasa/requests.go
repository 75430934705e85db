package kasa

import (
	"encoding/json"

	"github.com/pkg/errors"
)

const (
	moduleSystem   = "system"
	moduleDimmer   = "smartlife.iot.dimmer"
	moduleLighting = "smartlife.iot.smartbulb.lightingservice"

	methodSysInfo         = "get_sysinfo"
	methodSetRelayState   = "set_relay_state"
	methodSetBrightness   = "set_brightness"
	methodGetLightState   = "get_light_state"
	methodTransitionLight = "transition_light_state"
)

// Status part of every method response.
type methodStatus struct {
	ErrCode int    `json:"err_code"`
	ErrMsg  string `json:"err_msg"`
}

// SysInfoRequest returns plain get_sysinfo request.
func SysInfoRequest() []byte {
	return buildRequest("", moduleSystem, methodSysInfo, struct{}{})
}

// Builds request payload. Outlets of multi-outlet devices are addressed through the context.
func buildRequest(childID string, module string, method string, params interface{}) []byte {
	req := map[string]interface{}{
		module: map[string]interface{}{
			method: params,
		},
	}

	if childID != "" {
		req["context"] = map[string]interface{}{
			"child_ids": []string{childID},
		}
	}

	data, err := json.Marshal(req)
	if err != nil {
		panic("failed to marshal request: " + err.Error())
	}

	return data
}

// Extracts method response and checks its error code.
func parseResponse(data []byte, module string, method string) ([]byte, error) {
	root := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrap(&ErrMalformedResponse{Reason: "response is not an object"}, err.Error())
	}

	rawModule, ok := root[module]
	if !ok {
		return nil, &ErrMalformedResponse{Reason: module + " is missing"}
	}

	methods := make(map[string]json.RawMessage)
	if err := json.Unmarshal(rawModule, &methods); err != nil {
		return nil, errors.Wrap(&ErrMalformedResponse{Reason: module + " is not an object"}, err.Error())
	}

	rawMethod, ok := methods[method]
	if !ok {
		status := &methodStatus{}
		if err := json.Unmarshal(rawModule, status); err == nil && status.ErrCode != 0 {
			return nil, &ErrCommandRejected{Module: module, Method: method, Code: status.ErrCode, Msg: status.ErrMsg}
		}

		return nil, &ErrMalformedResponse{Reason: method + " is missing"}
	}

	status := &methodStatus{}
	if err := json.Unmarshal(rawMethod, status); err != nil {
		return nil, errors.Wrap(&ErrMalformedResponse{Reason: method + " is not an object"}, err.Error())
	}

	if status.ErrCode != 0 {
		return nil, &ErrCommandRejected{Module: module, Method: method, Code: status.ErrCode, Msg: status.ErrMsg}
	}

	return rawMethod, nil
}

// Converts flag into device representation.
func boolToInt(v bool) int {
	if v {
		return 1
	}

	return 0
}
