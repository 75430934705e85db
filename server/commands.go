package server

import (
	"context"
	"encoding/json"

	"go-home.io/x/kasa/plugins/common"
	"go-home.io/x/kasa/plugins/device/enums"
)

// Invokes device command on the logical device.
func (s *KasaServer) commandInvokeDeviceCommand(ctx context.Context, user string, deviceID string,
	opName string, data []byte) error {
	knownDevice := s.directory.GetDevice(deviceID)
	if nil == knownDevice {
		s.Logger.Warn("Failed to find device", common.LogSystemToken, logSystem,
			common.LogDeviceIDToken, deviceID, common.LogUserNameToken, user)
		return &ErrUnknownDevice{ID: deviceID}
	}

	command, err := enums.CommandString(opName)
	if err != nil {
		s.Logger.Warn("Received unknown command", common.LogSystemToken, logSystem,
			common.LogDeviceIDToken, deviceID, common.LogDeviceCommandToken, opName)
		return &ErrUnknownCommand{Name: opName}
	}

	if !knownDevice.IsCommandAllowed(command) {
		s.Logger.Warn("Received unsupported command", common.LogSystemToken, logSystem,
			common.LogDeviceIDToken, deviceID, common.LogDeviceCommandToken, opName)
		return &ErrUnsupportedCommand{Name: opName}
	}

	inputData := make(map[string]interface{})
	if len(data) > 0 {
		err := json.Unmarshal(data, &inputData)
		if err != nil {
			s.Logger.Error("Failed to unmarshal input request", err,
				common.LogSystemToken, logSystem)
			return &ErrBadRequest{}
		}
	}

	handle, err := s.reconciler.Device(deviceID)
	if err != nil {
		return err
	}

	s.Logger.Debug("Invoking device command", common.LogSystemToken, logSystem,
		common.LogDeviceIDToken, deviceID, common.LogDeviceCommandToken, command.String(),
		common.LogUserNameToken, user)
	return handle.InvokeCommand(ctx, command, inputData)
}
