package device

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"go-home.io/x/kasa/plugins/common"
	"go-home.io/x/kasa/plugins/device/enums"
)

// InvokeCommand performs a call to the device.
// Params are decoded into the typed command argument and validated first.
func (w *Wrapper) InvokeCommand(ctx context.Context, cmd enums.Command, params map[string]interface{}) error {
	if !cmd.IsCommandAllowed(w.Capabilities()) {
		w.logger.Warn("Device doesn't support this command",
			common.LogDeviceIDToken, w.id, common.LogDeviceCommandToken, cmd.String())
		return &ErrNotSupported{ID: w.id, Operation: cmd.String()}
	}

	w.logger.Debug("Invoking device command",
		common.LogDeviceIDToken, w.id, common.LogDeviceCommandToken, cmd.String())

	switch cmd {
	case enums.CmdOn:
		return w.TurnOn(ctx)
	case enums.CmdOff:
		return w.TurnOff(ctx)
	case enums.CmdRefresh:
		return w.Refresh(ctx)
	case enums.CmdSetBrightness:
		p := &common.Percent{}
		if err := w.decodeParams(cmd, params, p); err != nil {
			return err
		}
		return w.SetBrightness(ctx, int(p.Value))
	case enums.CmdSetHsv:
		p := &common.HSV{Value: defaultHSVValue}
		if err := w.decodeParams(cmd, params, p); err != nil {
			return err
		}
		return w.SetHSV(ctx, p.Hue, p.Saturation, p.Value)
	case enums.CmdSetColorTemperature:
		p := &common.Int{}
		if err := w.decodeParams(cmd, params, p); err != nil {
			return err
		}
		return w.SetColorTemperature(ctx, p.Value)
	}

	return &ErrNotSupported{ID: w.id, Operation: cmd.String()}
}

// Converts generic params into the typed command argument.
func (w *Wrapper) decodeParams(cmd enums.Command, params map[string]interface{}, obj interface{}) error {
	data, err := json.Marshal(params)
	if err != nil {
		w.logger.Error("Got error while marshalling data for device command", err,
			common.LogDeviceIDToken, w.id, common.LogDeviceCommandToken, cmd.String())
		return errors.Wrap(err, "marshal params")
	}

	if err := json.Unmarshal(data, obj); err != nil {
		w.logger.Error("Got error while preparing data for device command", err,
			common.LogDeviceIDToken, w.id, common.LogDeviceCommandToken, cmd.String())
		return errors.Wrap(err, "unmarshal params")
	}

	if w.validator != nil && !w.validator.Validate(obj) {
		w.logger.Warn("Received incorrect command params",
			common.LogDeviceIDToken, w.id, common.LogDeviceCommandToken, cmd.String())
		return &ErrInvalidParams{Command: cmd.String()}
	}

	return nil
}
