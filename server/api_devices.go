package server

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go-home.io/x/kasa/plugins/common"
)

// Response on a created device.
type createdDevice struct {
	ID string `json:"id"`
}

// Returns all announced devices.
func (s *KasaServer) getDevices(writer http.ResponseWriter, _ *http.Request) {
	devices := s.directory.GetAllDevices()
	states := make(map[string]int, len(devices))
	for i, v := range devices {
		states[v.ID] = i
	}

	for _, v := range s.reconciler.Devices() {
		if i, ok := states[v.ID]; ok {
			devices[i].State = v
		}
	}

	respond(writer, devices)
}

// Returns single announced device.
func (s *KasaServer) getDevice(writer http.ResponseWriter, request *http.Request) {
	id := mux.Vars(request)[string(urlDeviceID)]
	kd := s.directory.GetDevice(id)
	if nil == kd {
		err := &ErrUnknownDevice{ID: id}
		respondError(writer, errorStatus(err), err.Error())
		return
	}

	if handle, err := s.reconciler.Device(id); err == nil {
		kd.State = handle.State()
	}

	respond(writer, kd)
}

// Creates device by its address.
func (s *KasaServer) createDevice(writer http.ResponseWriter, request *http.Request) {
	address := &common.Address{}
	b, _ := ioutil.ReadAll(request.Body)
	if err := json.Unmarshal(b, address); err != nil || !s.Settings.Validator().Validate(address) {
		s.Logger.Warn("Received wrong device address", common.LogSystemToken, logSystem,
			common.LogUserNameToken, getContextUser(request))
		err := &ErrBadRequest{}
		respondError(writer, errorStatus(err), err.Error())
		return
	}

	timeout := 2*s.reconciler.DiscoverySettings().TimeoutDuration() + time.Second
	ctx, cancel := context.WithTimeout(request.Context(), timeout)
	defer cancel()

	id, err := s.reconciler.CreateDevice(ctx, address.Address, address.Port)
	if err != nil {
		respondError(writer, errorStatus(err), err.Error())
		return
	}

	s.Logger.Info("Created device by address", common.LogSystemToken, logSystem,
		common.LogDeviceIDToken, id, common.LogDeviceHostToken, address.Address,
		common.LogUserNameToken, getContextUser(request))
	respond(writer, &createdDevice{ID: id})
}

// Executes device command.
func (s *KasaServer) deviceCommand(writer http.ResponseWriter, request *http.Request) {
	vars := mux.Vars(request)
	b, _ := ioutil.ReadAll(request.Body)
	respondOkError(writer, s.commandInvokeDeviceCommand(request.Context(), getContextUser(request),
		vars[string(urlDeviceID)], vars[string(urlCommandName)], b))
}
