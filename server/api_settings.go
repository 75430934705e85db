package server

import (
	"encoding/json"
	"io/ioutil"
	"net/http"

	"go-home.io/x/kasa/plugins/common"
	"go-home.io/x/kasa/providers"
)

// Returns active discovery settings.
func (s *KasaServer) getDiscoverySettings(writer http.ResponseWriter, _ *http.Request) {
	respond(writer, s.reconciler.DiscoverySettings())
}

// Replaces discovery settings and restarts discovery.
func (s *KasaServer) setDiscoverySettings(writer http.ResponseWriter, request *http.Request) {
	settings := &providers.DiscoverySettings{}
	b, _ := ioutil.ReadAll(request.Body)
	if err := json.Unmarshal(b, settings); err != nil {
		s.Logger.Warn("Failed to unmarshal discovery settings", common.LogSystemToken, logSystem,
			common.LogErrorToken, err.Error())
		err := &ErrBadRequest{}
		respondError(writer, errorStatus(err), err.Error())
		return
	}

	err := s.reconciler.Reconfigure(settings)
	if err == nil {
		s.Logger.Info("Discovery settings were updated", common.LogSystemToken, logSystem,
			common.LogUserNameToken, getContextUser(request))
	}

	respondOkError(writer, err)
}
