package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/suite"
	"go-home.io/x/kasa/providers"
	"go-home.io/x/kasa/worker"
)

type DiscoverySettingsTestSuite struct {
	suite.Suite
	env *testServer
}

func (s *DiscoverySettingsTestSuite) SetupTest() {
	s.env = newTestServer(nil, nil)
}

func (s *DiscoverySettingsTestSuite) TearDownTest() {
	s.env.http.Close()
}

// Tests active settings are returned.
func (s *DiscoverySettingsTestSuite) TestGet() {
	settings := &providers.DiscoverySettings{}
	s.Require().Equal(http.StatusOK, s.env.get(s.T(), "/api/v1/settings/discovery", settings))
	s.Equal(providers.TransportUDP, settings.Transport)
	s.Equal(9999, settings.Port)
}

// Tests settings are replaced.
func (s *DiscoverySettingsTestSuite) TestPut() {
	code, _ := s.env.do(s.T(), http.MethodPut, "/api/v1/settings/discovery",
		`{"transport": "tcp", "scanNetwork": "192.168.0.0/24", "interval": 30}`)
	s.Require().Equal(http.StatusOK, code)

	applied := s.env.reconciler.DiscoverySettings()
	s.Equal(providers.TransportTCP, applied.Transport)
	s.Equal("192.168.0.0/24", applied.ScanNetwork)
	s.Equal(30, applied.Interval)
}

// Tests malformed body.
func (s *DiscoverySettingsTestSuite) TestPutMalformed() {
	old := s.env.reconciler.DiscoverySettings()
	code, _ := s.env.do(s.T(), http.MethodPut, "/api/v1/settings/discovery", `{"transport": `)
	s.Equal(http.StatusBadRequest, code)
	s.Equal(old, s.env.reconciler.DiscoverySettings())
}

// Tests rejected settings.
func (s *DiscoverySettingsTestSuite) TestPutRejected() {
	old := s.env.reconciler.DiscoverySettings()
	s.env.reconciler.reconfigureErr = &worker.ErrInvalidSettings{}

	code, _ := s.env.do(s.T(), http.MethodPut, "/api/v1/settings/discovery", `{"transport": "smoke"}`)
	s.Equal(http.StatusBadRequest, code)
	s.Equal(old, s.env.reconciler.DiscoverySettings())
}

// Tests discovery settings API.
func TestDiscoverySettingsTestSuite(t *testing.T) {
	suite.Run(t, new(DiscoverySettingsTestSuite))
}
