// Package server contains kasa devices directory and its API.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go-home.io/x/kasa/plugins/common"
	"go-home.io/x/kasa/providers"
)

const (
	// Logger system representation.
	logSystem = "server"
	// Graceful shutdown timeout.
	shutdownTimeout = 5 * time.Second
)

// ConstructServer has data required for a new directory server.
type ConstructServer struct {
	Settings   providers.ISettingsProvider
	Reconciler providers.IReconcilerProvider
	Directory  *Directory
}

// KasaServer describes directory API server.
type KasaServer struct {
	sync.Mutex

	Settings providers.ISettingsProvider
	Logger   common.ILoggerProvider

	reconciler providers.IReconcilerProvider
	directory  *Directory
	users      map[string]string
	wsSettings websocket.Upgrader

	server   *http.Server
	address  string
	subID    int64
	shutdown bool
}

// NewServer constructs a new directory server.
func NewServer(ctor *ConstructServer) *KasaServer {
	users := make(map[string]string)
	for k, v := range ctor.Settings.ServerSettings().Users {
		users[k] = v
	}

	return &KasaServer{
		Settings:   ctor.Settings,
		Logger:     ctor.Settings.SystemLogger(),
		reconciler: ctor.Reconciler,
		directory:  ctor.Directory,
		users:      users,
		wsSettings: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Start launches directory API and starts listening for device updates.
func (s *KasaServer) Start() error {
	s.Lock()
	defer s.Unlock()

	if s.server != nil {
		return errors.New("server is already started")
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.Settings.ServerSettings().Port))
	if err != nil {
		return errors.Wrap(err, "listen")
	}

	var updates chan *common.MsgDeviceUpdate
	s.subID, updates = s.Settings.FanOut().SubscribeDeviceUpdates()
	go s.updatesCycle(updates)

	s.address = listener.Addr().String()
	s.server = &http.Server{Handler: s.handler()}
	go func(srv *http.Server) {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.Logger.Error("Server stopped unexpectedly", err, common.LogSystemToken, logSystem)
		}
	}(s.server)

	s.Logger.Info(fmt.Sprintf("Started server on %s", s.address), common.LogSystemToken, logSystem)
	return nil
}

// Stop gracefully shuts the API down.
func (s *KasaServer) Stop() {
	s.Lock()
	defer s.Unlock()

	if nil == s.server || s.shutdown {
		return
	}

	s.shutdown = true
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		s.Logger.Error("Failed to stop server", err, common.LogSystemToken, logSystem)
	}

	s.Settings.FanOut().UnSubscribeDeviceUpdates(s.subID)
	s.Logger.Info("Stopped server", common.LogSystemToken, logSystem)
}

// Address returns address the server listens on.
func (s *KasaServer) Address() string {
	s.Lock()
	defer s.Unlock()
	return s.address
}

// Builds http handler with all middlewares.
func (s *KasaServer) handler() http.Handler {
	router := mux.NewRouter()
	s.registerAPI(router)

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)

	return handlers.RecoveryHandler(handlers.RecoveryLogger(&recoveryLogger{logger: s.Logger}))(cors(router))
}

// All API registration.
func (s *KasaServer) registerAPI(router *mux.Router) {
	publicRouter := router.PathPrefix(routePublic).Subrouter()
	publicRouter.HandleFunc("/ping", s.ping).Methods(http.MethodGet)

	apiRouter := router.PathPrefix(routeAPI).Subrouter()
	apiRouter.HandleFunc("/device", s.getDevices).Methods(http.MethodGet)
	apiRouter.HandleFunc("/device", s.createDevice).Methods(http.MethodPost)
	apiRouter.HandleFunc(fmt.Sprintf("/device/{%s}", urlDeviceID), s.getDevice).Methods(http.MethodGet)
	apiRouter.HandleFunc(fmt.Sprintf("/device/{%s}/{%s}", urlDeviceID, urlCommandName),
		s.deviceCommand).Methods(http.MethodPost)
	apiRouter.HandleFunc("/settings/discovery", s.getDiscoverySettings).Methods(http.MethodGet)
	apiRouter.HandleFunc("/settings/discovery", s.setDiscoverySettings).Methods(http.MethodPut)
	apiRouter.HandleFunc("/ws", s.handleWS).Methods(http.MethodGet)
	apiRouter.Use(s.authMiddleware)
	apiRouter.Use(s.logMiddleware)
}

// Keeps directory states in sync with the fan-out.
// Exits once subscription is closed.
func (s *KasaServer) updatesCycle(updates chan *common.MsgDeviceUpdate) {
	for msg := range updates {
		s.directory.Update(msg)
	}
}
