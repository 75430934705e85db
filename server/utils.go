package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"go-home.io/x/kasa/plugins/common"
	"go-home.io/x/kasa/systems/device"
	"go-home.io/x/kasa/worker"
	"golang.org/x/crypto/bcrypt"
)

// Error API response.
type errorResponse struct {
	Status  string `json:"status"`
	Problem string `json:"problem"`
}

// Plain HTTP_200 API response.
func respondOk(writer http.ResponseWriter) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(http.StatusOK)
	io.WriteString(writer, `{ "status": "OK" }`) // nolint: errcheck
}

// Generic API respond.
func respond(writer http.ResponseWriter, data interface{}) {
	d, err := json.Marshal(data)
	if err != nil {
		respondError(writer, http.StatusInternalServerError, err.Error())
		return
	}

	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(http.StatusOK)
	writer.Write(d) // nolint: errcheck
}

// Validates whether error is not null and responds different status
// depending on it.
func respondOkError(writer http.ResponseWriter, err error) {
	if err != nil {
		respondError(writer, errorStatus(err), err.Error())
	} else {
		respondOk(writer)
	}
}

// Return HTTP_UNAUTHORIZED status.
func respondUnAuth(writer http.ResponseWriter) {
	writer.Header().Set("WWW-Authenticate", `Basic realm="kasa"`)
	http.Error(writer, "Unauthorized", http.StatusUnauthorized)
}

// Error API response.
func respondError(writer http.ResponseWriter, status int, problem string) {
	d, _ := json.Marshal(&errorResponse{Status: "ERROR", Problem: problem})
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	writer.Write(d) // nolint: errcheck
}

// Maps known errors to HTTP statuses.
func errorStatus(err error) int {
	switch errors.Cause(err).(type) {
	case *ErrUnknownDevice, *worker.ErrUnknownDevice, *worker.ErrNothingDescribed:
		return http.StatusNotFound
	case *ErrUnknownCommand, *ErrUnsupportedCommand, *ErrBadRequest, *worker.ErrInvalidSettings,
		*device.ErrNotSupported, *device.ErrInvalidValue, *device.ErrInvalidParams:
		return http.StatusBadRequest
	case *device.ErrDeviceOffline:
		return http.StatusServiceUnavailable
	case *device.ErrCommandFailed:
		return http.StatusBadGateway
	}

	if errors.Cause(err) == context.DeadlineExceeded {
		return http.StatusGatewayTimeout
	}

	return http.StatusInternalServerError
}

// Logger middleware for the API.
func (s *KasaServer) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Logger.Debug("REST invocation", common.LogURLToken, r.RequestURI,
			common.LogUserNameToken, getContextUser(r))
		next.ServeHTTP(w, r)
	})
}

// Authz middleware.
// Basic auth is required only if users are configured.
func (s *KasaServer) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := anonymousUser
		if len(s.users) > 0 {
			var err error
			user, err = s.authorize(r)
			if err != nil {
				s.Logger.Warn("Unauthorized access attempt", common.LogURLToken, r.RequestURI,
					common.LogErrorToken, err.Error())
				respondUnAuth(w)
				return
			}
		}

		ctx := context.WithValue(r.Context(), ctxtUserName, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Validates basic auth header against configured users.
// Passwords must be bcrypt hashes.
func (s *KasaServer) authorize(r *http.Request) (string, error) {
	name, password, ok := r.BasicAuth()
	if !ok {
		return "", errors.New("header not found")
	}

	hash, ok := s.users[name]
	if !ok {
		return "", errors.Errorf("user %s not found", name)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return "", errors.Wrap(err, "wrong password")
	}

	return name, nil
}

// Gets current user out of context.
func getContextUser(request *http.Request) string {
	user, ok := request.Context().Value(ctxtUserName).(string)
	if !ok {
		return anonymousUser
	}

	return user
}

// Adapts logger to the recovery handler.
type recoveryLogger struct {
	logger common.ILoggerProvider
}

// Println logs recovered panic.
func (l *recoveryLogger) Println(v ...interface{}) {
	l.logger.Error("Recovered from API panic", errors.New(fmt.Sprint(v...)), common.LogSystemToken, logSystem)
}
