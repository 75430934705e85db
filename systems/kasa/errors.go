package kasa

import "fmt"

// ErrMalformedResponse defines response which could not be decoded.
type ErrMalformedResponse struct {
	Reason string
}

// Error formats output.
func (e *ErrMalformedResponse) Error() string {
	return "malformed response: " + e.Reason
}

// ErrEmptyIdentity defines response without device identity.
type ErrEmptyIdentity struct {
	Host string
}

// Error formats output.
func (e *ErrEmptyIdentity) Error() string {
	return "device didn't report identity: " + e.Host
}

// ErrCommandRejected defines non-zero error code returned by the device.
type ErrCommandRejected struct {
	Module string
	Method string
	Code   int
	Msg    string
}

// Error formats output.
func (e *ErrCommandRejected) Error() string {
	return fmt.Sprintf("%s.%s rejected with code %d: %s", e.Module, e.Method, e.Code, e.Msg)
}

// ErrNotSupported defines command which device class doesn't support.
type ErrNotSupported struct {
	Operation string
}

// Error formats output.
func (e *ErrNotSupported) Error() string {
	return e.Operation + " is not supported by the device"
}

// ErrSocketClosed defines request which was cancelled because socket is gone.
type ErrSocketClosed struct {
}

// Error formats output.
func (*ErrSocketClosed) Error() string {
	return "socket is closed"
}
