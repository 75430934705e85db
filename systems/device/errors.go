package device

import "fmt"

// ErrNotSupported defines operation which device doesn't support.
type ErrNotSupported struct {
	ID        string
	Operation string
}

// Error formats output.
func (e *ErrNotSupported) Error() string {
	return fmt.Sprintf("%s is not supported by %s", e.Operation, e.ID)
}

// ErrDeviceOffline defines command sent to the device without live connection.
type ErrDeviceOffline struct {
	ID string
}

// Error formats output.
func (e *ErrDeviceOffline) Error() string {
	return "device is offline: " + e.ID
}

// ErrCommandFailed defines command which device didn't confirm.
type ErrCommandFailed struct {
	ID        string
	Operation string
	Reason    string
}

// Error formats output.
func (e *ErrCommandFailed) Error() string {
	return fmt.Sprintf("%s failed for %s: %s", e.Operation, e.ID, e.Reason)
}

// ErrInvalidValue defines command argument out of the allowed range.
type ErrInvalidValue struct {
	Field string
	Value int
}

// Error formats output.
func (e *ErrInvalidValue) Error() string {
	return fmt.Sprintf("%d is not a valid %s", e.Value, e.Field)
}

// ErrInvalidParams defines command params which failed validation.
type ErrInvalidParams struct {
	Command string
}

// Error formats output.
func (e *ErrInvalidParams) Error() string {
	return "invalid params for " + e.Command
}
