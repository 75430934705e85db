package worker

// ErrUnknownDevice defines request for identity which was never discovered.
type ErrUnknownDevice struct {
	ID string
}

// Error formats output.
func (e *ErrUnknownDevice) Error() string {
	return "unknown device: " + e.ID
}

// ErrInvalidSettings defines discovery settings which failed validation.
type ErrInvalidSettings struct {
}

// Error formats output.
func (*ErrInvalidSettings) Error() string {
	return "invalid discovery settings"
}

// ErrNothingDescribed defines address which didn't return any device.
type ErrNothingDescribed struct {
	Address string
}

// Error formats output.
func (e *ErrNothingDescribed) Error() string {
	return "no devices found at " + e.Address
}
