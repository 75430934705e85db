package utils

// ErrInvalidConfig defines wrong configuration error.
type ErrInvalidConfig struct {
}

// Error formats output.
func (*ErrInvalidConfig) Error() string {
	return "config validation error"
}

// ErrNoLocalNetwork defines absent local IPv4 network.
type ErrNoLocalNetwork struct {
}

// Error formats output.
func (*ErrNoLocalNetwork) Error() string {
	return "failed to find local network"
}
