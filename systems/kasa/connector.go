package kasa

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go-home.io/x/kasa/plugins/common"
	"go-home.io/x/kasa/plugins/device"
	"go-home.io/x/kasa/providers"
)

// Max accepted TCP frame.
const maxFrame = 1 << 20

// Connector opens device clients and sends raw requests.
type Connector struct {
	sync.RWMutex
	logger   common.ILoggerProvider
	settings *providers.DiscoverySettings
	socket   *sharedSocket
}

// ConstructConnector has data required for a new connector.
type ConstructConnector struct {
	Logger   common.ILoggerProvider
	Settings *providers.DiscoverySettings
}

// NewConnector constructs a new device connector.
func NewConnector(ctor *ConstructConnector) *Connector {
	c := &Connector{
		logger: ctor.Logger,
	}

	c.UpdateSettings(ctor.Settings)
	return c
}

// UpdateSettings swaps transport settings.
// Previous shared socket is closed once its in-flight requests are done.
func (c *Connector) UpdateSettings(settings *providers.DiscoverySettings) {
	c.Lock()
	defer c.Unlock()

	if nil != c.socket {
		c.socket.retire()
		c.socket = nil
	}

	c.settings = settings
	if settings.UseSharedSocket() {
		c.socket = newSharedSocket(c.logger, settings.SharedSocketIdle())
	}
}

// Close releases shared resources.
func (c *Connector) Close() {
	c.Lock()
	defer c.Unlock()

	if nil != c.socket {
		c.socket.retire()
		c.socket = nil
	}
}

// Open creates a client for the described unit.
func (c *Connector) Open(desc *device.Descriptor) (device.IClient, error) {
	if nil == desc || desc.Host == "" {
		return nil, errors.New("device address is unknown")
	}

	return newClient(c, desc), nil
}

// Describe queries device at the address and returns descriptors of all its units.
func (c *Connector) Describe(ctx context.Context, host string, port int) ([]*device.Descriptor, error) {
	data, err := c.Send(ctx, host, port, SysInfoRequest())
	if err != nil {
		return nil, err
	}

	return ParseSysInfo(host, port, data)
}

// Send delivers plain payload using configured transport and returns decrypted response.
func (c *Connector) Send(ctx context.Context, host string, port int, payload []byte) ([]byte, error) {
	c.RLock()
	settings := c.settings
	socket := c.socket
	c.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, settings.TimeoutDuration())
	defer cancel()

	address := net.JoinHostPort(host, strconv.Itoa(port))
	c.logger.Debug("Sending request", common.LogDeviceHostToken, address,
		common.LogTransportToken, settings.Transport)

	if settings.Transport == providers.TransportTCP {
		return sendTCP(ctx, address, payload)
	}

	addr, err := net.ResolveUDPAddr("udp4", address)
	if err != nil {
		return nil, err
	}

	if nil != socket {
		return socket.request(ctx, addr, payload)
	}

	return sendUDP(ctx, addr, payload)
}

// Sends length-prefixed request over a fresh TCP connection.
func sendTCP(ctx context.Context, address string, payload []byte) ([]byte, error) {
	d := &net.Dialer{}
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}

	defer conn.Close() // nolint: errcheck
	stop := watchContext(ctx, conn)
	defer stop()

	if _, err := conn.Write(EncryptWithHeader(payload)); err != nil {
		return nil, err
	}

	header := make([]byte, headerSize)
	if _, err := io.ReadFull(conn, header); err != nil {
		return nil, err
	}

	size := binary.BigEndian.Uint32(header)
	if size > maxFrame {
		return nil, &ErrMalformedResponse{Reason: "frame is too large"}
	}

	body := make([]byte, size)
	if _, err := io.ReadFull(conn, body); err != nil {
		return nil, err
	}

	return Decrypt(body), nil
}

// Sends datagram from a dedicated socket and waits for the reply.
func sendUDP(ctx context.Context, addr *net.UDPAddr, payload []byte) ([]byte, error) {
	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return nil, err
	}

	defer conn.Close() // nolint: errcheck
	stop := watchContext(ctx, conn)
	defer stop()

	if _, err := conn.WriteTo(Encrypt(payload), addr); err != nil {
		return nil, err
	}

	buf := make([]byte, maxDatagram)
	for {
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			return nil, err
		}

		if from.String() != addr.String() {
			continue
		}

		return Decrypt(buf[:n]), nil
	}
}

// Deadlined connection.
type deadliner interface {
	SetDeadline(time.Time) error
}

// Applies context deadline and unblocks pending IO on cancellation.
func watchContext(ctx context.Context, conn deadliner) func() {
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline) // nolint: errcheck
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			conn.SetDeadline(time.Now()) // nolint: errcheck
		case <-done:
		}
	}()

	return func() {
		close(done)
	}
}
