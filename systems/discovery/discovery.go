// Package discovery contains kasa devices discovery transport.
package discovery

import (
	"context"
	"net"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"go-home.io/x/kasa/plugins/common"
	"go-home.io/x/kasa/plugins/device"
	"go-home.io/x/kasa/plugins/device/enums"
	"go-home.io/x/kasa/providers"
	"go-home.io/x/kasa/systems/kasa"
	"go-home.io/x/kasa/utils"
)

const (
	// Max number of concurrent tcp dials during the scan.
	maxConcurrentDials = 32
	// Events channel buffer.
	eventsBuffer = 100
	// Max UDP datagram.
	readBuffer = 64 * 1024
)

// IDiscoveryProvider defines discovery transport logic.
type IDiscoveryProvider interface {
	Start() (<-chan *Event, error)
	Stop()
	Probe()
}

// ConstructDiscovery has data required for a new discovery transport.
type ConstructDiscovery struct {
	Logger    common.ILoggerProvider
	Settings  *providers.DiscoverySettings
	Cron      providers.ICronProvider
	Connector device.IConnector
	// Known contains identities already online, they are reported
	// offline if not sighted by this transport.
	Known []*device.Descriptor
}

// Discovery transport implementation.
type provider struct {
	sync.Mutex

	logger    common.ILoggerProvider
	settings  *providers.DiscoverySettings
	cron      providers.ICronProvider
	connector device.IConnector

	filter    *filter
	overrides nameOverrides
	tracker   *tracker

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	events   chan *Event
	conn     *net.UDPConn
	target   *net.UDPAddr
	hosts    []string
	jobID    int
	started  bool
	stopped  bool
	scanning bool
}

// NewDiscoveryProvider constructs a new discovery transport.
func NewDiscoveryProvider(ctor *ConstructDiscovery) IDiscoveryProvider {
	return &provider{
		logger:    ctor.Logger,
		settings:  ctor.Settings,
		cron:      ctor.Cron,
		connector: ctor.Connector,
		tracker:   newTracker(ctor.Settings.OfflineTolerance, ctor.Known),
	}
}

// Start opens sockets, starts the first probe cycle in background and schedules next ones.
func (p *provider) Start() (<-chan *Event, error) {
	p.Lock()
	if err := p.prepare(); err != nil {
		p.Unlock()
		return nil, err
	}

	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.events = make(chan *Event, eventsBuffer)
	p.started = true

	if p.conn != nil {
		p.wg.Add(1)
		go p.read(p.conn)
	}

	var err error
	p.jobID, err = p.cron.AddFunc(utils.EverySeconds(p.settings.Interval), p.Probe)
	if err != nil {
		p.logger.Error("Failed to schedule discovery", err)
	}

	p.logger.Info("Started discovery", common.LogTransportToken, p.settings.Transport)
	p.beginProbe()
	p.Unlock()

	go p.probe()
	return p.events, nil
}

// Stop cancels delivery and waits for background routines.
// Events channel is closed.
func (p *provider) Stop() {
	p.Lock()
	if !p.started || p.stopped {
		p.Unlock()
		return
	}

	p.stopped = true
	p.cancel()
	if p.jobID != 0 {
		p.cron.RemoveFunc(p.jobID)
	}

	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			p.logger.Debug("Failed to close discovery socket", common.LogErrorToken, err.Error())
		}
	}
	p.Unlock()

	p.wg.Wait()
	close(p.events)
	p.logger.Info("Stopped discovery", common.LogTransportToken, p.settings.Transport)
}

// Probe runs a single discovery cycle.
// Cycle is skipped while the previous scan is still running.
func (p *provider) Probe() {
	p.Lock()
	if !p.started || p.stopped {
		p.Unlock()
		return
	}

	if p.scanning {
		p.logger.Debug("Previous scan is still running, skipping cycle")
		p.Unlock()
		return
	}

	p.beginProbe()
	p.Unlock()

	p.probe()
}

// Registers the cycle, must be called under the lock.
func (p *provider) beginProbe() {
	p.wg.Add(1)
	p.scanning = p.conn == nil
}

// Runs registered cycle.
func (p *provider) probe() {
	defer p.wg.Done()
	p.runCycle()

	p.Lock()
	p.scanning = false
	p.Unlock()
}

// Compiles settings and opens sockets.
func (p *provider) prepare() error {
	if p.started {
		return errors.New("discovery is already started")
	}

	var err error
	p.filter, err = newFilter(p.settings.Filter)
	if err != nil {
		return err
	}

	p.overrides, err = newNameOverrides(p.settings.NameOverrides)
	if err != nil {
		return err
	}

	if p.settings.Transport == providers.TransportTCP {
		return p.prepareScan()
	}

	return p.prepareBroadcast()
}

// Prepares broadcast socket.
func (p *provider) prepareBroadcast() error {
	addr, err := net.ResolveUDPAddr("udp4",
		net.JoinHostPort(p.settings.Broadcast, strconv.Itoa(p.settings.Port)))
	if err != nil {
		return errors.Wrap(err, "broadcast address")
	}

	conn, err := net.ListenUDP("udp4", nil)
	if err != nil {
		return errors.Wrap(err, "listen")
	}

	p.conn = conn
	p.target = addr
	return nil
}

// Prepares list of scanned hosts.
func (p *provider) prepareScan() error {
	var network *net.IPNet
	var err error

	if p.settings.ScanNetwork != "" {
		_, network, err = net.ParseCIDR(p.settings.ScanNetwork)
	} else {
		network, err = utils.NetworkFromBroadcast(p.settings.Broadcast)
	}

	if err != nil {
		return errors.Wrap(err, "scan network")
	}

	p.hosts = utils.NetworkHosts(network)
	p.logger.Debug("Prepared scan network", common.LogFieldToken, network.String(),
		common.LogDeviceHostToken, strconv.Itoa(len(p.hosts)))
	return nil
}

// Reports missing identities and sends probes.
func (p *provider) runCycle() {
	for _, v := range p.tracker.beginCycle() {
		p.emit(v)
	}

	if p.conn != nil {
		if _, err := p.conn.WriteToUDP(kasa.Encrypt(kasa.SysInfoRequest()), p.target); err != nil {
			if p.ctx.Err() == nil {
				p.logger.Error("Failed to send discovery broadcast", err,
					common.LogDeviceHostToken, p.target.String())
			}
		}
		return
	}

	p.scan(p.ctx, p.hosts)
}

// Reads broadcast responses until socket is closed.
func (p *provider) read(conn *net.UDPConn) {
	defer p.wg.Done()

	buf := make([]byte, readBuffer)
	for {
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			if p.ctx.Err() != nil {
				return
			}

			p.logger.Error("Failed to read discovery response", err)
			if ne, ok := err.(net.Error); ok && !ne.Temporary() {
				return
			}
			continue
		}

		p.handle(addr.IP.String(), addr.Port, kasa.Decrypt(buf[:n]))
	}
}

// Scans every host with bounded concurrency.
func (p *provider) scan(ctx context.Context, hosts []string) {
	sem := make(chan struct{}, maxConcurrentDials)
	inner := sync.WaitGroup{}
	for _, host := range hosts {
		select {
		case <-ctx.Done():
			inner.Wait()
			return
		case sem <- struct{}{}:
		}

		inner.Add(1)
		go func(host string) {
			defer func() {
				<-sem
				inner.Done()
			}()

			descriptors, err := p.connector.Describe(ctx, host, p.settings.Port)
			if err != nil {
				p.logger.Debug("Host didn't respond", common.LogDeviceHostToken, host,
					common.LogErrorToken, err.Error())
				return
			}

			for _, v := range descriptors {
				p.accept(v)
			}
		}(host)
	}

	inner.Wait()
}

// Decodes single response.
func (p *provider) handle(host string, port int, payload []byte) {
	descriptors, err := kasa.ParseSysInfo(host, port, payload)
	if err != nil {
		p.logger.Debug("Dropping discovery response", common.LogDeviceHostToken, host,
			common.LogErrorToken, err.Error())
		return
	}

	for _, v := range descriptors {
		p.accept(v)
	}
}

// Applies filter and overrides and emits the event.
func (p *provider) accept(desc *device.Descriptor) {
	if desc.ID == "" {
		p.logger.Debug("Dropping device without identity", common.LogDeviceHostToken, desc.Host)
		return
	}

	ok, err := p.filter.Accept(desc)
	if err != nil {
		p.logger.Debug("Failed to evaluate filter", common.LogDeviceIDToken, desc.ID,
			common.LogErrorToken, err.Error())
		return
	}

	if !ok {
		p.logger.Debug("Device is filtered out", common.LogDeviceIDToken, desc.ID)
		return
	}

	p.overrides.Apply(desc)
	p.emit(p.tracker.sighted(desc))
}

// Delivers event unless transport is stopped.
func (p *provider) emit(e *Event) {
	if e.Kind == enums.EventOffline {
		p.logger.Debug("Device missed probe cycles", common.LogDeviceIDToken, e.Descriptor.ID,
			common.LogDeviceEventToken, e.Kind.String())
	}

	select {
	case <-p.ctx.Done():
	case p.events <- e:
	}
}
