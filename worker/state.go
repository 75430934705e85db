package worker

import (
	"strconv"
	"sync"

	"go-home.io/x/kasa/plugins/common"
	"go-home.io/x/kasa/plugins/device"
	"go-home.io/x/kasa/plugins/device/enums"
	"go-home.io/x/kasa/providers"
	dev "go-home.io/x/kasa/systems/device"
	"go-home.io/x/kasa/systems/discovery"
	"go-home.io/x/kasa/systems/registry"
)

const (
	manufacturer = "TP-Link Kasa"
)

// Single queued event.
type task struct {
	event *discovery.Event
	done  chan struct{}
}

// Pending events of one identity.
type identityQueue struct {
	tasks   []*task
	running bool
}

// Reconciliation state.
// Events of one identity are applied strictly in arrival order,
// different identities are processed in parallel.
type workerState struct {
	sync.Mutex

	logger    common.ILoggerProvider
	settings  providers.ISettingsProvider
	connector providers.IConnectorProvider
	directory providers.IDirectoryProvider
	registry  *registry.Registry

	queues map[string]*identityQueue
	wg     sync.WaitGroup
}

// Creating a new reconciliation state.
func newWorkerState(settings providers.ISettingsProvider, connector providers.IConnectorProvider,
	directory providers.IDirectoryProvider) *workerState {
	s := &workerState{
		logger:    settings.SystemLogger(),
		settings:  settings,
		connector: connector,
		directory: directory,
		queues:    make(map[string]*identityQueue),
	}

	s.registry = registry.NewRegistry(&registry.ConstructRegistry{
		Logger:    settings.PluginLogger(logSystem, "registry"),
		StaleTTL:  settings.RegistrySettings().StaleDuration(),
		OnEvicted: s.evicted,
	})

	return s
}

// Queues event for the identity.
func (s *workerState) enqueue(e *discovery.Event, done chan struct{}) {
	id := e.Descriptor.ID

	s.Lock()
	defer s.Unlock()

	q, ok := s.queues[id]
	if !ok {
		q = &identityQueue{tasks: make([]*task, 0, 1)}
		s.queues[id] = q
	}

	q.tasks = append(q.tasks, &task{event: e, done: done})
	if q.running {
		return
	}

	q.running = true
	s.wg.Add(1)
	go s.drain(id, q)
}

// Processes identity queue until it's empty.
func (s *workerState) drain(id string, q *identityQueue) {
	defer s.wg.Done()

	for {
		s.Lock()
		if 0 == len(q.tasks) {
			q.running = false
			delete(s.queues, id)
			s.Unlock()
			return
		}

		t := q.tasks[0]
		q.tasks = q.tasks[1:]
		s.Unlock()

		s.reconcile(t.event)
		if t.done != nil {
			close(t.done)
		}
	}
}

// Waits for all queued events.
func (s *workerState) wait() {
	s.wg.Wait()
}

// Applies single event.
func (s *workerState) reconcile(e *discovery.Event) {
	s.logger.Debug("Processing discovery event", common.LogSystemToken, logSystem,
		common.LogDeviceIDToken, e.Descriptor.ID, common.LogDeviceEventToken, e.Kind.String())

	if e.Kind == enums.EventOffline {
		s.wentOffline(e.Descriptor)
		return
	}

	s.sighted(e.Descriptor)
}

// Handles new or online identity.
func (s *workerState) sighted(desc *device.Descriptor) {
	entry, created := s.registry.Upsert(desc.ID, desc, s.newWrapper)
	w := entry.Wrapper

	switch {
	case created:
		s.logger.Info("Discovered a new device", common.LogSystemToken, logSystem,
			common.LogDeviceIDToken, desc.ID, common.LogDeviceNameToken, desc.Name(),
			common.LogDeviceHostToken, desc.Host)
		s.bind(w, desc)
	case !entry.Online():
		s.logger.Info("Device is back online", common.LogSystemToken, logSystem,
			common.LogDeviceIDToken, desc.ID, common.LogDeviceNameToken, desc.Name(),
			common.LogDeviceHostToken, desc.Host)
		w.Sync(desc)
		s.bind(w, desc)
	default:
		prev := w.Descriptor()
		w.UpdateDescriptor(desc)
		if !desc.SameAddress(prev) || !w.HasClient() {
			s.logger.Debug("Rebinding device client", common.LogSystemToken, logSystem,
				common.LogDeviceIDToken, desc.ID, common.LogDeviceHostToken, desc.Host)
			s.bind(w, desc)
		}
	}

	s.registry.MarkOnline(desc.ID)
	s.announce(entry, desc)
}

// Handles identity which stopped responding.
func (s *workerState) wentOffline(desc *device.Descriptor) {
	entry, ok := s.registry.Lookup(desc.ID)
	if !ok {
		s.logger.Debug("Received offline event for unknown device", common.LogSystemToken, logSystem,
			common.LogDeviceIDToken, desc.ID)
		return
	}

	known := entry.Descriptor()
	s.logger.Info("Device went offline", common.LogSystemToken, logSystem,
		common.LogDeviceNameToken, known.Alias, common.LogDeviceTypeToken, known.Class.String(),
		common.LogDeviceIDToken, known.ID, common.LogDeviceHostToken, known.Host,
		common.LogDevicePortToken, strconv.Itoa(known.Port))

	s.registry.MarkOffline(desc.ID)
	entry.Wrapper.Unbind()
}

// Opens a fresh client and binds it to the wrapper.
// Failure leaves wrapper without client, next sighting retries.
func (s *workerState) bind(w *dev.Wrapper, desc *device.Descriptor) {
	client, err := s.connector.Open(desc)
	if err != nil {
		s.logger.Error("Failed to connect to device", err, common.LogSystemToken, logSystem,
			common.LogDeviceIDToken, desc.ID, common.LogDeviceHostToken, desc.Host)
		return
	}

	w.Bind(client)
}

// Announces identity to the directory when capability set grows.
func (s *workerState) announce(entry *registry.Entry, desc *device.Descriptor) {
	announced := entry.Announced()
	merged, grown := enums.MergeInterfaces(announced, dev.Capabilities(desc))
	if !grown && len(announced) > 0 {
		return
	}

	err := s.directory.Announce(&providers.Announcement{
		ID:         desc.ID,
		Name:       desc.Name(),
		Type:       dev.DirectoryType(desc),
		Interfaces: merged,
		Info: &providers.DeviceInfo{
			Model:           desc.Model,
			MAC:             desc.MAC,
			Manufacturer:    manufacturer,
			SerialNumber:    desc.ID,
			Firmware:        desc.FirmwareVersion,
			HardwareVersion: desc.HardwareVersion,
		},
	})

	if err != nil {
		s.logger.Error("Failed to announce device", err, common.LogSystemToken, logSystem,
			common.LogDeviceIDToken, desc.ID)
		return
	}

	entry.SetAnnounced(merged)
	entry.Wrapper.Announced()
}

// Creates a new wrapper.
func (s *workerState) newWrapper(desc *device.Descriptor) *dev.Wrapper {
	return dev.NewWrapper(&dev.ConstructWrapper{
		Descriptor: desc,
		Logger:     s.settings.PluginLogger(logSystem, desc.Class.String()),
		FanOut:     s.settings.FanOut(),
		Validator:  s.settings.Validator(),
	})
}

// Removes stale identity from the directory.
func (s *workerState) evicted(entry *registry.Entry) {
	s.logger.Info("Forgetting stale device", common.LogSystemToken, logSystem,
		common.LogDeviceIDToken, entry.ID)
	entry.Wrapper.Unbind()
	s.directory.Forget(entry.ID)
}

// Unbinds every wrapper.
func (s *workerState) unbindAll() {
	for _, v := range s.registry.All() {
		v.Wrapper.Unbind()
	}
}
