package server

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
	"go-home.io/x/kasa/plugins/common"
	"go-home.io/x/kasa/providers"
	"go-home.io/x/kasa/utils"
)

// Directory is the in-memory catalog of announced devices.
// It implements providers.IDirectoryProvider.
type Directory struct {
	sync.Mutex

	logger  common.ILoggerProvider
	devices map[string]*knownDevice
}

// NewDirectory constructs an empty directory.
func NewDirectory(logger common.ILoggerProvider) *Directory {
	return &Directory{
		logger:  logger,
		devices: make(map[string]*knownDevice),
	}
}

// Announce registers a new device or updates its capabilities.
func (d *Directory) Announce(a *providers.Announcement) error {
	if nil == a || "" == a.ID {
		return errors.New("announcement without identity")
	}

	d.Lock()
	defer d.Unlock()

	kd, ok := d.devices[a.ID]
	if !ok {
		d.devices[a.ID] = newKnownDevice(a)
		d.logger.Info("New device announced", common.LogSystemToken, logSystem,
			common.LogDeviceIDToken, a.ID, common.LogDeviceNameToken, a.Name)
		return nil
	}

	kd.announce(a)
	kd.LastSeen = utils.TimeNow()
	d.logger.Debug("Device re-announced", common.LogSystemToken, logSystem,
		common.LogDeviceIDToken, a.ID, common.LogDeviceNameToken, a.Name)
	return nil
}

// Forget removes device from the catalog.
func (d *Directory) Forget(id string) {
	d.Lock()
	defer d.Unlock()

	if _, ok := d.devices[id]; !ok {
		return
	}

	delete(d.devices, id)
	d.logger.Info("Device removed from the directory", common.LogSystemToken, logSystem,
		common.LogDeviceIDToken, id)
}

// Update stores the latest state of announced device.
// Updates for unknown identities are dropped.
func (d *Directory) Update(msg *common.MsgDeviceUpdate) {
	if nil == msg || nil == msg.State {
		return
	}

	d.Lock()
	defer d.Unlock()

	kd, ok := d.devices[msg.ID]
	if !ok {
		return
	}

	s := *msg.State
	kd.State = &s
	kd.LastSeen = utils.TimeNow()
}

// GetAllDevices returns copies of all known devices ordered by identity.
func (d *Directory) GetAllDevices() []*knownDevice {
	d.Lock()
	defer d.Unlock()

	result := make([]*knownDevice, 0, len(d.devices))
	for _, v := range d.devices {
		result = append(result, v.copy())
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result
}

// GetDevice returns copy of known device or nil.
func (d *Directory) GetDevice(id string) *knownDevice {
	d.Lock()
	defer d.Unlock()

	kd, ok := d.devices[id]
	if !ok {
		return nil
	}

	return kd.copy()
}
