package server

import (
	"sort"

	"go-home.io/x/kasa/plugins/device"
	"go-home.io/x/kasa/plugins/device/enums"
	"go-home.io/x/kasa/providers"
	"go-home.io/x/kasa/utils"
)

// Known devices, received from the reconciliation loop.
type knownDevice struct {
	ID         string                `json:"id"`
	Name       string                `json:"name"`
	Type       enums.DeviceType      `json:"type"`
	Interfaces []enums.Interface     `json:"interfaces"`
	Info       *providers.DeviceInfo `json:"info"`
	State      *device.State         `json:"state"`
	LastSeen   int64                 `json:"last_seen"`
	Commands   []string              `json:"commands"`
}

// Constructs a new known device from the announcement.
func newKnownDevice(a *providers.Announcement) *knownDevice {
	kd := &knownDevice{
		ID:       a.ID,
		LastSeen: utils.TimeNow(),
	}

	kd.announce(a)
	return kd
}

// Applies announcement, keeping last received state.
func (d *knownDevice) announce(a *providers.Announcement) {
	d.Name = a.Name
	d.Type = a.Type
	d.Info = a.Info
	d.Interfaces = append([]enums.Interface{}, a.Interfaces...)
	d.Commands = allowedCommands(d.Interfaces)
}

// Returns copy safe to hand out of the directory lock.
func (d *knownDevice) copy() *knownDevice {
	c := *d
	c.Interfaces = append([]enums.Interface{}, d.Interfaces...)
	c.Commands = append([]string{}, d.Commands...)
	if d.State != nil {
		s := *d.State
		c.State = &s
	}

	return &c
}

// IsCommandAllowed checks whether announced interfaces accept the command.
func (d *knownDevice) IsCommandAllowed(cmd enums.Command) bool {
	return cmd.IsCommandAllowed(d.Interfaces)
}

// Lists names of commands accepted by the interfaces.
func allowedCommands(interfaces []enums.Interface) []string {
	commands := make([]string, 0)
	for cmd := range enums.RequiredInterfaces {
		if cmd.IsCommandAllowed(interfaces) {
			commands = append(commands, cmd.String())
		}
	}

	sort.Strings(commands)
	return commands
}
