package discovery

import (
	"sort"
	"sync"

	"go-home.io/x/kasa/plugins/device"
	"go-home.io/x/kasa/plugins/device/enums"
)

// Event contains single discovery event.
type Event struct {
	Kind       enums.EventKind
	Descriptor *device.Descriptor
}

// Known identity.
type sighting struct {
	lastCycle  int
	online     bool
	descriptor *device.Descriptor
}

// Tracks sightings across probe cycles.
type tracker struct {
	sync.Mutex

	tolerance int
	cycle     int
	seen      map[string]*sighting
}

// Known identities are treated as online and sighted before the first cycle.
func newTracker(tolerance int, known []*device.Descriptor) *tracker {
	t := &tracker{
		tolerance: tolerance,
		seen:      make(map[string]*sighting),
	}

	for _, v := range known {
		t.seen[v.ID] = &sighting{online: true, descriptor: v}
	}

	return t
}

// Starts a new cycle and returns identities missing for too long.
func (t *tracker) beginCycle() []*Event {
	t.Lock()
	defer t.Unlock()

	t.cycle++
	result := make([]*Event, 0)
	for _, v := range t.seen {
		if !v.online || t.cycle-1-v.lastCycle < t.tolerance {
			continue
		}

		v.online = false
		result = append(result, &Event{Kind: enums.EventOffline, Descriptor: v.descriptor})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Descriptor.ID < result[j].Descriptor.ID
	})

	return result
}

// Records a response.
func (t *tracker) sighted(desc *device.Descriptor) *Event {
	t.Lock()
	defer t.Unlock()

	s, ok := t.seen[desc.ID]
	if !ok {
		t.seen[desc.ID] = &sighting{lastCycle: t.cycle, online: true, descriptor: desc}
		return &Event{Kind: enums.EventNew, Descriptor: desc}
	}

	s.lastCycle = t.cycle
	s.online = true
	s.descriptor = desc
	return &Event{Kind: enums.EventOnline, Descriptor: desc}
}
