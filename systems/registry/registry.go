// Package registry contains identity to logical device mapping.
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"go-home.io/x/kasa/plugins/common"
	"go-home.io/x/kasa/plugins/device"
	"go-home.io/x/kasa/plugins/device/enums"
	dev "go-home.io/x/kasa/systems/device"
)

const (
	// Purge interval for expired offline entries.
	cleanupInterval = 30 * time.Second
)

// Entry contains single registered identity.
type Entry struct {
	sync.Mutex

	ID      string
	Wrapper *dev.Wrapper

	descriptor *device.Descriptor
	online     bool
	announced  []enums.Interface
}

// Descriptor returns the latest descriptor.
func (e *Entry) Descriptor() *device.Descriptor {
	e.Lock()
	defer e.Unlock()
	return e.descriptor
}

// Online returns entry online flag.
func (e *Entry) Online() bool {
	e.Lock()
	defer e.Unlock()
	return e.online
}

// Announced returns announced capability set.
func (e *Entry) Announced() []enums.Interface {
	e.Lock()
	defer e.Unlock()
	return append([]enums.Interface{}, e.announced...)
}

// SetAnnounced records capability set accepted by the directory.
func (e *Entry) SetAnnounced(ifaces []enums.Interface) {
	e.Lock()
	defer e.Unlock()
	e.announced = append([]enums.Interface{}, ifaces...)
}

// ConstructRegistry has data required for a new registry.
type ConstructRegistry struct {
	Logger   common.ILoggerProvider
	StaleTTL time.Duration
	// OnEvicted is called for expired offline entries.
	OnEvicted func(*Entry)
}

// Registry keeps exactly one entry per identity.
// Offline entries are scheduled for removal in the stale cache,
// entry stays visible until the cache purges it.
type Registry struct {
	sync.Mutex

	logger    common.ILoggerProvider
	entries   map[string]*Entry
	stale     *cache.Cache
	staleTTL  time.Duration
	onEvicted func(*Entry)
}

// NewRegistry constructs a new registry.
func NewRegistry(ctor *ConstructRegistry) *Registry {
	r := &Registry{
		logger:    ctor.Logger,
		entries:   make(map[string]*Entry),
		stale:     cache.New(cache.NoExpiration, cleanupInterval),
		staleTTL:  ctor.StaleTTL,
		onEvicted: ctor.OnEvicted,
	}

	r.stale.OnEvicted(r.evicted)
	return r
}

// Lookup returns entry by identity.
func (r *Registry) Lookup(id string) (*Entry, bool) {
	r.Lock()
	defer r.Unlock()

	entry, ok := r.entries[id]
	return entry, ok
}

// Upsert creates a new entry or replaces descriptor of the existing one.
// Constructor is invoked only for the new identity.
func (r *Registry) Upsert(id string, desc *device.Descriptor,
	ctor func(*device.Descriptor) *dev.Wrapper) (*Entry, bool) {
	r.Lock()
	defer r.Unlock()

	if entry, ok := r.entries[id]; ok {
		entry.Lock()
		entry.descriptor = desc
		entry.Unlock()
		return entry, false
	}

	entry := &Entry{
		ID:         id,
		Wrapper:    ctor(desc),
		descriptor: desc,
		announced:  make([]enums.Interface, 0),
	}

	r.entries[id] = entry
	return entry, true
}

// MarkOnline sets online flag and cancels stale expiration.
func (r *Registry) MarkOnline(id string) bool {
	r.Lock()
	defer r.Unlock()

	entry, ok := r.entries[id]
	if !ok {
		return false
	}

	entry.Lock()
	changed := !entry.online
	entry.online = true
	entry.Unlock()

	if changed && r.staleTTL > 0 {
		// Set doesn't trigger eviction callback, unlike Delete.
		r.stale.Set(id, entry, cache.NoExpiration)
	}

	return changed
}

// MarkOffline clears online flag.
// With stale TTL entry expires unless it comes back online.
func (r *Registry) MarkOffline(id string) bool {
	r.Lock()
	defer r.Unlock()

	entry, ok := r.entries[id]
	if !ok {
		return false
	}

	entry.Lock()
	changed := entry.online
	entry.online = false
	entry.Unlock()

	if changed && r.staleTTL > 0 {
		r.stale.Set(id, entry, r.staleTTL)
	}

	return changed
}

// All returns entries sorted by identity.
func (r *Registry) All() []*Entry {
	r.Lock()
	result := make([]*Entry, 0, len(r.entries))
	for _, v := range r.entries {
		result = append(result, v)
	}
	r.Unlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result
}

// Count returns number of registered identities.
func (r *Registry) Count() int {
	r.Lock()
	defer r.Unlock()
	return len(r.entries)
}

// Purge removes expired entries immediately.
func (r *Registry) Purge() {
	r.stale.DeleteExpired()
}

// Removes expired entry unless it came back online.
func (r *Registry) evicted(id string, item interface{}) {
	entry := item.(*Entry)

	r.Lock()
	if entry.Online() || r.entries[id] != entry {
		r.Unlock()
		return
	}

	delete(r.entries, id)
	r.Unlock()

	r.logger.Info("Removing stale device", common.LogDeviceIDToken, id)
	if r.onEvicted != nil {
		r.onEvicted(entry)
	}
}
