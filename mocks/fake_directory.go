//+build !release

package mocks

import (
	"sync"

	"github.com/pkg/errors"
	"go-home.io/x/kasa/providers"
)

// IFakeDirectory adds access to received announcements.
type IFakeDirectory interface {
	providers.IDirectoryProvider
	Announcements(id string) []*providers.Announcement
	Forgotten() []string
	FailAnnounce(bool)
}

type fakeDirectory struct {
	sync.Mutex

	fail          bool
	announcements map[string][]*providers.Announcement
	forgotten     []string
}

func (f *fakeDirectory) Announce(a *providers.Announcement) error {
	f.Lock()
	defer f.Unlock()

	if f.fail {
		return errors.New("directory is unavailable")
	}

	f.announcements[a.ID] = append(f.announcements[a.ID], a)
	return nil
}

func (f *fakeDirectory) Forget(id string) {
	f.Lock()
	defer f.Unlock()
	f.forgotten = append(f.forgotten, id)
}

// Announcements returns all accepted announcements of the identity.
func (f *fakeDirectory) Announcements(id string) []*providers.Announcement {
	f.Lock()
	defer f.Unlock()
	return append([]*providers.Announcement{}, f.announcements[id]...)
}

// Forgotten returns forgotten identities.
func (f *fakeDirectory) Forgotten() []string {
	f.Lock()
	defer f.Unlock()
	return append([]string{}, f.forgotten...)
}

// FailAnnounce forces announce errors.
func (f *fakeDirectory) FailAnnounce(fail bool) {
	f.Lock()
	f.fail = fail
	f.Unlock()
}

// FakeNewDirectory creates a fake directory.
func FakeNewDirectory() IFakeDirectory {
	return &fakeDirectory{
		announcements: make(map[string][]*providers.Announcement),
		forgotten:     make([]string, 0),
	}
}
