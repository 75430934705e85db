//+build !release

package mocks

import (
	"sync"

	"go-home.io/x/kasa/plugins/common"
	"go-home.io/x/kasa/providers"
)

// IFakeFanOut adds access to published updates.
type IFakeFanOut interface {
	providers.IInternalFanOutProvider
	Updates() []*common.MsgDeviceUpdate
}

type fakeFanOut struct {
	sync.Mutex
	inDeviceUpdates chan *common.MsgDeviceUpdate
	updates         []*common.MsgDeviceUpdate
}

func (f *fakeFanOut) SubscribeDeviceUpdates() (int64, chan *common.MsgDeviceUpdate) {
	return 1, make(chan *common.MsgDeviceUpdate)
}

func (f *fakeFanOut) UnSubscribeDeviceUpdates(int64) {
}

func (f *fakeFanOut) ChannelInDeviceUpdates() chan *common.MsgDeviceUpdate {
	return f.inDeviceUpdates
}

// Updates returns all received updates.
func (f *fakeFanOut) Updates() []*common.MsgDeviceUpdate {
	f.Lock()
	defer f.Unlock()
	return append([]*common.MsgDeviceUpdate{}, f.updates...)
}

func (f *fakeFanOut) drain() {
	for u := range f.inDeviceUpdates {
		f.Lock()
		f.updates = append(f.updates, u)
		f.Unlock()
	}
}

// FakeNewFanOut creates a fake fan-out which records every published update.
func FakeNewFanOut() IFakeFanOut {
	f := &fakeFanOut{
		inDeviceUpdates: make(chan *common.MsgDeviceUpdate, 10),
		updates:         make([]*common.MsgDeviceUpdate, 0),
	}

	go f.drain()
	return f
}
