// Package fanout contains implementation of pub-sub fanout channels.
package fanout

import (
	"math/rand"
	"strconv"
	"sync"

	"go-home.io/x/kasa/plugins/common"
	"go-home.io/x/kasa/providers"
	"go-home.io/x/kasa/utils"
)

// Subscriber's buffer size.
const subscriberBuffer = 10

// Implements IInternalFanOutProvider.
type provider struct {
	sync.Mutex
	logger common.ILoggerProvider

	inDeviceUpdates  chan *common.MsgDeviceUpdate
	outDeviceUpdates map[int64]chan *common.MsgDeviceUpdate
}

// NewFanOut constructs new FanOut provider.
func NewFanOut(logger common.ILoggerProvider) providers.IInternalFanOutProvider {
	p := &provider{
		logger:           logger,
		inDeviceUpdates:  make(chan *common.MsgDeviceUpdate, subscriberBuffer),
		outDeviceUpdates: make(map[int64]chan *common.MsgDeviceUpdate),
	}

	go p.internalCycle()
	return p
}

// SubscribeDeviceUpdates allows to subscribe to the devices updates.
func (p *provider) SubscribeDeviceUpdates() (int64, chan *common.MsgDeviceUpdate) {
	p.Lock()
	defer p.Unlock()

	c := make(chan *common.MsgDeviceUpdate, subscriberBuffer)
	rnd := p.getID()
	p.outDeviceUpdates[rnd] = c
	return rnd, c
}

// UnSubscribeDeviceUpdates allows to un-subscribe from the device updates.
func (p *provider) UnSubscribeDeviceUpdates(id int64) {
	p.Lock()
	defer p.Unlock()

	c, ok := p.outDeviceUpdates[id]
	if !ok {
		return
	}

	close(c)
	delete(p.outDeviceUpdates, id)
}

// ChannelInDeviceUpdates returns input channel for the device updates.
func (p *provider) ChannelInDeviceUpdates() chan *common.MsgDeviceUpdate {
	return p.inDeviceUpdates
}

// Returns random ID which is not used yet. Lock must be held.
func (p *provider) getID() int64 {
	for {
		id := utils.TimeNow() + rand.Int63()
		if _, ok := p.outDeviceUpdates[id]; !ok {
			return id
		}
	}
}

func (p *provider) internalCycle() {
	for u := range p.inDeviceUpdates {
		p.deviceUpdates(u)
	}
}

// Broadcasts device updates.
// Slow subscribers miss updates instead of blocking the rest.
func (p *provider) deviceUpdates(update *common.MsgDeviceUpdate) {
	p.Lock()
	defer p.Unlock()

	for id, v := range p.outDeviceUpdates {
		select {
		case v <- update:
		default:
			p.logger.Warn("Subscriber is too slow, dropping device update",
				common.LogDeviceIDToken, update.ID, common.LogFieldToken, strconv.FormatInt(id, 10))
		}
	}
}
