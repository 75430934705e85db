package kasa

import (
	"context"
	"net"
	"sync"
	"time"

	"go-home.io/x/kasa/plugins/common"
)

// Max UDP datagram size.
const maxDatagram = 65535

// Shared UDP socket used by all device clients.
// Every request holds a reference, the socket is closed only when
// nobody holds it for the idle period.
type sharedSocket struct {
	sync.Mutex
	logger  common.ILoggerProvider
	idle    time.Duration
	conn    net.PacketConn
	refs    int
	retired bool
	timer   *time.Timer
	waiters map[string][]chan []byte
}

// Constructs a new shared socket. Connection is opened lazily.
func newSharedSocket(logger common.ILoggerProvider, idle time.Duration) *sharedSocket {
	return &sharedSocket{
		logger:  logger,
		idle:    idle,
		waiters: make(map[string][]chan []byte),
	}
}

// Takes a reference, opening the socket if necessary.
func (s *sharedSocket) acquire() (net.PacketConn, error) {
	s.Lock()
	defer s.Unlock()

	if s.retired {
		return nil, &ErrSocketClosed{}
	}

	if nil != s.timer {
		s.timer.Stop()
		s.timer = nil
	}

	if nil == s.conn {
		conn, err := net.ListenPacket("udp4", ":0")
		if err != nil {
			return nil, err
		}

		s.logger.Debug("Opened shared socket", common.LogDeviceHostToken, conn.LocalAddr().String())
		s.conn = conn
		go s.read(conn)
	}

	s.refs++
	return s.conn, nil
}

// Drops a reference and schedules idle close.
func (s *sharedSocket) release() {
	s.Lock()
	defer s.Unlock()

	s.refs--
	if s.refs > 0 || nil == s.conn {
		return
	}

	if s.retired {
		s.closeConn()
		return
	}

	if s.idle <= 0 {
		return
	}

	s.timer = time.AfterFunc(s.idle, s.closeIdle)
}

// Invoked by the idle timer.
func (s *sharedSocket) closeIdle() {
	s.Lock()
	defer s.Unlock()

	if s.refs > 0 {
		return
	}

	s.logger.Debug("Closing idle shared socket")
	s.closeConn()
}

// Closes socket and wakes up waiters. Lock must be held.
func (s *sharedSocket) closeConn() {
	if nil == s.conn {
		return
	}

	if err := s.conn.Close(); err != nil {
		s.logger.Error("Failed to close shared socket", err)
	}

	s.conn = nil
	for _, list := range s.waiters {
		for _, ch := range list {
			close(ch)
		}
	}

	s.waiters = make(map[string][]chan []byte)
}

// Prevents new requests. Socket is closed once in-flight requests are done.
func (s *sharedSocket) retire() {
	s.Lock()
	defer s.Unlock()

	s.retired = true
	if nil != s.timer {
		s.timer.Stop()
		s.timer = nil
	}

	if 0 == s.refs {
		s.closeConn()
	}
}

// Returns whether socket is currently open.
func (s *sharedSocket) isOpen() bool {
	s.Lock()
	defer s.Unlock()
	return nil != s.conn
}

// Sends encrypted payload and waits for the response from the same address.
func (s *sharedSocket) request(ctx context.Context, addr *net.UDPAddr, payload []byte) ([]byte, error) {
	conn, err := s.acquire()
	if err != nil {
		return nil, err
	}

	defer s.release()

	key := addr.String()
	ch := make(chan []byte, 1)
	s.Lock()
	s.waiters[key] = append(s.waiters[key], ch)
	s.Unlock()
	defer s.removeWaiter(key, ch)

	if _, err := conn.WriteTo(Encrypt(payload), addr); err != nil {
		return nil, err
	}

	select {
	case data, ok := <-ch:
		if !ok {
			return nil, &ErrSocketClosed{}
		}
		return data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Removes waiter which didn't get the response.
func (s *sharedSocket) removeWaiter(key string, ch chan []byte) {
	s.Lock()
	defer s.Unlock()

	list := s.waiters[key]
	for i, v := range list {
		if v == ch {
			s.waiters[key] = append(list[:i], list[i+1:]...)
			break
		}
	}

	if 0 == len(s.waiters[key]) {
		delete(s.waiters, key)
	}
}

// Reads datagrams and routes them to the oldest waiter of the sender address.
func (s *sharedSocket) read(conn net.PacketConn) {
	buf := make([]byte, maxDatagram)
	for {
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			s.Lock()
			if s.conn == conn {
				s.logger.Error("Shared socket read failed", err)
				s.closeConn()
			}
			s.Unlock()
			return
		}

		data := Decrypt(buf[:n])
		key := from.String()

		s.Lock()
		list := s.waiters[key]
		if len(list) > 0 {
			list[0] <- data
			s.waiters[key] = list[1:]
		} else {
			s.logger.Debug("Dropping unexpected datagram", common.LogDeviceHostToken, key)
		}
		s.Unlock()
	}
}
