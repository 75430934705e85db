package kasa

import (
	"encoding/binary"
	"encoding/json"
	"io"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go-home.io/x/kasa/mocks"
	"go-home.io/x/kasa/providers"
)

// Local device emulator answering both UDP and TCP requests.
type fakeDevice struct {
	sync.Mutex
	udp      net.PacketConn
	tcp      net.Listener
	requests []map[string]interface{}
	respond  func(map[string]interface{}) string
}

// Starts a new emulator on the loopback interface.
func newFakeDevice(t *testing.T, respond func(map[string]interface{}) string) *fakeDevice {
	udp, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	tcp, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)

	f := &fakeDevice{
		udp:      udp,
		tcp:      tcp,
		requests: make([]map[string]interface{}, 0),
		respond:  respond,
	}

	go f.serveUDP()
	go f.serveTCP()
	return f
}

func (f *fakeDevice) udpPort() int {
	return f.udp.LocalAddr().(*net.UDPAddr).Port
}

func (f *fakeDevice) tcpPort() int {
	return f.tcp.Addr().(*net.TCPAddr).Port
}

func (f *fakeDevice) close() {
	f.udp.Close() // nolint: errcheck
	f.tcp.Close() // nolint: errcheck
}

func (f *fakeDevice) received() []map[string]interface{} {
	f.Lock()
	defer f.Unlock()
	return append([]map[string]interface{}{}, f.requests...)
}

func (f *fakeDevice) handle(data []byte) []byte {
	req := make(map[string]interface{})
	json.Unmarshal(Decrypt(data), &req) // nolint: errcheck
	f.Lock()
	f.requests = append(f.requests, req)
	f.Unlock()
	return []byte(f.respond(req))
}

func (f *fakeDevice) serveUDP() {
	buf := make([]byte, maxDatagram)
	for {
		n, from, err := f.udp.ReadFrom(buf)
		if err != nil {
			return
		}

		resp := f.handle(append([]byte{}, buf[:n]...))
		f.udp.WriteTo(Encrypt(resp), from) // nolint: errcheck
	}
}

func (f *fakeDevice) serveTCP() {
	for {
		conn, err := f.tcp.Accept()
		if err != nil {
			return
		}

		header := make([]byte, headerSize)
		if _, err := io.ReadFull(conn, header); err != nil {
			conn.Close() // nolint: errcheck
			continue
		}

		body := make([]byte, binary.BigEndian.Uint32(header))
		if _, err := io.ReadFull(conn, body); err != nil {
			conn.Close() // nolint: errcheck
			continue
		}

		conn.Write(EncryptWithHeader(f.handle(body))) // nolint: errcheck
		conn.Close()                                  // nolint: errcheck
	}
}

// Returns canned responses by module.
func cannedResponder(sysinfo string) func(map[string]interface{}) string {
	return func(req map[string]interface{}) string {
		if _, ok := req[moduleDimmer]; ok {
			return `{"smartlife.iot.dimmer":{"set_brightness":{"err_code":0}}}`
		}

		if l, ok := req[moduleLighting]; ok {
			if _, ok := l.(map[string]interface{})[methodGetLightState]; ok {
				return `{"smartlife.iot.smartbulb.lightingservice":{"get_light_state":` +
					`{"on_off":1,"hue":10,"saturation":20,"color_temp":0,"brightness":30,"err_code":0}}}`
			}
			return `{"smartlife.iot.smartbulb.lightingservice":{"transition_light_state":{"err_code":0}}}`
		}

		s := req[moduleSystem].(map[string]interface{})
		if _, ok := s[methodSetRelayState]; ok {
			return `{"system":{"set_relay_state":{"err_code":0}}}`
		}

		return sysinfo
	}
}

// Returns connector with test settings.
func newTestConnector(transport string, shared bool) *Connector {
	poll := 0
	idle := 50
	return NewConnector(&ConstructConnector{
		Logger: mocks.FakeNewLogger(nil),
		Settings: &providers.DiscoverySettings{
			Transport:           transport,
			Timeout:             1000,
			Port:                9999,
			SharedSocket:        shared,
			SharedSocketTimeout: &idle,
			PollInterval:        &poll,
		},
	})
}
