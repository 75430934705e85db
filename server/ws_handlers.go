package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go-home.io/x/kasa/plugins/common"
	"go-home.io/x/kasa/plugins/device"
	"go-home.io/x/kasa/plugins/device/enums"
)

// Incoming WS command.
type wsCmd struct {
	ID  string      `json:"id"`
	Cmd string      `json:"cmd"`
	Val interface{} `json:"value"`
}

// Outgoing WS device update.
type wsUpdate struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Type      enums.DeviceType `json:"type"`
	FirstSeen bool             `json:"first_seen"`
	State     *device.State    `json:"state"`
}

// Outgoing WS command error.
type wsError struct {
	ID      string `json:"id"`
	Cmd     string `json:"cmd"`
	Problem string `json:"problem"`
}

// Serializes writes into a single WS connection.
type wsConn struct {
	sync.Mutex
	conn *websocket.Conn
}

// Writes JSON message.
func (c *wsConn) writeJSON(v interface{}) error {
	c.Lock()
	defer c.Unlock()
	return c.conn.WriteJSON(v)
}

// Writes raw message.
func (c *wsConn) write(mt int, data []byte) error {
	c.Lock()
	defer c.Unlock()
	return c.conn.WriteMessage(mt, data)
}

// Handles WS upgrade request.
func (s *KasaServer) handleWS(writer http.ResponseWriter, request *http.Request) {
	usr := getContextUser(request)
	c, err := s.wsSettings.Upgrade(writer, request, nil)
	if err != nil {
		s.Logger.Error("Failed to establish a WS connection", err, common.LogUserNameToken, usr)
		return
	}

	go s.processWSConnection(&wsConn{conn: c}, usr)
}

// Processes incoming WS connections.
func (s *KasaServer) processWSConnection(conn *wsConn, usr string) {
	stop := make(chan bool, 1)
	go s.processIncomingWSMessages(conn, stop, usr)
	deviceSubID, deviceUpd := s.Settings.FanOut().SubscribeDeviceUpdates()
	defer s.Settings.FanOut().UnSubscribeDeviceUpdates(deviceSubID)

	for {
		select {
		case <-stop:
			return
		case msg, ok := <-deviceUpd:
			if !ok {
				conn.conn.Close() // nolint: gosec, errcheck
				return
			}

			if nil == s.directory.GetDevice(msg.ID) && !msg.FirstSeen {
				continue
			}

			err := conn.writeJSON(&wsUpdate{
				ID:        msg.ID,
				Name:      msg.Name,
				Type:      msg.Type,
				FirstSeen: msg.FirstSeen,
				State:     msg.State,
			})

			if err != nil {
				s.Logger.Debug("Failed to write WS update", common.LogUserNameToken, usr,
					common.LogErrorToken, err.Error())
			}
		}
	}
}

// Processes incoming WS messages.
func (s *KasaServer) processIncomingWSMessages(conn *wsConn, stop chan bool, usr string) {
	defer conn.conn.Close() // nolint: errcheck
	for {
		mt, message, err := conn.conn.ReadMessage()
		if err != nil {
			s.Logger.Info("Closing WS connection for user", common.LogUserNameToken, usr)
			stop <- true
			return
		}

		// Ping request comes as a un-wrapped string
		if "ping" == string(message) {
			conn.write(mt, []byte("pong")) // nolint: gosec, errcheck
			continue
		}

		cmd := &wsCmd{}
		err = json.Unmarshal(message, cmd)
		if err != nil {
			s.Logger.Error("Failed to un-marshal WS command", err, common.LogUserNameToken, usr)
			continue
		}

		var data []byte
		if cmd.Val != nil {
			data, err = json.Marshal(cmd.Val)
			if err != nil {
				s.Logger.Error("Failed to marshal WS command", err, common.LogUserNameToken, usr)
				continue
			}
		}

		err = s.commandInvokeDeviceCommand(context.Background(), usr, cmd.ID, cmd.Cmd, data)
		if err != nil {
			conn.writeJSON(&wsError{ID: cmd.ID, Cmd: cmd.Cmd, Problem: err.Error()}) // nolint: gosec, errcheck
		}
	}
}
