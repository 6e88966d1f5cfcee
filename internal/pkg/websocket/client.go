package websocket

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	// monitors send nothing but control frames
	maxInboundSize = 512

	monitorBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// the route is already behind JWT auth and CORS
	CheckOrigin: func(*http.Request) bool { return true },
}

// Monitor is one staff connection watching the live feed of one exam
type Monitor struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID int64
	examID int64
	logger zerolog.Logger
}

func newMonitor(hub *Hub, conn *websocket.Conn, userID, examID int64, lgr zerolog.Logger) *Monitor {
	return &Monitor{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, monitorBuffer),
		userID: userID,
		examID: examID,
		logger: lgr.With().Int64("examID", examID).Int64("userID", userID).Logger(),
	}
}

// watchPeer reads until the peer goes away so pongs and close frames are
// handled, then detaches the monitor from the hub.
func (m *Monitor) watchPeer() {
	defer func() {
		m.hub.leave(m)
		m.conn.Close()
	}()

	m.conn.SetReadLimit(maxInboundSize)
	_ = m.conn.SetReadDeadline(time.Now().Add(pongWait))
	m.conn.SetPongHandler(func(string) error {
		return m.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := m.conn.NextReader(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				m.logger.Warn().Err(err).Msg("Monitor connection closed unexpectedly")
			}
			return
		}
	}
}

// forward writes queued events to the peer, one JSON document per frame,
// and keeps the connection alive with pings. It returns once the hub closes
// the send channel or a write fails.
func (m *Monitor) forward() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		m.conn.Close()
	}()

	for {
		select {
		case payload, open := <-m.send:
			_ = m.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !open {
				_ = m.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := m.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				m.logger.Debug().Err(err).Msg("Failed to write to monitor")
				return
			}
		case <-ticker.C:
			_ = m.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := m.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
