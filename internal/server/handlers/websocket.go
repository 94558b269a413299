package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// eventsClient relays detection and snapshot events for one account set to a
// WebSocket peer. The relay is read-only: clients receive events and send
// nothing but control frames.
type eventsClient struct {
	conn *websocket.Conn
	send chan []byte
	sub  *nats.Subscription
}

// WebSocketConfig contains configuration for WebSocket connections.
type WebSocketConfig struct {
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
	MaxMessageSize int64
}

// DefaultWebSocketConfig returns the default WebSocket configuration.
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     (60 * time.Second * 9) / 10,
		MaxMessageSize: 4096,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// In production, this should be more restrictive
		return true
	},
}

// EventsWebSocketHandler streams the account set's bus events (detection
// runs, snapshot captures) to WebSocket clients.
func EventsWebSocketHandler(natsConn *nats.Conn, eventsTopic string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountSetID := chi.URLParam(r, "accountSet")
		if accountSetID == "" {
			http.Error(w, "Missing account set", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logrus.WithError(err).Error("failed to upgrade to WebSocket")
			return
		}

		client := &eventsClient{
			conn: conn,
			send: make(chan []byte, 64),
		}

		topic := fmt.Sprintf("%s.%s.>", eventsTopic, accountSetID)
		sub, err := natsConn.Subscribe(topic, func(msg *nats.Msg) {
			select {
			case client.send <- msg.Data:
			default:
				// Slow consumer; drop the event rather than block the bus.
			}
		})
		if err != nil {
			logrus.WithError(err).Error("failed to subscribe to events")
			conn.Close()
			return
		}
		client.sub = sub

		logrus.WithField("account_set", accountSetID).Info("events WebSocket connected")

		go client.writePump()
		go client.readPump()
	}
}

// readPump consumes control frames until the peer disconnects.
func (c *eventsClient) readPump() {
	config := DefaultWebSocketConfig()

	defer c.close()

	c.conn.SetReadLimit(config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(config.PongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithError(err).Debug("websocket read error")
			}
			return
		}
	}
}

// writePump forwards bus events to the peer and keeps the connection alive
// with pings.
func (c *eventsClient) writePump() {
	config := DefaultWebSocketConfig()
	ticker := time.NewTicker(config.PingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// close tears down the NATS subscription and the connection.
func (c *eventsClient) close() {
	if c.sub != nil {
		c.sub.Unsubscribe()
		c.sub = nil
	}
	c.conn.Close()
}
