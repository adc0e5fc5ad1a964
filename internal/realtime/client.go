package realtime

import (
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/trafficwatch/incident_geo_system/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024

	// Потолок региональных ячеек на один bounds-запрос подписки
	maxRegionsPerSubscribe = 256
)

var clientIDCounter atomic.Uint64

// ClientMessage - входящее сообщение зрителя
type ClientMessage struct {
	Action     string         `json:"action"`
	Regions    []string       `json:"regions,omitempty"`
	Bounds     *models.Bounds `json:"bounds,omitempty"`
	IncidentID string         `json:"incident_id,omitempty"`
}

// Client - посредник между websocket-соединением и хабом.
// Карты подписок принадлежат горутине хаба, клиент их не трогает.
type Client struct {
	id     uint64
	userID string
	hub    *Hub
	conn   *websocket.Conn
	logger *logrus.Logger
	send   chan []byte

	// Членства соединения; читает и пишет только горутина хаба
	global  bool
	regions map[string]bool
	focus   map[uuid.UUID]bool
}

// NewClient создает клиента для принятого websocket-соединения
func NewClient(hub *Hub, conn *websocket.Conn, userID string, logger *logrus.Logger) *Client {
	return &Client{
		id:      clientIDCounter.Add(1),
		userID:  userID,
		hub:     hub,
		conn:    conn,
		logger:  logger,
		send:    make(chan []byte, 64),
		regions: make(map[string]bool),
		focus:   make(map[uuid.UUID]bool),
	}
}

// Start запускает насосы чтения и записи
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// readPump читает команды подписки от зрителя и передает их хабу
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.WithError(err).Error("Failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.WithError(err).Warn("Unexpected websocket close")
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.WithError(err).Warn("Failed to parse client message")
			continue
		}
		c.handleMessage(msg)
	}
}

func (c *Client) handleMessage(msg ClientMessage) {
	switch commandAction(msg.Action) {
	case actionSubscribeRegions:
		regions := msg.Regions
		if msg.Bounds != nil {
			regions = append(regions, RegionsForBounds(*msg.Bounds, c.hub.gridDegrees, maxRegionsPerSubscribe)...)
		}
		if len(regions) > maxRegionsPerSubscribe {
			regions = regions[:maxRegionsPerSubscribe]
		}
		c.hub.commands <- command{client: c, action: actionSubscribeRegions, regions: regions}
	case actionUnsubscribeRegions:
		c.hub.commands <- command{client: c, action: actionUnsubscribeRegions, regions: msg.Regions}
	case actionSubscribeGlobal, actionUnsubscribeGlobal:
		c.hub.commands <- command{client: c, action: commandAction(msg.Action)}
	case actionFocusIncident, actionUnfocusIncident:
		id, err := uuid.Parse(msg.IncidentID)
		if err != nil {
			c.logger.WithField("incident_id", msg.IncidentID).Warn("Invalid incident id in focus message")
			return
		}
		c.hub.commands <- command{client: c, action: commandAction(msg.Action), incidentID: id}
	case "ping":
		select {
		case c.send <- []byte(`{"type":"pong"}`):
		default:
		}
	default:
		c.logger.WithField("action", msg.Action).Warn("Unknown client action")
	}
}

// writePump пишет события хаба в соединение и поддерживает его ping-ами
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				// Хаб закрыл канал при отключении
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
