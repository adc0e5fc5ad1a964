package realtime

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type commandAction string

const (
	actionSubscribeRegions   commandAction = "subscribe_regions"
	actionUnsubscribeRegions commandAction = "unsubscribe_regions"
	actionSubscribeGlobal    commandAction = "subscribe_global"
	actionUnsubscribeGlobal  commandAction = "unsubscribe_global"
	actionFocusIncident      commandAction = "focus_incident"
	actionUnfocusIncident    commandAction = "unfocus_incident"
)

// command - мутация подписок одного соединения, применяется только
// горутиной хаба
type command struct {
	client     *Client
	action     commandAction
	regions    []string
	incidentID uuid.UUID
}

// Hub владеет реестром подписок: connection -> регионы, фокусы, приватный
// канал пользователя. Все карты членства принадлежат одной горутине Run,
// внешние вызовы общаются с ней через каналы. Реестр живет в рамках одного
// процесса: при нескольких инстансах членство нужно выносить во внешний
// pub/sub, иначе рассылка не увидит зрителей чужого инстанса.
type Hub struct {
	logger      *logrus.Logger
	gridDegrees float64

	register   chan *Client
	unregister chan *Client
	commands   chan command
	events     chan Event

	clients map[*Client]bool
	// region id -> подписчики
	regions map[string]map[*Client]bool
	// incident id -> зрители в фокусе
	focus map[uuid.UUID]map[*Client]bool
	// user id -> сессии пользователя (приватный канал)
	users map[string]map[*Client]bool
}

// NewHub создает хаб рассылки
func NewHub(logger *logrus.Logger, gridDegrees float64) *Hub {
	return &Hub{
		logger:      logger,
		gridDegrees: gridDegrees,
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		commands:    make(chan command, 64),
		events:      make(chan Event, 256),
		clients:     make(map[*Client]bool),
		regions:     make(map[string]map[*Client]bool),
		focus:       make(map[uuid.UUID]map[*Client]bool),
		users:       make(map[string]map[*Client]bool),
	}
}

// Run запускает цикл хаба; блокируется до отмены контекста
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.removeClient(client)
			}
			h.logger.Info("Realtime hub stopped")
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case cmd := <-h.commands:
			h.applyCommand(cmd)
		case ev := <-h.events:
			h.deliver(ev)
		}
	}
}

// Broadcast публикует событие. Доставка best-effort: при переполненной
// очереди событие молча отбрасывается, повторов нет.
func (h *Hub) Broadcast(ev Event) {
	select {
	case h.events <- ev:
	default:
		h.logger.WithField("event_type", ev.Type).Warn("Realtime event queue full, event dropped")
	}
}

// Register регистрирует новое соединение
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister снимает соединение и все его членства
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) addClient(client *Client) {
	h.clients[client] = true
	if client.userID != "" {
		if h.users[client.userID] == nil {
			h.users[client.userID] = make(map[*Client]bool)
		}
		h.users[client.userID][client] = true
	}
	h.logger.WithFields(logrus.Fields{
		"client_id":     client.id,
		"user_id":       client.userID,
		"total_clients": len(h.clients),
	}).Info("Realtime client connected")
}

func (h *Hub) removeClient(client *Client) {
	if !h.clients[client] {
		return
	}
	delete(h.clients, client)
	for region := range client.regions {
		h.dropRegionMember(region, client)
	}
	for id := range client.focus {
		h.dropFocusMember(id, client)
	}
	if client.userID != "" {
		if set := h.users[client.userID]; set != nil {
			delete(set, client)
			if len(set) == 0 {
				delete(h.users, client.userID)
			}
		}
	}
	close(client.send)
	h.logger.WithFields(logrus.Fields{
		"client_id":     client.id,
		"total_clients": len(h.clients),
	}).Info("Realtime client disconnected")
}

func (h *Hub) applyCommand(cmd command) {
	client := cmd.client
	if !h.clients[client] {
		// Команда от уже отключенного соединения
		return
	}
	switch cmd.action {
	case actionSubscribeRegions:
		for _, region := range cmd.regions {
			if h.regions[region] == nil {
				h.regions[region] = make(map[*Client]bool)
			}
			h.regions[region][client] = true
			client.regions[region] = true
		}
	case actionUnsubscribeRegions:
		for _, region := range cmd.regions {
			h.dropRegionMember(region, client)
			delete(client.regions, region)
		}
	case actionSubscribeGlobal:
		client.global = true
	case actionUnsubscribeGlobal:
		client.global = false
	case actionFocusIncident:
		if h.focus[cmd.incidentID] == nil {
			h.focus[cmd.incidentID] = make(map[*Client]bool)
		}
		h.focus[cmd.incidentID][client] = true
		client.focus[cmd.incidentID] = true
	case actionUnfocusIncident:
		h.dropFocusMember(cmd.incidentID, client)
		delete(client.focus, cmd.incidentID)
	}
}

func (h *Hub) dropRegionMember(region string, client *Client) {
	set := h.regions[region]
	if set == nil {
		return
	}
	delete(set, client)
	// Пустой канал не переживает последнего участника
	if len(set) == 0 {
		delete(h.regions, region)
	}
}

func (h *Hub) dropFocusMember(id uuid.UUID, client *Client) {
	set := h.focus[id]
	if set == nil {
		return
	}
	delete(set, client)
	if len(set) == 0 {
		delete(h.focus, id)
	}
}

// deliver вычисляет множество получателей по таксономии каналов и
// рассылает сериализованное событие
func (h *Hub) deliver(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.logger.WithError(err).Error("Failed to marshal realtime event")
		return
	}

	recipients := make(map[*Client]bool)

	if !ev.PrivateOnly {
		for client := range h.clients {
			if client.global {
				recipients[client] = true
			}
		}
		switch ev.Type {
		case EventCreated, EventExpired:
			// Новые инциденты уходят в региональный канал по координатам,
			// адресной маршрутизации по зрителям не требуется
			if ev.Incident != nil {
				region := RegionID(ev.Incident.Latitude, ev.Incident.Longitude, h.gridDegrees)
				for client := range h.regions[region] {
					recipients[client] = true
				}
			}
		case EventUpdated, EventDeleted, EventVerified:
			if ev.Incident != nil {
				for client := range h.focus[ev.Incident.ID] {
					recipients[client] = true
				}
			}
		}
	}

	if ev.TargetUserID != "" {
		for client := range h.users[ev.TargetUserID] {
			recipients[client] = true
		}
	}

	for client := range recipients {
		select {
		case client.send <- payload:
		default:
			// Медленный потребитель: доставка не гарантируется
			h.logger.WithField("client_id", client.id).Warn("Client send buffer full, event dropped")
		}
	}
}

// snapshot возвращает размеры реестра; используется тестами пакета
func (h *Hub) snapshot() (clients, regions, focused int) {
	return len(h.clients), len(h.regions), len(h.focus)
}
