// Package websocket pushes queue board updates to waiting-room displays.
// Clients subscribe to cohort topics and receive every booking event
// published for that cohort.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medbook/medbook/internal/platform/apperr"
)

const (
	EventBookingCreated   = "booking.created"
	EventBookingCancelled = "booking.cancelled"
)

// Event is what a board receives when a booking in its cohort changes.
type Event struct {
	Type        string    `json:"type"`
	Topic       string    `json:"topic"`
	BookingID   string    `json:"bookingId"`
	QueueNumber string    `json:"queueNumber"`
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
}

// ClientMessage lets a connected board follow additional cohorts.
type ClientMessage struct {
	Action string   `json:"action"`
	Topics []string `json:"topics"`
}

// QueueTopic names the cohort of one specialty on one examination date.
func QueueTopic(specialtyID uuid.UUID, date string) string {
	return "queue:" + specialtyID.String() + ":" + date
}

type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type Client struct {
	ID     string
	Topics []string
	Send   chan []byte
	hub    *Hub
	conn   Conn
}

// Hub tracks clients by topic. Broadcasting never blocks: a client whose
// buffer is full misses the event.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	all     map[*Client]struct{}
	logger  zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		all:     make(map[*Client]struct{}),
		logger:  logger,
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.all[client] = struct{}{}
	for _, topic := range client.Topics {
		h.addLocked(topic, client)
	}
}

// Unregister removes the client everywhere and closes its Send channel.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[client]; !ok {
		return
	}
	for _, topic := range client.Topics {
		h.removeLocked(topic, client)
	}
	delete(h.all, client)
	close(client.Send)
}

func (h *Hub) Subscribe(client *Client, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, topic := range topics {
		h.addLocked(topic, client)
	}
	client.Topics = append(client.Topics, topics...)
}

func (h *Hub) Unsubscribe(client *Client, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	drop := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		drop[t] = struct{}{}
		h.removeLocked(t, client)
	}

	remaining := client.Topics[:0]
	for _, t := range client.Topics {
		if _, ok := drop[t]; !ok {
			remaining = append(remaining, t)
		}
	}
	client.Topics = remaining
}

func (h *Hub) addLocked(topic string, client *Client) {
	if h.clients[topic] == nil {
		h.clients[topic] = make(map[*Client]struct{})
	}
	h.clients[topic][client] = struct{}{}
}

func (h *Hub) removeLocked(topic string, client *Client) {
	if subscribers, ok := h.clients[topic]; ok {
		delete(subscribers, client)
		if len(subscribers) == 0 {
			delete(h.clients, topic)
		}
	}
}

func (h *Hub) ProcessMessage(client *Client, msg ClientMessage) {
	switch msg.Action {
	case "subscribe":
		h.Subscribe(client, msg.Topics)
	case "unsubscribe":
		h.Unsubscribe(client, msg.Topics)
	}
}

func (h *Hub) Broadcast(topic string, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Str("topic", topic).Msg("failed to marshal queue event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[topic] {
		select {
		case client.Send <- data:
		default:
			h.logger.Debug().Str("client_id", client.ID).Str("topic", topic).Msg("queue board client too slow, event dropped")
		}
	}
}

// Publish broadcasts event to its topic, stamping the time if unset.
func (h *Hub) Publish(_ context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	h.Broadcast(event.Topic, event)
	return nil
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.all)
}

func (h *Hub) TopicCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}

var upgrader = gorillawebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Boards are unauthenticated displays; origin is enforced by CORS config upstream.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type QueueBoardHandler struct {
	hub *Hub
}

func NewQueueBoardHandler(hub *Hub) *QueueBoardHandler {
	return &QueueBoardHandler{hub: hub}
}

func (qh *QueueBoardHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/queue", qh.HandleConnect)
}

// HandleConnect upgrades the request and subscribes the socket to the
// cohort named by specialtyId and date.
func (qh *QueueBoardHandler) HandleConnect(c echo.Context) error {
	topic, err := topicFromQuery(c)
	if err != nil {
		return err
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &Client{
		ID:     uuid.NewString(),
		Topics: []string{topic},
		Send:   make(chan []byte, 256),
		hub:    qh.hub,
		conn:   &gorillaConnAdapter{ws},
	}
	qh.hub.Register(client)

	go qh.writePump(client)
	go qh.readPump(client)
	return nil
}

func topicFromQuery(c echo.Context) (string, error) {
	specialtyID, err := uuid.Parse(c.QueryParam("specialtyId"))
	if err != nil {
		return "", apperr.Validation("specialtyId must be a valid id")
	}
	date := c.QueryParam("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return "", apperr.Validation("date must be YYYY-MM-DD")
	}
	return QueueTopic(specialtyID, date), nil
}

func (qh *QueueBoardHandler) readPump(client *Client) {
	defer func() {
		qh.hub.Unregister(client)
		client.conn.Close()
	}()

	for {
		_, message, err := client.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		qh.hub.ProcessMessage(client, msg)
	}
}

func (qh *QueueBoardHandler) writePump(client *Client) {
	defer client.conn.Close()

	for message := range client.Send {
		if err := client.conn.WriteMessage(gorillawebsocket.TextMessage, message); err != nil {
			return
		}
	}
}

type gorillaConnAdapter struct {
	conn *gorillawebsocket.Conn
}

func (a *gorillaConnAdapter) ReadMessage() (int, []byte, error) {
	return a.conn.ReadMessage()
}

func (a *gorillaConnAdapter) WriteMessage(messageType int, data []byte) error {
	return a.conn.WriteMessage(messageType, data)
}

func (a *gorillaConnAdapter) Close() error {
	return a.conn.Close()
}
