package ws

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"clinic_queue/internal/events"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// ReceptionChannel — канал стойки регистрации: получает все изменения очереди.
const ReceptionChannel = "reception"

// PatientChannel — персональный канал пациента для push о его позиции и вызове.
func PatientChannel(patientID uint) string {
	return fmt.Sprintf("patient:%d", patientID)
}

// Hub хранит подключения клиентов, сгруппированные по каналам.
type Hub struct {
	// Для каждого канала храним множество подключений.
	clients map[string]map[*Client]bool
	// Канал для регистрации нового клиента.
	register chan *Client
	// Канал для удаления клиента.
	unregister chan *Client
	// Канал для трансляции сообщений в конкретный канал.
	broadcast chan BroadcastMessage
	// Mutex для защиты карты клиентов.
	mu sync.RWMutex
}

// BroadcastMessage представляет сообщение для рассылки в определённый канал.
type BroadcastMessage struct {
	Channel string
	Message []byte
}

// WSMessage — сообщение, уходящее подписчикам в формате JSON.
type WSMessage struct {
	EventType string                 `json:"event_type"`
	Channel   string                 `json:"channel"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Создаем глобальный экземпляр хаба.
var HubInstance = NewHub()

// NewHub создает новый Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan BroadcastMessage),
	}
}

// Run запускает цикл обработки каналов хаба.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.Channel] == nil {
				h.clients[client.Channel] = make(map[*Client]bool)
			}
			h.clients[client.Channel][client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.Channel]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.Send)
					if len(clients) == 0 {
						delete(h.clients, client.Channel)
					}
				}
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.RLock()
			if clients, ok := h.clients[message.Channel]; ok {
				for client := range clients {
					select {
					case client.Send <- message.Message:
					default:
						close(client.Send)
						delete(clients, client)
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// BroadcastWSMessage сериализует сообщение и отправляет его в канал.
// Доставка at-least-once не гарантируется: медленный клиент отключается.
func (h *Hub) BroadcastWSMessage(msg WSMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Println("Ошибка сериализации WS сообщения:", err)
		return
	}
	h.broadcast <- BroadcastMessage{Channel: msg.Channel, Message: payload}
}

// Client представляет одно подключение через WebSocket.
type Client struct {
	Hub     *Hub
	Conn    *websocket.Conn
	Send    chan []byte
	Channel string
}

// readPump читает сообщения из WebSocket-соединения.
// Входящие сообщения не обрабатываются, отслеживается только разрыв соединения.
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(512)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			break
		}
	}
}

// writePump отправляет сообщения клиенту из канала Send.
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Канал закрыт.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			// Отправка ping-сообщения для поддержания соединения.
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Настраиваем апгрейдер для WebSocket с разрешением всех источников.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// QueueWebSocketHandler обновляет соединение до WebSocket и подписывает клиента
// на канал из query-параметра: ?channel=reception или ?channel=patient:42.
// URL-пример: /ws/queue?channel=reception
func QueueWebSocketHandler(c *gin.Context) {
	channel := c.Query("channel")
	if channel == "" {
		channel = ReceptionChannel
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		http.Error(c.Writer, "Ошибка обновления до WebSocket", http.StatusInternalServerError)
		return
	}
	// Создаем нового клиента
	client := &Client{
		Hub:     HubInstance,
		Conn:    conn,
		Send:    make(chan []byte, 256),
		Channel: channel,
	}
	// Регистрируем клиента в Hub
	HubInstance.register <- client

	// Запускаем горутины для отправки и приема сообщений
	go client.writePump()
	client.readPump()
}

// RunEventForwarder транслирует доменные события очереди в WebSocket-каналы.
// Регистратура видит все, пациент — только события своей записи.
func RunEventForwarder(ch <-chan events.Event) {
	for event := range ch {
		switch event.Kind {
		case events.EntryCheckedIn:
			HubInstance.BroadcastWSMessage(WSMessage{
				EventType: "queue_updated",
				Channel:   ReceptionChannel,
				Data:      event.Payload,
			})
			HubInstance.BroadcastWSMessage(WSMessage{
				EventType: "checked_in",
				Channel:   PatientChannel(event.PatientID),
				Data:      event.Payload,
			})
		case events.EntryCalled:
			HubInstance.BroadcastWSMessage(WSMessage{
				EventType: "patient_called",
				Channel:   PatientChannel(event.PatientID),
				Data:      event.Payload,
			})
			HubInstance.BroadcastWSMessage(WSMessage{
				EventType: "patient_called",
				Channel:   ReceptionChannel,
				Data:      event.Payload,
			})
		case events.EntryStarted, events.EntryCancelled:
			HubInstance.BroadcastWSMessage(WSMessage{
				EventType: "queue_updated",
				Channel:   ReceptionChannel,
				Data:      event.Payload,
			})
		case events.EntryCompleted:
			HubInstance.BroadcastWSMessage(WSMessage{
				EventType: "service_completed",
				Channel:   PatientChannel(event.PatientID),
			})
			HubInstance.BroadcastWSMessage(WSMessage{
				EventType: "queue_updated",
				Channel:   ReceptionChannel,
			})
		case events.PositionsChanged:
			HubInstance.BroadcastWSMessage(WSMessage{
				EventType: "positions_updated",
				Channel:   ReceptionChannel,
				Data:      event.Payload,
			})
		}
	}
}
