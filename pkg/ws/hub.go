// Package ws раздаёт живую ленту изменений параметров по websocket.
// Клиенты только слушают: входящие сообщения читаются и отбрасываются,
// чтение нужно лишь для обработки close и pong.
package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// sendBufferSize — глубина очереди на клиента; медленный клиент,
	// переполнивший очередь, отключается
	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Панель локальная, происхождение не проверяем
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub ведёт список подключённых клиентов и рассылает им события.
type Hub struct {
	clients    map[*client]struct{}
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
}

// NewHub создаёт ненаполненный hub; запустите Run в отдельной горутине.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 256),
	}
}

// Run обслуживает подключения и рассылку до отмены контекста.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			return ctx.Err()
		case c := <-h.register:
			h.clients[c] = struct{}{}
			log.Printf("Подключён websocket-клиент %s (всего %d)", c.conn.RemoteAddr(), len(h.clients))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				log.Printf("Отключён websocket-клиент %s (всего %d)", c.conn.RemoteAddr(), len(h.clients))
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Очередь клиента забита — выбрасываем его
					delete(h.clients, c)
					close(c.send)
				}
			}
		}
	}
}

// Broadcast сериализует событие и рассылает всем клиентам.
// При переполненной общей очереди событие отбрасывается.
func (h *Hub) Broadcast(event any) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Ошибка сериализации события websocket: %v", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
	}
}

// Handler возвращает http-обработчик, поднимающий соединение до websocket.
func (h *Hub) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("Ошибка апгрейда websocket: %v", err)
			return
		}
		c := &client{hub: h, conn: conn, send: make(chan []byte, sendBufferSize)}
		h.register <- c

		go c.writePump()
		go c.readPump()
	})
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// readPump отбрасывает входящие сообщения и следит за close/pong.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump выгружает очередь клиента и шлёт ping.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
