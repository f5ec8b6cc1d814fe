package wsapi

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"livefeed/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// client 一个 websocket 连接, 至多持有一个订阅
type client struct {
	id   uuid.UUID
	srv  *Server
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	unsub  func()
	closed bool

	closeOnce sync.Once
	done      chan struct{}
}

func newClient(srv *Server, conn *websocket.Conn) *client {
	return &client{
		id:   uuid.New(),
		srv:  srv,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

// enqueue 非阻塞投递, 缓冲满时丢弃
func (c *client) enqueue(f Frame) {
	b, err := json.Marshal(f)
	if err != nil {
		return
	}
	select {
	case <-c.done:
	case c.send <- b:
	default:
		log.Debug().Str("client", c.id.String()).Str("type", f.Type).Msg("ws send buffer full, dropping frame")
	}
}

// subscribe 替换当前订阅
func (c *client) subscribe(tokens []string) {
	tokens = domain.NormalizeTokens(tokens)
	if len(tokens) == 0 {
		c.enqueue(Frame{Type: TypeError, Error: "tokens is empty", Ts: nowMs()})
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	prev := c.unsub
	c.unsub = nil
	c.mu.Unlock()
	if prev != nil {
		prev()
	}

	unsub := c.srv.feed.SubscribeMany(tokens, func(prices map[string]float64) {
		c.enqueue(Frame{Type: TypePrices, Prices: prices, Ts: nowMs()})
	})

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		unsub()
		return
	}
	c.unsub = unsub
	c.mu.Unlock()

	c.enqueue(Frame{Type: TypeAck, Tokens: tokens, Ts: nowMs()})
	log.Info().Str("client", c.id.String()).Strs("tokens", tokens).Msg("ws client subscribed")
}

func (c *client) unsubscribe() {
	c.mu.Lock()
	prev := c.unsub
	c.unsub = nil
	c.mu.Unlock()
	if prev != nil {
		prev()
	}
}

// close 释放订阅并关闭连接, 可重复调用
func (c *client) close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		prev := c.unsub
		c.unsub = nil
		c.mu.Unlock()
		if prev != nil {
			prev()
		}
		close(c.done)
		_ = c.conn.Close()
		c.srv.remove(c)
	})
}

func (c *client) handle(msg []byte) {
	var req Request
	if err := json.Unmarshal(msg, &req); err != nil {
		c.enqueue(Frame{Type: TypeError, Error: "invalid json", Ts: nowMs()})
		return
	}
	switch req.Op {
	case OpSubscribe:
		c.subscribe(req.Tokens)
	case OpUnsubscribe:
		c.unsubscribe()
		c.enqueue(Frame{Type: TypeAck, Ts: nowMs()})
	default:
		c.enqueue(Frame{Type: TypeError, Error: "unknown op: " + req.Op, Ts: nowMs()})
	}
}

func (c *client) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("client", c.id.String()).Msg("ws read error")
			}
			return
		}
		c.handle(msg)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
