package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"golang.org/x/time/rate"
)

const (
	readLimit    = 64 * 1024
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	writeWait    = 10 * time.Second
)

// Client wraps a single websocket connection.
type Client struct {
	uid     string
	ws      *websocket.Conn
	send    chan []byte
	joined  map[string]struct{} // rooms, guarded by the hub mutex
	limiter *rate.Limiter

	mu     sync.Mutex
	closed bool
}

func newClient(conn *websocket.Conn, uid string, sendBuffer, rps int) *Client {
	return &Client{
		uid:     uid,
		ws:      conn,
		send:    make(chan []byte, sendBuffer),
		joined:  make(map[string]struct{}),
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
	}
}

// enqueue queues an outbound frame without blocking; false means the
// client's buffer is full and the frame was dropped.
func (c *Client) enqueue(b []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- b:
		return true
	default:
		return false
	}
}

func (c *Client) sendEvent(event string, payload any) {
	b, err := encode(event, payload)
	if err != nil {
		return
	}
	c.enqueue(b)
}

func (c *Client) sendError(msg string) {
	c.sendEvent(EventError, map[string]string{"message": msg})
}

// readPump reads frames, applies the inbound rate limit and hands
// decoded envelopes to the gateway. Returning unregisters the client.
func (c *Client) readPump(g *Gateway) {
	defer func() {
		g.hub.Unregister(c)
		c.close()
	}()
	c.ws.SetReadLimit(readLimit)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		if !c.limiter.Allow() {
			c.sendError("rate limit exceeded")
			continue
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.sendError("malformed frame")
			continue
		}
		g.submit(c, env)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.ws.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(time.Second))
				return
			}
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(time.Second)); err != nil {
				return
			}
		}
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	_ = c.ws.Close()
}
