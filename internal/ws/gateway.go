package ws

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/tnhan0211/serverzola/internal/apperr"
	"github.com/tnhan0211/serverzola/internal/auth"
	"github.com/tnhan0211/serverzola/internal/chat"
)

const handlerTimeout = 10 * time.Second

type inboundEvent struct {
	client *Client
	env    Envelope
}

// Gateway authenticates websocket connections and dispatches their
// events into the message pipeline. All inbound events flow through a
// single dispatch loop; each one is handled on its own goroutine so a
// handler suspended on I/O never stalls other connections.
type Gateway struct {
	hub     *Hub
	chat    *chat.Service
	tokens  *auth.TokenManager
	inbound chan inboundEvent
	log     *zap.SugaredLogger

	sendBuffer int
	rps        int
}

func NewGateway(hub *Hub, chatSvc *chat.Service, tokens *auth.TokenManager, sendBuffer, rps int, log *zap.SugaredLogger) *Gateway {
	return &Gateway{
		hub:        hub,
		chat:       chatSvc,
		tokens:     tokens,
		inbound:    make(chan inboundEvent, 1024),
		log:        log,
		sendBuffer: sendBuffer,
		rps:        rps,
	}
}

func (g *Gateway) Hub() *Hub { return g.hub }

// Handler performs the handshake: the bearer token is verified with the
// same TokenManager the HTTP middleware uses, and the connection is
// refused before any event is accepted when it is absent or invalid.
func (g *Gateway) Handler() func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		token := conn.Query("token")
		if token == "" {
			_ = conn.Close()
			return
		}
		uid, _, err := g.tokens.Verify(token)
		if err != nil {
			_ = conn.Close()
			return
		}

		c := newClient(conn, uid, g.sendBuffer, g.rps)
		g.hub.Register(c)
		g.log.Infow("ws connected", "user_id", uid)

		go c.writePump()
		c.readPump(g)
		g.log.Infow("ws disconnected", "user_id", uid)
	}
}

// Run drains the inbound channel until ctx is cancelled.
func (g *Gateway) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-g.inbound:
			go g.handle(ev)
		}
	}
}

func (g *Gateway) submit(c *Client, env Envelope) {
	select {
	case g.inbound <- inboundEvent{client: c, env: env}:
	default:
		c.sendError("server busy")
	}
}

type sendPrivatePayload struct {
	ReceiverID string `json:"receiver_id"`
	Content    string `json:"content"`
}

type sendGroupPayload struct {
	GroupID string `json:"group_id"`
	Content string `json:"content"`
}

type typingPayload struct {
	Conversation chat.ConversationRef `json:"conversation"`
	IsTyping     bool                 `json:"is_typing"`
}

type joinGroupPayload struct {
	GroupID string `json:"group_id"`
}

func (g *Gateway) handle(ev inboundEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	c := ev.client
	switch ev.env.Type {
	case EventSendPrivate:
		var p sendPrivatePayload
		if err := json.Unmarshal(ev.env.Payload, &p); err != nil {
			c.sendError("malformed payload")
			return
		}
		msg, err := g.chat.SendDirect(ctx, c.uid, p.ReceiverID, chat.SendInput{Content: p.Content})
		if err != nil {
			c.sendError(userMessage(err))
			return
		}
		c.sendEvent(EventPrivateSent, map[string]any{"message_id": msg.ID, "message": msg})

	case EventSendGroup:
		var p sendGroupPayload
		if err := json.Unmarshal(ev.env.Payload, &p); err != nil {
			c.sendError("malformed payload")
			return
		}
		msg, err := g.chat.SendGroup(ctx, c.uid, p.GroupID, chat.SendInput{Content: p.Content})
		if err != nil {
			c.sendError(userMessage(err))
			return
		}
		c.sendEvent(EventGroupSent, map[string]any{"message_id": msg.ID, "message": msg})

	case EventTyping:
		var p typingPayload
		if err := json.Unmarshal(ev.env.Payload, &p); err != nil {
			c.sendError("malformed payload")
			return
		}
		if err := g.chat.SetTyping(ctx, c.uid, p.Conversation, p.IsTyping); err != nil {
			g.log.Debugw("typing update failed", "user_id", c.uid, "err", err)
		}

	case EventJoinGroup:
		var p joinGroupPayload
		if err := json.Unmarshal(ev.env.Payload, &p); err != nil {
			c.sendError("malformed payload")
			return
		}
		if err := g.chat.ValidateMembership(ctx, p.GroupID, c.uid); err != nil {
			c.sendError(userMessage(err))
			return
		}
		g.hub.JoinRoom(c, p.GroupID)
		c.sendEvent(EventJoinedGroup, map[string]string{"group_id": p.GroupID})

	default:
		c.sendError("unknown event type")
	}
}

// userMessage keeps internal detail out of frames sent to clients.
func userMessage(err error) string {
	switch {
	case errors.Is(err, apperr.ErrNotFound),
		errors.Is(err, apperr.ErrForbidden),
		errors.Is(err, apperr.ErrInvalidMessage),
		errors.Is(err, apperr.ErrBadRequest):
		return err.Error()
	default:
		return "internal error"
	}
}
