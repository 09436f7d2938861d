package api

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/tnhan0211/serverzola/internal/auth"
	"github.com/tnhan0211/serverzola/internal/chat"
)

type ChatHandler struct {
	svc *chat.Service
}

func NewChatHandler(svc *chat.Service) *ChatHandler {
	return &ChatHandler{svc: svc}
}

// readUpload pulls an optional multipart file field into memory. A
// missing field is not an error; the send may be text-only.
func readUpload(c *fiber.Ctx, field string) (*chat.MediaUpload, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &chat.MediaUpload{
		Data:        data,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
	}, nil
}

// SendPrivate handles POST /api/chat/private. Accepts JSON for
// text-only sends and multipart/form-data when a file rides along.
func (h *ChatHandler) SendPrivate(c *fiber.Ctx) error {
	var receiverID, content string
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		receiverID = c.FormValue("receiver_id")
		content = c.FormValue("content")
	} else {
		var body struct {
			ReceiverID string `json:"receiver_id"`
			Content    string `json:"content"`
		}
		if err := c.BodyParser(&body); err != nil {
			return jsonError(c, fiber.StatusBadRequest, "malformed body")
		}
		receiverID, content = body.ReceiverID, body.Content
	}
	if receiverID == "" {
		return jsonError(c, fiber.StatusBadRequest, "receiver_id is required")
	}
	media, err := readUpload(c, "media")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "unreadable upload")
	}

	msg, err := h.svc.SendDirect(c.Context(), auth.UserID(c), receiverID, chat.SendInput{Content: content, Media: media})
	if err != nil {
		return fail(c, err)
	}
	return jsonSuccess(c, fiber.StatusCreated, msg)
}

// PrivateHistory handles GET /api/chat/private/:user_id. Fetching the
// history marks unread messages addressed to the caller as read.
func (h *ChatHandler) PrivateHistory(c *fiber.Ctx) error {
	msgs, err := h.svc.DirectHistory(c.Context(), auth.UserID(c), c.Params("user_id"))
	if err != nil {
		return fail(c, err)
	}
	return jsonSuccess(c, fiber.StatusOK, msgs)
}

// CreateGroup handles POST /api/chat/group.
func (h *ChatHandler) CreateGroup(c *fiber.Ctx) error {
	in := chat.CreateGroupInput{}
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		in.Name = c.FormValue("name")
		in.Description = c.FormValue("description")
		if raw := c.FormValue("member_ids"); raw != "" {
			in.MemberIDs = splitIDs(raw)
		}
		avatar, err := readUpload(c, "avatar")
		if err != nil {
			return jsonError(c, fiber.StatusBadRequest, "unreadable upload")
		}
		in.Avatar = avatar
	} else {
		var body struct {
			Name        string   `json:"name"`
			Description string   `json:"description"`
			MemberIDs   []string `json:"member_ids"`
		}
		if err := c.BodyParser(&body); err != nil {
			return jsonError(c, fiber.StatusBadRequest, "malformed body")
		}
		in.Name, in.Description, in.MemberIDs = body.Name, body.Description, body.MemberIDs
	}

	group, err := h.svc.CreateGroup(c.Context(), auth.UserID(c), in)
	if err != nil {
		return fail(c, err)
	}
	return jsonSuccess(c, fiber.StatusCreated, group)
}

func splitIDs(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SendGroup handles POST /api/chat/group/message.
func (h *ChatHandler) SendGroup(c *fiber.Ctx) error {
	var groupID, content string
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		groupID = c.FormValue("group_id")
		content = c.FormValue("content")
	} else {
		var body struct {
			GroupID string `json:"group_id"`
			Content string `json:"content"`
		}
		if err := c.BodyParser(&body); err != nil {
			return jsonError(c, fiber.StatusBadRequest, "malformed body")
		}
		groupID, content = body.GroupID, body.Content
	}
	if groupID == "" {
		return jsonError(c, fiber.StatusBadRequest, "group_id is required")
	}
	media, err := readUpload(c, "media")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "unreadable upload")
	}

	msg, err := h.svc.SendGroup(c.Context(), auth.UserID(c), groupID, chat.SendInput{Content: content, Media: media})
	if err != nil {
		return fail(c, err)
	}
	return jsonSuccess(c, fiber.StatusCreated, msg)
}

// GroupHistory handles GET /api/chat/group/:group_id/messages.
func (h *ChatHandler) GroupHistory(c *fiber.Ctx) error {
	msgs, err := h.svc.GroupHistory(c.Context(), auth.UserID(c), c.Params("group_id"))
	if err != nil {
		return fail(c, err)
	}
	return jsonSuccess(c, fiber.StatusOK, msgs)
}

// LeaveGroup handles POST /api/chat/group/:group_id/leave.
func (h *ChatHandler) LeaveGroup(c *fiber.Ctx) error {
	if err := h.svc.LeaveGroup(c.Context(), auth.UserID(c), c.Params("group_id")); err != nil {
		return fail(c, err)
	}
	return jsonSuccess(c, fiber.StatusOK, fiber.Map{"left": true})
}

// Typing handles POST /api/chat/typing for clients not on a socket.
func (h *ChatHandler) Typing(c *fiber.Ctx) error {
	var body struct {
		Conversation chat.ConversationRef `json:"conversation"`
		IsTyping     bool                 `json:"is_typing"`
	}
	if err := c.BodyParser(&body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "malformed body")
	}
	if err := h.svc.SetTyping(c.Context(), auth.UserID(c), body.Conversation, body.IsTyping); err != nil {
		return fail(c, err)
	}
	return jsonSuccess(c, fiber.StatusOK, fiber.Map{"typing": body.IsTyping})
}

// JoinedGroups handles GET /api/chat/groups.
func (h *ChatHandler) JoinedGroups(c *fiber.Ctx) error {
	groups, err := h.svc.JoinedGroups(c.Context(), auth.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	return jsonSuccess(c, fiber.StatusOK, groups)
}

// RecentDirect handles GET /api/chat/recent/direct.
func (h *ChatHandler) RecentDirect(c *fiber.Ctx) error {
	chats, err := h.svc.RecentDirectChats(c.Context(), auth.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	return jsonSuccess(c, fiber.StatusOK, chats)
}

// RecentGroups handles GET /api/chat/recent/groups.
func (h *ChatHandler) RecentGroups(c *fiber.Ctx) error {
	chats, err := h.svc.RecentGroupChats(c.Context(), auth.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	return jsonSuccess(c, fiber.StatusOK, chats)
}

// DeleteMessage handles DELETE /api/chat/message/:message_id.
func (h *ChatHandler) DeleteMessage(c *fiber.Ctx) error {
	if err := h.svc.DeleteMessage(c.Context(), auth.UserID(c), c.Params("message_id")); err != nil {
		return fail(c, err)
	}
	return jsonSuccess(c, fiber.StatusOK, fiber.Map{"deleted": true})
}
