package chat

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tnhan0211/serverzola/internal/apperr"
	"github.com/tnhan0211/serverzola/internal/metrics"
	"github.com/tnhan0211/serverzola/internal/models"
	"github.com/tnhan0211/serverzola/internal/storage"
)

// Outbound events produced by the pipeline. Both the HTTP and the
// realtime path fan out through the same Broadcaster with these names.
const (
	EventReceivePrivate = "receive_private_message"
	EventReceiveGroup   = "receive_group_message"
	EventUserTyping     = "user_typing"
	EventMessageRead    = "message_read"
	EventGroupCreated   = "group_created"
)

type MessageRepo interface {
	Insert(ctx context.Context, m *models.Message) (*models.Message, error)
	GetByID(ctx context.Context, id string) (*models.Message, error)
	DirectHistory(ctx context.Context, userA, userB string) ([]*models.Message, error)
	GroupHistory(ctx context.Context, groupID string) ([]*models.Message, error)
	MarkRead(ctx context.Context, ids []string, at time.Time) error
	SoftDelete(ctx context.Context, id string) error
	LatestDirectMessages(ctx context.Context, userID string, peerIDs []string) (map[string]*models.Message, error)
	LatestGroupMessage(ctx context.Context, groupID string) (*models.Message, error)
}

type GroupRepo interface {
	InsertGroup(ctx context.Context, g *models.Group) (*models.Group, error)
	GetGroup(ctx context.Context, id string) (*models.Group, error)
	TouchGroup(ctx context.Context, id string, at time.Time) error
	UpsertMember(ctx context.Context, m *models.GroupMember) error
	GetMember(ctx context.Context, groupID, userID string) (*models.GroupMember, error)
	ActiveMembers(ctx context.Context, groupID string) ([]*models.GroupMember, error)
	MembershipsForUser(ctx context.Context, userID string) ([]*models.GroupMember, error)
	SetLastRead(ctx context.Context, groupID, userID, messageID string) error
	SetMemberStatus(ctx context.Context, groupID, userID string, status models.MemberStatus) error
	IncMemberCount(ctx context.Context, groupID string, delta int) error
	CountActiveAdmins(ctx context.Context, groupID string) (int64, error)
}

type UserRepo interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

type FriendRepo interface {
	AcceptedFriendIDs(ctx context.Context, userID string) ([]string, error)
}

// PrivacyGate is consulted on every direct send; group sends are gated
// by membership instead.
type PrivacyGate interface {
	IsBlocked(ctx context.Context, actorID, targetID string) (bool, error)
	GetSettings(ctx context.Context, ownerID string) (*models.PrivacySettings, error)
}

type PresenceStore interface {
	SetTyping(ctx context.Context, userID, conversationID string) error
	GetBatch(ctx context.Context, userIDs []string) (map[string]*models.PresenceRecord, error)
}

type BlobStore interface {
	PutObject(ctx context.Context, data []byte, filename, contentType, pathPrefix string) (string, error)
	DeleteObject(ctx context.Context, url string) error
}

// Notifier persists and pushes a notification; failures stay inside it.
type Notifier interface {
	Emit(ctx context.Context, n *models.Notification) (*models.Notification, error)
}

// Broadcaster delivers an event to every live connection in a room.
type Broadcaster interface {
	Broadcast(room, event string, payload any)
}

type EventSink interface {
	MessageSent(ctx context.Context, m *models.Message) error
}

// Service is the message pipeline: it validates, persists and fans out
// messages for both conversation kinds, and is shared by the HTTP
// handlers and the websocket gateway.
type Service struct {
	messages MessageRepo
	groups   GroupRepo
	users    UserRepo
	friends  FriendRepo
	gate     PrivacyGate
	presence PresenceStore
	blobs    BlobStore
	notifier Notifier
	bc       Broadcaster
	events   EventSink
	log      *zap.SugaredLogger
}

type Deps struct {
	Messages MessageRepo
	Groups   GroupRepo
	Users    UserRepo
	Friends  FriendRepo
	Gate     PrivacyGate
	Presence PresenceStore
	Blobs    BlobStore
	Notifier Notifier
	Bc       Broadcaster
	Events   EventSink
	Log      *zap.SugaredLogger
}

func NewService(d Deps) *Service {
	return &Service{
		messages: d.Messages,
		groups:   d.Groups,
		users:    d.Users,
		friends:  d.Friends,
		gate:     d.Gate,
		presence: d.Presence,
		blobs:    d.Blobs,
		notifier: d.Notifier,
		bc:       d.Bc,
		events:   d.Events,
		log:      d.Log,
	}
}

// MediaUpload is an optional attachment supplied with a send.
type MediaUpload struct {
	Data        []byte
	Filename    string
	ContentType string
}

type SendInput struct {
	Content string
	Media   *MediaUpload
}

// classifyKind maps a media content type onto the message kind.
func classifyKind(contentType string) models.MessageKind {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return models.KindImage
	case strings.HasPrefix(contentType, "video/"):
		return models.KindVideo
	default:
		return models.KindFile
	}
}

// prepareBody validates the content/media invariant and, when media is
// present, uploads it before anything is persisted. An upload failure
// aborts the send with no partial write.
func (s *Service) prepareBody(ctx context.Context, in SendInput) (kind models.MessageKind, mediaURL string, err error) {
	if in.Content == "" && in.Media == nil {
		return "", "", apperr.ErrInvalidMessage
	}
	kind = models.KindText
	if in.Media != nil {
		kind = classifyKind(in.Media.ContentType)
		mediaURL, err = s.blobs.PutObject(ctx, in.Media.Data, in.Media.Filename, in.Media.ContentType, "chat-media")
		if err != nil {
			return "", "", fmt.Errorf("%w: %v", apperr.ErrUploadFailure, err)
		}
	}
	return kind, mediaURL, nil
}

// SendDirect implements the send algorithm for direct conversations:
// resolve, block check, validate, upload, persist, then best-effort
// side effects. Fan-out or notification failures never fail the send.
func (s *Service) SendDirect(ctx context.Context, senderID, receiverID string, in SendInput) (*models.Message, error) {
	res, err := s.resolve(ctx, Direct(receiverID), senderID)
	if err != nil {
		return nil, err
	}
	blocked, err := s.gate.IsBlocked(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, fmt.Errorf("%w: you cannot message this user", apperr.ErrForbidden)
	}
	kind, mediaURL, err := s.prepareBody(ctx, in)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    in.Content,
		MediaURL:   mediaURL,
		Kind:       kind,
		Status:     models.MessageSent,
	}
	msg, err = s.messages.Insert(ctx, msg)
	if err != nil {
		return nil, err
	}

	s.afterSend(ctx, msg, res.fanoutRoom, EventReceivePrivate, []string{receiverID}, "")
	return msg, nil
}

// SendGroup is the group variant: membership replaces the block check.
func (s *Service) SendGroup(ctx context.Context, senderID, groupID string, in SendInput) (*models.Message, error) {
	res, err := s.resolve(ctx, Group(groupID), senderID)
	if err != nil {
		return nil, err
	}
	kind, mediaURL, err := s.prepareBody(ctx, in)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		SenderID: senderID,
		GroupID:  groupID,
		Content:  in.Content,
		MediaURL: mediaURL,
		Kind:     kind,
		Status:   models.MessageSent,
	}
	msg, err = s.messages.Insert(ctx, msg)
	if err != nil {
		return nil, err
	}

	if err := s.groups.TouchGroup(ctx, groupID, msg.CreatedAt); err != nil {
		s.log.Warnw("touch group failed", "group_id", groupID, "err", err)
	}
	recipients := s.groupRecipients(ctx, groupID, senderID)
	group, _ := s.groups.GetGroup(ctx, groupID)
	groupName := ""
	if group != nil {
		groupName = group.Name
	}
	s.afterSend(ctx, msg, res.fanoutRoom, EventReceiveGroup, recipients, groupName)
	return msg, nil
}

// afterSend runs the order-independent best-effort side effects of a
// persisted message: clear typing, notify recipients, fan out, publish.
func (s *Service) afterSend(ctx context.Context, msg *models.Message, room, event string, recipients []string, groupName string) {
	metrics.MessagesSent.Inc()

	if err := s.presence.SetTyping(ctx, msg.SenderID, ""); err != nil {
		s.log.Warnw("clear typing failed", "user_id", msg.SenderID, "err", err)
	}

	sender, err := s.users.GetByID(ctx, msg.SenderID)
	if err != nil {
		s.log.Warnw("load sender for notification failed", "user_id", msg.SenderID, "err", err)
	}
	for _, rid := range recipients {
		n := &models.Notification{
			RecipientID: rid,
			Type:        models.NotifyPrivateMessage,
			ActorID:     msg.SenderID,
			MessageID:   msg.ID,
			Content:     preview(msg),
		}
		if msg.GroupID != "" {
			n.Type = models.NotifyGroupMessage
			n.GroupID = msg.GroupID
			n.GroupName = groupName
		}
		if sender != nil {
			n.ActorName = sender.DisplayName
			n.ActorAvatar = sender.AvatarURL
		}
		if _, err := s.notifier.Emit(ctx, n); err != nil {
			s.log.Warnw("notification emit failed", "recipient", rid, "err", err)
		}
	}

	s.bc.Broadcast(room, event, msg)

	if s.events != nil {
		if err := s.events.MessageSent(ctx, msg); err != nil {
			s.log.Warnw("publish message event failed", "message_id", msg.ID, "err", err)
		}
	}
}

func (s *Service) groupRecipients(ctx context.Context, groupID, senderID string) []string {
	members, err := s.groups.ActiveMembers(ctx, groupID)
	if err != nil {
		s.log.Warnw("list group members failed", "group_id", groupID, "err", err)
		return nil
	}
	out := make([]string, 0, len(members))
	for _, m := range members {
		if m.UserID != senderID {
			out = append(out, m.UserID)
		}
	}
	return out
}

const previewLimit = 50

func preview(m *models.Message) string {
	if m.Content == "" {
		return "Sent a " + string(m.Kind)
	}
	runes := []rune(m.Content)
	if len(runes) <= previewLimit {
		return m.Content
	}
	return string(runes[:previewLimit]) + "..."
}

// DirectHistory returns the conversation between the caller and a peer
// in chronological order and flips unread messages addressed to the
// caller to read. Re-fetching is idempotent: already-read messages are
// untouched and produce no receipts.
func (s *Service) DirectHistory(ctx context.Context, callerID, peerID string) ([]*models.Message, error) {
	if _, err := s.resolve(ctx, Direct(peerID), callerID); err != nil {
		return nil, err
	}
	msgs, err := s.messages.DirectHistory(ctx, callerID, peerID)
	if err != nil {
		return nil, err
	}

	readAt := time.Now().UTC()
	var toMark []string
	for _, m := range msgs {
		if m.ReceiverID == callerID && m.Status != models.MessageRead {
			toMark = append(toMark, m.ID)
		}
	}
	if len(toMark) > 0 {
		if err := s.messages.MarkRead(ctx, toMark, readAt); err != nil {
			return nil, err
		}
		marked := make(map[string]bool, len(toMark))
		for _, id := range toMark {
			marked[id] = true
		}
		for _, m := range msgs {
			if marked[m.ID] {
				m.Status = models.MessageRead
				at := readAt
				m.ReadAt = &at
			}
		}
		s.sendReadReceipts(ctx, callerID, peerID, toMark, readAt)
	}
	return msgs, nil
}

// sendReadReceipts notifies the original sender of the read transition,
// unless the reader has read receipts turned off.
func (s *Service) sendReadReceipts(ctx context.Context, readerID, senderID string, messageIDs []string, readAt time.Time) {
	settings, err := s.gate.GetSettings(ctx, readerID)
	if err == nil && settings != nil && !settings.ReadReceipts {
		return
	}
	for _, id := range messageIDs {
		s.bc.Broadcast(senderID, EventMessageRead, map[string]any{
			"message_id": id,
			"read_at":    readAt,
		})
	}
}

// GroupHistory returns a group's messages in chronological order and
// advances the caller's last-read marker to the newest message.
func (s *Service) GroupHistory(ctx context.Context, callerID, groupID string) ([]*models.Message, error) {
	if _, err := s.resolve(ctx, Group(groupID), callerID); err != nil {
		return nil, err
	}
	msgs, err := s.messages.GroupHistory(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if len(msgs) > 0 {
		last := msgs[len(msgs)-1]
		if err := s.groups.SetLastRead(ctx, groupID, callerID, last.ID); err != nil {
			s.log.Warnw("set last read failed", "group_id", groupID, "user_id", callerID, "err", err)
		}
	}
	return msgs, nil
}

// DeleteMessage soft-deletes a message. Only the sender may delete;
// the record is kept for audit, no further transitions are permitted.
func (s *Service) DeleteMessage(ctx context.Context, callerID, messageID string) error {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil || msg == nil {
		return fmt.Errorf("%w: message does not exist", apperr.ErrNotFound)
	}
	if msg.SenderID != callerID {
		return fmt.Errorf("%w: not your message", apperr.ErrForbidden)
	}
	if msg.IsDeleted {
		return nil
	}
	if err := s.messages.SoftDelete(ctx, messageID); err != nil {
		return err
	}
	if msg.MediaURL != "" {
		if err := s.blobs.DeleteObject(ctx, msg.MediaURL); err != nil {
			s.log.Warnw("delete media failed", "message_id", messageID, "err", err)
		}
	}
	return nil
}

type CreateGroupInput struct {
	Name        string
	Description string
	MemberIDs   []string
	Avatar      *MediaUpload
}

// CreateGroup creates the group, one membership row per member with the
// creator forced to admin, and a system message announcing creation.
// Members learn about the group on their personal rooms since none has
// joined the group room yet.
func (s *Service) CreateGroup(ctx context.Context, creatorID string, in CreateGroupInput) (*models.Group, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("%w: group name required", apperr.ErrBadRequest)
	}

	avatarURL := ""
	if in.Avatar != nil {
		if !strings.HasPrefix(in.Avatar.ContentType, "image/") {
			return nil, fmt.Errorf("%w: group avatar must be an image", apperr.ErrBadRequest)
		}
		// avatars are stored as normalized 320px JPEG thumbnails
		thumb, err := storage.Thumbnail(in.Avatar.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: avatar image could not be decoded", apperr.ErrBadRequest)
		}
		url, err := s.blobs.PutObject(ctx, thumb, "avatar.jpg", "image/jpeg", "group-avatars")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperr.ErrUploadFailure, err)
		}
		avatarURL = url
	}

	memberIDs := in.MemberIDs
	hasCreator := false
	for _, id := range memberIDs {
		if id == creatorID {
			hasCreator = true
			break
		}
	}
	if !hasCreator {
		memberIDs = append(memberIDs, creatorID)
	}

	group := &models.Group{
		CreatorID:   creatorID,
		Name:        in.Name,
		Description: in.Description,
		AvatarURL:   avatarURL,
		MemberCount: len(memberIDs),
	}
	group, err := s.groups.InsertGroup(ctx, group)
	if err != nil {
		return nil, err
	}

	joinedAt := group.CreatedAt
	for _, uid := range memberIDs {
		role := models.MemberNormal
		if uid == creatorID {
			role = models.MemberAdmin
		}
		member := &models.GroupMember{
			GroupID:  group.ID,
			UserID:   uid,
			Role:     role,
			Status:   models.MemberActive,
			JoinedAt: joinedAt,
		}
		if err := s.groups.UpsertMember(ctx, member); err != nil {
			return nil, err
		}
	}

	creatorName := "Someone"
	if creator, err := s.users.GetByID(ctx, creatorID); err == nil && creator.DisplayName != "" {
		creatorName = creator.DisplayName
	}
	system := &models.Message{
		SenderID: creatorID,
		GroupID:  group.ID,
		Content:  creatorName + " created the group",
		Kind:     models.KindSystem,
		Status:   models.MessageSent,
	}
	system, err = s.messages.Insert(ctx, system)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"group_data":     group,
		"system_message": system,
	}
	for _, uid := range memberIDs {
		s.bc.Broadcast(uid, EventGroupCreated, payload)
	}
	return group, nil
}

// LeaveGroup marks the caller's membership as left. The last active
// admin cannot leave; a group always keeps at least one admin.
func (s *Service) LeaveGroup(ctx context.Context, userID, groupID string) error {
	if _, err := s.resolve(ctx, Group(groupID), userID); err != nil {
		return err
	}
	member, err := s.groups.GetMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if member == nil || member.Status != models.MemberActive {
		return fmt.Errorf("%w: not a member of this group", apperr.ErrForbidden)
	}
	if member.Role == models.MemberAdmin {
		admins, err := s.groups.CountActiveAdmins(ctx, groupID)
		if err != nil {
			return err
		}
		if admins <= 1 {
			return fmt.Errorf("%w: the last admin cannot leave the group", apperr.ErrForbidden)
		}
	}
	if err := s.groups.SetMemberStatus(ctx, groupID, userID, models.MemberLeft); err != nil {
		return err
	}
	if err := s.groups.IncMemberCount(ctx, groupID, -1); err != nil {
		s.log.Warnw("decrement member count failed", "group_id", groupID, "err", err)
	}

	leaverName := "Someone"
	if u, err := s.users.GetByID(ctx, userID); err == nil && u.DisplayName != "" {
		leaverName = u.DisplayName
	}
	system := &models.Message{
		SenderID: userID,
		GroupID:  groupID,
		Content:  leaverName + " left the group",
		Kind:     models.KindSystem,
		Status:   models.MessageSent,
	}
	if system, err = s.messages.Insert(ctx, system); err != nil {
		s.log.Warnw("insert leave message failed", "group_id", groupID, "err", err)
		return nil
	}
	s.bc.Broadcast(groupID, EventReceiveGroup, system)
	return nil
}

// SetTyping updates the ephemeral typing state and broadcasts it: to
// the peer's personal room for direct conversations, to the group room
// for groups.
func (s *Service) SetTyping(ctx context.Context, userID string, ref ConversationRef, isTyping bool) error {
	if !ref.Valid() {
		return fmt.Errorf("%w: malformed conversation reference", apperr.ErrBadRequest)
	}
	typingIn := ""
	if isTyping {
		typingIn = ref.ID()
	}
	if err := s.presence.SetTyping(ctx, userID, typingIn); err != nil {
		return err
	}

	payload := map[string]any{
		"user_id":      userID,
		"is_typing":    isTyping,
		"conversation": ref,
	}
	room := ref.PeerID
	if ref.Kind == KindGroup {
		room = ref.GroupID
	}
	s.bc.Broadcast(room, EventUserTyping, payload)
	return nil
}

// JoinedGroups lists the groups the user is an active member of.
func (s *Service) JoinedGroups(ctx context.Context, userID string) ([]*models.Group, error) {
	memberships, err := s.groups.MembershipsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Group, 0, len(memberships))
	for _, m := range memberships {
		if m.Status != models.MemberActive {
			continue
		}
		g, err := s.groups.GetGroup(ctx, m.GroupID)
		if err != nil || g == nil || g.IsDeleted {
			continue
		}
		out = append(out, g)
	}
	return out, nil
}

type RecentDirectChat struct {
	PeerID      string                 `json:"peer_id"`
	DisplayName string                 `json:"display_name"`
	AvatarURL   string                 `json:"avatar_url,omitempty"`
	Presence    *models.PresenceRecord `json:"presence,omitempty"`
	LastMessage *models.Message        `json:"last_message"`
}

// RecentDirectChats lists the latest message per accepted friend,
// newest conversation first.
func (s *Service) RecentDirectChats(ctx context.Context, userID string) ([]*RecentDirectChat, error) {
	friendIDs, err := s.friends.AcceptedFriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(friendIDs) == 0 {
		return []*RecentDirectChat{}, nil
	}
	latest, err := s.messages.LatestDirectMessages(ctx, userID, friendIDs)
	if err != nil {
		return nil, err
	}
	peers := make([]string, 0, len(latest))
	for pid := range latest {
		peers = append(peers, pid)
	}
	presences, err := s.presence.GetBatch(ctx, peers)
	if err != nil {
		s.log.Warnw("presence batch failed", "err", err)
		presences = map[string]*models.PresenceRecord{}
	}

	out := make([]*RecentDirectChat, 0, len(latest))
	for pid, msg := range latest {
		entry := &RecentDirectChat{PeerID: pid, LastMessage: msg, Presence: presences[pid]}
		if u, err := s.users.GetByID(ctx, pid); err == nil {
			entry.DisplayName = u.DisplayName
			entry.AvatarURL = u.AvatarURL
		}
		out = append(out, entry)
	}
	sortRecentDirect(out)
	return out, nil
}

type RecentGroupChat struct {
	Group       *models.Group   `json:"group"`
	LastMessage *models.Message `json:"last_message"`
	UnreadCount int             `json:"unread_count"`
}

// RecentGroupChats lists the caller's groups by latest activity with a
// coarse unread hint.
func (s *Service) RecentGroupChats(ctx context.Context, userID string) ([]*RecentGroupChat, error) {
	memberships, err := s.groups.MembershipsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]*RecentGroupChat, 0, len(memberships))
	for _, m := range memberships {
		if m.Status != models.MemberActive {
			continue
		}
		last, err := s.messages.LatestGroupMessage(ctx, m.GroupID)
		if err != nil || last == nil {
			continue
		}
		g, err := s.groups.GetGroup(ctx, m.GroupID)
		if err != nil || g == nil || g.IsDeleted {
			continue
		}
		unread := 0
		if last.ID != m.LastReadMessageID {
			unread = 1
		}
		out = append(out, &RecentGroupChat{Group: g, LastMessage: last, UnreadCount: unread})
	}
	sortRecentGroup(out)
	return out, nil
}

func sortRecentDirect(chats []*RecentDirectChat) {
	sort.Slice(chats, func(i, j int) bool {
		return chats[i].LastMessage.CreatedAt.After(chats[j].LastMessage.CreatedAt)
	})
}

func sortRecentGroup(chats []*RecentGroupChat) {
	sort.Slice(chats, func(i, j int) bool {
		return chats[i].LastMessage.CreatedAt.After(chats[j].LastMessage.CreatedAt)
	})
}
