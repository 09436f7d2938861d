package chat

import (
	"context"
	"fmt"

	"github.com/tnhan0211/serverzola/internal/apperr"
	"github.com/tnhan0211/serverzola/internal/models"
)

type ConversationKind string

const (
	KindDirect ConversationKind = "direct"
	KindGroup  ConversationKind = "group"
)

// ConversationRef is a tagged reference carried explicitly in every
// payload: exactly one of PeerID / GroupID is set depending on Kind.
// The kind is never inferred from the shape of an id.
type ConversationRef struct {
	Kind    ConversationKind `json:"kind"`
	PeerID  string           `json:"peer_id,omitempty"`
	GroupID string           `json:"group_id,omitempty"`
}

func Direct(peerID string) ConversationRef {
	return ConversationRef{Kind: KindDirect, PeerID: peerID}
}

func Group(groupID string) ConversationRef {
	return ConversationRef{Kind: KindGroup, GroupID: groupID}
}

func (r ConversationRef) Valid() bool {
	switch r.Kind {
	case KindDirect:
		return r.PeerID != "" && r.GroupID == ""
	case KindGroup:
		return r.GroupID != "" && r.PeerID == ""
	}
	return false
}

// ID is the storage form used for typing_in and similar fields.
func (r ConversationRef) ID() string {
	if r.Kind == KindDirect {
		return "direct:" + r.PeerID
	}
	return "group:" + r.GroupID
}

// resolution is the outcome of resolving a conversation for an actor:
// where fan-out goes and which kind of persistence applies.
type resolution struct {
	kind       ConversationKind
	fanoutRoom string
}

// resolve validates that the actor may address the conversation.
// Direct conversations always resolve when the peer account exists;
// group conversations require an active membership.
func (s *Service) resolve(ctx context.Context, ref ConversationRef, actorID string) (*resolution, error) {
	if !ref.Valid() {
		return nil, fmt.Errorf("%w: malformed conversation reference", apperr.ErrBadRequest)
	}
	switch ref.Kind {
	case KindDirect:
		peer, err := s.users.GetByID(ctx, ref.PeerID)
		if err != nil {
			return nil, fmt.Errorf("%w: recipient does not exist", apperr.ErrNotFound)
		}
		if peer.IsDeleted {
			return nil, fmt.Errorf("%w: recipient does not exist", apperr.ErrNotFound)
		}
		return &resolution{kind: KindDirect, fanoutRoom: ref.PeerID}, nil
	case KindGroup:
		group, err := s.groups.GetGroup(ctx, ref.GroupID)
		if err != nil || group == nil || group.IsDeleted {
			return nil, fmt.Errorf("%w: group does not exist", apperr.ErrNotFound)
		}
		member, err := s.groups.GetMember(ctx, ref.GroupID, actorID)
		if err != nil || member == nil || member.Status != models.MemberActive {
			return nil, fmt.Errorf("%w: not a member of this group", apperr.ErrForbidden)
		}
		return &resolution{kind: KindGroup, fanoutRoom: ref.GroupID}, nil
	}
	return nil, fmt.Errorf("%w: unknown conversation kind", apperr.ErrBadRequest)
}

// ValidateMembership is the membership half of resolve, exposed for the
// transport gateway's join_group handling.
func (s *Service) ValidateMembership(ctx context.Context, groupID, userID string) error {
	_, err := s.resolve(ctx, Group(groupID), userID)
	return err
}
