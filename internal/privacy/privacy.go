package privacy

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tnhan0211/serverzola/internal/apperr"
	"github.com/tnhan0211/serverzola/internal/models"
)

// SettingsRepo persists per-user privacy settings.
type SettingsRepo interface {
	Get(ctx context.Context, ownerID string) (*models.PrivacySettings, error)
	AddBlocked(ctx context.Context, ownerID, targetID string) error
	RemoveBlocked(ctx context.Context, ownerID, targetID string) error
	SetPolicy(ctx context.Context, ownerID string, policy models.MessagePolicy, readReceipts *bool) error
}

// FriendshipRepo is the external friendship collaborator; blocking a user
// tears down the friendship and any pending requests between the pair.
type FriendshipRepo interface {
	RemovePair(ctx context.Context, a, b string) error
}

type UserRepo interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Gate is the single predicate consulted by every send/interact path.
type Gate interface {
	IsBlocked(ctx context.Context, actorID, targetID string) (bool, error)
}

type Service struct {
	settings    SettingsRepo
	friendships FriendshipRepo
	users       UserRepo
	log         *zap.SugaredLogger
}

var _ Gate = (*Service)(nil)

func NewService(settings SettingsRepo, friendships FriendshipRepo, users UserRepo, log *zap.SugaredLogger) *Service {
	return &Service{settings: settings, friendships: friendships, users: users, log: log}
}

// IsBlocked reports whether actorID appears in targetID's block list.
// Blocking is checked at send time only, never retroactively.
func (s *Service) IsBlocked(ctx context.Context, actorID, targetID string) (bool, error) {
	settings, err := s.settings.Get(ctx, targetID)
	if err != nil {
		return false, err
	}
	for _, id := range settings.BlockedIDs {
		if id == actorID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) GetSettings(ctx context.Context, ownerID string) (*models.PrivacySettings, error) {
	return s.settings.Get(ctx, ownerID)
}

func (s *Service) UpdateSettings(ctx context.Context, ownerID string, policy models.MessagePolicy, readReceipts *bool) error {
	if policy != "" {
		switch policy {
		case models.MessagesFromEveryone, models.MessagesFromFriends, models.MessagesFromNobody:
		default:
			return fmt.Errorf("%w: allow_messages_from %q", apperr.ErrBadRequest, policy)
		}
	}
	return s.settings.SetPolicy(ctx, ownerID, policy, readReceipts)
}

// Block adds targetID to ownerID's block list and removes the friendship
// and pending requests between the two.
func (s *Service) Block(ctx context.Context, ownerID, targetID string) error {
	if ownerID == targetID {
		return fmt.Errorf("%w: cannot block yourself", apperr.ErrForbidden)
	}
	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		return err
	}
	settings, err := s.settings.Get(ctx, ownerID)
	if err != nil {
		return err
	}
	for _, id := range settings.BlockedIDs {
		if id == targetID {
			return fmt.Errorf("%w: user already blocked", apperr.ErrAlreadyExists)
		}
	}
	if err := s.settings.AddBlocked(ctx, ownerID, targetID); err != nil {
		return err
	}
	if err := s.friendships.RemovePair(ctx, ownerID, targetID); err != nil {
		// the block itself succeeded; friendship cleanup is best-effort
		s.log.Warnw("friendship cleanup after block failed", "owner", ownerID, "target", targetID, "err", err)
	}
	return nil
}

func (s *Service) Unblock(ctx context.Context, ownerID, targetID string) error {
	settings, err := s.settings.Get(ctx, ownerID)
	if err != nil {
		return err
	}
	blocked := false
	for _, id := range settings.BlockedIDs {
		if id == targetID {
			blocked = true
			break
		}
	}
	if !blocked {
		return fmt.Errorf("%w: user is not blocked", apperr.ErrNotFound)
	}
	return s.settings.RemoveBlocked(ctx, ownerID, targetID)
}

// BlockedUsers returns profile summaries for everyone the owner blocked.
func (s *Service) BlockedUsers(ctx context.Context, ownerID string) ([]*models.User, error) {
	settings, err := s.settings.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]*models.User, 0, len(settings.BlockedIDs))
	for _, id := range settings.BlockedIDs {
		u, err := s.users.GetByID(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}
