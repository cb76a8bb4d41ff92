package chat

import (
	"context"
	"strings"

	"github.com/hoseinshahbazi68/nobat-sub002/pkg/apperrors"
)

const (
	DefaultPollLimit = 50
	MaxPollLimit     = 200
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Send stores m on behalf of sender, which always overrides m.SenderID.
func (s *Service) Send(ctx context.Context, sender string, m *Message) error {
	m.SenderID = sender
	m.ReadAt = nil
	if err := m.Validate(); err != nil {
		return err
	}
	return s.repo.Create(ctx, m)
}

// Poll returns the messages of the user/peer conversation newer than afterID.
// Clients pass the last id they have seen.
func (s *Service) Poll(ctx context.Context, user, peer string, afterID int64, limit int) ([]*Message, error) {
	peer = strings.TrimSpace(peer)
	if peer == "" {
		return nil, apperrors.Validation("peer is required")
	}
	if afterID < 0 {
		return nil, apperrors.Validation("after must not be negative")
	}
	if limit <= 0 {
		limit = DefaultPollLimit
	}
	if limit > MaxPollLimit {
		limit = MaxPollLimit
	}
	return s.repo.Conversation(ctx, user, peer, afterID, limit)
}

func (s *Service) MarkRead(ctx context.Context, user string, id int64) error {
	return s.repo.MarkRead(ctx, user, id)
}

func (s *Service) UnreadCount(ctx context.Context, user string) (int, error) {
	return s.repo.UnreadCount(ctx, user)
}
