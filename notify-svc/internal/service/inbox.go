package service

import (
	"context"

	"github.com/google/uuid"

	"tablebook/auth"
	"tablebook/notify-svc/internal/domain"
)

const (
	DefaultInboxLimit = 50
	MaxInboxLimit     = 200
)

// InboxService serves the caller's own notifications; there is no way to
// read someone else's inbox, admins included.
type InboxService struct {
	store StoreInterface
}

func NewInboxService(store StoreInterface) *InboxService {
	return &InboxService{store: store}
}

func (s *InboxService) List(ctx context.Context, p *auth.Principal, q domain.InboxQuery) ([]domain.Notification, error) {
	if p == nil {
		return nil, domain.ErrNotAuthenticated
	}
	switch {
	case q.Limit <= 0:
		q.Limit = DefaultInboxLimit
	case q.Limit > MaxInboxLimit:
		q.Limit = MaxInboxLimit
	}
	items, err := s.store.List(ctx, p.UserID, q)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Notification{}
	}
	return items, nil
}

func (s *InboxService) UnreadCount(ctx context.Context, p *auth.Principal) (int, error) {
	if p == nil {
		return 0, domain.ErrNotAuthenticated
	}
	return s.store.CountUnread(ctx, p.UserID)
}

func (s *InboxService) MarkRead(ctx context.Context, p *auth.Principal, id uuid.UUID) error {
	if p == nil {
		return domain.ErrNotAuthenticated
	}
	return s.store.MarkRead(ctx, p.UserID, id)
}

func (s *InboxService) MarkAllRead(ctx context.Context, p *auth.Principal) (int64, error) {
	if p == nil {
		return 0, domain.ErrNotAuthenticated
	}
	return s.store.MarkAllRead(ctx, p.UserID)
}
