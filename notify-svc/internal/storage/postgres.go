package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"tablebook/notify-svc/internal/domain"
	"tablebook/notify-svc/internal/service"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

var _ service.StoreInterface = (*Store)(nil)

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Insert(ctx context.Context, n domain.Notification) (bool, error) {
	var related uuid.NullUUID
	if n.RelatedID != nil {
		related = uuid.NullUUID{UUID: *n.RelatedID, Valid: true}
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, type, title, message, related_id, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7)
		ON CONFLICT (id) DO NOTHING
	`, n.ID, n.UserID, n.Type, n.Title, n.Message, related, n.CreatedAt)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (s *Store) List(ctx context.Context, userID uuid.UUID, q domain.InboxQuery) ([]domain.Notification, error) {
	query := `
		SELECT id, user_id, type, title, message, related_id, is_read, created_at
		FROM notifications
		WHERE user_id = $1`
	if q.UnreadOnly {
		query += " AND NOT is_read"
	}
	query += " ORDER BY created_at DESC, id LIMIT $2"

	rows, err := s.db.QueryContext(ctx, query, userID, q.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Notification
	for rows.Next() {
		var (
			n       domain.Notification
			related uuid.NullUUID
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &related, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		if related.Valid {
			id := related.UUID
			n.RelatedID = &id
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

func (s *Store) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read", userID).Scan(&count)
	return count, err
}

// MarkRead is idempotent: marking an already read notification succeeds.
func (s *Store) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return nil
}

func (s *Store) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND NOT is_read", userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
