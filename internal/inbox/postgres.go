package inbox

import (
	"context"
	"database/sql"
	"fmt"

	"notification-dispatcher/internal/models"
)

const (
	insertNotificationQuery = `INSERT INTO ui_notifications (id, user_id, content, read, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	listNotificationsQuery = `SELECT id, user_id, content, read, created_at
		FROM ui_notifications WHERE user_id = $1
		ORDER BY created_at DESC`
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, n models.UINotification) error {
	if _, err := s.db.ExecContext(ctx, insertNotificationQuery, n.ID, n.UserID, n.Content, n.Read, n.CreatedAt); err != nil {
		return fmt.Errorf("insert ui notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]models.UINotification, error) {
	rows, err := s.db.QueryContext(ctx, listNotificationsQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("query ui notifications: %w", err)
	}
	defer rows.Close()

	out := []models.UINotification{}
	for rows.Next() {
		var n models.UINotification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Content, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ui notification: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ui notifications: %w", err)
	}
	return out, nil
}
