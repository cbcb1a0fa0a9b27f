package templates

import (
	"context"
	"database/sql"
	"fmt"

	"notification-dispatcher/internal/models"
)

const (
	findCandidatesQuery = `SELECT type, channel, company_id, subject, content
		FROM notification_templates
		WHERE type = $1 AND channel = $2 AND company_id IN ($3, '')
		ORDER BY company_id DESC
		LIMIT 2`

	upsertTemplateQuery = `INSERT INTO notification_templates (type, channel, company_id, subject, content, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (type, channel, company_id)
		DO UPDATE SET subject = EXCLUDED.subject, content = EXCLUDED.content, updated_at = NOW()`
)

// PostgresStore reads templates from notification_templates. Defaults have an empty company_id.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindCandidates(ctx context.Context, notificationType models.NotificationType, channel models.ChannelType, companyID string) ([]models.TemplateRecord, error) {
	rows, err := s.db.QueryContext(ctx, findCandidatesQuery, string(notificationType), string(channel), companyID)
	if err != nil {
		return nil, fmt.Errorf("query templates: %w", err)
	}
	defer rows.Close()

	var out []models.TemplateRecord
	for rows.Next() {
		var (
			rec        models.TemplateRecord
			recType    string
			recChannel string
		)
		if err := rows.Scan(&recType, &recChannel, &rec.CompanyID, &rec.Subject, &rec.Content); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		rec.Type = models.NotificationType(recType)
		rec.Channel = models.ChannelType(recChannel)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate templates: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, record models.TemplateRecord) error {
	_, err := s.db.ExecContext(ctx, upsertTemplateQuery,
		string(record.Type), string(record.Channel), record.CompanyID, record.Subject, record.Content)
	if err != nil {
		return fmt.Errorf("upsert template %s/%s/%s: %w", record.Type, record.Channel, record.CompanyID, err)
	}
	return nil
}
