package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/danger-5344/templa-socialV2/internal/app/model"
	"github.com/jackc/pgx/v5"
)

// Querier is the subset of pgxpool.Pool used by the usage repository.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UsageRepository records template usage counters.
type UsageRepository interface {
	Record(ctx context.Context, userID string, templateID uint, at time.Time) (*model.TemplateUsage, error)
	UsedTemplateIDs(ctx context.Context, userID string, templateIDs []uint) ([]uint, error)
}

type usageRepository struct {
	db Querier
}

// NewUsageRepository returns a pgx-backed UsageRepository.
func NewUsageRepository(db Querier) UsageRepository {
	return &usageRepository{db: db}
}

// The upsert is a single statement: concurrent calls for the same
// (user, template) serialize on the row and never lose an increment.
const recordUsageSQL = `
INSERT INTO template_usages (user_id, template_id, used_count, last_used_at)
VALUES ($1, $2, 1, $3)
ON CONFLICT (user_id, template_id)
DO UPDATE SET used_count = template_usages.used_count + 1,
              last_used_at = EXCLUDED.last_used_at
RETURNING id, used_count, last_used_at`

func (r *usageRepository) Record(ctx context.Context, userID string, templateID uint, at time.Time) (*model.TemplateUsage, error) {
	usage := &model.TemplateUsage{
		UserID:     userID,
		TemplateID: templateID,
	}
	err := r.db.QueryRow(ctx, recordUsageSQL, userID, int64(templateID), at.UTC()).
		Scan(&usage.ID, &usage.UsedCount, &usage.LastUsedAt)
	if err != nil {
		return nil, fmt.Errorf("record usage: %w", err)
	}
	return usage, nil
}

func (r *usageRepository) UsedTemplateIDs(ctx context.Context, userID string, templateIDs []uint) ([]uint, error) {
	if len(templateIDs) == 0 {
		return nil, nil
	}
	ids := make([]int64, len(templateIDs))
	for i, id := range templateIDs {
		ids[i] = int64(id)
	}

	rows, err := r.db.Query(ctx,
		`SELECT template_id FROM template_usages WHERE user_id = $1 AND template_id = ANY($2)`,
		userID, ids)
	if err != nil {
		return nil, fmt.Errorf("query used templates: %w", err)
	}

	used, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (uint, error) {
		var id int64
		err := row.Scan(&id)
		return uint(id), err
	})
	if err != nil {
		return nil, fmt.Errorf("scan used templates: %w", err)
	}
	return used, nil
}
