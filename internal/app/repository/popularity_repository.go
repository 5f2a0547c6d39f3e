package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	popularityKey     = "templates:popular"
	processedKeyspace = "templates:usage-event:"
)

// TemplateScore is one entry of the popularity ranking.
type TemplateScore struct {
	TemplateID uint    `json:"template_id"`
	Uses       float64 `json:"uses"`
}

// PopularityRepository keeps a usage ranking of templates in Redis.
type PopularityRepository interface {
	// Apply increments the ranking once per event id.
	Apply(ctx context.Context, eventID string, templateID uint) (bool, error)
	Top(ctx context.Context, n int64) ([]TemplateScore, error)
}

type popularityRepository struct {
	rdb       *redis.Client
	dedupeTTL time.Duration
}

// NewPopularityRepository returns a Redis-backed PopularityRepository.
func NewPopularityRepository(rdb *redis.Client) PopularityRepository {
	return &popularityRepository{rdb: rdb, dedupeTTL: 24 * time.Hour}
}

func (r *popularityRepository) Apply(ctx context.Context, eventID string, templateID uint) (bool, error) {
	fresh, err := r.rdb.SetNX(ctx, processedKeyspace+eventID, 1, r.dedupeTTL).Result()
	if err != nil {
		return false, err
	}
	if !fresh {
		return false, nil
	}
	member := strconv.FormatUint(uint64(templateID), 10)
	if err := r.rdb.ZIncrBy(ctx, popularityKey, 1, member).Err(); err != nil {
		// let a redelivery retry the increment
		_ = r.rdb.Del(ctx, processedKeyspace+eventID).Err()
		return false, err
	}
	return true, nil
}

func (r *popularityRepository) Top(ctx context.Context, n int64) ([]TemplateScore, error) {
	if n <= 0 {
		n = 10
	}
	entries, err := r.rdb.ZRevRangeWithScores(ctx, popularityKey, 0, n-1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	result := make([]TemplateScore, 0, len(entries))
	for _, z := range entries {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		id, err := strconv.ParseUint(member, 10, 64)
		if err != nil {
			continue
		}
		result = append(result, TemplateScore{TemplateID: uint(id), Uses: z.Score})
	}
	return result, nil
}
