package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SergeiKhy/share-engine/internal/models"
)

// CacheRepository кэш шаринг-ссылок по share-коду для горячего публичного пути
type CacheRepository interface {
	Get(ctx context.Context, shareCode string) (*models.ShareLink, error)
	Set(ctx context.Context, shareCode string, link *models.ShareLink, ttl time.Duration) error
	Delete(ctx context.Context, shareCode string) error
}

type cacheRepository struct {
	redis *RedisDB
}

func NewCacheRepository(redis *RedisDB) CacheRepository {
	return &cacheRepository{redis: redis}
}

func (r *cacheRepository) Get(ctx context.Context, shareCode string) (*models.ShareLink, error) {
	data, err := r.redis.Client.Get(ctx, r.key(shareCode)).Bytes()
	if err != nil {
		return nil, err
	}

	var link models.ShareLink
	if err := json.Unmarshal(data, &link); err != nil {
		return nil, fmt.Errorf("failed to unmarshal share link: %w", err)
	}

	return &link, nil
}

func (r *cacheRepository) Set(ctx context.Context, shareCode string, link *models.ShareLink, ttl time.Duration) error {
	data, err := json.Marshal(link)
	if err != nil {
		return fmt.Errorf("failed to marshal share link: %w", err)
	}

	return r.redis.Client.Set(ctx, r.key(shareCode), data, ttl).Err()
}

func (r *cacheRepository) Delete(ctx context.Context, shareCode string) error {
	return r.redis.Client.Del(ctx, r.key(shareCode)).Err()
}

func (r *cacheRepository) key(shareCode string) string {
	return "share:" + shareCode
}
