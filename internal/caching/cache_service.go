package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"freshkeeper/internal/models"
	"freshkeeper/internal/search"
)

// CacheService is the redis-backed cache. Misses are (nil, nil), never an
// error; callers treat cache failures as advisory.
type CacheService interface {
	// Canonical product caching
	GetProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	SetProduct(ctx context.Context, product *models.Product, ttl time.Duration) error
	DeleteProduct(ctx context.Context, productID uuid.UUID) error

	// Resolution caching for the generative tier
	GetResolution(ctx context.Context, key string) (*search.Resolution, error)
	SetResolution(ctx context.Context, key string, res *search.Resolution, ttl time.Duration) error

	// Dashboard summary caching
	GetDashboard(ctx context.Context, userID uuid.UUID) (map[string]interface{}, error)
	SetDashboard(ctx context.Context, userID uuid.UUID, summary map[string]interface{}, ttl time.Duration) error
	InvalidateUserCache(ctx context.Context, userID uuid.UUID) error

	// Rate limiting for the resolution endpoints
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	// Generic string operations
	SetString(ctx context.Context, key, value string, ttl time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error

	// Ping checks redis connectivity for health probes.
	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARN: redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	}

	return &redisCacheService{client: client}
}

func (r *redisCacheService) GetProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	key := fmt.Sprintf("freshkeeper:product:%s", productID.String())
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var product models.Product
	if err := json.Unmarshal(data, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *redisCacheService) SetProduct(ctx context.Context, product *models.Product, ttl time.Duration) error {
	key := fmt.Sprintf("freshkeeper:product:%s", product.ID.String())
	data, err := json.Marshal(product)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	key := fmt.Sprintf("freshkeeper:product:%s", productID.String())
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) GetResolution(ctx context.Context, key string) (*search.Resolution, error) {
	cacheKey := fmt.Sprintf("freshkeeper:resolution:%s", key)
	data, err := r.client.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var resolution search.Resolution
	if err := json.Unmarshal(data, &resolution); err != nil {
		return nil, err
	}
	return &resolution, nil
}

func (r *redisCacheService) SetResolution(ctx context.Context, key string, res *search.Resolution, ttl time.Duration) error {
	cacheKey := fmt.Sprintf("freshkeeper:resolution:%s", key)
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, cacheKey, data, ttl).Err()
}

func (r *redisCacheService) GetDashboard(ctx context.Context, userID uuid.UUID) (map[string]interface{}, error) {
	key := fmt.Sprintf("freshkeeper:dashboard:%s", userID.String())
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var summary map[string]interface{}
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, err
	}
	return summary, nil
}

func (r *redisCacheService) SetDashboard(ctx context.Context, userID uuid.UUID, summary map[string]interface{}, ttl time.Duration) error {
	key := fmt.Sprintf("freshkeeper:dashboard:%s", userID.String())
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) InvalidateUserCache(ctx context.Context, userID uuid.UUID) error {
	pattern := fmt.Sprintf("freshkeeper:dashboard:%s", userID.String())
	keys, err := r.client.Keys(ctx, pattern).Result()
	if err != nil {
		return err
	}
	if len(keys) > 0 {
		return r.client.Del(ctx, keys...).Err()
	}
	return nil
}

func (r *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	cacheKey := fmt.Sprintf("freshkeeper:ratelimit:%s", key)
	count, err := r.client.Incr(ctx, cacheKey).Result()
	if err != nil {
		return true, err
	}
	if count == 1 {
		r.client.Expire(ctx, cacheKey, window)
	}
	return count > int64(limit), nil
}

func (r *redisCacheService) SetString(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *redisCacheService) GetString(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil // cache miss
		}
		return "", err
	}
	return val, nil
}

func (r *redisCacheService) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
