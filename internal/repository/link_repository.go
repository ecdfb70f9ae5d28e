package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrLinkNotFound = errors.New("ссылка не найдена")

// Имена полей хэша записи. Одна запись = один Redis hash с ключом,
// равным короткому коду ссылки.
const (
	fieldURL    = "url"
	fieldToken  = "token"
	fieldClicks = "clicks"
)

type LinkRepository interface {
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Finalize(ctx context.Context, key, url, token string) error
	GetURL(ctx context.Context, key string) (string, error)
	GetToken(ctx context.Context, key string) (string, error)
	GetClicks(ctx context.Context, key string) (int64, error)
	IncrementClicks(ctx context.Context, key string) error
}

type linkRepository struct {
	redis *RedisDB
}

func NewLinkRepository(redis *RedisDB) LinkRepository {
	return &linkRepository{redis: redis}
}

// Reserve атомарно резервирует короткий ключ. HSETNX по полю url заменяет
// пару EXISTS + HSET: ключ считается занятым, если поле уже существует,
// поэтому две конкурентные попытки не могут зарезервировать один ключ.
// Пустой url — маркер "зарезервировано, но не заполнено".
func (r *linkRepository) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	reserved, err := r.redis.Client.HSetNX(ctx, key, fieldURL, "").Result()
	if err != nil {
		return false, fmt.Errorf("failed to reserve key: %w", err)
	}
	if !reserved {
		return false, nil
	}

	if err := r.redis.Client.Expire(ctx, key, ttl).Err(); err != nil {
		return false, fmt.Errorf("failed to set TTL: %w", err)
	}

	return true, nil
}

// Finalize записывает url, token и обнулённый счётчик одной командой HSET.
// Запись атомарна: частично заполненная активная запись невозможна.
// TTL при этом не обновляется — он отсчитывается от момента резервирования.
func (r *linkRepository) Finalize(ctx context.Context, key, url, token string) error {
	err := r.redis.Client.HSet(ctx, key,
		fieldURL, url,
		fieldToken, token,
		fieldClicks, 0,
	).Err()
	if err != nil {
		return fmt.Errorf("failed to finalize link: %w", err)
	}

	return nil
}

func (r *linkRepository) GetURL(ctx context.Context, key string) (string, error) {
	url, err := r.redis.Client.HGet(ctx, key, fieldURL).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrLinkNotFound
		}
		return "", fmt.Errorf("failed to get url: %w", err)
	}

	return url, nil
}

func (r *linkRepository) GetToken(ctx context.Context, key string) (string, error) {
	token, err := r.redis.Client.HGet(ctx, key, fieldToken).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrLinkNotFound
		}
		return "", fmt.Errorf("failed to get token: %w", err)
	}

	return token, nil
}

func (r *linkRepository) GetClicks(ctx context.Context, key string) (int64, error) {
	clicks, err := r.redis.Client.HGet(ctx, key, fieldClicks).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrLinkNotFound
		}
		return 0, fmt.Errorf("failed to get clicks: %w", err)
	}

	return clicks, nil
}

// IncrementClicks атомарно увеличивает счётчик переходов. HINCRBY
// сериализуется самим Redis, потерянных обновлений не бывает.
func (r *linkRepository) IncrementClicks(ctx context.Context, key string) error {
	if err := r.redis.Client.HIncrBy(ctx, key, fieldClicks, 1).Err(); err != nil {
		return fmt.Errorf("failed to increment clicks: %w", err)
	}

	return nil
}
