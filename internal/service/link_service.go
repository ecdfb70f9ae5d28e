package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/SergeiKhy/shortlink/internal/models"
	"github.com/SergeiKhy/shortlink/internal/repository"
	"go.uber.org/zap"
)

// Ошибки сервиса
var (
	ErrNotFound      = errors.New("ссылка не найдена")
	ErrUnauthorized  = errors.New("невалидный токен статистики")
	ErrKeysExhausted = errors.New("не удалось подобрать уникальный ключ")
)

// Константы сервиса
const (
	linkTTL      = 30 * 24 * time.Hour // TTL записи, отсчитывается от резервирования
	keyLength    = 6                   // Длина короткого ключа
	tokenLength  = 24                  // Длина секретного токена статистики
	maxAttempts  = 3                   // Количество попыток подбора ключа
	charset      = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// LinkService интерфейс сервиса ссылок
type LinkService interface {
	CreateLink(ctx context.Context, originalURL string) (*models.Link, error)
	ResolveLink(ctx context.Context, key string) (string, error)
	GetStats(ctx context.Context, key, suppliedToken string) (*models.LinkStats, error)
}

// linkService реализация сервиса ссылок
type linkService struct {
	linkRepo repository.LinkRepository
	logger   *zap.Logger
}

// NewLinkService создаёт новый экземпляр сервиса
func NewLinkService(linkRepo repository.LinkRepository, logger *zap.Logger) LinkService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &linkService{
		linkRepo: linkRepo,
		logger:   logger,
	}
}

// CreateLink резервирует уникальный короткий ключ и заполняет запись ссылки.
// Секретный токен возвращается только здесь, повторно получить его нельзя.
func (s *linkService) CreateLink(ctx context.Context, originalURL string) (*models.Link, error) {
	key, err := s.allocateKey(ctx)
	if err != nil {
		return nil, err
	}

	token, err := randString(tokenLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	if err := s.linkRepo.Finalize(ctx, key, originalURL, token); err != nil {
		return nil, err
	}

	return &models.Link{
		ShortKey:    key,
		OriginalURL: originalURL,
		SecretToken: token,
		Clicks:      0,
	}, nil
}

// allocateKey подбирает свободный короткий ключ. Пространство 62^6 (~56 млрд)
// достаточно велико, чтобы ограничиться тремя попытками вместо бесконечного
// цикла: коллизия на каждой из трёх подряд практически невозможна.
func (s *linkService) allocateKey(ctx context.Context) (string, error) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		key, err := randString(keyLength)
		if err != nil {
			return "", fmt.Errorf("failed to generate key: %w", err)
		}

		reserved, err := s.linkRepo.Reserve(ctx, key, linkTTL)
		if err != nil {
			return "", err
		}
		if reserved {
			return key, nil
		}

		s.logger.Warn("Short key collision, retrying",
			zap.String("key", key),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxAttempts),
		)
	}

	return "", ErrKeysExhausted
}

// ResolveLink возвращает целевой URL и синхронно увеличивает счётчик переходов.
// Ключ, зарезервированный, но не заполненный (пустой url), считается
// несуществующим. Ошибка инкремента фатальна для всего запроса — счётчик
// всегда совпадает с числом успешных редиректов.
func (s *linkService) ResolveLink(ctx context.Context, key string) (string, error) {
	url, err := s.linkRepo.GetURL(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}

	if url == "" {
		return "", ErrNotFound
	}

	if err := s.linkRepo.IncrementClicks(ctx, key); err != nil {
		return "", err
	}

	return url, nil
}

// GetStats возвращает счётчик переходов по секретному токену. Отсутствие
// токена в запросе неотличимо от отсутствия самого ключа (NotFound), чтобы
// не подтверждать существование ссылки неавторизованным клиентам.
func (s *linkService) GetStats(ctx context.Context, key, suppliedToken string) (*models.LinkStats, error) {
	storedToken, err := s.linkRepo.GetToken(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if suppliedToken == "" {
		return nil, ErrNotFound
	}
	if suppliedToken != storedToken {
		return nil, ErrUnauthorized
	}

	clicks, err := s.linkRepo.GetClicks(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &models.LinkStats{
		ShortKey: key,
		Clicks:   clicks,
	}, nil
}

// randString генерирует случайную строку заданной длины из букв и цифр
func randString(length int) (string, error) {
	result := make([]byte, length)
	for i := 0; i < length; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[num.Int64()]
	}
	return string(result), nil
}
