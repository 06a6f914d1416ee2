package repository

import (
	"context"
	"time"
)

// CacheRepository определяет методы для работы с кешем (Redis).
// Отсутствующий ключ возвращается как apperrors.ErrNotFound.
type CacheRepository interface {
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	GetJSON(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, key string) error
	// SetNX устанавливает ключ, только если его нет (используется как распределенная блокировка)
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
}
