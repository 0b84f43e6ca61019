// Package storage описывает постоянное локальное хранилище ключ/значение,
// в которое клиент складывает access-токен и данные пользователя.
//
// Драйверы:
//   - memory   (in-process, для тестов и разовых запусков)
//   - file     (JSON-файл на диске, по умолчанию)
//   - redis    (общее хранилище для нескольких клиентов)
//   - postgres (таблица local_storage, схема через миграции)
//
// Запись всегда безусловная: новое значение перезаписывает старое.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound возвращается, если ключа нет в хранилище.
var ErrNotFound = errors.New("storage: key not found")

// Store — постоянное хранилище ключ/значение.
type Store interface {
	// Set записывает значение, перезаписывая предыдущее.
	Set(ctx context.Context, key, value string) error

	// Get возвращает значение или ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Delete удаляет ключ. Отсутствие ключа ошибкой не считается.
	Delete(ctx context.Context, key string) error

	// Ping проверяет доступность хранилища.
	Ping(ctx context.Context) error

	// Close освобождает ресурсы.
	Close() error
}
