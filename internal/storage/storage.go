// Package storage описывает постоянное хранилище "ключ-значение", на котором
// держатся счётчики использования и список ожидания, и его реализацию в памяти.
package storage

import "context"

// UpdateFunc получает текущее значение ключа (ok == false, если ключа нет)
// и возвращает новое. Ошибка отменяет запись.
type UpdateFunc func(old []byte, ok bool) ([]byte, error)

// KeyValue хранилище значений по строковым ключам.
type KeyValue interface {
	// Get возвращает значение ключа; ok == false, если ключа нет.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Set записывает значение ключа.
	Set(ctx context.Context, key string, value []byte) error
	// Update перечитывает значение и записывает результат fn одним шагом.
	Update(ctx context.Context, key string, fn UpdateFunc) error
	// Watch сигнализирует об изменениях ключа до отмены ctx.
	Watch(ctx context.Context, key string) (<-chan struct{}, error)
}
