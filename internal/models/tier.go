// Package models содержит доменные типы: тариф, счётчики использования
// инструментов и ответы эндпоинтов биллинга.
package models

// Tier уровень доступа посетителя.
type Tier string

const (
	// TierFree бесплатный тариф с дневными лимитами.
	TierFree Tier = "free"
	// TierPro платная подписка без лимитов.
	TierPro Tier = "pro"
)

// IsPro сообщает, является ли тариф платным.
func (t Tier) IsPro() bool {
	return t == TierPro
}
