package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrQuotaExceeded permite errors.Is em qualquer QuotaExceededError.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrReserveUnsupported indica que o ledger não implementa AtomicLedger.
	ErrReserveUnsupported = errors.New("usage ledger does not support atomic reservation")
)

// QuotaExceededError descreve uma negação: consumo projetado acima do limite.
// Não é falha; é uma condição esperada que o chamador traduz (ex: 429).
type QuotaExceededError struct {
	Type      ResourceType
	Projected int64
	Limit     int64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded for %s: %d/%d", e.Type, e.Projected, e.Limit)
}

func (e *QuotaExceededError) Is(target error) bool {
	return target == ErrQuotaExceeded
}
