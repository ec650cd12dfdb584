package domain

import (
	"context"
	"time"
)

// StatsEvent representa uma decisão de admissão.
//
// Ele é propositalmente "agnóstico de HTTP": Method/Path são strings genéricas
// e podem ser usadas para web, gRPC, etc.
//
// Observação: cuidado com cardinalidade (ex.: salvar Principal/Path sem controle
// pode explodir o número de séries/chaves em uma base como Redis/Prometheus).
type StatsEvent struct {
	Principal Principal
	Resource  ResourceType
	Cost      int64
	Allowed   bool

	Method string
	Path   string

	At time.Time
}

// StatsStore é a estratégia de persistência para estatísticas de admissão.
//
// Implementações podem armazenar em Redis, Prometheus, memória, etc.
// O middleware trata erro como best-effort (não derruba request).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
