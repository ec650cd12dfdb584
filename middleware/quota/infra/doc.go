// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - Store: quotas + snapshots de uso em memória, um RWMutex por instância
//   - ChanPool: semáforo simples para limite global de concorrência
//   - *StatsStore: estatísticas de admissão em memória, Redis e Prometheus
//   - QuotaFile: carga (YAML) e recarga (fsnotify) das quotas de bootstrap
package infra
