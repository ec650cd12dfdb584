// Package quota fornece adapters HTTP (net/http) para governança de quotas
// por principal e limite de conexões.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (CheckQuota/RecordUsage, CheckAndReserve, vagas de conexão)
//   - infra: implementações concretas (store em memória, stats, arquivo de quotas)
//   - admin: API REST de administração (SetQuota, consultas de uso)
//   - quota (este pacote): middlewares HTTP + extração de principal + tradução para status
//
// Fluxo no gateway:
//
//   1) Resolve o principal a partir do contexto da requisição ("anonymous" se ausente)
//   2) Chama o Controller (application) para obter a decisão
//   3) Se negado, responde 429 (quota) ou 503 (conexões) com o diagnóstico
//   4) Se admitido, registra o uso e chama o próximo handler (ex: reverse proxy)
//
// Variáveis de ambiente do binário gateway (cmd/gateway) controlam o comportamento,
// como QUOTA_RESOURCE, QUOTA_MODE, QUOTA_FILE e CONCURRENCY_MAX.
package quota
