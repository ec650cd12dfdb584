package domain

// Camada de domínio da governança de quotas.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import "time"

// Principal identifica um tenant ou usuário. Comparação é exata, sem normalização.
type Principal string

// Anonymous é usado quando a requisição não carrega identidade.
const Anonymous Principal = "anonymous"

// ResourceQuota é o limite configurado para um par (principal, recurso).
// Limit 0 é válido e significa "nenhum consumo permitido".
type ResourceQuota struct {
	Type  ResourceType `json:"type"`
	Limit int64        `json:"limit"`
	Unit  string       `json:"unit,omitempty"`
}

// ResourceUsage é o snapshot atual do ledger para um par (principal, recurso).
//
// Observação: o snapshot é sobrescrito inteiro a cada RecordUsage; não há
// acumulação dentro do registro armazenado.
type ResourceUsage struct {
	Type      ResourceType `json:"type"`
	Used      int64        `json:"used"`
	Limit     int64        `json:"limit"`
	Unit      string       `json:"unit,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// QuotaRegistry guarda o limite configurado por (principal, recurso).
//
// Ausência de quota não é erro: found=false significa "sem restrição".
type QuotaRegistry interface {
	SetQuota(p Principal, q ResourceQuota)
	GetQuota(p Principal, t ResourceType) (ResourceQuota, bool)
	// ListQuotas retorna uma cópia; mutações posteriores não são observadas.
	ListQuotas(p Principal) map[ResourceType]ResourceQuota
}

// UsageLedger guarda o snapshot de uso mais recente por (principal, recurso).
type UsageLedger interface {
	RecordUsage(p Principal, u ResourceUsage)
	GetUsage(p Principal, t ResourceType) (ResourceUsage, bool)
	// GetAllUsage retorna uma cópia; recursos nunca registrados ficam ausentes.
	GetAllUsage(p Principal) map[ResourceType]ResourceUsage
}

// UpdateFunc recebe a quota e o uso atuais (nil quando ausentes) e devolve o
// novo snapshot. Retornar nil mantém o ledger como está.
type UpdateFunc func(q *ResourceQuota, u *ResourceUsage) (*ResourceUsage, error)

// AtomicLedger executa leitura + escrita de um par sob o mesmo lock exclusivo,
// sem a janela entre checagem e registro.
type AtomicLedger interface {
	Update(p Principal, t ResourceType, fn UpdateFunc) error
}
