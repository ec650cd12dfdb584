package application

import (
	"fmt"
	"strings"
	"time"

	"quota-gateway/middleware/quota/domain"
)

// Mode escolhe como o gate combina checagem e registro.
type Mode int

const (
	// ModeAdvisory faz CheckQuota e depois RecordUsage em chamadas separadas.
	// Requisições concorrentes podem passar pelo mesmo saldo (over-admission).
	// O uso registrado é o custo da chamada, sem acumular.
	ModeAdvisory Mode = iota

	// ModeStrict usa CheckAndReserve: checagem e registro sob o mesmo lock,
	// acumulando o uso. Nunca admite acima do limite.
	ModeStrict
)

func (m Mode) String() string {
	switch m {
	case ModeAdvisory:
		return "advisory"
	case ModeStrict:
		return "strict"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "advisory":
		return ModeAdvisory, nil
	case "strict":
		return ModeStrict, nil
	default:
		return 0, fmt.Errorf("unknown quota mode %q", s)
	}
}

// Controller concentra a regra de admissão: compõe o registro de quotas e o
// ledger de uso. Não loga, não faz retry e não sabe nada sobre HTTP.
type Controller struct {
	Quotas domain.QuotaRegistry
	Usage  domain.UsageLedger
	Now    func() time.Time
}

// NewController usa o mesmo store como registry e ledger (caso comum).
func NewController(store interface {
	domain.QuotaRegistry
	domain.UsageLedger
}) Controller {
	return Controller{Quotas: store, Usage: store}
}

func (c Controller) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c Controller) SetQuota(p domain.Principal, q domain.ResourceQuota) {
	c.Quotas.SetQuota(p, q)
}

func (c Controller) GetQuota(p domain.Principal, t domain.ResourceType) (domain.ResourceQuota, bool) {
	return c.Quotas.GetQuota(p, t)
}

func (c Controller) ListQuotas(p domain.Principal) map[domain.ResourceType]domain.ResourceQuota {
	return c.Quotas.ListQuotas(p)
}

// RecordUsage sobrescreve o snapshot; Timestamp vazio vira o instante atual.
func (c Controller) RecordUsage(p domain.Principal, u domain.ResourceUsage) {
	if u.Timestamp.IsZero() {
		u.Timestamp = c.now()
	}
	c.Usage.RecordUsage(p, u)
}

func (c Controller) GetUsage(p domain.Principal, t domain.ResourceType) (domain.ResourceUsage, bool) {
	return c.Usage.GetUsage(p, t)
}

func (c Controller) GetAllUsage(p domain.Principal) map[domain.ResourceType]domain.ResourceUsage {
	return c.Usage.GetAllUsage(p)
}

// CheckQuota avalia se `requested` unidades de t cabem na quota de p.
//
// Sem quota configurada o recurso é livre (allowed=true, err=nil). Sem uso
// registrado o uso atual é zero. Não reserva nada e não altera estado.
func (c Controller) CheckQuota(p domain.Principal, t domain.ResourceType, requested int64) (bool, error) {
	q, ok := c.Quotas.GetQuota(p, t)
	if !ok {
		return true, nil
	}

	var used int64
	if u, ok := c.Usage.GetUsage(p, t); ok {
		used = u.Used
	}

	if err := evaluate(t, q, used, requested); err != nil {
		return false, err
	}
	return true, nil
}

// CheckAndReserve faz a mesma avaliação de CheckQuota, mas sob o lock
// exclusivo do ledger, e grava used = atual + requested quando admite.
func (c Controller) CheckAndReserve(p domain.Principal, t domain.ResourceType, requested int64) (bool, error) {
	al, ok := c.Usage.(domain.AtomicLedger)
	if !ok {
		return false, domain.ErrReserveUnsupported
	}

	now := c.now()
	err := al.Update(p, t, func(q *domain.ResourceQuota, u *domain.ResourceUsage) (*domain.ResourceUsage, error) {
		next := domain.ResourceUsage{Type: t, Timestamp: now}
		if u != nil {
			next.Used = u.Used
			next.Limit = u.Limit
			next.Unit = u.Unit
		}
		if q != nil {
			if err := evaluate(t, *q, next.Used, requested); err != nil {
				return nil, err
			}
			next.Limit = q.Limit
			next.Unit = q.Unit
		}
		next.Used += requested
		return &next, nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// Release devolve `amount` unidades reservadas (o uso nunca fica negativo).
// Usado para recursos que voltam ao pool, como conexões.
func (c Controller) Release(p domain.Principal, t domain.ResourceType, amount int64) error {
	al, ok := c.Usage.(domain.AtomicLedger)
	if !ok {
		return domain.ErrReserveUnsupported
	}

	now := c.now()
	return al.Update(p, t, func(_ *domain.ResourceQuota, u *domain.ResourceUsage) (*domain.ResourceUsage, error) {
		if u == nil {
			return nil, nil
		}
		next := *u
		next.Used -= amount
		if next.Used < 0 {
			next.Used = 0
		}
		next.Timestamp = now
		return &next, nil
	})
}

// Admit roda o gate completo no modo escolhido.
//
// Em ModeAdvisory: CheckQuota e, se admitido, RecordUsage com Used=cost e
// Limit=limit. Em ModeStrict: CheckAndReserve (limit vem da quota).
func (c Controller) Admit(mode Mode, p domain.Principal, t domain.ResourceType, cost, limit int64, unit string) (bool, error) {
	if mode == ModeStrict {
		return c.CheckAndReserve(p, t, cost)
	}

	allowed, err := c.CheckQuota(p, t, cost)
	if !allowed {
		return false, err
	}

	c.RecordUsage(p, domain.ResourceUsage{
		Type:      t,
		Used:      cost,
		Limit:     limit,
		Unit:      unit,
		Timestamp: c.now(),
	})
	return true, nil
}

func evaluate(t domain.ResourceType, q domain.ResourceQuota, used, requested int64) error {
	projected := used + requested
	if projected > q.Limit {
		return &domain.QuotaExceededError{Type: t, Projected: projected, Limit: q.Limit}
	}
	return nil
}
