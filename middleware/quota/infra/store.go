package infra

import (
	"sync"
	"time"

	"quota-gateway/middleware/quota/domain"
)

// Store é a autoridade em memória para quotas e uso, com um único RWMutex
// guardando os dois maps. Leituras usam RLock, escritas usam Lock, e nenhum
// I/O acontece com o lock retido.
//
// Implementa domain.QuotaRegistry, domain.UsageLedger e domain.AtomicLedger.
// O estado vive enquanto o processo viver; não há persistência nem remoção.
type Store struct {
	mu     sync.RWMutex
	quotas map[domain.Principal]map[domain.ResourceType]domain.ResourceQuota
	usage  map[domain.Principal]map[domain.ResourceType]domain.ResourceUsage
	now    func() time.Time
}

type StoreOption func(*Store)

// WithClock troca o relógio usado para preencher Timestamp vazio.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		quotas: make(map[domain.Principal]map[domain.ResourceType]domain.ResourceQuota),
		usage:  make(map[domain.Principal]map[domain.ResourceType]domain.ResourceUsage),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	_ domain.QuotaRegistry = (*Store)(nil)
	_ domain.UsageLedger   = (*Store)(nil)
	_ domain.AtomicLedger  = (*Store)(nil)
)

// SetQuota insere ou substitui a quota de (p, q.Type). Last-write-wins.
func (s *Store) SetQuota(p domain.Principal, q domain.ResourceQuota) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.quotas[p]
	if m == nil {
		m = make(map[domain.ResourceType]domain.ResourceQuota)
		s.quotas[p] = m
	}
	m[q.Type] = q
}

func (s *Store) GetQuota(p domain.Principal, t domain.ResourceType) (domain.ResourceQuota, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.quotas[p][t]
	return q, ok
}

func (s *Store) ListQuotas(p domain.Principal) map[domain.ResourceType]domain.ResourceQuota {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[domain.ResourceType]domain.ResourceQuota, len(s.quotas[p]))
	for k, v := range s.quotas[p] {
		out[k] = v
	}
	return out
}

// RecordUsage sobrescreve o snapshot de (p, u.Type) com o registro recebido.
func (s *Store) RecordUsage(p domain.Principal, u domain.ResourceUsage) {
	if u.Timestamp.IsZero() {
		u.Timestamp = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.putUsageLocked(p, u)
}

func (s *Store) GetUsage(p domain.Principal, t domain.ResourceType) (domain.ResourceUsage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.usage[p][t]
	return u, ok
}

func (s *Store) GetAllUsage(p domain.Principal) map[domain.ResourceType]domain.ResourceUsage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[domain.ResourceType]domain.ResourceUsage, len(s.usage[p]))
	for k, v := range s.usage[p] {
		out[k] = v
	}
	return out
}

// Update executa fn com o lock exclusivo retido, recebendo cópias da quota e
// do uso atuais. Se fn devolver um snapshot, ele substitui o atual.
func (s *Store) Update(p domain.Principal, t domain.ResourceType, fn domain.UpdateFunc) error {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	var qp *domain.ResourceQuota
	if q, ok := s.quotas[p][t]; ok {
		qp = &q
	}
	var up *domain.ResourceUsage
	if u, ok := s.usage[p][t]; ok {
		up = &u
	}

	next, err := fn(qp, up)
	if err != nil || next == nil {
		return err
	}
	next.Type = t
	if next.Timestamp.IsZero() {
		next.Timestamp = now
	}
	s.putUsageLocked(p, *next)
	return nil
}

func (s *Store) putUsageLocked(p domain.Principal, u domain.ResourceUsage) {
	m := s.usage[p]
	if m == nil {
		m = make(map[domain.ResourceType]domain.ResourceUsage)
		s.usage[p] = m
	}
	m[u.Type] = u
}
