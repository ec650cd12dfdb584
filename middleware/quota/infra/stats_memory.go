package infra

import (
	"context"
	"sync"

	"quota-gateway/middleware/quota/domain"
)

type Counters struct {
	Allowed int64
	Denied  int64
	// Cost soma o custo das requisições admitidas.
	Cost int64
}

func (c *Counters) add(ev domain.StatsEvent) {
	if ev.Allowed {
		c.Allowed++
		c.Cost += ev.Cost
		return
	}
	c.Denied++
}

// MemoryStatsStore é uma implementação simples em memória.
// Útil para testes e desenvolvimento.
//
// Não faz expiração e não é indicada para produção.
type MemoryStatsStore struct {
	mu          sync.Mutex
	total       Counters
	byRoute     map[string]Counters
	byResource  map[domain.ResourceType]Counters
	byPrincipal map[domain.Principal]Counters

	trackPrincipals bool
}

type MemoryStatsOption func(*MemoryStatsStore)

func WithTrackPrincipals(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackPrincipals = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		byRoute:     make(map[string]Counters),
		byResource:  make(map[domain.ResourceType]Counters),
		byPrincipal: make(map[domain.Principal]Counters),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	route := ev.Method + " " + ev.Path

	s.mu.Lock()
	defer s.mu.Unlock()

	s.total.add(ev)

	c := s.byRoute[route]
	c.add(ev)
	s.byRoute[route] = c

	r := s.byResource[ev.Resource]
	r.add(ev)
	s.byResource[ev.Resource] = r

	if s.trackPrincipals {
		p := s.byPrincipal[ev.Principal]
		p.add(ev)
		s.byPrincipal[ev.Principal] = p
	}
	return nil
}

func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MemoryStatsStore) ByRoute() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Counters, len(s.byRoute))
	for k, v := range s.byRoute {
		out[k] = v
	}
	return out
}

func (s *MemoryStatsStore) ByResource() map[domain.ResourceType]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.ResourceType]Counters, len(s.byResource))
	for k, v := range s.byResource {
		out[k] = v
	}
	return out
}

func (s *MemoryStatsStore) ByPrincipal() map[domain.Principal]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.Principal]Counters, len(s.byPrincipal))
	for k, v := range s.byPrincipal {
		out[k] = v
	}
	return out
}
