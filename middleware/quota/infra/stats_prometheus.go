package infra

import (
	"context"

	"quota-gateway/middleware/quota/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusStatsStore exporta decisões de admissão como contadores.
//
// Os labels são só recurso e resultado; principal e path ficam de fora para
// não explodir a cardinalidade.
type PrometheusStatsStore struct {
	decisions *prometheus.CounterVec
	cost      *prometheus.CounterVec
}

// NewPrometheusStatsStore registra as métricas em reg (nil usa o registry padrão).
func NewPrometheusStatsStore(reg prometheus.Registerer) *PrometheusStatsStore {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &PrometheusStatsStore{
		decisions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quota_admission_decisions_total",
				Help: "Total number of quota admission decisions",
			},
			[]string{"resource", "outcome"},
		),
		cost: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quota_admitted_cost_total",
				Help: "Total cost admitted by the quota gate",
			},
			[]string{"resource"},
		),
	}
}

func (s *PrometheusStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	outcome := "denied"
	if ev.Allowed {
		outcome = "allowed"
	}
	resource := ev.Resource.String()

	s.decisions.WithLabelValues(resource, outcome).Inc()
	if ev.Allowed && ev.Cost > 0 {
		s.cost.WithLabelValues(resource).Add(float64(ev.Cost))
	}
	return nil
}
