package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"quota-gateway/middleware/quota/domain"

	"github.com/redis/go-redis/v9"
)

// RedisStatsStore grava contadores de admissão em hashes do Redis.
//
// Layout (prefixo padrão "quota:stats"):
//
//	<prefix>:total                 allowed|denied|cost
//	<prefix>:resource:<recurso>    allowed|denied|cost
//	<prefix>:minute:<YYYYMMDDhhmm> allowed|denied   (com TTL)
//	<prefix>:route                 "<METHOD> <path>:allowed|denied"
//	<prefix>:principal:<p>         allowed|denied|cost (opcional, com TTL)
type RedisStatsStore struct {
	rdb redis.Cmdable

	prefix string
	// ttl aplica apenas em chaves de série temporal / por principal.
	// total e resource são cumulativos e não expiram.
	ttl time.Duration

	bucket string // "minute" (padrão) ou "none"

	trackPrincipals bool
}

type RedisStatsOption func(*RedisStatsStore)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) {
		s.prefix = strings.Trim(prefix, ":")
	}
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

func WithStatsBucket(bucket string) RedisStatsOption {
	return func(s *RedisStatsStore) { s.bucket = strings.ToLower(strings.TrimSpace(bucket)) }
}

func WithStatsTrackPrincipals(track bool) RedisStatsOption {
	return func(s *RedisStatsStore) { s.trackPrincipals = track }
}

func NewRedisStatsStore(rdb redis.Cmdable, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:    rdb,
		prefix: "quota:stats",
		ttl:    24 * time.Hour,
		bucket: "minute",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type statsKey struct {
	key    string
	expire bool // série temporal / por principal
	cost   bool
}

func (s *RedisStatsStore) targets(ev domain.StatsEvent) []statsKey {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	out := []statsKey{
		{key: s.prefix + ":total", cost: true},
		{key: s.prefix + ":resource:" + ev.Resource.String(), cost: true},
	}
	if s.bucket == "minute" {
		out = append(out, statsKey{key: fmt.Sprintf("%s:minute:%s", s.prefix, at.UTC().Format("200601021504")), expire: true})
	}
	if s.trackPrincipals {
		if p := strings.TrimSpace(string(ev.Principal)); p != "" {
			out = append(out, statsKey{key: s.prefix + ":principal:" + p, expire: true, cost: true})
		}
	}
	return out
}

// Keys retorna as chaves de hash que um evento incrementa.
func (s *RedisStatsStore) Keys(ev domain.StatsEvent) []string {
	ts := s.targets(ev)
	keys := make([]string, 0, len(ts))
	for _, t := range ts {
		keys = append(keys, t.key)
	}
	return keys
}

func (s *RedisStatsStore) Record(ctx context.Context, ev domain.StatsEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	field := "denied"
	if ev.Allowed {
		field = "allowed"
	}

	pipe := s.rdb.Pipeline()
	for _, t := range s.targets(ev) {
		pipe.HIncrBy(ctx, t.key, field, 1)
		if t.cost && ev.Allowed && ev.Cost != 0 {
			pipe.HIncrBy(ctx, t.key, "cost", ev.Cost)
		}
		if t.expire && s.ttl > 0 {
			pipe.Expire(ctx, t.key, s.ttl)
		}
	}

	if ev.Method != "" || ev.Path != "" {
		routeField := strings.TrimSpace(strings.TrimSpace(ev.Method) + " " + strings.TrimSpace(ev.Path))
		if routeField != "" {
			pipe.HIncrBy(ctx, s.prefix+":route", routeField+":"+field, 1)
		}
	}

	_, err := pipe.Exec(ctx)
	return err
}
