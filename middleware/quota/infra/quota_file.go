package infra

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"quota-gateway/middleware/quota/domain"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Arquivo de bootstrap de quotas:
//
//	quotas:
//	  - principal: tenant-1
//	    resource: queries
//	    limit: 100
//	    unit: req
//
// Entradas são aplicadas com SetQuota. Remover uma entrada do arquivo não
// remove a quota já aplicada (não existe operação de remoção).

type quotaFileEntry struct {
	Principal string `yaml:"principal"`
	Resource  string `yaml:"resource"`
	Limit     int64  `yaml:"limit"`
	Unit      string `yaml:"unit"`
}

type quotaFile struct {
	Quotas []quotaFileEntry `yaml:"quotas"`
}

// QuotaAssignment é uma quota destinada a um principal.
type QuotaAssignment struct {
	Principal domain.Principal
	Quota     domain.ResourceQuota
}

func ParseQuotaFile(data []byte) ([]QuotaAssignment, error) {
	var f quotaFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse quota file: %w", err)
	}

	out := make([]QuotaAssignment, 0, len(f.Quotas))
	var errs []error
	for i, e := range f.Quotas {
		p := strings.TrimSpace(e.Principal)
		if p == "" {
			errs = append(errs, fmt.Errorf("quotas[%d]: principal is required", i))
			continue
		}
		rt, err := domain.ParseResourceType(e.Resource)
		if err != nil {
			errs = append(errs, fmt.Errorf("quotas[%d]: %w", i, err))
			continue
		}
		if e.Limit < 0 {
			errs = append(errs, fmt.Errorf("quotas[%d]: limit must be >= 0", i))
			continue
		}
		out = append(out, QuotaAssignment{
			Principal: domain.Principal(p),
			Quota:     domain.ResourceQuota{Type: rt, Limit: e.Limit, Unit: e.Unit},
		})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func LoadQuotaFile(path string) ([]QuotaAssignment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read quota file %s: %w", path, err)
	}
	return ParseQuotaFile(data)
}

func ApplyQuotas(reg domain.QuotaRegistry, as []QuotaAssignment) {
	for _, a := range as {
		reg.SetQuota(a.Principal, a.Quota)
	}
}

// WatchQuotaFile reaplica o arquivo em reg sempre que ele mudar, até ctx encerrar.
//
// Observa o diretório (editores costumam trocar o arquivo via rename) e
// agrupa eventos próximos com um debounce. Um arquivo inválido é logado e
// ignorado; as quotas atuais continuam valendo.
func WatchQuotaFile(ctx context.Context, path string, reg domain.QuotaRegistry, log zerolog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create quota file watcher: %w", err)
	}

	dir := filepath.Dir(path)
	name := filepath.Base(path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch directory %s: %w", dir, err)
	}

	reload := make(chan struct{}, 1)
	go func() {
		defer watcher.Close()

		var debounce *time.Timer
		const debounceDelay = 100 * time.Millisecond

		for {
			select {
			case <-ctx.Done():
				if debounce != nil {
					debounce.Stop()
				}
				return

			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != name {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(debounceDelay, func() {
					select {
					case reload <- struct{}{}:
					default:
					}
				})

			case <-reload:
				as, err := LoadQuotaFile(path)
				if err != nil {
					log.Error().Err(err).Str("path", path).Msg("quota file reload failed")
					continue
				}
				ApplyQuotas(reg, as)
				log.Info().Str("path", path).Int("quotas", len(as)).Msg("quota file reloaded")

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Error().Err(err).Msg("quota file watcher error")
			}
		}
	}()

	log.Info().Str("path", path).Msg("watching quota file")
	return nil
}
