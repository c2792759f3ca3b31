package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/infracache"
	"github.com/unkn0wn-root/infracache/config"
	asynchook "github.com/unkn0wn-root/infracache/hooks/async"
	zaplog "github.com/unkn0wn-root/infracache/log/zap"
	"github.com/unkn0wn-root/infracache/promhooks"
	pr "github.com/unkn0wn-root/infracache/provider"
	bcp "github.com/unkn0wn-root/infracache/provider/bigcache"
	boltp "github.com/unkn0wn-root/infracache/provider/bolt"
	rp "github.com/unkn0wn-root/infracache/provider/redis"
	rtp "github.com/unkn0wn-root/infracache/provider/ristretto"
	"github.com/unkn0wn-root/infracache/provider/traced"
	"github.com/unkn0wn-root/infracache/sloghooks"
)

const (
	metricsPrefix   = "infracache_"
	cleanupInterval = time.Minute
)

func (inf *Infrastructure) buildCache(deps Deps) error {
	cfg := inf.Config.Cache
	if !cfg.Enabled {
		svc, err := infracache.New(infracache.Options{Namespace: cfg.InstanceName, Disabled: true})
		if err != nil {
			return err
		}
		inf.Cache = svc
		return nil
	}

	p, err := newProvider(inf.Config)
	if err != nil {
		return fmt.Errorf("infrastructure: cache backend %s: %w", cfg.Backend, err)
	}
	if rt, ok := p.(*rtp.Provider); ok && inf.Config.Telemetry.Metrics {
		if err := registerRistretto(registerer(deps), rt); err != nil {
			_ = p.Close(context.Background())
			return fmt.Errorf("infrastructure: register cache metrics: %w", err)
		}
	}
	if inf.Config.Telemetry.Tracing {
		p = traced.Wrap(p, traced.Options{
			Tracer: tracerProvider(deps).Tracer("github.com/unkn0wn-root/infracache"),
			System: string(cfg.Backend),
		})
	}

	hooks, err := inf.cacheHooks(deps)
	if err != nil {
		_ = p.Close(context.Background())
		return err
	}

	svc, err := infracache.New(infracache.Options{
		Namespace:  cfg.InstanceName,
		Provider:   p,
		Format:     cfg.Format,
		MaxPayload: cfg.MaxPayload,
		DefaultTTL: cfg.DefaultTTL,
		Logger:     zaplog.New(inf.Logger),
		Hooks:      hooks,
	})
	if err != nil {
		_ = p.Close(context.Background())
		return err
	}
	inf.Cache = svc
	inf.onClose(svc.Close)
	return nil
}

func newProvider(cfg config.Config) (pr.Provider, error) {
	maxMB := cfg.Cache.MaxCostMB
	switch cfg.Cache.Backend {
	case config.BackendRedis:
		return rp.NewFromConnString(cfg.ConnectionStrings.Redis)
	case config.BackendRistretto:
		return rtp.New(rtp.Config{MaxCost: int64(maxMB) << 20, Metrics: cfg.Telemetry.Metrics})
	case config.BackendBigcache:
		return bcp.New(bcp.Config{LifeWindow: cfg.Cache.LifeWindow, HardMaxCacheSizeMB: maxMB})
	case config.BackendBolt:
		return boltp.Open(cfg.Cache.BoltPath, boltp.Options{CleanupInterval: cleanupInterval})
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Cache.Backend)
}

func (inf *Infrastructure) cacheHooks(deps Deps) (infracache.Hooks, error) {
	var hooks infracache.MultiHooks
	if inf.Config.Telemetry.Metrics {
		ph := promhooks.New()
		if err := ph.RegMetricsTo(registerer(deps)); err != nil {
			return nil, fmt.Errorf("infrastructure: register cache metrics: %w", err)
		}
		hooks = append(hooks, ph)
	}
	if deps.SlogLogger != nil {
		async := asynchook.New(sloghooks.New(deps.SlogLogger, sloghooks.Options{LookupEvery: 100}), 1, 1024)
		inf.onClose(func(context.Context) error { async.Close(); return nil })
		hooks = append(hooks, async)
	}
	switch len(hooks) {
	case 0:
		return nil, nil
	case 1:
		return hooks[0], nil
	}
	return hooks, nil
}

func registerer(deps Deps) prometheus.Registerer {
	reg := deps.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return prometheus.WrapRegistererWithPrefix(metricsPrefix, reg)
}

// registerRistretto exports the admission and eviction counters ristretto
// keeps for itself; the facade hooks cannot see them.
func registerRistretto(reg prometheus.Registerer, p *rtp.Provider) error {
	m := p.Metrics()
	counter := func(name, help string, f func() uint64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{Name: name, Help: help},
			func() float64 { return float64(f()) })
	}
	for _, c := range []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "ristretto_hit_ratio",
			Help: "Hits over all lookups seen by the ristretto store.",
		}, m.Ratio),
		counter("ristretto_keys_evicted_total", "Keys evicted by the ristretto store.", m.KeysEvicted),
		counter("ristretto_sets_rejected_total", "Writes dropped by the ristretto admission policy.", m.SetsRejected),
		counter("ristretto_cost_added_bytes_total", "Payload bytes admitted into the ristretto store.", m.CostAdded),
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
