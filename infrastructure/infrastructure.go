// Package infrastructure builds the application's infrastructure services
// from configuration: the database handle, identity and authorization, and
// the cache facade. Everything is constructed explicitly and handed back in
// one struct; nothing is registered globally.
package infrastructure

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/unkn0wn-root/infracache"
	"github.com/unkn0wn-root/infracache/config"
	"github.com/unkn0wn-root/infracache/database"
	"github.com/unkn0wn-root/infracache/identity"
	"github.com/unkn0wn-root/infracache/logging"
)

// Deps are collaborators the host may supply. Every field is optional.
type Deps struct {
	Logger         *zap.Logger           // nil => built from cfg.Log
	SlogLogger     *slog.Logger          // non-nil => cache events also go to sloghooks
	IdentityStore  identity.Store        // nil => identity.NewMemoryStore()
	Registerer     prometheus.Registerer // nil => prometheus.DefaultRegisterer
	TracerProvider trace.TracerProvider  // nil => otel.GetTracerProvider()
	Initialiser    database.Initialiser  // run after the database opens
	Now            func() time.Time      // nil => time.Now
}

// Infrastructure is the application context handed to the upper layers.
type Infrastructure struct {
	Config config.Config
	Logger *zap.Logger
	Now    func() time.Time

	DB *sql.DB
	// Queries is DB, wrapped with a logging interceptor when
	// database.logqueries is set.
	Queries database.QueryDB

	Identity   *identity.Service
	Authorizer *identity.Authorizer
	Tokens     *identity.TokenIssuer

	// Cache is never nil; when the cache is not enabled it is a disabled
	// facade whose reads miss and writes are dropped.
	Cache *infracache.Service

	closers []func(context.Context) error
}

func New(ctx context.Context, cfg config.Config, deps Deps) (*Infrastructure, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	logger := deps.Logger
	if logger == nil {
		l, err := logging.New(cfg.Log, nil)
		if err != nil {
			return nil, err
		}
		logger = l
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	inf := &Infrastructure{Config: cfg, Logger: logger, Now: now}
	for _, step := range []func() error{
		func() error { return inf.openDatabase(ctx, deps) },
		func() error { return inf.buildIdentity(ctx, deps) },
		func() error { return inf.buildCache(deps) },
	} {
		if err := step(); err != nil {
			return nil, multierr.Append(err, inf.Close(ctx))
		}
	}

	logger.Info("infrastructure ready",
		zap.String("database", string(cfg.Database.Provider)),
		zap.Bool("cache", inf.Cache.Enabled()),
		zap.String("cache_backend", string(cfg.Cache.Backend)),
		zap.String("cache_namespace", inf.Cache.Namespace()))
	return inf, nil
}

func (inf *Infrastructure) onClose(f func(context.Context) error) {
	inf.closers = append(inf.closers, f)
}

func (inf *Infrastructure) openDatabase(ctx context.Context, deps Deps) error {
	cfg := inf.Config
	db, err := database.Open(ctx, cfg.Database.Provider, cfg.ConnectionStrings.CleanArchitectureDb, cfg.Database.Options())
	if err != nil {
		return err
	}
	inf.DB = db
	inf.onClose(func(context.Context) error { return db.Close() })

	inf.Queries = db
	if cfg.Database.LogQueries {
		inf.Queries = database.Intercept(db, queryLogger(inf.Logger))
	}
	if deps.Initialiser != nil {
		if err := database.Initialise(ctx, deps.Initialiser); err != nil {
			return err
		}
	}
	return nil
}

func queryLogger(l *zap.Logger) database.Interceptor {
	return func(_ context.Context, query string, args []any, d time.Duration, err error) {
		fields := []zap.Field{zap.String("query", query), zap.Int("args", len(args)), zap.Duration("took", d)}
		if err != nil {
			l.Warn("query failed", append(fields, zap.Error(err))...)
			return
		}
		l.Debug("query", fields...)
	}
}

func (inf *Infrastructure) buildIdentity(ctx context.Context, deps Deps) error {
	cfg := inf.Config.Identity
	store := deps.IdentityStore
	if store == nil {
		store = identity.NewMemoryStore()
	}
	authz := identity.NewAuthorizer()
	svc, err := identity.NewService(identity.Options{
		Store:      store,
		Authorizer: authz,
		Now:        inf.Now,
		Logger:     inf.Logger.Named("identity"),
	})
	if err != nil {
		return err
	}
	tokens, err := identity.NewTokenIssuer([]byte(cfg.TokenKey), cfg.TokenLifetime, inf.Now)
	if err != nil {
		return err
	}
	inf.Identity, inf.Authorizer, inf.Tokens = svc, authz, tokens

	if !cfg.SeedAdministrator {
		return nil
	}
	if cfg.AdministratorPassword == "" {
		inf.Logger.Warn("administrator seed skipped: identity.administratorpassword is empty")
		return nil
	}
	if _, err := identity.SeedDefaults(ctx, svc, cfg.AdministratorPassword); err != nil {
		return fmt.Errorf("infrastructure: seed identity: %w", err)
	}
	return nil
}

// Close releases everything New acquired, last acquired first.
func (inf *Infrastructure) Close(ctx context.Context) error {
	var err error
	for i := len(inf.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, inf.closers[i](ctx))
	}
	inf.closers = nil
	return err
}

// Check pings the database and, when enabled, pings the cache backend and
// round-trips a health-check entry through the cache.
func (inf *Infrastructure) Check(ctx context.Context) error {
	var err error
	if pingErr := inf.DB.PingContext(ctx); pingErr != nil {
		err = multierr.Append(err, fmt.Errorf("database: %w", pingErr))
	}
	if inf.Cache.Enabled() {
		if pingErr := inf.Cache.Ping(ctx); pingErr != nil {
			return multierr.Append(err, pingErr)
		}
		const key = "__healthcheck"
		if setErr := infracache.Set(ctx, inf.Cache, key, inf.Now().UTC(), time.Minute); setErr != nil {
			err = multierr.Append(err, setErr)
		} else if _, _, getErr := infracache.Get[time.Time](ctx, inf.Cache, key); getErr != nil {
			err = multierr.Append(err, getErr)
		}
		err = multierr.Append(err, inf.Cache.Remove(ctx, key))
	}
	return err
}

func tracerProvider(deps Deps) trace.TracerProvider {
	if deps.TracerProvider != nil {
		return deps.TracerProvider
	}
	return otel.GetTracerProvider()
}
