// Package traced wraps a provider.Provider with OpenTelemetry spans.
package traced

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	pr "github.com/unkn0wn-root/infracache/provider"
)

const defaultTracerName = "github.com/unkn0wn-root/infracache/provider/traced"

type Options struct {
	// Tracer to start spans on. nil => otel.Tracer(defaultTracerName), i.e. the
	// global provider.
	Tracer trace.Tracer
	// System is reported as db.system (e.g. "redis"). Optional.
	System string
}

// Provider emits one client span per call: cache.get, cache.set, cache.del,
// cache.exists, cache.ping.
type Provider struct {
	inner  pr.Provider
	tracer trace.Tracer
	attrs  []attribute.KeyValue
}

var (
	_ pr.Provider = (*Provider)(nil)
	_ pr.Pinger   = (*Provider)(nil)
)

// existProvider keeps the inner store's Exister visible through the wrapper.
type existProvider struct {
	*Provider
	ex pr.Exister
}

var _ pr.Exister = existProvider{}

// Wrap returns inner with tracing. The result implements provider.Exister iff
// inner does.
func Wrap(inner pr.Provider, opts Options) pr.Provider {
	t := opts.Tracer
	if t == nil {
		t = otel.Tracer(defaultTracerName)
	}
	p := &Provider{inner: inner, tracer: t}
	if opts.System != "" {
		p.attrs = []attribute.KeyValue{attribute.String("db.system", opts.System)}
	}
	if ex, ok := inner.(pr.Exister); ok {
		return existProvider{Provider: p, ex: ex}
	}
	return p
}

func (p *Provider) start(ctx context.Context, name, key string) (context.Context, trace.Span) {
	ctx, span := p.tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(p.attrs...)
	span.SetAttributes(attribute.String("cache.key", key))
	return ctx, span
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func (p *Provider) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, span := p.start(ctx, "cache.get", key)
	v, ok, err := p.inner.Get(ctx, key)
	span.SetAttributes(attribute.Bool("cache.hit", ok))
	finish(span, err)
	return v, ok, err
}

func (p *Provider) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, span := p.start(ctx, "cache.set", key)
	span.SetAttributes(
		attribute.Int("cache.value_size", len(value)),
		attribute.Int64("cache.ttl_ms", ttl.Milliseconds()),
	)
	err := p.inner.Set(ctx, key, value, ttl)
	finish(span, err)
	return err
}

func (p *Provider) Del(ctx context.Context, key string) error {
	ctx, span := p.start(ctx, "cache.del", key)
	err := p.inner.Del(ctx, key)
	finish(span, err)
	return err
}

func (p *Provider) Close(ctx context.Context) error { return p.inner.Close(ctx) }

// Ping forwards to the inner store; stores without a Pinger always succeed
// and produce no span.
func (p *Provider) Ping(ctx context.Context) error {
	pg, ok := p.inner.(pr.Pinger)
	if !ok {
		return nil
	}
	ctx, span := p.tracer.Start(ctx, "cache.ping", trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(p.attrs...)
	err := pg.Ping(ctx)
	finish(span, err)
	return err
}

func (p existProvider) Exists(ctx context.Context, key string) (bool, error) {
	ctx, span := p.start(ctx, "cache.exists", key)
	ok, err := p.ex.Exists(ctx, key)
	span.SetAttributes(attribute.Bool("cache.hit", ok))
	finish(span, err)
	return ok, err
}
