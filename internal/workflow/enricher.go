package workflow

import (
	"context"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/tasktpl/internal/cachemanager"
	"github.com/zjrosen/tasktpl/internal/domain/template"
	"github.com/zjrosen/tasktpl/internal/log"
	"github.com/zjrosen/tasktpl/internal/pubsub"
	"github.com/zjrosen/tasktpl/internal/tracing"
)

// Session correlates one insertion with its background enrichment.
type Session string

// NewSession returns a fresh session id.
func NewSession() Session {
	return Session(uuid.NewString())
}

// EnricherConfig bounds background enrichment.
type EnricherConfig struct {
	// TTL is how long an unconsumed result is kept.
	TTL time.Duration
	// Timeout bounds one session's workflows.
	Timeout time.Duration
}

// DefaultEnricherConfig keeps results for ten minutes and gives workflows five seconds.
func DefaultEnricherConfig() EnricherConfig {
	return EnricherConfig{TTL: cachemanager.DefaultExpiration, Timeout: 5 * time.Second}
}

// Enricher runs workflows in the background and holds each session's patch
// until it is taken. Results are keyed by session, so concurrent insertions
// of the same template never overwrite each other.
type Enricher struct {
	runner *Runner
	ports  Ports
	cfg    EnricherConfig
	cache  *cachemanager.InMemoryCacheManager[Session, template.Params]
	broker *pubsub.Broker[Session]

	mu      sync.Mutex
	pending map[Session]struct{}
	wg      sync.WaitGroup
	closed  bool
}

// NewEnricher creates an enricher running runner's workflows against ports.
func NewEnricher(runner *Runner, ports Ports, cfg EnricherConfig) *Enricher {
	if cfg.TTL <= 0 {
		cfg.TTL = cachemanager.DefaultExpiration
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultEnricherConfig().Timeout
	}
	e := &Enricher{
		runner:  runner,
		ports:   ports,
		cfg:     cfg,
		cache:   cachemanager.NewInMemoryCacheManager[Session, template.Params]("enrichment", cfg.TTL, cachemanager.DefaultCleanupInterval),
		broker:  pubsub.NewBroker[Session](),
		pending: make(map[Session]struct{}),
	}
	e.cache.OnExpire(func(s Session, _ template.Params) {
		log.Warn(log.CatWorkflow, "enrichment result discarded unread", "session", s)
		e.broker.Publish(pubsub.ExpiredEvent, s)
	})
	return e
}

// Ports returns the collaborators workflows run against.
func (e *Enricher) Ports() Ports {
	return e.ports
}

// WithPath returns ports for a document at path.
func (e *Enricher) WithPath(path string) Ports {
	p := e.ports
	p.Path = path
	return p
}

// Start launches def's workflows for session in the background. It reports
// false when def declares no workflows or the enricher is closed. The run
// outlives ctx's cancellation but keeps its values.
func (e *Enricher) Start(ctx context.Context, session Session, def *template.Definition, initial template.Params, path string) bool {
	if def == nil || len(def.Workflows()) == 0 {
		return false
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false
	}
	e.pending[session] = struct{}{}
	e.wg.Add(1)
	e.mu.Unlock()

	ports := e.WithPath(path)
	base := initial.Clone()
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.cfg.Timeout)

	go func() {
		defer e.wg.Done()
		defer cancel()

		span := trace.SpanFromContext(runCtx)
		result := e.runner.Run(runCtx, def, base, ports)
		patch := Diff(base, result)

		e.cache.Set(runCtx, session, patch, e.cfg.TTL)
		e.mu.Lock()
		delete(e.pending, session)
		e.mu.Unlock()

		span.AddEvent(tracing.EventEnrichmentReady, trace.WithAttributes(
			attribute.String(tracing.AttrSessionID, string(session)),
			attribute.String(tracing.AttrTemplateID, def.ID()),
		))
		log.Debug(log.CatWorkflow, "enrichment ready", "session", session, "template", def.ID(), "keys", patch.Keys())
		e.broker.Publish(pubsub.EnrichedEvent, session)
	}()
	return true
}

// Pending reports whether session's workflows are still running.
func (e *Enricher) Pending(session Session) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.pending[session]
	return ok
}

// Take consumes session's patch if it is ready.
func (e *Enricher) Take(ctx context.Context, session Session) (template.Params, bool) {
	return e.cache.Take(ctx, session)
}

// Wait blocks until session's patch is ready and consumes it. It returns
// false when the session was never started, was already taken, or ctx ends
// first.
func (e *Enricher) Wait(ctx context.Context, session Session) (template.Params, bool) {
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	events := e.broker.Subscribe(subCtx, pubsub.EnrichedEvent)

	if patch, ok := e.Take(ctx, session); ok {
		return patch, true
	}
	if !e.Pending(session) {
		// finished between Subscribe and Take, or never started
		return e.Take(ctx, session)
	}

	if _, ok := pubsub.Await(ctx, events, func(ev pubsub.Event[Session]) bool {
		return ev.Payload == session
	}); !ok {
		return nil, false
	}
	return e.Take(ctx, session)
}

// Subscribe streams EnrichedEvent and ExpiredEvent notifications.
func (e *Enricher) Subscribe(ctx context.Context) <-chan pubsub.Event[Session] {
	return e.broker.Subscribe(ctx)
}

// Close waits for running sessions, then drops every unread result.
func (e *Enricher) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()

	e.wg.Wait()
	e.broker.Close()
	_ = e.cache.Flush(context.Background())
}

// Diff returns the keys of result that are new or changed relative to base.
func Diff(base, result template.Params) template.Params {
	patch := template.Params{}
	for k, v := range result {
		if old, ok := base[k]; ok && reflect.DeepEqual(old, v) {
			continue
		}
		patch[k] = v
	}
	return patch
}
