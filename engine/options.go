package engine

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dlsys-project/depengine/engine/emit"
)

// Option is a functional option for configuring an Engine.
//
// Example:
//
//	eng := engine.New(
//	    engine.WithConcurrent(true),
//	    engine.WithEmitter(emit.NewLogEmitter(os.Stderr, false)),
//	    engine.WithMetrics(engine.NewMetrics(nil)),
//	)
type Option func(*engineConfig) error

// engineConfig collects options before New applies them.
type engineConfig struct {
	concurrent bool
	emitter    emit.Emitter
	metrics    *Metrics
}

func defaultConfig() *engineConfig {
	return &engineConfig{
		concurrent: true,
		emitter:    emit.NewNullEmitter(),
	}
}

// WithConcurrent controls whether fired instructions run on dedicated
// goroutines (true, the default) or inline on their claiming resource's
// worker goroutine (false). Inline execution serializes every instruction
// the engine ever fires onto however many resource workers exist, which is
// useful for deterministic tests but defeats the scheduler's purpose for
// real workloads.
func WithConcurrent(v bool) Option {
	return func(cfg *engineConfig) error {
		cfg.concurrent = v
		return nil
	}
}

// WithEmitter attaches an observability backend. Default is emit.NullEmitter.
func WithEmitter(e emit.Emitter) Option {
	return func(cfg *engineConfig) error {
		if e != nil {
			cfg.emitter = e
		}
		return nil
	}
}

// WithMetrics attaches Prometheus instrumentation. Default is nil, which
// disables metrics entirely (every recording method is a nil-safe no-op).
func WithMetrics(m *Metrics) Option {
	return func(cfg *engineConfig) error {
		cfg.metrics = m
		return nil
	}
}

// WithPrometheusRegistry is a convenience over WithMetrics that constructs a
// Metrics registered against registry.
func WithPrometheusRegistry(registry prometheus.Registerer) Option {
	return func(cfg *engineConfig) error {
		cfg.metrics = NewMetrics(registry)
		return nil
	}
}
