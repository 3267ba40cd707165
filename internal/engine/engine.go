package engine

import (
	"code.cloudfoundry.org/clock"

	"github.com/picklr-io/stackctl/internal/deployer"
	"github.com/picklr-io/stackctl/internal/eval"
	"github.com/picklr-io/stackctl/internal/version"
)

// Engine reconciles stack configs against their recorded status.
type Engine struct {
	registry   *deployer.Registry
	clock      clock.Clock
	cliVersion string
	evaluator  *eval.Evaluator
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used to stamp deployed resources.
func WithClock(clk clock.Clock) Option {
	return func(e *Engine) {
		e.clock = clk
	}
}

// WithCLIVersion overrides the version recorded in status documents.
func WithCLIVersion(v string) Option {
	return func(e *Engine) {
		e.cliVersion = v
	}
}

// WithEvaluator sets the evaluator Deploy and Plan load configs with.
func WithEvaluator(ev *eval.Evaluator) Option {
	return func(e *Engine) {
		e.evaluator = ev
	}
}

func NewEngine(registry *deployer.Registry, opts ...Option) *Engine {
	e := &Engine{
		registry:   registry,
		clock:      clock.NewClock(),
		cliVersion: version.Version,
		evaluator:  eval.NewEvaluator(nil),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}
