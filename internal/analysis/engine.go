package analysis

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Options controls how the engine schedules work.
type Options struct {
	// Parallelism bounds concurrent per-field passes; 0 means GOMAXPROCS.
	Parallelism int
}

// DefaultOptions returns reasonable defaults for the engine.
func DefaultOptions() Options {
	return Options{Parallelism: runtime.GOMAXPROCS(0)}
}

// Engine runs analyses. It holds no per-call state and is safe for
// concurrent use across datasets.
type Engine struct {
	opt Options
}

// NewEngine builds an engine with the given options.
func NewEngine(opt Options) *Engine {
	if opt.Parallelism <= 0 {
		opt.Parallelism = runtime.GOMAXPROCS(0)
	}
	return &Engine{opt: opt}
}

var defaultEngine = NewEngine(DefaultOptions())

// eachField runs fn once per name. Each call owns slot i of whatever the
// caller writes to, so results come back in input order.
func (e *Engine) eachField(names []string, fn func(i int, name string)) {
	if len(names) == 0 {
		return
	}
	var g errgroup.Group
	g.SetLimit(e.opt.Parallelism)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			fn(i, name)
			return nil
		})
	}
	_ = g.Wait()
}
