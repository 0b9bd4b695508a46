package agent

import "context"

// Gate is a fixed-size permit pool bounding concurrent agent subprocesses.
// A permit is held only for the duration of one agent call; a task's own
// git and filesystem work between calls runs without one, so a slow rebase
// or test run never starves another task's agent invocation.
type Gate chan struct{}

// NewGate creates a Gate with n permits.
func NewGate(n int) Gate {
	return make(Gate, n)
}

// Acquire blocks until a permit is free or ctx is cancelled.
func (g Gate) Acquire(ctx context.Context) error {
	select {
	case g <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a permit to the pool.
func (g Gate) Release() {
	<-g
}

// GatedInvoker wraps an Invoker so every call holds a Gate permit.
type GatedInvoker struct {
	inner Invoker
	gate  Gate
}

// Gated bounds an Invoker's concurrency with the given gate.
func Gated(inner Invoker, gate Gate) *GatedInvoker {
	return &GatedInvoker{inner: inner, gate: gate}
}

func (g *GatedInvoker) Run(ctx context.Context, req Request) (string, error) {
	if err := g.gate.Acquire(ctx); err != nil {
		return "", err
	}
	defer g.gate.Release()
	return g.inner.Run(ctx, req)
}

func (g *GatedInvoker) RunJSON(ctx context.Context, req Request, out any) error {
	if err := g.gate.Acquire(ctx); err != nil {
		return err
	}
	defer g.gate.Release()
	return g.inner.RunJSON(ctx, req, out)
}

var _ Invoker = (*GatedInvoker)(nil)
