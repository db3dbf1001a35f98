package tsync

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ErrorGroupWithContext returns a group whose context is canceled as soon as
// Wait returns.
func ErrorGroupWithContext(ctx context.Context) (*ErrorGroup, context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	return &ErrorGroup{cancel: cancel}, ctx
}

// ErrorGroup runs functions concurrently like errgroup.Group but keeps every
// error instead of only the first one.
type ErrorGroup struct {
	mu     sync.Mutex
	errors []error
	eg     errgroup.Group
	cancel context.CancelFunc
}

func (g *ErrorGroup) SetLimit(n int) {
	g.eg.SetLimit(n)
}

// Go runs fn in a new goroutine. A returned error is prefixed with name.
func (g *ErrorGroup) Go(name string, fn func() error) {
	g.eg.Go(func() error {
		if err := fn(); err != nil {
			g.mu.Lock()
			defer g.mu.Unlock()
			g.errors = append(g.errors, fmt.Errorf("%s: %w", name, err))
		}
		return nil
	})
}

func (g *ErrorGroup) Wait() error {
	_ = g.eg.Wait()
	if g.cancel != nil {
		g.cancel()
	}
	return errors.Join(g.errors...)
}
