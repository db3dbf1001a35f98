package tsync

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorGroupCollectsAllErrors(t *testing.T) {
	eg, ctx := ErrorGroupWithContext(context.Background())

	errA := errors.New("a failed")
	errB := errors.New("b failed")
	var ran atomic.Int32

	eg.Go("a", func() error { ran.Add(1); return errA })
	eg.Go("b", func() error { ran.Add(1); return errB })
	eg.Go("c", func() error { ran.Add(1); return nil })

	err := eg.Wait()
	assert.Equal(t, int32(3), ran.Load())
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.Contains(t, err.Error(), "a: a failed")
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestErrorGroupNoErrors(t *testing.T) {
	var eg ErrorGroup
	eg.SetLimit(1)
	eg.Go("noop", func() error { return nil })
	assert.NoError(t, eg.Wait())
}
