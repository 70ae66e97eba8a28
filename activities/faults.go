package activities

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// defaultStall is long enough to blow past any sane StartToClose timeout so
// the engine abandons the attempt and retries.
const defaultStall = 300 * time.Second

// FaultInjector exercises the retry/timeout contract of the activity layer.
// Each Maybe call either fails transiently (~1/3), stalls past the caller's
// timeout (~1/3) or lets the call through (~1/3). It must stay disabled in
// production.
type FaultInjector struct {
	enabled bool
	stall   time.Duration
	randFn  func() float64
}

// NewFaultInjector returns an injector. With enabled=false Maybe is a no-op.
func NewFaultInjector(enabled bool) *FaultInjector {
	return &FaultInjector{
		enabled: enabled,
		stall:   defaultStall,
		randFn:  rand.Float64,
	}
}

func (f *FaultInjector) Maybe(ctx context.Context) error {
	if f == nil || !f.enabled {
		return nil
	}
	switch n := f.randFn(); {
	case n < 0.33:
		return errors.New("forced failure for testing")
	case n < 0.67:
		select {
		case <-time.After(f.stall):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
