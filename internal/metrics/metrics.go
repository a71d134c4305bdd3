package metrics

import (
	"sync/atomic"
	"time"
)

type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Add(n uint64) {
	atomic.AddUint64(&c.value, n)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Registry groups the marketplace counters. A nil *Registry is valid and
// records nothing.
type Registry struct {
	OrdersPlaced      Counter
	OrdersCancelled   Counter
	SignatureFailures Counter
	GatewayErrors     Counter
	RefundsIssued     Counter
	ReviewsAdded      Counter
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Inc increments c when the registry is non-nil.
func (r *Registry) Inc(c func(*Registry) *Counter) {
	if r == nil {
		return
	}
	c(r).Inc()
}

func (r *Registry) Snapshot() map[string]uint64 {
	if r == nil {
		return map[string]uint64{}
	}
	return map[string]uint64{
		"orders_placed":      r.OrdersPlaced.Load(),
		"orders_cancelled":   r.OrdersCancelled.Load(),
		"signature_failures": r.SignatureFailures.Load(),
		"gateway_errors":     r.GatewayErrors.Load(),
		"refunds_issued":     r.RefundsIssued.Load(),
		"reviews_added":      r.ReviewsAdded.Load(),
	}
}

func OrdersPlaced(r *Registry) *Counter      { return &r.OrdersPlaced }
func OrdersCancelled(r *Registry) *Counter   { return &r.OrdersCancelled }
func SignatureFailures(r *Registry) *Counter { return &r.SignatureFailures }
func GatewayErrors(r *Registry) *Counter     { return &r.GatewayErrors }
func RefundsIssued(r *Registry) *Counter     { return &r.RefundsIssued }
func ReviewsAdded(r *Registry) *Counter      { return &r.ReviewsAdded }
