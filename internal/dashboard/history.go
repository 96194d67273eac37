package dashboard

import (
	"math"
	"time"
)

// ring holds the last size temperatures of one sensor.
type ring struct {
	vals []float64
	size int
	last time.Time // timestamp of the newest pushed reading
}

func newRing(capacity int) *ring {
	return &ring{
		vals: make([]float64, 0, capacity),
		size: capacity,
	}
}

// push appends v unless a reading with the same or an older timestamp was
// already seen, so polling faster than the simulator does not repeat points.
func (r *ring) push(v float64, at time.Time) bool {
	if !r.last.IsZero() && !at.After(r.last) {
		return false
	}
	r.last = at
	if len(r.vals) >= r.size {
		copy(r.vals, r.vals[1:])
		r.vals[len(r.vals)-1] = v
	} else {
		r.vals = append(r.vals, v)
	}
	return true
}

// lastN returns up to n newest values, oldest first.
func (r *ring) lastN(n int) []float64 {
	if n <= 0 || len(r.vals) == 0 {
		return nil
	}
	start := max(len(r.vals)-n, 0)
	out := make([]float64, len(r.vals)-start)
	copy(out, r.vals[start:])
	return out
}

// bounds is the min and max of values; a sparkline scaled to the visible
// window recovers once an outlier scrolls out.
func bounds(values []float64) (lo, hi float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi = math.MaxFloat64, -math.MaxFloat64
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// history keeps one ring per sensor name.
type history struct {
	data     map[string]*ring
	capacity int
}

func newHistory(capacity int) *history {
	return &history{data: make(map[string]*ring), capacity: capacity}
}

func (h *history) record(name string, v float64, at time.Time) {
	r, ok := h.data[name]
	if !ok {
		r = newRing(h.capacity)
		h.data[name] = r
	}
	r.push(v, at)
}

func (h *history) get(name string) *ring {
	return h.data[name]
}
