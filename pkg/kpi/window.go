// Package kpi implements rolling-window telemetry: fixed-capacity ring
// buffers over named signals with incrementally maintained aggregates,
// in the spirit of the exponential and windowed smoothers elsewhere in
// this codebase -- a small, self-contained numeric type rather than a
// library dependency.
package kpi

// Sample is one (tick, value) observation in a window.
type Sample struct {
	Tick  int64
	Value float64
}

// Aggregate selects which incremental aggregate a Window maintains.
type Aggregate string

const (
	AggSum Aggregate = "sum"
	AggMax Aggregate = "max"
	AggAvg Aggregate = "avg"
)

// Window is a fixed-capacity ring buffer over one named signal. The sum
// is maintained incrementally; the max is rescanned over the retained
// samples whenever a push evicts any.
type Window struct {
	Name     string
	CapTicks int64
	Agg      Aggregate
	samples  []Sample
	sum      float64
	max      float64
	maxValid bool
}

// NewWindow creates a window with the given name, tick capacity and
// aggregate kind.
func NewWindow(name string, capTicks int64, agg Aggregate) *Window {
	return &Window{Name: name, CapTicks: capTicks, Agg: agg, samples: make([]Sample, 0, 64)}
}

// Push appends a new (tick, value) sample, evicting samples older than
// CapTicks and incrementally updating the aggregate.
func (w *Window) Push(tick int64, value float64) {
	w.samples = append(w.samples, Sample{Tick: tick, Value: value})
	w.sum += value
	if !w.maxValid || value > w.max {
		w.max = value
		w.maxValid = true
	}

	cutoff := tick - w.CapTicks
	evicted := 0
	for len(w.samples) > 0 && w.samples[0].Tick <= cutoff {
		w.sum -= w.samples[0].Value
		w.samples = w.samples[1:]
		evicted++
	}
	if evicted > 0 {
		w.recomputeMax()
	}
}

func (w *Window) recomputeMax() {
	w.maxValid = false
	for _, s := range w.samples {
		if !w.maxValid || s.Value > w.max {
			w.max = s.Value
			w.maxValid = true
		}
	}
}

// Len returns the number of samples currently retained.
func (w *Window) Len() int { return len(w.samples) }

// Value returns the window's current aggregate value.
func (w *Window) Value() float64 {
	switch w.Agg {
	case AggSum:
		return w.sum
	case AggMax:
		if !w.maxValid {
			return 0
		}
		return w.max
	case AggAvg:
		if len(w.samples) == 0 {
			return 0
		}
		return w.sum / float64(len(w.samples))
	default:
		return w.sum
	}
}

// Quantile returns the empirical quantile q in [0,1] over retained
// samples (sorted by value). O(n^2) in the worst case (insertion sort);
// the tick pipeline and Black Swan trigger evaluation do not call it.
func (w *Window) Quantile(q float64) float64 {
	n := len(w.samples)
	if n == 0 {
		return 0
	}
	vals := make([]float64, n)
	for i, s := range w.samples {
		vals[i] = s.Value
	}
	// insertion sort: windows evaluated here are small and this keeps
	// the package free of an extra sort-algorithm dependency.
	for i := 1; i < n; i++ {
		v := vals[i]
		j := i - 1
		for j >= 0 && vals[j] > v {
			vals[j+1] = vals[j]
			j--
		}
		vals[j+1] = v
	}
	idx := int(q * float64(n-1))
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return vals[idx]
}
