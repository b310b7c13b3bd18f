package kpi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindowSumEvictsOldSamples(t *testing.T) {
	w := NewWindow("throughput", 3, AggSum)
	w.Push(0, 10)
	w.Push(1, 10)
	w.Push(2, 10)
	assert.Equal(t, 30.0, w.Value())

	w.Push(3, 10) // evicts tick 0 (3-3=0 cutoff, tick 0 <= 0 evicted)
	assert.Equal(t, 30.0, w.Value())
	assert.Equal(t, 3, w.Len())
}

func TestWindowMaxRecomputesAfterEviction(t *testing.T) {
	w := NewWindow("heat", 2, AggMax)
	w.Push(0, 5)
	w.Push(1, 9)
	assert.Equal(t, 9.0, w.Value())

	w.Push(2, 1) // evicts tick 0; max becomes max(9,1)
	assert.Equal(t, 9.0, w.Value())

	w.Push(5, 1) // far future tick evicts everything but itself
	assert.Equal(t, 1.0, w.Value())
}

func TestWindowAvg(t *testing.T) {
	w := NewWindow("corruption", 10, AggAvg)
	w.Push(0, 0.2)
	w.Push(1, 0.4)
	assert.InDelta(t, 0.3, w.Value(), 1e-9)
}

func TestWindowQuantile(t *testing.T) {
	w := NewWindow("latency", 100, AggAvg)
	for i, v := range []float64{5, 1, 3, 2, 4} {
		w.Push(int64(i), v)
	}
	assert.Equal(t, 1.0, w.Quantile(0))
	assert.Equal(t, 5.0, w.Quantile(1))
}

func TestEmptyWindowValuesAreZero(t *testing.T) {
	w := NewWindow("x", 10, AggMax)
	assert.Equal(t, 0.0, w.Value())
	assert.Equal(t, 0.0, w.Quantile(0.5))
}
