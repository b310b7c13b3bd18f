package models

// CorruptionField is the global and per-worker corruption state.
type CorruptionField struct {
	Global    float64
	PerWorker map[WorkerID]float64
}

// NewCorruptionField creates an empty (zero-corruption) field.
func NewCorruptionField() *CorruptionField {
	return &CorruptionField{PerWorker: map[WorkerID]float64{}}
}

// Of returns the corruption value recorded for a worker, defaulting to
// zero for a worker with no history yet.
func (f *CorruptionField) Of(w WorkerID) float64 {
	return f.PerWorker[w]
}

// Set stores a worker's corruption value, clamped into [0,1].
func (f *CorruptionField) Set(w WorkerID, v float64) {
	f.PerWorker[w] = Clamp01(v)
}
