package model

import "fmt"

// Observation is one recorded transition: the state and action that were
// applied, and the outcome that followed (typically the next-state delta).
type Observation struct {
	State   []float64
	Action  []float64
	Outcome []float64
}

// Sample returns the feature vector of the observation: state concatenated
// with action.
func (o Observation) Sample() []float64 {
	s := make([]float64, 0, len(o.State)+len(o.Action))
	s = append(s, o.State...)
	s = append(s, o.Action...)
	return s
}

// Model is the interface shared by the dynamics models.
type Model interface {
	Learn(observations []Observation, onlyLimits bool) error
	SaveData(path string) error
}

// SnapshotWriter persists an assembled (samples, outcomes) dataset to a
// durable store. The ensemble calls it as a side effect of a full fit;
// what and where it writes is the collaborator's concern.
type SnapshotWriter func(samples, outcomes [][]float64) error

// assemble turns observations into the paired sample and outcome matrices,
// validating that the set is non-empty and dimensionally consistent.
func assemble(observations []Observation) (samples, outcomes [][]float64, err error) {
	if len(observations) == 0 {
		return nil, nil, fmt.Errorf("%w: no observations", ErrInvalidInput)
	}

	stateDim := len(observations[0].State)
	actionDim := len(observations[0].Action)
	predDim := len(observations[0].Outcome)
	if stateDim+actionDim == 0 || predDim == 0 {
		return nil, nil, fmt.Errorf("%w: zero-dimensional observations", ErrInvalidInput)
	}

	samples = make([][]float64, len(observations))
	outcomes = make([][]float64, len(observations))
	for i, o := range observations {
		if len(o.State) != stateDim || len(o.Action) != actionDim || len(o.Outcome) != predDim {
			return nil, nil, fmt.Errorf("%w: observation %d has inconsistent dimensions", ErrInvalidInput, i)
		}
		samples[i] = o.Sample()
		outcomes[i] = make([]float64, predDim)
		copy(outcomes[i], o.Outcome)
	}
	return samples, outcomes, nil
}

func cloneMatrix(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = make([]float64, len(r))
		copy(out[i], r)
	}
	return out
}

func cloneVector(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
