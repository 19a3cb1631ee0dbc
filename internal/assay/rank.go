package assay

import (
	"errors"

	"github.com/openmrm/assaygen/internal/experiment"
)

// ErrNotSupported is returned by ranking capabilities that a collaborator
// left unimplemented. Invoking one is an error surfaced to the caller, never
// a silent no-op.
var ErrNotSupported = errors.New("transition ranking not supported")

// Ranker scores transitions for detecting-transition selection; higher
// scores are kept first.
type Ranker interface {
	Score(t *experiment.Transition) (float64, error)
}

// LibraryIntensityRanker ranks transitions by their library intensity, the
// default ordering for spectral-library input.
type LibraryIntensityRanker struct{}

// Score returns the transition's library intensity.
func (LibraryIntensityRanker) Score(t *experiment.Transition) (float64, error) {
	return t.LibraryIntensity, nil
}

// UnimplementedRanker is the placeholder for ranking strategies a
// collaborator has not provided.
type UnimplementedRanker struct{}

// Score always fails with ErrNotSupported.
func (UnimplementedRanker) Score(*experiment.Transition) (float64, error) {
	return 0, ErrNotSupported
}
