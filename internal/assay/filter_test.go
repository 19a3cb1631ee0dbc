package assay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmrm/assaygen/internal/experiment"
	"github.com/openmrm/assaygen/internal/ion"
)

func testIonConfig() ion.Config {
	return ion.Config{Types: []byte("by"), Charges: []int{1}, RoundDecPow: -4}
}

// SAMK at charge 2: precursor 218.6149, y2 = 278.1533, b2 = 159.0764.
func samkExperiment(transitions ...experiment.Transition) *experiment.Experiment {
	return &experiment.Experiment{
		Proteins: []experiment.Protein{{ID: "prot1"}},
		Peptides: []experiment.Peptide{{
			ID:          "pep1",
			Sequence:    "SAMK",
			ChargeState: 2,
			ProteinRefs: []string{"prot1"},
		}},
		Transitions: transitions,
	}
}

func TestReannotateTransitions(t *testing.T) {
	a := New(testDB())
	exp := samkExperiment(
		// Slightly off product m/z, snaps to theoretical y2.
		experiment.Transition{ID: "t1", PeptideRef: "pep1", PrecursorMZ: 218.6149, ProductMZ: 278.16},
		// No theoretical fragment anywhere near: dropped.
		experiment.Transition{ID: "t2", PeptideRef: "pep1", PrecursorMZ: 218.6149, ProductMZ: 999.0},
		// Precursor far from theoretical: dropped.
		experiment.Transition{ID: "t3", PeptideRef: "pep1", PrecursorMZ: 300.0, ProductMZ: 278.1533},
	)

	err := a.ReannotateTransitions(exp, 0.025, 0.025, testIonConfig())
	require.NoError(t, err)
	require.Len(t, exp.Transitions, 1)

	tr := exp.Transitions[0]
	assert.Equal(t, "t1", tr.ID)
	assert.InDelta(t, 278.1533, tr.ProductMZ, 1e-4)
	assert.InDelta(t, 218.6149, tr.PrecursorMZ, 1e-4)
	assert.Equal(t, byte('y'), tr.FragmentType)
	assert.Equal(t, 2, tr.FragmentOrdinal)
	assert.Equal(t, 1, tr.ProductCharge)
}

func TestReannotateTransitions_UnknownPeptide(t *testing.T) {
	a := New(testDB())
	exp := samkExperiment(
		experiment.Transition{ID: "t1", PeptideRef: "missing", PrecursorMZ: 218.6149, ProductMZ: 278.1533},
	)
	assert.Error(t, a.ReannotateTransitions(exp, 0.025, 0.025, testIonConfig()))
}

func TestRestrictTransitions(t *testing.T) {
	a := New(testDB())
	windows := []Window{{Lower: 400, Upper: 500}}
	exp := samkExperiment(
		// Product inside the precursor's own isolation window.
		experiment.Transition{ID: "self", PeptideRef: "pep1", PrecursorMZ: 450, ProductMZ: 460},
		// Fine.
		experiment.Transition{ID: "keep", PeptideRef: "pep1", PrecursorMZ: 450, ProductMZ: 600},
		// Below the lower product limit.
		experiment.Transition{ID: "low", PeptideRef: "pep1", PrecursorMZ: 450, ProductMZ: 300},
		// Above the upper product limit.
		experiment.Transition{ID: "high", PeptideRef: "pep1", PrecursorMZ: 450, ProductMZ: 2100},
	)

	require.NoError(t, a.RestrictTransitions(exp, 350, 2000, windows))
	require.Len(t, exp.Transitions, 1)
	assert.Equal(t, "keep", exp.Transitions[0].ID)
}

func TestRestrictTransitions_NoWindowsSkipsSelfCheck(t *testing.T) {
	a := New(testDB())
	exp := samkExperiment(
		experiment.Transition{ID: "t1", PeptideRef: "pep1", PrecursorMZ: 450, ProductMZ: 460},
	)
	require.NoError(t, a.RestrictTransitions(exp, 350, 2000, nil))
	assert.Len(t, exp.Transitions, 1)
}

func TestDetectingTransitions_TopNByIntensity(t *testing.T) {
	a := New(testDB())
	exp := samkExperiment(
		experiment.Transition{ID: "t1", PeptideRef: "pep1", LibraryIntensity: 3},
		experiment.Transition{ID: "t2", PeptideRef: "pep1", LibraryIntensity: 1},
		experiment.Transition{ID: "t3", PeptideRef: "pep1", LibraryIntensity: 2},
	)

	require.NoError(t, a.DetectingTransitions(exp, 1, 2, nil))
	require.Len(t, exp.Transitions, 2)

	kept := map[string]bool{}
	for _, tr := range exp.Transitions {
		assert.True(t, tr.Detecting)
		kept[tr.ID] = true
	}
	assert.True(t, kept["t1"])
	assert.True(t, kept["t3"])
}

func TestDetectingTransitions_HardMinimumDropsAssay(t *testing.T) {
	a := New(testDB())
	exp := samkExperiment(
		experiment.Transition{ID: "t1", PeptideRef: "pep1", LibraryIntensity: 3},
		experiment.Transition{ID: "t2", PeptideRef: "pep1", LibraryIntensity: 1},
	)

	require.NoError(t, a.DetectingTransitions(exp, 3, 6, nil))
	assert.Empty(t, exp.Transitions, "assay below the floor is dropped entirely")
	assert.Empty(t, exp.Peptides, "peptide without transitions is pruned")
	assert.Empty(t, exp.Proteins, "protein without peptides is pruned")
}

func TestDetectingTransitions_MinExceedsMax(t *testing.T) {
	a := New(testDB())
	exp := samkExperiment()
	assert.Error(t, a.DetectingTransitions(exp, 7, 6, nil))
}

func TestDetectingTransitions_UnimplementedRankerFailsLoudly(t *testing.T) {
	a := New(testDB())
	exp := samkExperiment(
		experiment.Transition{ID: "t1", PeptideRef: "pep1", LibraryIntensity: 3},
	)

	err := a.DetectingTransitions(exp, 1, 6, UnimplementedRanker{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotSupported)
}
