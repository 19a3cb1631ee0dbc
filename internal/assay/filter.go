package assay

import (
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/openmrm/assaygen/internal/chem"
	"github.com/openmrm/assaygen/internal/experiment"
	"github.com/openmrm/assaygen/internal/ion"
)

// ReannotateTransitions recomputes every transition's annotation from the
// fragmentation model: the precursor m/z is replaced by the theoretical
// value and the product m/z by the nearest theoretical fragment, both
// rounded per the model's decimal precision. Transitions whose precursor or
// product deviates beyond the thresholds are dropped. Annotation runs on a
// worker pool; output order matches input order.
func (a *Assay) ReannotateTransitions(exp *experiment.Experiment, precursorMZThreshold, productMZThreshold float64, cfg ion.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Resolve peptides up front; the experiment's lazy index must not be
	// built from multiple goroutines.
	items := make([]annotateItem, len(exp.Transitions))
	for i := range exp.Transitions {
		t := exp.Transitions[i]
		p := exp.PeptideByID(t.PeptideRef)
		if p == nil {
			return fmt.Errorf("transition %s references unknown peptide %s", t.ID, t.PeptideRef)
		}
		items[i] = annotateItem{seq: i, transition: t, peptide: p}
	}

	queue := make(chan annotateItem)
	go func() {
		for _, item := range items {
			queue <- item
		}
		close(queue)
	}()

	results := annotateWorkers(queue, 0, func(item annotateItem) annotateResult {
		t, keep, err := a.reannotateOne(item.transition, item.peptide, precursorMZThreshold, productMZThreshold, cfg)
		return annotateResult{seq: item.seq, transition: t, keep: keep, err: err}
	})

	kept := exp.Transitions[:0]
	dropped := 0
	err := collectInOrder(results, func(r annotateResult) error {
		if r.err != nil {
			return r.err
		}
		if !r.keep {
			dropped++
			return nil
		}
		kept = append(kept, r.transition)
		return nil
	})
	if err != nil {
		return err
	}

	if dropped > 0 {
		a.logger.Info("reannotation dropped unannotatable transitions",
			zap.Int("dropped", dropped),
			zap.Int("kept", len(kept)))
	}
	exp.SetTransitions(kept)
	return nil
}

func (a *Assay) reannotateOne(t experiment.Transition, p *experiment.Peptide, precursorMZThreshold, productMZThreshold float64, cfg ion.Config) (experiment.Transition, bool, error) {
	charge := p.ChargeState
	if charge < 1 {
		charge = defaultPrecursorCharge
	}
	form := p.Peptidoform()

	theoreticalPrecursor, err := form.PrecursorMZ(a.db, charge)
	if err != nil {
		return t, false, fmt.Errorf("peptide %s: %w", p.ID, err)
	}
	theoreticalPrecursor = chem.RoundMZ(theoreticalPrecursor, cfg.RoundDecPow)
	if math.Abs(theoreticalPrecursor-t.PrecursorMZ) > precursorMZThreshold {
		return t, false, nil
	}

	fragment, ok, err := ion.Annotate(cfg, a.db, form, t.ProductMZ, productMZThreshold, charge)
	if err != nil {
		return t, false, fmt.Errorf("peptide %s: %w", p.ID, err)
	}
	if !ok {
		return t, false, nil
	}

	t.PrecursorMZ = theoreticalPrecursor
	t.ProductMZ = fragment.MZ
	t.ProductCharge = fragment.Charge
	t.FragmentType = fragment.Type
	t.FragmentOrdinal = fragment.Ordinal
	return t, true, nil
}

// RestrictTransitions drops transitions whose product m/z lies outside
// [lowerMZLimit, upperMZLimit] or falls inside the precursor's own isolation
// window (self-interference). An empty window list skips the window check.
func (a *Assay) RestrictTransitions(exp *experiment.Experiment, lowerMZLimit, upperMZLimit float64, windows []Window) error {
	if lowerMZLimit > upperMZLimit {
		return fmt.Errorf("lower m/z limit %.4f exceeds upper limit %.4f", lowerMZLimit, upperMZLimit)
	}
	if err := ValidateWindows(windows); err != nil {
		return err
	}

	kept := exp.Transitions[:0]
	for i := range exp.Transitions {
		t := exp.Transitions[i]
		if t.ProductMZ < lowerMZLimit || t.ProductMZ > upperMZLimit {
			continue
		}
		if len(windows) > 0 && inWindow(windows, t.PrecursorMZ, t.ProductMZ) {
			continue
		}
		kept = append(kept, t)
	}
	exp.SetTransitions(kept)
	return nil
}

// DetectingTransitions keeps, per peptide, the top maxTransitions by rank
// and marks them detecting. Assays with fewer than minTransitions are
// dropped entirely; the minimum is a hard floor. A nil ranker defaults to
// library-intensity ordering; a ranker that fails (including an
// unimplemented capability) aborts the whole stage.
func (a *Assay) DetectingTransitions(exp *experiment.Experiment, minTransitions, maxTransitions int, ranker Ranker) error {
	if minTransitions > maxTransitions {
		return fmt.Errorf("min transitions %d exceeds max transitions %d", minTransitions, maxTransitions)
	}
	if minTransitions < 1 {
		return fmt.Errorf("min transitions must be at least 1")
	}
	if ranker == nil {
		ranker = LibraryIntensityRanker{}
	}

	selected := make(map[*experiment.Transition]struct{})
	for peptideID, group := range exp.TransitionsByPeptide() {
		scores := make(map[*experiment.Transition]float64, len(group))
		for _, t := range group {
			score, err := ranker.Score(t)
			if err != nil {
				return fmt.Errorf("rank transition %s: %w", t.ID, err)
			}
			scores[t] = score
		}
		sort.SliceStable(group, func(i, j int) bool {
			return scores[group[i]] > scores[group[j]]
		})

		if len(group) > maxTransitions {
			group = group[:maxTransitions]
		}
		if len(group) < minTransitions {
			a.logger.Warn("dropping assay below transition floor",
				zap.String("peptide", peptideID),
				zap.Int("transitions", len(group)),
				zap.Int("min", minTransitions))
			continue
		}
		for _, t := range group {
			selected[t] = struct{}{}
		}
	}

	kept := make([]experiment.Transition, 0, len(selected))
	for i := range exp.Transitions {
		t := &exp.Transitions[i]
		if _, ok := selected[t]; ok {
			t.Detecting = true
			kept = append(kept, *t)
		}
	}
	exp.SetTransitions(kept)
	exp.Prune()
	return nil
}
