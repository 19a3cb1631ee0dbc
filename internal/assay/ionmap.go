package assay

import (
	"go.uber.org/zap"

	"github.com/openmrm/assaygen/internal/chem"
	"github.com/openmrm/assaygen/internal/experiment"
	"github.com/openmrm/assaygen/internal/ion"
)

// SequenceKey addresses the in-silico catalogues: one flat composite key of
// isolation-window ordinal and stripped sequence.
type SequenceKey struct {
	Window   int
	Sequence string
}

// SequenceMap records, per (window, stripped sequence), the peptidoform
// labels observed there. Its key set drives decoy sequence generation.
type SequenceMap map[SequenceKey]map[string]struct{}

// IonMap is the in-silico fragmentation catalogue: every theoretical ion of
// every peptidoform reachable in a (window, stripped sequence) group.
// Read-only after construction, rebuilt on every engine call.
type IonMap map[SequenceKey][]IonEntry

// PeptideEntry is one localization variant considered for assay selection.
type PeptideEntry struct {
	Peptidoform string
	PrecursorMZ float64
}

// PeptideMap lists, per peptide ID, the localization variants to select
// transitions for. Bridges ion maps and the final transition output.
type PeptideMap map[string][]PeptideEntry

func (m SequenceMap) add(key SequenceKey, label string) {
	set, ok := m[key]
	if !ok {
		set = make(map[string]struct{})
		m[key] = set
	}
	set[label] = struct{}{}
}

// inSilicoMaps bundles the transient state built for one engine call.
type inSilicoMaps struct {
	sequences SequenceMap
	ions      IonMap
	peptides  PeptideMap
	forms     map[string]*chem.Peptidoform // peptidoform label -> form
}

func newInSilicoMaps() *inSilicoMaps {
	return &inSilicoMaps{
		sequences: make(SequenceMap),
		ions:      make(IonMap),
		peptides:  make(PeptideMap),
		forms:     make(map[string]*chem.Peptidoform),
	}
}

// enumerateForms applies the localization cap, logging a non-fatal
// truncation and keeping the first N variants in enumeration order.
func (a *Assay) enumerateForms(peptideID string, forms []*chem.Peptidoform, maxAlternatives int) []*chem.Peptidoform {
	if maxAlternatives > 0 && len(forms) > maxAlternatives {
		a.logger.Warn("truncating alternative localizations",
			zap.String("peptide", peptideID),
			zap.Int("enumerated", len(forms)),
			zap.Int("cap", maxAlternatives))
		forms = forms[:maxAlternatives]
	}
	return forms
}

// generateTargetInSilicoMap enumerates, for every target peptide, all
// alternative modification localizations, and catalogues their theoretical
// fragment ions per isolation window. Peptides whose precursor falls in no
// window are skipped silently; peptides whose modifications cannot be
// localized are skipped with a report.
func (a *Assay) generateTargetInSilicoMap(exp *experiment.Experiment, opts Options) (*inSilicoMaps, error) {
	maps := newInSilicoMaps()

	for i := range exp.Peptides {
		p := &exp.Peptides[i]
		if p.Decoy {
			continue
		}

		forms, err := combineModifications(a.db, p.Peptidoform())
		if err != nil {
			if insufficient, ok := err.(*InsufficientSitesError); ok {
				a.logger.Warn("skipping peptide: cannot localize modifications",
					zap.String("peptide", p.ID),
					zap.Error(insufficient))
				continue
			}
			return nil, err
		}
		forms = a.enumerateForms(p.ID, forms, opts.MaxAlternativeLocalizations)

		charge := p.ChargeState
		if charge < 1 {
			charge = defaultPrecursorCharge
		}
		precursorMZ, err := forms[0].PrecursorMZ(a.db, charge)
		if err != nil {
			return nil, err
		}
		precursorMZ = chem.RoundMZ(precursorMZ, opts.IonConfig.RoundDecPow)

		window := windowIndex(opts.Windows, precursorMZ)
		if window < 0 {
			continue
		}
		key := SequenceKey{Window: window, Sequence: p.Sequence}

		for _, form := range forms {
			label := form.Key()
			maps.sequences.add(key, label)
			maps.forms[label] = form

			fragments, err := ion.Series(opts.IonConfig, a.db, form, charge)
			if err != nil {
				return nil, err
			}
			for _, f := range fragments {
				maps.ions[key] = append(maps.ions[key], IonEntry{MZ: f.MZ, Peptidoform: label})
			}
			maps.peptides[p.ID] = append(maps.peptides[p.ID], PeptideEntry{
				Peptidoform: label,
				PrecursorMZ: precursorMZ,
			})
		}
	}
	return maps, nil
}

// generateDecoyInSilicoMap mirrors generateTargetInSilicoMap for decoys: the
// target's localization combinatorics are transferred onto each target's
// decoy sequence. Returns the decoy maps plus the decoy peptide built for
// each target peptide ID.
func (a *Assay) generateDecoyInSilicoMap(exp *experiment.Experiment, opts Options, targetPeptides PeptideMap, decoySequences map[string]string) (*inSilicoMaps, map[string]experiment.Peptide, error) {
	maps := newInSilicoMaps()
	decoyPeptides := make(map[string]experiment.Peptide)

	for i := range exp.Peptides {
		p := &exp.Peptides[i]
		if p.Decoy {
			continue
		}
		if _, selected := targetPeptides[p.ID]; !selected {
			continue
		}
		decoySequence, ok := decoySequences[p.Sequence]
		if !ok {
			continue
		}

		form := p.Peptidoform()
		forms, err := combineDecoyModifications(a.db, form, decoySequence)
		if err != nil {
			if insufficient, ok := err.(*InsufficientSitesError); ok {
				a.logger.Warn("skipping decoy: insufficient modifiable sites",
					zap.String("peptide", p.ID),
					zap.Error(insufficient))
				continue
			}
			return nil, nil, err
		}
		forms = a.enumerateForms("DECOY_"+p.ID, forms, opts.MaxAlternativeLocalizations)

		charge := p.ChargeState
		if charge < 1 {
			charge = defaultPrecursorCharge
		}
		precursorMZ, err := forms[0].PrecursorMZ(a.db, charge)
		if err != nil {
			return nil, nil, err
		}
		precursorMZ = chem.RoundMZ(precursorMZ, opts.IonConfig.RoundDecPow)

		window := windowIndex(opts.Windows, precursorMZ)
		if window < 0 {
			continue
		}
		key := SequenceKey{Window: window, Sequence: decoySequence}

		decoyMods, err := transferMods(a.db, form, decoySequence)
		if err != nil {
			return nil, nil, err
		}
		decoyID := "DECOY_" + p.ID
		decoyPeptides[p.ID] = experiment.Peptide{
			ID:               decoyID,
			Sequence:         decoySequence,
			Mods:             decoyMods,
			ChargeState:      charge,
			ProteinRefs:      decoyProteinRefs(p.ProteinRefs),
			LibraryIntensity: p.LibraryIntensity,
			Decoy:            true,
		}

		for _, decoyForm := range forms {
			label := decoyForm.Key()
			maps.sequences.add(key, label)
			maps.forms[label] = decoyForm

			fragments, err := ion.Series(opts.IonConfig, a.db, decoyForm, charge)
			if err != nil {
				return nil, nil, err
			}
			for _, f := range fragments {
				maps.ions[key] = append(maps.ions[key], IonEntry{MZ: f.MZ, Peptidoform: label})
			}
			maps.peptides[decoyID] = append(maps.peptides[decoyID], PeptideEntry{
				Peptidoform: label,
				PrecursorMZ: precursorMZ,
			})
		}
	}
	return maps, decoyPeptides, nil
}

// transferMods maps the target's actual modification placements onto the
// decoy sequence by site rank, producing the decoy peptide's modifications.
func transferMods(db *chem.ModificationDB, form *chem.Peptidoform, decoySequence string) ([]experiment.SiteMod, error) {
	var mods []experiment.SiteMod
	for _, name := range form.ModificationNames() {
		targetSites, err := db.ModifiablePositions(form.Sequence, name)
		if err != nil {
			return nil, err
		}
		decoySites, err := db.ModifiablePositions(decoySequence, name)
		if err != nil {
			return nil, err
		}
		rank := make(map[int]int, len(targetSites))
		for i, site := range targetSites {
			rank[site] = i
		}
		for _, pos := range form.ModifiedPositions(name) {
			r, ok := rank[pos]
			if !ok || r >= len(decoySites) {
				return nil, &InsufficientSitesError{
					Sequence:     decoySequence,
					Modification: name,
					Need:         r + 1,
					Have:         len(decoySites),
				}
			}
			mods = append(mods, experiment.SiteMod{Position: decoySites[r], Name: name})
		}
	}
	return mods, nil
}

func decoyProteinRefs(refs []string) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = "DECOY_" + r
	}
	return out
}
