package assay

import (
	"fmt"

	"github.com/openmrm/assaygen/internal/chem"
)

// InsufficientSitesError reports a sequence that cannot host the observed
// number of a modification. The owning peptide is skipped; processing of the
// remaining peptides continues.
type InsufficientSitesError struct {
	Sequence     string
	Modification string
	Need         int
	Have         int
}

func (e *InsufficientSitesError) Error() string {
	return fmt.Sprintf("sequence %q has %d site(s) for %s, need %d",
		e.Sequence, e.Have, e.Modification, e.Need)
}

// addModificationsToSequences applies the named modification to every
// position combination of every input peptidoform, producing one new variant
// per (input, combination) pair. Positions already carrying the modification
// are first cleared so combinations fully determine placement.
func addModificationsToSequences(forms []*chem.Peptidoform, combinations [][]int, modification string) []*chem.Peptidoform {
	var out []*chem.Peptidoform
	for _, form := range forms {
		for _, positions := range combinations {
			variant := form.Clone()
			for pos, name := range variant.Mods {
				if name == modification {
					delete(variant.Mods, pos)
				}
			}
			for _, pos := range positions {
				variant.Mods[pos] = modification
			}
			out = append(out, variant)
		}
	}
	return out
}

// combineModifications enumerates every alternative localization of the
// modifications observed on form. For each distinct modification, the
// modification database supplies the sites capable of carrying it; all
// k-out-of-n placements (k = observed count) are folded together across
// modification types. The result always includes the original peptidoform
// and models MS/MS localization ambiguity.
func combineModifications(db *chem.ModificationDB, form *chem.Peptidoform) ([]*chem.Peptidoform, error) {
	forms := []*chem.Peptidoform{chem.NewPeptidoform(form.Sequence)}

	for _, name := range form.ModificationNames() {
		observed := len(form.ModifiedPositions(name))
		sites, err := db.ModifiablePositions(form.Sequence, name)
		if err != nil {
			return nil, err
		}
		if len(sites) < observed {
			return nil, &InsufficientSitesError{
				Sequence:     form.Sequence,
				Modification: name,
				Need:         observed,
				Have:         len(sites),
			}
		}
		combinations := nChooseKCombinations(sites, observed)
		forms = addModificationsToSequences(forms, combinations, name)
	}
	return forms, nil
}

// combineDecoyModifications mirrors combineModifications but transfers each
// position combination computed on the target's modifiable-site set onto the
// decoy's own modifiable-site set: the i-th target site maps to the i-th
// decoy site, so the decoy yields exactly as many localization variants as
// the target. Fails explicitly when the decoy lacks enough modifiable sites
// to host the transfer.
func combineDecoyModifications(db *chem.ModificationDB, form *chem.Peptidoform, decoySequence string) ([]*chem.Peptidoform, error) {
	forms := []*chem.Peptidoform{chem.NewPeptidoform(decoySequence)}

	for _, name := range form.ModificationNames() {
		observed := len(form.ModifiedPositions(name))
		targetSites, err := db.ModifiablePositions(form.Sequence, name)
		if err != nil {
			return nil, err
		}
		decoySites, err := db.ModifiablePositions(decoySequence, name)
		if err != nil {
			return nil, err
		}
		if len(decoySites) < observed || (observed > 0 && len(decoySites) < len(targetSites)) {
			return nil, &InsufficientSitesError{
				Sequence:     decoySequence,
				Modification: name,
				Need:         max(observed, len(targetSites)),
				Have:         len(decoySites),
			}
		}

		rank := make(map[int]int, len(targetSites))
		for i, site := range targetSites {
			rank[site] = i
		}
		combinations := nChooseKCombinations(targetSites, observed)
		for _, comb := range combinations {
			for i, site := range comb {
				comb[i] = decoySites[rank[site]]
			}
		}
		forms = addModificationsToSequences(forms, combinations, name)
	}
	return forms, nil
}
