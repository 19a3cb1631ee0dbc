// Package experiment holds the in-memory representation of a targeted
// experiment: proteins, peptides and the transition list the assay engine
// filters and rewrites in place.
package experiment

import (
	"github.com/openmrm/assaygen/internal/chem"
)

// Protein groups peptides under a single accession.
type Protein struct {
	ID string
}

// SiteMod is a modification placed at a specific residue position.
type SiteMod struct {
	Position int    // 0-based index into the stripped sequence
	Name     string // modification name, e.g. "Phospho"
}

// Peptide is one precursor entry of the experiment. Immutable during a
// processing pass; the engine only reads it.
type Peptide struct {
	ID               string
	Sequence         string // stripped amino-acid sequence
	Mods             []SiteMod
	ChargeState      int
	ProteinRefs      []string
	LibraryIntensity float64
	Decoy            bool
}

// Peptidoform returns the peptide's modified sequence as a chem.Peptidoform.
func (p *Peptide) Peptidoform() *chem.Peptidoform {
	form := chem.NewPeptidoform(p.Sequence)
	for _, m := range p.Mods {
		form.Mods[m.Position] = m.Name
	}
	return form
}

// Transition is a monitored precursor/product ion pair. Created and mutated
// only by the assay engine during annotation and selection.
type Transition struct {
	ID               string
	PeptideRef       string
	PrecursorMZ      float64
	ProductMZ        float64
	ProductCharge    int
	FragmentType     byte
	FragmentOrdinal  int
	LibraryIntensity float64
	Decoy            bool
	Detecting        bool
	Identifying      bool // set on unique-ion-signature transitions
}

// Experiment is the mutable container the engine operates on. The transition
// list is the only state that survives a top-level engine call.
type Experiment struct {
	Proteins    []Protein
	Peptides    []Peptide
	Transitions []Transition

	peptideIndex map[string]int
}

// PeptideByID returns the peptide with the given ID, or nil.
func (e *Experiment) PeptideByID(id string) *Peptide {
	if e.peptideIndex == nil {
		e.reindex()
	}
	i, ok := e.peptideIndex[id]
	if !ok {
		return nil
	}
	return &e.Peptides[i]
}

// AddPeptide appends a peptide and keeps the ID index current.
func (e *Experiment) AddPeptide(p Peptide) {
	e.Peptides = append(e.Peptides, p)
	if e.peptideIndex != nil {
		e.peptideIndex[p.ID] = len(e.Peptides) - 1
	}
}

func (e *Experiment) reindex() {
	e.peptideIndex = make(map[string]int, len(e.Peptides))
	for i := range e.Peptides {
		e.peptideIndex[e.Peptides[i].ID] = i
	}
}

// SetTransitions replaces the transition list in place.
func (e *Experiment) SetTransitions(ts []Transition) {
	e.Transitions = ts
}

// TransitionsByPeptide groups the current transitions by peptide reference,
// preserving input order inside each group.
func (e *Experiment) TransitionsByPeptide() map[string][]*Transition {
	byPeptide := make(map[string][]*Transition)
	for i := range e.Transitions {
		t := &e.Transitions[i]
		byPeptide[t.PeptideRef] = append(byPeptide[t.PeptideRef], t)
	}
	return byPeptide
}

// Prune removes peptides without transitions and proteins without peptides.
func (e *Experiment) Prune() {
	referenced := make(map[string]struct{}, len(e.Transitions))
	for i := range e.Transitions {
		referenced[e.Transitions[i].PeptideRef] = struct{}{}
	}

	kept := e.Peptides[:0]
	proteinRefs := make(map[string]struct{})
	for _, p := range e.Peptides {
		if _, ok := referenced[p.ID]; !ok {
			continue
		}
		kept = append(kept, p)
		for _, ref := range p.ProteinRefs {
			proteinRefs[ref] = struct{}{}
		}
	}
	e.Peptides = kept

	keptProteins := e.Proteins[:0]
	for _, pr := range e.Proteins {
		if _, ok := proteinRefs[pr.ID]; ok {
			keptProteins = append(keptProteins, pr)
		}
	}
	e.Proteins = keptProteins
	e.peptideIndex = nil
}
