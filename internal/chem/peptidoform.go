package chem

import (
	"fmt"
	"sort"
	"strings"
)

// Peptidoform is a specific modification-localization variant of a peptide:
// a stripped sequence plus a position → modification-name assignment.
type Peptidoform struct {
	Sequence string
	Mods     map[int]string
}

// NewPeptidoform builds a peptidoform over the given stripped sequence with
// no modifications.
func NewPeptidoform(sequence string) *Peptidoform {
	return &Peptidoform{Sequence: sequence, Mods: make(map[int]string)}
}

// Clone returns a deep copy.
func (p *Peptidoform) Clone() *Peptidoform {
	mods := make(map[int]string, len(p.Mods))
	for pos, name := range p.Mods {
		mods[pos] = name
	}
	return &Peptidoform{Sequence: p.Sequence, Mods: mods}
}

// ModifiedPositions returns the positions carrying the named modification,
// in ascending order.
func (p *Peptidoform) ModifiedPositions(name string) []int {
	var positions []int
	for pos, n := range p.Mods {
		if n == name {
			positions = append(positions, pos)
		}
	}
	sort.Ints(positions)
	return positions
}

// ModificationNames returns the distinct modification names present, sorted.
func (p *Peptidoform) ModificationNames() []string {
	seen := make(map[string]struct{})
	for _, n := range p.Mods {
		seen[n] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Key returns the canonical modified-sequence label, e.g. "PEPT(Phospho)IDE".
// Two peptidoforms are the same localization variant iff their keys match.
func (p *Peptidoform) Key() string {
	var b strings.Builder
	for i := 0; i < len(p.Sequence); i++ {
		b.WriteByte(p.Sequence[i])
		if name, ok := p.Mods[i]; ok {
			b.WriteByte('(')
			b.WriteString(name)
			b.WriteByte(')')
		}
	}
	return b.String()
}

// Mass returns the neutral monoisotopic mass of the peptidoform.
func (p *Peptidoform) Mass(db *ModificationDB) (float64, error) {
	mass := Water
	for i := 0; i < len(p.Sequence); i++ {
		m, ok := ResidueMass(p.Sequence[i])
		if !ok {
			return 0, fmt.Errorf("unknown residue %q in sequence %q", p.Sequence[i], p.Sequence)
		}
		mass += m
	}
	for _, name := range p.Mods {
		mod, err := db.Get(name)
		if err != nil {
			return 0, err
		}
		mass += mod.DeltaMass
	}
	return mass, nil
}

// PrecursorMZ returns the m/z of the peptidoform at the given charge state.
func (p *Peptidoform) PrecursorMZ(db *ModificationDB, charge int) (float64, error) {
	if charge < 1 {
		return 0, fmt.Errorf("invalid precursor charge %d", charge)
	}
	mass, err := p.Mass(db)
	if err != nil {
		return 0, err
	}
	return (mass + float64(charge)*Proton) / float64(charge), nil
}
