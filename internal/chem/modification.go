package chem

import (
	"fmt"
	"strings"
)

// Modification describes a post-translational modification: its monoisotopic
// mass delta, the residues that can carry it, and an optional neutral loss
// observed on fragment ions carrying the modification.
type Modification struct {
	Name        string
	DeltaMass   float64
	Residues    string  // residues capable of carrying the modification
	NeutralLoss float64 // specific neutral-loss mass, 0 if none
}

// ModificationDB answers validity queries about modifications: which
// modifications exist and which positions of a stripped sequence can carry
// them. It is the single authority consulted during localization enumeration.
type ModificationDB struct {
	mods map[string]Modification
}

// NewModificationDB returns a database preloaded with the modifications
// commonly encountered in targeted proteomics.
func NewModificationDB() *ModificationDB {
	db := &ModificationDB{mods: make(map[string]Modification)}
	for _, m := range []Modification{
		{Name: "Phospho", DeltaMass: 79.966331, Residues: "STY", NeutralLoss: 97.976896},
		{Name: "Oxidation", DeltaMass: 15.994915, Residues: "M", NeutralLoss: 63.998285},
		{Name: "Carbamidomethyl", DeltaMass: 57.021464, Residues: "C"},
		{Name: "Acetyl", DeltaMass: 42.010565, Residues: "K"},
		{Name: "Deamidated", DeltaMass: 0.984016, Residues: "NQ"},
		{Name: "Methyl", DeltaMass: 14.015650, Residues: "KR"},
	} {
		db.mods[m.Name] = m
	}
	return db
}

// Register adds or replaces a modification definition.
func (db *ModificationDB) Register(m Modification) {
	db.mods[m.Name] = m
}

// Get returns the modification with the given name.
func (db *ModificationDB) Get(name string) (Modification, error) {
	m, ok := db.mods[name]
	if !ok {
		return Modification{}, fmt.Errorf("unknown modification %q", name)
	}
	return m, nil
}

// ModifiablePositions returns, in ascending order, every position of the
// stripped sequence capable of carrying the named modification. Unknown
// modification names yield an error; a valid modification with no compatible
// residue yields an empty slice.
func (db *ModificationDB) ModifiablePositions(sequence, name string) ([]int, error) {
	m, ok := db.mods[name]
	if !ok {
		return nil, fmt.Errorf("unknown modification %q", name)
	}
	var positions []int
	for i := 0; i < len(sequence); i++ {
		if strings.IndexByte(m.Residues, sequence[i]) >= 0 {
			positions = append(positions, i)
		}
	}
	return positions, nil
}
