package chem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResidueMass(t *testing.T) {
	m, ok := ResidueMass('G')
	require.True(t, ok)
	assert.InDelta(t, 57.02146, m, 1e-4)

	_, ok = ResidueMass('B')
	assert.False(t, ok)

	for i := 0; i < len(Alphabet); i++ {
		assert.True(t, IsResidue(Alphabet[i]))
	}
}

func TestRoundMZ(t *testing.T) {
	tests := []struct {
		mz     float64
		decPow int
		want   float64
	}{
		{123.456789, -4, 123.4568},
		{123.456789, -2, 123.46},
		{123.44, -1, 123.4},
		{1234.5, 1, 1230},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, RoundMZ(tt.mz, tt.decPow), 1e-9)
	}
}

func TestModifiablePositions(t *testing.T) {
	db := NewModificationDB()

	positions, err := db.ModifiablePositions("SASK", "Phospho")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, positions)

	positions, err = db.ModifiablePositions("GAGA", "Phospho")
	require.NoError(t, err)
	assert.Empty(t, positions)

	_, err = db.ModifiablePositions("SASK", "NoSuchMod")
	assert.Error(t, err)
}

func TestModificationDB_Register(t *testing.T) {
	db := NewModificationDB()
	db.Register(Modification{Name: "TMT6plex", DeltaMass: 229.162932, Residues: "K"})

	m, err := db.Get("TMT6plex")
	require.NoError(t, err)
	assert.InDelta(t, 229.1629, m.DeltaMass, 1e-4)

	positions, err := db.ModifiablePositions("AKAK", "TMT6plex")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, positions)
}

func TestPeptidoformKey(t *testing.T) {
	form := NewPeptidoform("SASK")
	assert.Equal(t, "SASK", form.Key())

	form.Mods[2] = "Phospho"
	assert.Equal(t, "SAS(Phospho)K", form.Key())

	form.Mods[0] = "Phospho"
	assert.Equal(t, "S(Phospho)AS(Phospho)K", form.Key())
}

func TestPeptidoformMass(t *testing.T) {
	db := NewModificationDB()

	form := NewPeptidoform("SK")
	mass, err := form.Mass(db)
	require.NoError(t, err)
	// S + K + H2O
	assert.InDelta(t, 233.1376, mass, 1e-3)

	mz, err := form.PrecursorMZ(db, 1)
	require.NoError(t, err)
	assert.InDelta(t, 234.1448, mz, 1e-3)

	form.Mods[0] = "Phospho"
	modMass, err := form.Mass(db)
	require.NoError(t, err)
	assert.InDelta(t, 79.9663, modMass-mass, 1e-3)
}

func TestPeptidoformMass_UnknownResidue(t *testing.T) {
	db := NewModificationDB()
	_, err := NewPeptidoform("SXK").Mass(db)
	assert.Error(t, err)
}

func TestPeptidoformClone(t *testing.T) {
	form := NewPeptidoform("SASK")
	form.Mods[2] = "Phospho"

	clone := form.Clone()
	clone.Mods[0] = "Phospho"

	assert.Len(t, form.Mods, 1, "clone must not share the mods map")
	assert.Len(t, clone.Mods, 2)
}

func TestPeptidoformModificationNames(t *testing.T) {
	form := NewPeptidoform("SMSM")
	form.Mods[0] = "Phospho"
	form.Mods[1] = "Oxidation"
	form.Mods[2] = "Phospho"

	assert.Equal(t, []string{"Oxidation", "Phospho"}, form.ModificationNames())
	assert.Equal(t, []int{0, 2}, form.ModifiedPositions("Phospho"))
}
