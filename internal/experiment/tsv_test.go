package experiment

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleExperiment() *Experiment {
	return &Experiment{
		Proteins: []Protein{{ID: "prot1"}},
		Peptides: []Peptide{{
			ID:          "pep1",
			Sequence:    "SASK",
			Mods:        []SiteMod{{Position: 2, Name: "Phospho"}},
			ChargeState: 2,
			ProteinRefs: []string{"prot1"},
		}},
		Transitions: []Transition{
			{
				ID:               "t1",
				PeptideRef:       "pep1",
				PrecursorMZ:      236.574007,
				ProductMZ:        147.112804,
				ProductCharge:    1,
				FragmentType:     'y',
				FragmentOrdinal:  1,
				LibraryIntensity: 1000,
				Detecting:        true,
			},
			{
				ID:               "t2",
				PeptideRef:       "pep1",
				PrecursorMZ:      236.574007,
				ProductMZ:        159.076421,
				ProductCharge:    1,
				FragmentType:     'b',
				FragmentOrdinal:  2,
				LibraryIntensity: 500,
				Identifying:      true,
			},
		},
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	exp := sampleExperiment()

	path := filepath.Join(t.TempDir(), "transitions.tsv")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, WriteTSV(f, exp))
	require.NoError(t, f.Close())

	got, err := ReadTSV(path)
	require.NoError(t, err)

	require.Len(t, got.Proteins, 1)
	require.Len(t, got.Peptides, 1)
	require.Len(t, got.Transitions, 2)

	pep := got.Peptides[0]
	assert.Equal(t, "pep1", pep.ID)
	assert.Equal(t, "SASK", pep.Sequence)
	assert.Equal(t, []SiteMod{{Position: 2, Name: "Phospho"}}, pep.Mods)
	assert.Equal(t, 2, pep.ChargeState)
	assert.Equal(t, []string{"prot1"}, pep.ProteinRefs)

	tr := got.Transitions[0]
	assert.InDelta(t, 236.574007, tr.PrecursorMZ, 1e-6)
	assert.InDelta(t, 147.112804, tr.ProductMZ, 1e-6)
	assert.Equal(t, byte('y'), tr.FragmentType)
	assert.Equal(t, 1, tr.FragmentOrdinal)
	assert.True(t, tr.Detecting)
	assert.False(t, tr.Identifying)

	assert.True(t, got.Transitions[1].Identifying)
	assert.Equal(t, byte('b'), got.Transitions[1].FragmentType)
}

func TestReadTSV_Gzipped(t *testing.T) {
	exp := sampleExperiment()

	var buf bytes.Buffer
	require.NoError(t, WriteTSV(&buf, exp))

	path := filepath.Join(t.TempDir(), "transitions.tsv.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write(buf.Bytes())
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	got, err := ReadTSV(path)
	require.NoError(t, err)
	assert.Len(t, got.Transitions, 2)
}

func TestReadTSV_MissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.tsv")
	require.NoError(t, os.WriteFile(path, []byte("ProteinId\tPeptideId\nprot1\tpep1\n"), 0o644))

	_, err := ReadTSV(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing column")
}

func TestReadTSV_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.tsv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := ReadTSV(path)
	assert.Error(t, err)
}

func TestReadTSV_BadNumericField(t *testing.T) {
	header := "ProteinId\tPeptideId\tPeptideSequence\tModifications\tPrecursorCharge\tPrecursorMz\tProductMz\tProductCharge\tFragmentType\tFragmentSeriesNumber\tLibraryIntensity"
	row := "prot1\tpep1\tSASK\t-\t2\tnot-a-number\t147.1\t1\ty\t1\t1000"

	path := filepath.Join(t.TempDir(), "bad.tsv")
	require.NoError(t, os.WriteFile(path, []byte(header+"\n"+row+"\n"), 0o644))

	_, err := ReadTSV(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestParseMods(t *testing.T) {
	mods, err := ParseMods("0:Phospho;3:Oxidation")
	require.NoError(t, err)
	assert.Equal(t, []SiteMod{{Position: 0, Name: "Phospho"}, {Position: 3, Name: "Oxidation"}}, mods)

	mods, err = ParseMods("-")
	require.NoError(t, err)
	assert.Nil(t, mods)

	mods, err = ParseMods("")
	require.NoError(t, err)
	assert.Nil(t, mods)

	_, err = ParseMods("Phospho")
	assert.Error(t, err)

	_, err = ParseMods("x:Phospho")
	assert.Error(t, err)
}

func TestFormatMods(t *testing.T) {
	assert.Equal(t, "-", FormatMods(nil))
	assert.Equal(t, "2:Phospho", FormatMods([]SiteMod{{Position: 2, Name: "Phospho"}}))
	assert.Equal(t, "0:Acetyl;2:Phospho",
		FormatMods([]SiteMod{{Position: 0, Name: "Acetyl"}, {Position: 2, Name: "Phospho"}}))
}
