// Package chem provides amino-acid chemistry: residue masses, peptidoform
// mass/m-z computation, and the modification database used to decide which
// residues can carry a given modification.
package chem

import "math"

// Monoisotopic masses of common small molecules and particles, in Da.
const (
	Proton = 1.007276466879
	Water  = 18.010564684
	CO     = 27.994914620
	NH3    = 17.026549101
	H2     = 2.015650064
)

// Monoisotopic residue masses (minus water), standard 20 amino acids.
var residueMass = map[byte]float64{
	'A': 71.0371138,
	'C': 103.0091848,
	'D': 115.0269430,
	'E': 129.0425931,
	'F': 147.0684139,
	'G': 57.0214637,
	'H': 137.0589119,
	'I': 113.0840640,
	'K': 128.0949630,
	'L': 113.0840640,
	'M': 131.0404849,
	'N': 114.0429274,
	'P': 97.0527638,
	'Q': 128.0585775,
	'R': 156.1011110,
	'S': 87.0320284,
	'T': 101.0476785,
	'V': 99.0684139,
	'W': 186.0793129,
	'Y': 163.0633285,
}

// Alphabet is the standard amino-acid alphabet used for random and decoy
// sequence generation.
const Alphabet = "ACDEFGHIKLMNPQRSTVWY"

// ResidueMass returns the monoisotopic mass (minus water) of a residue.
// The second return value is false for unknown residues.
func ResidueMass(aa byte) (float64, bool) {
	m, ok := residueMass[aa]
	return m, ok
}

// IsResidue reports whether aa is one of the standard 20 amino acids.
func IsResidue(aa byte) bool {
	_, ok := residueMass[aa]
	return ok
}

// RoundMZ rounds an m/z value to the given decimal power, e.g. decPow = -4
// rounds to 1e-4 Th. Stabilizes equality comparisons between independently
// computed m/z values.
func RoundMZ(mz float64, decPow int) float64 {
	scale := math.Pow(10, float64(-decPow))
	return math.Round(mz*scale) / scale
}
