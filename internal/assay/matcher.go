package assay

import "math"

// IonEntry is one catalogued in-silico ion: its m/z and the peptidoform
// label that produces it.
type IonEntry struct {
	MZ          float64
	Peptidoform string
}

// matchingPeptidoforms returns the label of every catalogued ion whose m/z
// lies within ±mzThreshold of fragmentMZ, bounds inclusive. The threshold is
// absolute (Th), not ppm. Duplicate labels are collapsed; a fragment ion is
// a unique ion signature iff exactly one label comes back.
func matchingPeptidoforms(fragmentMZ float64, ions []IonEntry, mzThreshold float64) []string {
	var labels []string
	seen := make(map[string]struct{})
	for _, ion := range ions {
		if math.Abs(ion.MZ-fragmentMZ) > mzThreshold {
			continue
		}
		if _, ok := seen[ion.Peptidoform]; ok {
			continue
		}
		seen[ion.Peptidoform] = struct{}{}
		labels = append(labels, ion.Peptidoform)
	}
	return labels
}

// isUniqueSignature reports whether the matcher result identifies exactly
// the queried peptidoform and nothing else.
func isUniqueSignature(labels []string, peptidoform string) bool {
	return len(labels) == 1 && labels[0] == peptidoform
}
