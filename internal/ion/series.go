// Package ion computes in-silico fragment-ion series for peptidoforms under
// a configurable fragmentation model (ion types, charges, neutral losses).
package ion

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/openmrm/assaygen/internal/chem"
)

// unspecificLosses is the fixed generic neutral-loss set applied to every
// fragment when unspecific losses are enabled: H2O, NH3, CH2N2, CH2NO.
var unspecificLosses = []struct {
	Name string
	Mass float64
}{
	{"H2O1", 18.010565},
	{"H3N1", 17.026549},
	{"C1H2N2", 42.021798},
	{"C1H2N1O1", 44.013639},
}

// Config selects which fragment ions the model generates.
type Config struct {
	Types            []byte // subset of a, b, c, x, y, z
	Charges          []int  // fragment charge states, all >= 1
	SpecificLosses   bool   // losses from modifications carried by the fragment
	UnspecificLosses bool   // the fixed generic loss set
	Precursors       bool   // include MS2 precursor ions in the catalogue
	RoundDecPow      int    // decimal power for m/z rounding, e.g. -4
}

// Validate checks the fragmentation model configuration.
func (c Config) Validate() error {
	if len(c.Types) == 0 {
		return fmt.Errorf("no fragment ion types configured")
	}
	for _, t := range c.Types {
		if strings.IndexByte("abcxyz", t) < 0 {
			return fmt.Errorf("unknown fragment ion type %q", string(t))
		}
	}
	if len(c.Charges) == 0 {
		return fmt.Errorf("no fragment charges configured")
	}
	for _, z := range c.Charges {
		if z < 1 {
			return fmt.Errorf("invalid fragment charge %d", z)
		}
	}
	return nil
}

// Fragment is a single theoretical product ion.
type Fragment struct {
	MZ      float64
	Type    byte   // a, b, c, x, y, z, or p for precursor
	Ordinal int    // series ordinal; 0 for precursor
	Charge  int
	Loss    string // neutral-loss name, empty for the intact fragment
}

// Annotation formats the fragment the way assay libraries name transitions,
// e.g. "y4^2", "b3-H2O1^1" or "prec^2".
func (f Fragment) Annotation() string {
	if f.Type == 'p' {
		return fmt.Sprintf("prec^%d", f.Charge)
	}
	if f.Loss != "" {
		return fmt.Sprintf("%c%d-%s^%d", f.Type, f.Ordinal, f.Loss, f.Charge)
	}
	return fmt.Sprintf("%c%d^%d", f.Type, f.Ordinal, f.Charge)
}

// Series computes the full theoretical fragment-ion catalogue of a
// peptidoform. precursorCharge is only consulted when Config.Precursors is
// set, to emit the MS2 precursor entry.
func Series(cfg Config, db *chem.ModificationDB, p *chem.Peptidoform, precursorCharge int) ([]Fragment, error) {
	n := len(p.Sequence)
	if n == 0 {
		return nil, fmt.Errorf("empty sequence")
	}

	// Cumulative residue masses including modification deltas.
	prefix := make([]float64, n+1)
	for i := 0; i < n; i++ {
		m, ok := chem.ResidueMass(p.Sequence[i])
		if !ok {
			return nil, fmt.Errorf("unknown residue %q in sequence %q", p.Sequence[i], p.Sequence)
		}
		if name, modded := p.Mods[i]; modded {
			mod, err := db.Get(name)
			if err != nil {
				return nil, err
			}
			m += mod.DeltaMass
		}
		prefix[i+1] = prefix[i] + m
	}
	total := prefix[n]

	// Sorted so loss variants come out in a stable order.
	modPositions := make([]int, 0, len(p.Mods))
	for pos := range p.Mods {
		modPositions = append(modPositions, pos)
	}
	sort.Ints(modPositions)

	var fragments []Fragment
	emit := func(neutral float64, typ byte, ordinal int, lo, hi int) {
		// Loss variants for this fragment; lo..hi is the residue span.
		type lossVariant struct {
			name string
			mass float64
		}
		variants := []lossVariant{{"", 0}}
		if cfg.SpecificLosses {
			for _, pos := range modPositions {
				if pos < lo || pos >= hi {
					continue
				}
				mod, err := db.Get(p.Mods[pos])
				if err != nil || mod.NeutralLoss == 0 {
					continue
				}
				variants = append(variants, lossVariant{mod.Name, mod.NeutralLoss})
			}
		}
		if cfg.UnspecificLosses {
			for _, l := range unspecificLosses {
				variants = append(variants, lossVariant{l.Name, l.Mass})
			}
		}
		for _, z := range cfg.Charges {
			for _, v := range variants {
				m := neutral - v.mass
				if m <= 0 {
					continue
				}
				mz := (m + float64(z)*chem.Proton) / float64(z)
				fragments = append(fragments, Fragment{
					MZ:      chem.RoundMZ(mz, cfg.RoundDecPow),
					Type:    typ,
					Ordinal: ordinal,
					Charge:  z,
					Loss:    v.name,
				})
			}
		}
	}

	for _, t := range cfg.Types {
		for i := 1; i < n; i++ {
			switch t {
			case 'a':
				emit(prefix[i]-chem.CO, 'a', i, 0, i)
			case 'b':
				emit(prefix[i], 'b', i, 0, i)
			case 'c':
				emit(prefix[i]+chem.NH3, 'c', i, 0, i)
			case 'x':
				emit(total-prefix[n-i]+chem.Water+chem.CO-chem.H2, 'x', i, n-i, n)
			case 'y':
				emit(total-prefix[n-i]+chem.Water, 'y', i, n-i, n)
			case 'z':
				emit(total-prefix[n-i]+chem.Water-chem.NH3, 'z', i, n-i, n)
			}
		}
	}

	if cfg.Precursors && precursorCharge >= 1 {
		mz := (total + chem.Water + float64(precursorCharge)*chem.Proton) / float64(precursorCharge)
		fragments = append(fragments, Fragment{
			MZ:     chem.RoundMZ(mz, cfg.RoundDecPow),
			Type:   'p',
			Charge: precursorCharge,
		})
	}

	return fragments, nil
}

// Annotate finds the theoretical fragment closest to productMZ within
// mzThreshold. The boolean is false when no fragment matches.
func Annotate(cfg Config, db *chem.ModificationDB, p *chem.Peptidoform, productMZ, mzThreshold float64, precursorCharge int) (Fragment, bool, error) {
	fragments, err := Series(cfg, db, p, precursorCharge)
	if err != nil {
		return Fragment{}, false, err
	}
	best := Fragment{}
	bestDiff := math.Inf(1)
	for _, f := range fragments {
		if f.Type == 'p' {
			continue
		}
		diff := math.Abs(f.MZ - productMZ)
		if diff <= mzThreshold && diff < bestDiff {
			best = f
			bestDiff = diff
		}
	}
	return best, !math.IsInf(bestDiff, 1), nil
}
