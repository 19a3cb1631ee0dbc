package assay

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/openmrm/assaygen/internal/chem"
	"github.com/openmrm/assaygen/internal/experiment"
	"github.com/openmrm/assaygen/internal/ion"
)

const defaultPrecursorCharge = 2

// DefaultMaxAlternativeLocalizations caps how many localization variants are
// enumerated per peptide before truncation.
const DefaultMaxAlternativeLocalizations = 20

// Assay is the UIS assay generation engine. One engine call is a synchronous
// batch transform over a whole experiment; all intermediate maps are rebuilt
// per call and discarded.
type Assay struct {
	db     *chem.ModificationDB
	logger *zap.Logger
}

// New creates an engine backed by the given modification database.
func New(db *chem.ModificationDB) *Assay {
	return &Assay{db: db, logger: zap.NewNop()}
}

// SetLogger sets the logger for warnings and progress counters.
func (a *Assay) SetLogger(l *zap.Logger) {
	a.logger = l
}

// Options configures one UISTransitions call.
type Options struct {
	IonConfig                   ion.Config
	MZThreshold                 float64  // UIS matching tolerance, absolute Th
	Windows                     []Window // precursor isolation windows
	MaxAlternativeLocalizations int      // 0 means DefaultMaxAlternativeLocalizations
	Seed                        Seed     // decoy shuffle seed
	DisableDecoyTransitions     bool     // suppress decoy assay output
}

// Validate reports configuration errors before any processing begins.
func (o Options) Validate() error {
	if err := o.IonConfig.Validate(); err != nil {
		return err
	}
	if o.MZThreshold <= 0 {
		return fmt.Errorf("m/z threshold must be positive, got %g", o.MZThreshold)
	}
	if len(o.Windows) == 0 {
		return fmt.Errorf("no swath windows configured")
	}
	if err := ValidateWindows(o.Windows); err != nil {
		return err
	}
	if o.MaxAlternativeLocalizations < 0 {
		return fmt.Errorf("max alternative localizations must not be negative")
	}
	return nil
}

// UISTransitions replaces the experiment's transitions with unique ion
// signature transitions: per peptide and localization variant, the fragment
// ions that match no other peptidoform, target or decoy, in the same
// isolation window within the m/z threshold. Decoy peptides and their
// transitions are appended unless DisableDecoyTransitions is set; decoy
// catalogues constrain target uniqueness either way.
func (a *Assay) UISTransitions(exp *experiment.Experiment, opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	if opts.MaxAlternativeLocalizations == 0 {
		opts.MaxAlternativeLocalizations = DefaultMaxAlternativeLocalizations
	}

	target, err := a.generateTargetInSilicoMap(exp, opts)
	if err != nil {
		return err
	}

	decoySequences := generateDecoySequences(target.sequences, opts.Seed, a.logger)

	decoy, decoyPeptides, err := a.generateDecoyInSilicoMap(exp, opts, target.peptides, decoySequences)
	if err != nil {
		return err
	}

	transitions, err := a.generateTargetAssays(exp, opts, target, decoy, decoySequences)
	if err != nil {
		return err
	}

	if !opts.DisableDecoyTransitions {
		decoyTransitions, err := a.generateDecoyAssays(exp, opts, decoy, target, decoyPeptides)
		if err != nil {
			return err
		}
		transitions = append(transitions, decoyTransitions...)
	}

	a.logger.Info("uis transition generation finished",
		zap.Int("transitions", len(transitions)),
		zap.Int("decoy_sequences", len(decoySequences)))

	exp.SetTransitions(transitions)
	return nil
}

// generateTargetAssays selects, per target peptide and localization variant,
// the fragment ions that are unique ion signatures: the matcher must return
// exactly the variant under test from the target catalogue and nothing from
// the paired decoy catalogue.
func (a *Assay) generateTargetAssays(exp *experiment.Experiment, opts Options, target, decoy *inSilicoMaps, decoySequences map[string]string) ([]experiment.Transition, error) {
	var transitions []experiment.Transition

	for _, peptideID := range sortedKeys(target.peptides) {
		p := exp.PeptideByID(peptideID)
		if p == nil {
			continue
		}
		charge := p.ChargeState
		if charge < 1 {
			charge = defaultPrecursorCharge
		}

		for _, entry := range target.peptides[peptideID] {
			window := windowIndex(opts.Windows, entry.PrecursorMZ)
			if window < 0 {
				continue
			}
			key := SequenceKey{Window: window, Sequence: p.Sequence}

			var decoyIons []IonEntry
			if decoySequence, ok := decoySequences[p.Sequence]; ok {
				decoyIons = decoy.ions[SequenceKey{Window: window, Sequence: decoySequence}]
			}

			form := target.forms[entry.Peptidoform]
			fragments, err := ion.Series(opts.IonConfig, a.db, form, charge)
			if err != nil {
				return nil, fmt.Errorf("peptide %s: %w", peptideID, err)
			}
			for _, f := range fragments {
				if f.Type == 'p' {
					continue
				}
				labels := matchingPeptidoforms(f.MZ, target.ions[key], opts.MZThreshold)
				if !isUniqueSignature(labels, entry.Peptidoform) {
					continue
				}
				if len(matchingPeptidoforms(f.MZ, decoyIons, opts.MZThreshold)) > 0 {
					continue
				}
				transitions = append(transitions, newUISTransition(peptideID, entry, f, false, p.LibraryIntensity))
			}
		}
	}
	return transitions, nil
}

// generateDecoyAssays selects unique ion signatures for decoy peptidoforms.
// A decoy fragment must be unique within the decoy catalogue and must not
// match any target peptidoform in the window. Decoy peptides that yield
// transitions are added to the experiment. The target and decoy catalogues
// are shared by reference; the engine never copies them.
func (a *Assay) generateDecoyAssays(exp *experiment.Experiment, opts Options, decoy, target *inSilicoMaps, decoyPeptides map[string]experiment.Peptide) ([]experiment.Transition, error) {
	var transitions []experiment.Transition
	addedProteins := make(map[string]struct{})

	for _, targetID := range sortedKeys(decoyPeptides) {
		decoyPeptide := decoyPeptides[targetID]
		targetPeptide := exp.PeptideByID(targetID)
		if targetPeptide == nil {
			continue
		}
		charge := decoyPeptide.ChargeState

		var peptideTransitions []experiment.Transition
		for _, entry := range decoy.peptides[decoyPeptide.ID] {
			window := windowIndex(opts.Windows, entry.PrecursorMZ)
			if window < 0 {
				continue
			}
			decoyKey := SequenceKey{Window: window, Sequence: decoyPeptide.Sequence}
			targetKey := SequenceKey{Window: window, Sequence: targetPeptide.Sequence}

			form := decoy.forms[entry.Peptidoform]
			fragments, err := ion.Series(opts.IonConfig, a.db, form, charge)
			if err != nil {
				return nil, fmt.Errorf("decoy peptide %s: %w", decoyPeptide.ID, err)
			}
			for _, f := range fragments {
				if f.Type == 'p' {
					continue
				}
				labels := matchingPeptidoforms(f.MZ, decoy.ions[decoyKey], opts.MZThreshold)
				if !isUniqueSignature(labels, entry.Peptidoform) {
					continue
				}
				if len(matchingPeptidoforms(f.MZ, target.ions[targetKey], opts.MZThreshold)) > 0 {
					continue
				}
				peptideTransitions = append(peptideTransitions, newUISTransition(decoyPeptide.ID, entry, f, true, decoyPeptide.LibraryIntensity))
			}
		}

		if len(peptideTransitions) == 0 {
			continue
		}
		if exp.PeptideByID(decoyPeptide.ID) == nil {
			exp.AddPeptide(decoyPeptide)
			for _, ref := range decoyPeptide.ProteinRefs {
				if _, ok := addedProteins[ref]; !ok {
					addedProteins[ref] = struct{}{}
					exp.Proteins = append(exp.Proteins, experiment.Protein{ID: ref})
				}
			}
		}
		transitions = append(transitions, peptideTransitions...)
	}
	return transitions, nil
}

// newUISTransition builds an identifying transition. libraryIntensity is the
// source peptide's intensity carried through unchanged, so UIS output never
// injects a synthetic score into downstream ranking.
func newUISTransition(peptideRef string, entry PeptideEntry, f ion.Fragment, decoy bool, libraryIntensity float64) experiment.Transition {
	id := fmt.Sprintf("%s_%s_%s", entry.Peptidoform, f.Annotation(), peptideRef)
	if decoy {
		id = "DECOY_" + id
	}
	return experiment.Transition{
		ID:               id,
		PeptideRef:       peptideRef,
		PrecursorMZ:      entry.PrecursorMZ,
		ProductMZ:        f.MZ,
		ProductCharge:    f.Charge,
		FragmentType:     f.Type,
		FragmentOrdinal:  f.Ordinal,
		LibraryIntensity: libraryIntensity,
		Decoy:            decoy,
		Identifying:      true,
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
