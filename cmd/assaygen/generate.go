package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/openmrm/assaygen/internal/assay"
	"github.com/openmrm/assaygen/internal/chem"
	"github.com/openmrm/assaygen/internal/experiment"
	"github.com/openmrm/assaygen/internal/ion"
)

type generateOptions struct {
	output               string
	fragmentTypes        string
	fragmentCharges      string
	specificLosses       bool
	unspecificLosses     bool
	ms2Precursors        bool
	precursorMZThreshold float64
	productMZThreshold   float64
	mzThreshold          float64
	roundDecPow          int
	lowerMZLimit         float64
	upperMZLimit         float64
	swathWindows         string
	minTransitions       int
	maxTransitions       int
	maxLocalizations     int
	shuffleSeed          string
	disableDecoys        bool
	enableUIS            bool
}

func newGenerateCmd(verbose *bool) *cobra.Command {
	opts := generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate <transition-list.tsv>",
		Short: "Generate an assay library from a raw transition list",
		Long: `Reads a raw transition list, re-annotates transitions against the
configured fragmentation model, restricts them by m/z limits and isolation
windows, selects detecting transitions, and optionally generates UIS
(identifying) transitions with shuffled decoys.`,
		Example: `  assaygen generate --swath-windows 400:425,425:450 input.tsv
  assaygen generate -o library.tsv --shuffle-seed 42 input.tsv
  cat input.tsv | assaygen generate --swath-windows 400:1200 -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Bound keys resolve config-file values unless the flag is set.
			opts.minTransitions = viper.GetInt("generate.min-transitions")
			opts.maxTransitions = viper.GetInt("generate.max-transitions")
			opts.swathWindows = viper.GetString("generate.swath-windows")
			return runGenerate(args[0], opts, *verbose)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "Output file (default: stdout)")
	f.StringVar(&opts.fragmentTypes, "fragment-types", "by", "Fragment ion types to consider (subset of abcxyz)")
	f.StringVar(&opts.fragmentCharges, "fragment-charges", "1,2", "Comma-separated fragment charge states")
	f.BoolVar(&opts.specificLosses, "enable-specific-losses", false, "Consider modification-specific neutral losses")
	f.BoolVar(&opts.unspecificLosses, "enable-unspecific-losses", false, "Consider unspecific neutral losses (H2O1, H3N1, C1H2N2, C1H2N1O1)")
	f.BoolVar(&opts.ms2Precursors, "enable-ms2-precursors", false, "Consider MS2 precursor ions as interferences")
	f.Float64Var(&opts.precursorMZThreshold, "precursor-mz-threshold", 0.025, "Precursor m/z threshold (Th) for re-annotation")
	f.Float64Var(&opts.productMZThreshold, "product-mz-threshold", 0.025, "Product m/z threshold (Th) for re-annotation")
	f.Float64Var(&opts.mzThreshold, "mz-threshold", 0.05, "UIS interference threshold (Th)")
	f.IntVar(&opts.roundDecPow, "round-decpow", -4, "Round m/z values to this decimal power")
	f.Float64Var(&opts.lowerMZLimit, "lower-mz-limit", 350, "Lower product m/z limit (Th)")
	f.Float64Var(&opts.upperMZLimit, "upper-mz-limit", 2000, "Upper product m/z limit (Th)")
	f.StringVar(&opts.swathWindows, "swath-windows", "", "Comma-separated isolation windows as lower:upper (Th)")
	f.IntVar(&opts.minTransitions, "min-transitions", 6, "Minimum transitions per assay (assays below are dropped)")
	f.IntVar(&opts.maxTransitions, "max-transitions", 6, "Maximum transitions per assay")
	f.IntVar(&opts.maxLocalizations, "max-alternative-localizations", assay.DefaultMaxAlternativeLocalizations, "Maximum alternative modification localizations per peptide")
	f.StringVar(&opts.shuffleSeed, "shuffle-seed", "time", "Decoy shuffle seed: an integer, or 'time' for irreproducible output")
	f.BoolVar(&opts.disableDecoys, "disable-decoy-transitions", false, "Suppress decoy UIS transitions (decoys still constrain target uniqueness)")
	f.BoolVar(&opts.enableUIS, "enable-uis", true, "Generate UIS (identifying) transitions")

	// Config file values back the flag defaults.
	_ = viper.BindPFlag("generate.min-transitions", f.Lookup("min-transitions"))
	_ = viper.BindPFlag("generate.max-transitions", f.Lookup("max-transitions"))
	_ = viper.BindPFlag("generate.swath-windows", f.Lookup("swath-windows"))

	return cmd
}

func runGenerate(input string, opts generateOptions, verbose bool) error {
	logger, err := newLogger(verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	windows, err := parseWindows(opts.swathWindows)
	if err != nil {
		return err
	}
	charges, err := parseCharges(opts.fragmentCharges)
	if err != nil {
		return err
	}
	seed, err := parseSeed(opts.shuffleSeed)
	if err != nil {
		return err
	}

	ionCfg := ion.Config{
		Types:            []byte(opts.fragmentTypes),
		Charges:          charges,
		SpecificLosses:   opts.specificLosses,
		UnspecificLosses: opts.unspecificLosses,
		Precursors:       opts.ms2Precursors,
		RoundDecPow:      opts.roundDecPow,
	}

	exp, err := experiment.ReadTSV(input)
	if err != nil {
		return err
	}
	logger.Info("loaded transition list",
		zap.Int("proteins", len(exp.Proteins)),
		zap.Int("peptides", len(exp.Peptides)),
		zap.Int("transitions", len(exp.Transitions)))

	engine := assay.New(chem.NewModificationDB())
	engine.SetLogger(logger)

	if err := engine.ReannotateTransitions(exp, opts.precursorMZThreshold, opts.productMZThreshold, ionCfg); err != nil {
		return fmt.Errorf("reannotate transitions: %w", err)
	}
	if err := engine.RestrictTransitions(exp, opts.lowerMZLimit, opts.upperMZLimit, windows); err != nil {
		return fmt.Errorf("restrict transitions: %w", err)
	}
	if err := engine.DetectingTransitions(exp, opts.minTransitions, opts.maxTransitions, nil); err != nil {
		return fmt.Errorf("select detecting transitions: %w", err)
	}

	if opts.enableUIS {
		detecting := exp.Transitions
		if err := engine.UISTransitions(exp, assay.Options{
			IonConfig:                   ionCfg,
			MZThreshold:                 opts.mzThreshold,
			Windows:                     windows,
			MaxAlternativeLocalizations: opts.maxLocalizations,
			Seed:                        seed,
			DisableDecoyTransitions:     opts.disableDecoys,
		}); err != nil {
			return fmt.Errorf("generate uis transitions: %w", err)
		}
		// The library carries detecting and identifying transitions side
		// by side.
		exp.SetTransitions(append(detecting, exp.Transitions...))
	}

	out := os.Stdout
	if opts.output != "" {
		out, err = os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer out.Close()
	}
	if err := experiment.WriteTSV(out, exp); err != nil {
		return fmt.Errorf("write assay library: %w", err)
	}

	logger.Info("assay library written",
		zap.Int("peptides", len(exp.Peptides)),
		zap.Int("transitions", len(exp.Transitions)))
	return nil
}

func parseWindows(s string) ([]assay.Window, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("no swath windows configured (use --swath-windows lower:upper,...)")
	}
	var windows []assay.Window
	for _, part := range strings.Split(s, ",") {
		lo, hi, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			return nil, fmt.Errorf("malformed swath window %q, want lower:upper", part)
		}
		lower, err := strconv.ParseFloat(lo, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed swath window bound %q", lo)
		}
		upper, err := strconv.ParseFloat(hi, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed swath window bound %q", hi)
		}
		windows = append(windows, assay.Window{Lower: lower, Upper: upper})
	}
	if err := assay.ValidateWindows(windows); err != nil {
		return nil, err
	}
	return windows, nil
}

func parseCharges(s string) ([]int, error) {
	var charges []int
	for _, part := range strings.Split(s, ",") {
		z, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("malformed fragment charge %q", part)
		}
		charges = append(charges, z)
	}
	return charges, nil
}

func parseSeed(s string) (assay.Seed, error) {
	if s == "time" {
		return assay.ClockSeed(), nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return assay.Seed{}, fmt.Errorf("malformed shuffle seed %q (integer or 'time')", s)
	}
	return assay.FixedSeed(v), nil
}
