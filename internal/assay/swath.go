// Package assay implements UIS (unique ion signature) assay generation:
// transition filtering, modification-localization enumeration, decoy
// sequence generation, in-silico ion maps and transition selection.
package assay

import "fmt"

// Window is a precursor isolation window (SWATH window). Both bounds are
// inclusive: a precursor at either bound is contained.
type Window struct {
	Lower float64
	Upper float64
}

// Contains reports whether mz falls inside the window.
func (w Window) Contains(mz float64) bool {
	return mz >= w.Lower && mz <= w.Upper
}

// ValidateWindows checks the isolation-window configuration: each window
// well-formed, the list sorted by lower bound and non-overlapping. The
// engine assumes this holds and only validates it once, up front.
func ValidateWindows(windows []Window) error {
	for i, w := range windows {
		if w.Lower >= w.Upper {
			return fmt.Errorf("swath window %d: lower bound %.4f >= upper bound %.4f", i, w.Lower, w.Upper)
		}
		if i == 0 {
			continue
		}
		prev := windows[i-1]
		if w.Lower < prev.Lower {
			return fmt.Errorf("swath windows unsorted at index %d", i)
		}
		if w.Lower < prev.Upper {
			return fmt.Errorf("swath windows %d and %d overlap", i-1, i)
		}
	}
	return nil
}

// windowIndex returns the ordinal of the first window containing
// precursorMZ, or -1 when no window matches.
func windowIndex(windows []Window, precursorMZ float64) int {
	for i, w := range windows {
		if w.Contains(precursorMZ) {
			return i
		}
	}
	return -1
}

// inWindow reports whether productMZ falls inside the isolation window that
// also contains precursorMZ. Such a fragment is indistinguishable from the
// co-isolated precursor signal.
func inWindow(windows []Window, precursorMZ, productMZ float64) bool {
	i := windowIndex(windows, precursorMZ)
	if i < 0 {
		return false
	}
	return windows[i].Contains(productMZ)
}
