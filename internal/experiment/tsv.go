package experiment

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// tsvColumns is the transition-list layout read and written by this package.
// One row per transition; peptide and protein rows are derived by ID.
var tsvColumns = []string{
	"ProteinId",
	"PeptideId",
	"PeptideSequence",
	"Modifications",
	"PrecursorCharge",
	"PrecursorMz",
	"ProductMz",
	"ProductCharge",
	"FragmentType",
	"FragmentSeriesNumber",
	"LibraryIntensity",
	"Decoy",
	"Detecting",
	"Identifying",
}

// ReadTSV parses a transition list into an Experiment. Supports plain and
// gzipped input; "-" reads from stdin.
func ReadTSV(path string) (*Experiment, error) {
	if path == "-" {
		return readTSV(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open transition list: %w", err)
	}
	defer f.Close()

	var r io.Reader
	buf := bufio.NewReader(f)
	if magic, err := buf.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(buf)
		if err != nil {
			return nil, fmt.Errorf("open gzipped transition list: %w", err)
		}
		defer gz.Close()
		r = gz
	} else {
		r = buf
	}
	return readTSV(r)
}

func readTSV(r io.Reader) (*Experiment, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	exp := &Experiment{}
	seenPeptides := make(map[string]struct{})
	seenProteins := make(map[string]struct{})

	var columns map[string]int
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if columns == nil {
			columns = make(map[string]int, len(fields))
			for i, name := range fields {
				columns[strings.TrimPrefix(name, "#")] = i
			}
			for _, want := range tsvColumns[:11] {
				if _, ok := columns[want]; !ok {
					return nil, fmt.Errorf("transition list missing column %q", want)
				}
			}
			continue
		}

		get := func(name string) string {
			i, ok := columns[name]
			if !ok || i >= len(fields) {
				return ""
			}
			return fields[i]
		}

		precursorCharge, err := strconv.Atoi(get("PrecursorCharge"))
		if err != nil {
			return nil, fmt.Errorf("line %d: precursor charge: %w", lineNo, err)
		}
		precursorMZ, err := strconv.ParseFloat(get("PrecursorMz"), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: precursor m/z: %w", lineNo, err)
		}
		productMZ, err := strconv.ParseFloat(get("ProductMz"), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: product m/z: %w", lineNo, err)
		}
		productCharge, err := strconv.Atoi(get("ProductCharge"))
		if err != nil {
			return nil, fmt.Errorf("line %d: product charge: %w", lineNo, err)
		}
		intensity, err := strconv.ParseFloat(get("LibraryIntensity"), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: library intensity: %w", lineNo, err)
		}
		mods, err := ParseMods(get("Modifications"))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		proteinID := get("ProteinId")
		peptideID := get("PeptideId")
		sequence := get("PeptideSequence")
		decoy := get("Decoy") == "1"

		if _, ok := seenProteins[proteinID]; !ok && proteinID != "" {
			seenProteins[proteinID] = struct{}{}
			exp.Proteins = append(exp.Proteins, Protein{ID: proteinID})
		}
		if _, ok := seenPeptides[peptideID]; !ok {
			seenPeptides[peptideID] = struct{}{}
			exp.AddPeptide(Peptide{
				ID:          peptideID,
				Sequence:    sequence,
				Mods:        mods,
				ChargeState: precursorCharge,
				ProteinRefs: []string{proteinID},
				Decoy:       decoy,
			})
		}

		ordinal := 0
		if s := get("FragmentSeriesNumber"); s != "" {
			ordinal, _ = strconv.Atoi(s)
		}
		var fragType byte
		if s := get("FragmentType"); s != "" {
			fragType = s[0]
		}

		exp.Transitions = append(exp.Transitions, Transition{
			ID:               fmt.Sprintf("%s_%d", peptideID, len(exp.Transitions)),
			PeptideRef:       peptideID,
			PrecursorMZ:      precursorMZ,
			ProductMZ:        productMZ,
			ProductCharge:    productCharge,
			FragmentType:     fragType,
			FragmentOrdinal:  ordinal,
			LibraryIntensity: intensity,
			Decoy:            decoy,
			Detecting:        get("Detecting") == "1",
			Identifying:      get("Identifying") == "1",
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read transition list: %w", err)
	}
	if columns == nil {
		return nil, fmt.Errorf("empty transition list")
	}
	return exp, nil
}

// ParseMods parses the Modifications column: semicolon-separated
// "position:name" pairs, "-" or empty for none.
func ParseMods(s string) ([]SiteMod, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return nil, nil
	}
	var mods []SiteMod
	for _, part := range strings.Split(s, ";") {
		pos, name, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("malformed modification %q", part)
		}
		p, err := strconv.Atoi(pos)
		if err != nil {
			return nil, fmt.Errorf("malformed modification position %q", pos)
		}
		mods = append(mods, SiteMod{Position: p, Name: name})
	}
	return mods, nil
}

// FormatMods renders modifications for the Modifications column.
func FormatMods(mods []SiteMod) string {
	if len(mods) == 0 {
		return "-"
	}
	parts := make([]string, len(mods))
	for i, m := range mods {
		parts[i] = fmt.Sprintf("%d:%s", m.Position, m.Name)
	}
	return strings.Join(parts, ";")
}

// WriteTSV writes the experiment's transition list.
func WriteTSV(w io.Writer, exp *Experiment) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(tsvColumns, "\t") + "\n"); err != nil {
		return err
	}

	flag := func(b bool) string {
		if b {
			return "1"
		}
		return "0"
	}

	for i := range exp.Transitions {
		t := &exp.Transitions[i]
		pep := exp.PeptideByID(t.PeptideRef)
		if pep == nil {
			return fmt.Errorf("transition %s references unknown peptide %s", t.ID, t.PeptideRef)
		}
		proteinID := ""
		if len(pep.ProteinRefs) > 0 {
			proteinID = pep.ProteinRefs[0]
		}
		fragType := ""
		if t.FragmentType != 0 {
			fragType = string(t.FragmentType)
		}
		row := []string{
			proteinID,
			pep.ID,
			pep.Sequence,
			FormatMods(pep.Mods),
			strconv.Itoa(pep.ChargeState),
			strconv.FormatFloat(t.PrecursorMZ, 'f', 6, 64),
			strconv.FormatFloat(t.ProductMZ, 'f', 6, 64),
			strconv.Itoa(t.ProductCharge),
			fragType,
			strconv.Itoa(t.FragmentOrdinal),
			strconv.FormatFloat(t.LibraryIntensity, 'f', 4, 64),
			flag(t.Decoy),
			flag(t.Detecting),
			flag(t.Identifying),
		}
		if _, err := bw.WriteString(strings.Join(row, "\t") + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
