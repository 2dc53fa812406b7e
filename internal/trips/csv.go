package trips

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"unicode/utf8"

	"taxis/internal/core"
)

// Dataset is the parsed content of one CSV file.
type Dataset struct {
	Headers []string
	Records []core.Trip
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadFile opens path and parses it with ReadCSV. A missing file yields
// an error wrapping ErrNotFound.
func ReadFile(path string, delim rune) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	ds, err := ReadCSV(f, delim)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return ds, nil
}

// ReadCSV parses delimited text with a header row. Rows may be ragged:
// missing trailing cells are left absent and extra cells are dropped.
// A zero delim means comma. An empty input yields an empty dataset.
// Input that is not valid UTF-8 yields an error wrapping ErrInvalidEncoding.
func ReadCSV(r io.Reader, delim rune) (*Dataset, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if line, ok := invalidUTF8Line(raw); ok {
		return nil, fmt.Errorf("%w: line %d", ErrInvalidEncoding, line)
	}

	cr := csv.NewReader(bytes.NewReader(raw))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	if delim != 0 {
		cr.Comma = delim
	}

	header, err := cr.Read()
	if err == io.EOF {
		return &Dataset{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}

	ds := &Dataset{Headers: header}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		t := make(core.Trip, len(header))
		for i, name := range header {
			if i >= len(row) {
				break
			}
			t[name] = row[i]
		}
		ds.Records = append(ds.Records, t)
	}
	return ds, nil
}

// Destinations returns the distinct non-empty destination zones of records, ascending.
func Destinations(cols core.Columns, records []core.Trip) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0)
	for _, t := range records {
		d := t.Destination(cols)
		if d == "" {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Filter returns the records whose destination equals name, in input order.
func Filter(cols core.Columns, records []core.Trip, name string) []core.Trip {
	out := make([]core.Trip, 0)
	for _, t := range records {
		if t.Destination(cols) == name {
			out = append(out, t)
		}
	}
	return out
}

// invalidUTF8Line returns the 1-based line holding the first invalid
// UTF-8 sequence in b.
func invalidUTF8Line(b []byte) (int, bool) {
	if utf8.Valid(b) {
		return 0, false
	}
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size == 1 {
			return bytes.Count(b[:i], []byte{'\n'}) + 1, true
		}
		i += size
	}
	return 0, false
}
