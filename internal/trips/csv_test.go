package trips

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"taxis/internal/core"
)

func TestReadCSV(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		delim   rune
		headers []string
		records []core.Trip
	}{
		{
			name:    "plain",
			input:   "a,b\n1,2\n3,4\n",
			headers: []string{"a", "b"},
			records: []core.Trip{{"a": "1", "b": "2"}, {"a": "3", "b": "4"}},
		},
		{
			name:    "bom and crlf",
			input:   "\xEF\xBB\xBFa,b\r\n1,2\r\n",
			headers: []string{"a", "b"},
			records: []core.Trip{{"a": "1", "b": "2"}},
		},
		{
			name:    "ragged rows",
			input:   "a,b,c\n1\n1,2,3,4\n",
			headers: []string{"a", "b", "c"},
			records: []core.Trip{{"a": "1"}, {"a": "1", "b": "2", "c": "3"}},
		},
		{
			name:    "semicolon",
			input:   "a;b\n\"x;y\";2\n",
			delim:   ';',
			headers: []string{"a", "b"},
			records: []core.Trip{{"a": "x;y", "b": "2"}},
		},
		{
			name:    "blank lines skipped",
			input:   "a\n\n1\n\n2\n",
			headers: []string{"a"},
			records: []core.Trip{{"a": "1"}, {"a": "2"}},
		},
		{
			name:  "empty",
			input: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := ReadCSV(strings.NewReader(tt.input), tt.delim)
			if err != nil {
				t.Fatalf("ReadCSV: %v", err)
			}
			if !reflect.DeepEqual(ds.Headers, tt.headers) {
				t.Fatalf("headers = %v, want %v", ds.Headers, tt.headers)
			}
			if !reflect.DeepEqual(ds.Records, tt.records) {
				t.Fatalf("records = %v, want %v", ds.Records, tt.records)
			}
		})
	}
}

func TestReadFileNotFound(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.csv"), 0)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReadCSVInvalidUTF8(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  string
	}{
		{"latin-1 cell", "Zona_origen,Zona_destino\nAlmer\xeda,Madrid\n", "line 2"},
		{"header", "Zona_origen,Zona_dest\xf1o\nA,B\n", "line 1"},
		{"after bom", "\xEF\xBB\xBFZona_destino\nA\nC\xe1diz\n", "line 3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input), ',')
			if !errors.Is(err, ErrInvalidEncoding) {
				t.Fatalf("ReadCSV() error = %v, want ErrInvalidEncoding", err)
			}
			if !strings.Contains(err.Error(), tt.line) {
				t.Errorf("error %q does not name %s", err, tt.line)
			}
		})
	}

	path := filepath.Join(t.TempDir(), "latin1.csv")
	if err := os.WriteFile(path, []byte("Zona_destino\nAlmer\xeda\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(path, ','); !errors.Is(err, ErrInvalidEncoding) {
		t.Errorf("ReadFile() error = %v, want ErrInvalidEncoding", err)
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trips.csv")
	if err := os.WriteFile(path, []byte("Zona_destino,Importe_total\nA,1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	ds, err := ReadFile(path, ',')
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(ds.Records) != 1 || ds.Records[0]["Zona_destino"] != "A" {
		t.Fatalf("unexpected dataset: %+v", ds)
	}
}

func TestDestinationsAndFilter(t *testing.T) {
	cols := core.DefaultColumns()
	records := []core.Trip{
		{"Zona_destino": "Queens", "id": "1"},
		{"Zona_destino": "Bronx", "id": "2"},
		{"Zona_destino": "", "id": "3"},
		{"id": "4"},
		{"Zona_destino": "Queens", "id": "5"},
	}
	if got, want := Destinations(cols, records), []string{"Bronx", "Queens"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("destinations = %v, want %v", got, want)
	}
	q := Filter(cols, records, "Queens")
	if len(q) != 2 || q[0]["id"] != "1" || q[1]["id"] != "5" {
		t.Fatalf("filter = %v", q)
	}
	if got := Filter(cols, records, "Nowhere"); len(got) != 0 {
		t.Fatalf("expected no records, got %v", got)
	}
	if got := Destinations(cols, nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}
