// Package export renders metrics reports into downloadable documents.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"taxis/internal/core"
)

// Format is an export document type, named by its file extension.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "md"
	FormatPNG      Format = "png"
	FormatXLSX     Format = "xlsx"
	FormatPDF      Format = "pdf"
)

// ErrUnsupportedFormat is returned for unknown formats and for formats
// that have no rendering for the requested scope.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Formats lists every format a single report can be exported to.
var Formats = []Format{FormatCSV, FormatJSON, FormatMarkdown, FormatPNG, FormatXLSX, FormatPDF}

// GlobalFormats lists the formats available for the rollup.
var GlobalFormats = []Format{FormatCSV, FormatJSON, FormatXLSX, FormatPDF}

const (
	filePrefix = "Reporte_"
	globalName = "Global"
)

// fileNameReplacer maps spaces and characters that are not valid in a
// file name on common filesystems to underscores.
var fileNameReplacer = strings.NewReplacer(
	" ", "_",
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	"\x00", "_",
)

// ParseFormat accepts a format name with or without a leading dot,
// case-insensitively. "markdown" is accepted for md.
func ParseFormat(s string) (Format, error) {
	name := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))
	if name == "markdown" {
		name = string(FormatMarkdown)
	}
	for _, f := range Formats {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// SupportsGlobal reports whether the rollup can be rendered as f.
func (f Format) SupportsGlobal() bool {
	for _, g := range GlobalFormats {
		if g == f {
			return true
		}
	}
	return false
}

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatJSON:
		return "application/json"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatPNG:
		return "image/png"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// FileName returns the suggested file name for a report export. Path
// separators and other unsafe characters in destination become "_".
// An empty destination names the global rollup.
func FileName(destination string, f Format) string {
	if destination == "" {
		return filePrefix + globalName + "." + string(f)
	}
	return filePrefix + fileNameReplacer.Replace(destination) + "." + string(f)
}

// WriteReport renders one destination report to w.
func WriteReport(w io.Writer, r core.Report, f Format) error {
	switch f {
	case FormatCSV:
		return writeReportCSV(w, r)
	case FormatJSON:
		return writeJSON(w, r)
	case FormatMarkdown:
		return writeReportMarkdown(w, r)
	case FormatPNG:
		return writeReportPNG(w, r)
	case FormatXLSX:
		return writeReportXLSX(w, r)
	case FormatPDF:
		return writeReportPDF(w, r)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}

// WriteGlobal renders the multi-destination rollup to w.
func WriteGlobal(w io.Writer, reports []core.Report, f Format) error {
	switch f {
	case FormatCSV:
		return writeGlobalCSV(w, reports)
	case FormatJSON:
		if reports == nil {
			reports = []core.Report{}
		}
		return writeJSON(w, reports)
	case FormatXLSX:
		return writeGlobalXLSX(w, reports)
	case FormatPDF:
		return writeGlobalPDF(w, reports)
	default:
		return fmt.Errorf("%w: %q for global rollup", ErrUnsupportedFormat, f)
	}
}
