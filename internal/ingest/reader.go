// Package ingest loads lead tables from delimited text and workbook files.
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"github.com/Leanito/Leadsrecptives/internal/models"
)

// Ingestion errors.
var (
	ErrEmptyFile         = errors.New("file is empty")
	ErrMalformedFile     = errors.New("file could not be parsed")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrSheetNotFound     = errors.New("sheet not found")
)

// Format identifies how a table file is encoded.
type Format string

// Supported formats.
const (
	FormatCSV       Format = "csv"
	FormatWorkbook  Format = "xlsx"
	FormatLegacyXLS Format = "xls"
)

var (
	utf8BOM    = []byte{0xEF, 0xBB, 0xBF}
	zipMagic   = []byte("PK\x03\x04")
	oleMagic   = []byte{0xD0, 0xCF, 0x11, 0xE0}
	delimiters = []rune{',', ';', '\t'}
)

// DetectFormat picks a format from the file extension, falling back to the
// content signature when the extension is unknown.
func DetectFormat(name string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt", ".tsv":
		return FormatCSV
	case ".xlsx", ".xlsm":
		return FormatWorkbook
	case ".xls":
		return FormatLegacyXLS
	}

	switch {
	case bytes.HasPrefix(data, zipMagic):
		return FormatWorkbook
	case bytes.HasPrefix(data, oleMagic):
		return FormatLegacyXLS
	default:
		return FormatCSV
	}
}

// ReadTable parses raw file bytes into a table. sheet selects a workbook
// sheet; empty means the first one.
func ReadTable(name string, data []byte, sheet string) (*models.Table, error) {
	if len(bytes.TrimSpace(bytes.TrimPrefix(data, utf8BOM))) == 0 {
		return nil, ErrEmptyFile
	}

	switch DetectFormat(name, data) {
	case FormatWorkbook:
		return readWorkbook(name, data, sheet)
	case FormatLegacyXLS:
		return nil, fmt.Errorf("%w: legacy .xls workbooks must be saved as .xlsx", ErrUnsupportedFormat)
	default:
		return readDelimited(name, data)
	}
}

func readDelimited(name string, data []byte) (*models.Table, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	// Spreadsheet exports on Windows are often Latin-1.
	if !utf8.Valid(data) {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedFile, err)
		}

		data = decoded
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = SniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyFile
		}

		return nil, fmt.Errorf("%w: unable to read header: %w", ErrMalformedFile, err)
	}

	table := &models.Table{Name: name, Headers: headers}

	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}

			return nil, fmt.Errorf("%w: %w", ErrMalformedFile, err)
		}

		table.Rows = append(table.Rows, record)
	}

	return table, nil
}

// SniffDelimiter picks the most frequent candidate delimiter in the header
// line, ignoring quoted sections. Comma wins ties.
func SniffDelimiter(data []byte) rune {
	line := data
	if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
		line = data[:idx]
	}

	counts := make(map[rune]int, len(delimiters))
	inQuotes := false

	for _, r := range string(line) {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}

		if !inQuotes {
			counts[r]++
		}
	}

	best := delimiters[0]
	for _, d := range delimiters[1:] {
		if counts[d] > counts[best] {
			best = d
		}
	}

	return best
}

func readWorkbook(name string, data []byte, sheet string) (*models.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}

	if sheet == "" {
		sheet = sheets[0]
	} else if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrSheetNotFound, sheet, strings.Join(sheets, ", "))
	}

	// Raw values keep dates as serial numbers instead of locale formatted text.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedFile, err)
	}

	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	return &models.Table{
		Name:     name,
		Headers:  rows[0],
		Rows:     rows[1:],
		Workbook: true,
	}, nil
}
