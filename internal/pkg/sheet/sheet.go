// Package sheet reads marker sheets: three positional columns (id, start text, prompt)
// from CSV, TSV, XLSX or YAML sources.
package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
	"gopkg.in/yaml.v3"

	"vrewgen/internal/pkg/scripttools"
)

var (
	// ErrUnsupportedFormat is returned for extensions no reader handles (e.g. legacy .xls).
	ErrUnsupportedFormat = errors.New("unsupported sheet format")
	// ErrEmpty is returned when the source has no records at all.
	ErrEmpty = errors.New("sheet is empty")
)

// Load reads the sheet at path, choosing the reader from the file extension.
func Load(path string) ([]scripttools.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sheet: %w", err)
	}
	defer f.Close()

	return Read(filepath.Base(path), f)
}

// Read parses r as the format implied by name's extension.
// A first record whose id cell is not a marker id is treated as a header and dropped.
func Read(name string, r io.Reader) ([]scripttools.Row, error) {
	var (
		records [][]string
		err     error
	)

	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".xlsx", ".xlsm":
		records, err = readXLSX(r)
	case ".csv", ".tsv", ".txt":
		records, err = readDelimited(r)
	case ".yaml", ".yml":
		records, err = readYAML(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrEmpty
	}

	rows := make([]scripttools.Row, 0, len(records))
	for i, record := range records {
		if isEmptyRecord(record) {
			continue
		}
		for j := range record {
			record[j] = scripttools.Canonical(record[j])
		}
		row := scripttools.NewRow(i+1, record)
		if i == 0 {
			if _, _, ok := scripttools.ParseMarkerID(row.ID); !ok {
				continue
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmpty
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return records, nil
}

func readDelimited(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	data, err = DecodeText(data)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmpty
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse file: %w", err)
	}
	return records, nil
}

type yamlRow struct {
	ID     string `yaml:"id"`
	Start  string `yaml:"start"`
	Prompt string `yaml:"prompt"`
}

func readYAML(r io.Reader) ([][]string, error) {
	var rows []yamlRow
	if err := yaml.NewDecoder(r).Decode(&rows); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	records := make([][]string, len(rows))
	for i, row := range rows {
		records[i] = []string{row.ID, row.Start, row.Prompt}
	}
	return records, nil
}

// DecodeText strips a UTF-8 BOM and converts CP949/EUC-KR input to UTF-8.
func DecodeText(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return data, nil
	}
	decoded, _, err := transform.Bytes(korean.EUCKR.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("decode EUC-KR: %w", err)
	}
	return decoded, nil
}

// detectDelimiter picks tab when the first line contains one, otherwise comma.
func detectDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		line = data[:i]
	}
	if bytes.IndexByte(line, '\t') >= 0 {
		return '\t'
	}
	return ','
}

func isEmptyRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ReadScript reads a narration script as canonical UTF-8 text.
func ReadScript(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read script: %w", err)
	}
	data, err = DecodeText(data)
	if err != nil {
		return "", err
	}
	return scripttools.Canonical(string(data)), nil
}

// LoadScript reads the script file at path.
func LoadScript(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open script: %w", err)
	}
	defer f.Close()
	return ReadScript(f)
}
