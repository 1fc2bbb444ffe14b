package importer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedFormat is returned when the declared content type is
	// neither delimited text nor a spreadsheet.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrEmptyFile is returned when parsing yields zero data rows.
	ErrEmptyFile = errors.New("file contains no data rows")

	byteOrderMark = []byte{0xEF, 0xBB, 0xBF}
)

// templateSheetName is the sheet the import template ships with. When a
// workbook carries it, that sheet is parsed; otherwise the first sheet
// is used.
const templateSheetName = "Import"

// RawRow is one data row keyed by sanitized column header. Number is
// 1-based and matches file order.
type RawRow struct {
	Number int
	Values map[string]string
}

// ParseFile turns file bytes plus a declared content type into an
// ordered sequence of raw rows. The first non-empty row is treated as
// headers and not emitted as data. This function is stateless and
// performs no I/O beyond reading the supplied bytes.
func ParseFile(payload []byte, contentType string) ([]RawRow, error) {
	records, err := readRecords(payload, contentType)
	if err != nil {
		return nil, err
	}
	return normalizeRecords(records)
}

func readRecords(payload []byte, contentType string) ([][]string, error) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.Contains(ct, "csv"):
		return readCSV(payload)
	case strings.Contains(ct, "sheet"), strings.Contains(ct, "excel"):
		return readSpreadsheet(payload)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, contentType)
	}
}

func readCSV(payload []byte) ([][]string, error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1
	csvReader.LazyQuotes = true

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return records, nil
}

func readSpreadsheet(payload []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}

	sheet := sheets[0]
	for _, name := range sheets {
		if strings.EqualFold(strings.TrimSpace(name), templateSheetName) {
			sheet = name
			break
		}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func normalizeRecords(records [][]string) ([]RawRow, error) {
	var headers []string
	rows := []RawRow{}

	for _, record := range records {
		if isEmptyRecord(record) {
			continue
		}
		if headers == nil {
			headers = sanitizeHeaders(record)
			continue
		}

		values := make(map[string]string, len(headers))
		for idx, header := range headers {
			if header == "" {
				continue
			}
			if idx < len(record) {
				values[header] = strings.TrimSpace(record[idx])
			} else {
				values[header] = ""
			}
		}
		rows = append(rows, RawRow{Number: len(rows) + 1, Values: values})
	}

	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}
	return rows, nil
}

func isEmptyRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func sanitizeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	seen := make(map[string]int)

	for idx, value := range raw {
		name := strings.ToLower(strings.TrimSpace(value))
		name = strings.ReplaceAll(name, " ", "_")
		name = strings.ReplaceAll(name, ".", "_")
		name = strings.ReplaceAll(name, "-", "_")
		name = strings.Trim(name, "_")

		if name != "" {
			base := name
			if count := seen[base]; count > 0 {
				name = fmt.Sprintf("%s_%d", base, count+1)
			}
			seen[base]++
		}
		headers[idx] = name
	}

	return headers
}
