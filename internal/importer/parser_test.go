package importer

import (
	"bytes"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestParseFileCSV(t *testing.T) {
	data := "Objective Title,Area Name,Objective Progress\nGrow Revenue,Sales,40\nReduce Churn,Success,25\n"

	rows, err := ParseFile([]byte(data), "text/csv")
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Number != 1 || rows[1].Number != 2 {
		t.Fatalf("unexpected row numbers: %d, %d", rows[0].Number, rows[1].Number)
	}
	if rows[0].Values["objective_title"] != "Grow Revenue" {
		t.Fatalf("expected sanitized header lookup, got %q", rows[0].Values["objective_title"])
	}
	if rows[1].Values["area_name"] != "Success" {
		t.Fatalf("unexpected area_name: %q", rows[1].Values["area_name"])
	}
}

func TestParseFileCSVStripsByteOrderMark(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("objective_title\nShip V2\n")...)

	rows, err := ParseFile(data, "text/csv")
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}
	if rows[0].Values["objective_title"] != "Ship V2" {
		t.Fatalf("BOM leaked into header, values: %+v", rows[0].Values)
	}
}

func TestParseFileCSVSkipsEmptyRows(t *testing.T) {
	data := "objective_title\n\nShip V2\n,\nLaunch Beta\n"

	rows, err := ParseFile([]byte(data), "text/csv")
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	// Row numbers count only data rows.
	if rows[1].Number != 2 {
		t.Fatalf("expected second data row numbered 2, got %d", rows[1].Number)
	}
}

func TestParseFileXLSXPrefersImportSheet(t *testing.T) {
	f := excelize.NewFile()
	if _, err := f.NewSheet("Import"); err != nil {
		t.Fatalf("failed to add sheet: %v", err)
	}
	_ = f.SetCellValue("Sheet1", "A1", "wrong_sheet")
	_ = f.SetCellValue("Import", "A1", "objective_title")
	_ = f.SetCellValue("Import", "B1", "objective_priority")
	_ = f.SetCellValue("Import", "A2", "Grow Revenue")
	_ = f.SetCellValue("Import", "B2", "high")

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("failed to write workbook: %v", err)
	}

	rows, err := ParseFile(buf.Bytes(), "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Values["objective_title"] != "Grow Revenue" || rows[0].Values["objective_priority"] != "high" {
		t.Fatalf("unexpected values: %+v", rows[0].Values)
	}
}

func TestParseFileUnsupportedFormat(t *testing.T) {
	_, err := ParseFile([]byte("{}"), "application/json")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestParseFileEmpty(t *testing.T) {
	_, err := ParseFile([]byte("objective_title\n"), "text/csv")
	if !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("expected ErrEmptyFile, got %v", err)
	}
}

func TestSanitizeHeadersDeduplicates(t *testing.T) {
	headers := sanitizeHeaders([]string{"Title", " title ", "Due-Date", "title"})
	want := []string{"title", "title_2", "due_date", "title_3"}
	for i, h := range want {
		if headers[i] != h {
			t.Fatalf("header %d: expected %q, got %q", i, h, headers[i])
		}
	}
}
