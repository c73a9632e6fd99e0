package report

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/yegors/complaint-desk/internal/templating"
)

func chartParts(t *testing.T, data []byte) int {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("zip: %v", err)
	}
	n := 0
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "xl/charts/chart") {
			n++
		}
	}
	return n
}

func TestWriteWorkbook(t *testing.T) {
	dashboard := &templating.DashboardContext{
		Rows: []templating.ComplaintRow{
			{ID: 1, Complaint: "URGENT bags", Category: "Baggage Issue", Location: "Chicago", Urgency: "High"},
			{ID: 2, Complaint: "delayed", Category: "Flight Delay", Location: "Not detected", Urgency: "Normal"},
		},
		Total:   2,
		HasData: true,
		ByCategory: []templating.Bucket{
			{Label: "Baggage Issue", Count: 1, Percent: decimal.NewFromInt(50)},
			{Label: "Flight Delay", Count: 1, Percent: decimal.NewFromInt(50)},
		},
		ByUrgency: []templating.Bucket{
			{Label: "High", Count: 1, Percent: decimal.NewFromInt(50)},
			{Label: "Normal", Count: 1, Percent: decimal.NewFromInt(50)},
		},
	}

	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, dashboard); err != nil {
		t.Fatalf("WriteWorkbook: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	want := []string{SheetComplaints, SheetCategory, SheetUrgency}
	if len(sheets) != len(want) {
		t.Fatalf("sheets = %v", sheets)
	}
	for i := range want {
		if sheets[i] != want[i] {
			t.Errorf("sheet %d = %s, want %s", i, sheets[i], want[i])
		}
	}

	rows, err := f.GetRows(SheetComplaints)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 || rows[1][3] != "Chicago" || rows[2][3] != "Not detected" {
		t.Errorf("complaint rows = %v", rows)
	}

	urgency, err := f.GetRows(SheetUrgency)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(urgency) != 3 || urgency[1][0] != "High" || urgency[1][1] != "1" {
		t.Errorf("urgency rows = %v", urgency)
	}

	if n := chartParts(t, buf.Bytes()); n != 2 {
		t.Errorf("chart parts = %d, want 2", n)
	}
}

func TestWriteWorkbookEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, &templating.DashboardContext{}); err != nil {
		t.Fatalf("WriteWorkbook: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetComplaints)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("rows = %v, want header only", rows)
	}
	if n := chartParts(t, buf.Bytes()); n != 0 {
		t.Errorf("chart parts = %d, want 0", n)
	}
}
