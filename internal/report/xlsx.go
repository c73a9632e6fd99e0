// Package report exports the complaint dashboard as a spreadsheet.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/yegors/complaint-desk/internal/templating"
)

// Sheet names in the exported workbook
const (
	SheetComplaints = "Complaints"
	SheetCategory   = "By Category"
	SheetUrgency    = "By Urgency"
)

// ContentType is the MIME type of the exported workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var complaintHeader = []interface{}{"ID", "Complaint", "Category", "Location", "Urgency"}

// WriteWorkbook writes every complaint plus the category and urgency
// breakdowns to w. Charts are only added when there is data to plot.
func WriteWorkbook(w io.Writer, dashboard *templating.DashboardContext) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetComplaints); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := writeComplaints(f, dashboard.Rows); err != nil {
		return err
	}
	if err := writeBuckets(f, SheetCategory, "Category", dashboard.ByCategory, dashboard.HasData); err != nil {
		return err
	}
	if err := writeBuckets(f, SheetUrgency, "Urgency", dashboard.ByUrgency, dashboard.HasData); err != nil {
		return err
	}

	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeComplaints(f *excelize.File, rows []templating.ComplaintRow) error {
	if err := f.SetSheetRow(SheetComplaints, "A1", &complaintHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{row.ID, row.Complaint, row.Category, row.Location, row.Urgency}
		if err := f.SetSheetRow(SheetComplaints, cell, &values); err != nil {
			return fmt.Errorf("failed to write complaint %d: %w", row.ID, err)
		}
	}

	if err := f.SetColWidth(SheetComplaints, "B", "B", 60); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}
	return nil
}

func writeBuckets(f *excelize.File, sheet, label string, buckets []templating.Bucket, withChart bool) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	header := []interface{}{label, "Count", "Percent"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}

	for i, b := range buckets {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		percent, _ := b.Percent.Float64()
		values := []interface{}{b.Label, b.Count, percent}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write %s row: %w", sheet, err)
		}
	}

	if !withChart || len(buckets) == 0 {
		return nil
	}

	last := len(buckets) + 1
	ref := fmt.Sprintf("'%s'", sheet)
	chart := &excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$B$1", ref),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", ref, last),
			Values:     fmt.Sprintf("%s!$B$2:$B$%d", ref, last),
		}},
		Title:  []excelize.RichTextRun{{Text: "Complaints by " + label}},
		Legend: excelize.ChartLegend{Position: "none"},
	}
	if err := f.AddChart(sheet, "E2", chart); err != nil {
		return fmt.Errorf("failed to add %s chart: %w", sheet, err)
	}
	return nil
}
