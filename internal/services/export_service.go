package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/models"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

var exportColumns = []string{
	"ID", "Category", "Severity", "Status", "Assigned To",
	"Location", "Incident Date", "Created At", "Updated At",
}

// ExportFile is a rendered report ready to be sent as a download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

type ExportService struct {
	now func() time.Time
}

func NewExportService() *ExportService {
	return &ExportService{now: func() time.Time { return time.Now().UTC() }}
}

// Export renders complaints as a report. Assignees are shown by name when the
// roster knows them. Notes and passcode hashes are never part of a report.
func (s *ExportService) Export(format string, complaints []models.Complaint, roster []models.StaffUser) (*ExportFile, error) {
	rows := exportRows(complaints, roster)
	stamp := s.now().Format("20060102-150405")

	var (
		data []byte
		err  error
		file = &ExportFile{}
	)
	switch strings.ToLower(format) {
	case FormatCSV, "":
		data, err = renderCSV(rows)
		file.Filename = "complaints-" + stamp + ".csv"
		file.ContentType = "text/csv; charset=utf-8"
	case FormatXLSX:
		data, err = renderXLSX(rows)
		file.Filename = "complaints-" + stamp + ".xlsx"
		file.ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		data, err = renderPDF(rows, s.now())
		file.Filename = "complaints-" + stamp + ".pdf"
		file.ContentType = "application/pdf"
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to export complaints as %s: %w", format, err)
	}
	file.Data = data
	return file, nil
}

func exportRows(complaints []models.Complaint, roster []models.StaffUser) [][]string {
	names := make(map[string]string, len(roster))
	for _, u := range roster {
		names[u.UID] = u.Name
	}

	rows := make([][]string, 0, len(complaints))
	for _, c := range complaints {
		assignee := "Unassigned"
		if c.AssignedTo != nil && *c.AssignedTo != "" {
			assignee = *c.AssignedTo
			if name, ok := names[assignee]; ok && name != "" {
				assignee = name
			}
		}
		rows = append(rows, []string{
			c.ComplaintID,
			c.Category,
			c.Severity,
			string(c.Status),
			assignee,
			c.Location,
			c.IncidentDate.UTC().Format(time.RFC3339),
			c.CreatedAt.UTC().Format(time.RFC3339),
			c.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	return rows
}

func renderCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportColumns); err != nil {
		return nil, err
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderXLSX(rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Complaints"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return nil, err
	}
	if err := sw.SetRow("A1", toCells(exportColumns)); err != nil {
		return nil, err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := sw.SetRow(cell, toCells(row)); err != nil {
			return nil, err
		}
	}
	if err := sw.Flush(); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toCells(row []string) []interface{} {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	return cells
}

// pdfWidths are millimetres on landscape A4 and line up with exportColumns.
var pdfWidths = []float64{26, 40, 18, 26, 34, 40, 30, 30, 30}

func renderPDF(rows [][]string, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Complaints report", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, "Complaints report", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated %s - %d complaints", generatedAt.UTC().Format(receiptDateLayout), len(rows)), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(230, 230, 230)
	for i, col := range exportColumns {
		pdf.CellFormat(pdfWidths[i], 7, col, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 7)
	for _, row := range rows {
		for i, v := range row {
			if i >= 6 && len(v) >= 10 {
				v = v[:10]
			}
			pdf.CellFormat(pdfWidths[i], 6, truncate(tr(v), 28), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "."
}
