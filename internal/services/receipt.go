package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/models"
)

const receiptDateLayout = "2006-01-02 15:04 MST"

// RenderReceipt produces the complainant's PDF confirmation. It contains the
// tracking ID and public fields only.
func RenderReceipt(c *models.Complaint, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Complaint receipt "+c.ComplaintID, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, "Complaint Receipt", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Generated "+generatedAt.UTC().Format(receiptDateLayout), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	rows := [][2]string{
		{"Tracking ID", c.ComplaintID},
		{"Status", string(c.Status)},
		{"Category", c.Category},
		{"Severity", c.Severity},
		{"Incident date", c.IncidentDate.UTC().Format(receiptDateLayout)},
		{"Submitted", c.CreatedAt.UTC().Format(receiptDateLayout)},
		{"Passcode protected", yesNo(c.HasPasscode())},
	}
	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(50, 8, row[0], "1", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 8, tr(row[1]), "1", 1, "L", false, 0, "")
	}

	timeline := c.Timeline()
	if len(timeline) > 0 {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "B", 13)
		pdf.CellFormat(0, 8, "Updates", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for _, u := range timeline {
			pdf.MultiCell(0, 6, fmt.Sprintf("%s  %s", u.Date.UTC().Format(receiptDateLayout), tr(u.Message)), "", "L", false)
		}
	}

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(0, 5, "Keep this tracking ID safe. It is the only way to follow this complaint. "+
		"Staff will never ask you for your passcode.", "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render receipt: %w", err)
	}
	return buf.Bytes(), nil
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
