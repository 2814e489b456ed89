// Package reporting renders a one-page PDF summary of a capture run from
// the audit trail: targets seen, clients observed, and handshakes
// captured.
package reporting

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/zizzania-go/zizzaniad/internal/adapters/storage"
)

// Summary is the data a capture report is built from.
type Summary struct {
	GeneratedAt     time.Time
	Interface       string
	TargetsTracked  int
	NewClients      int64
	HandshakesTotal int64
	RecentEvents    []storage.EventModel
}

// PDFReporter renders Summary values to PDF bytes.
type PDFReporter struct{}

// NewPDFReporter returns a ready-to-use reporter.
func NewPDFReporter() *PDFReporter {
	return &PDFReporter{}
}

// Render produces a single-page PDF capture summary.
func (r *PDFReporter) Render(s Summary) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	r.addHeader(pdf, s)
	r.addStatistics(pdf, s)
	r.addRecentEvents(pdf, s)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf report: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *PDFReporter) addHeader(pdf *gofpdf.Fpdf, s Summary) {
	pdf.SetFont("Arial", "B", 20)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 14, "Handshake Capture Summary", "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 11)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(0, 6, fmt.Sprintf("Interface: %s", s.Interface), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated: %s", s.GeneratedAt.Format("2006-01-02 15:04:05")), "", 1, "L", false, 0, "")
	pdf.Ln(6)
}

func (r *PDFReporter) addStatistics(pdf *gofpdf.Fpdf, s Summary) {
	pdf.SetFont("Arial", "B", 13)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 8, "Overview", "B", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 11)
	rows := []string{
		fmt.Sprintf("Targets tracked: %d", s.TargetsTracked),
		fmt.Sprintf("New clients observed: %d", s.NewClients),
		fmt.Sprintf("Handshakes captured: %d", s.HandshakesTotal),
	}
	for _, row := range rows {
		pdf.CellFormat(0, 7, row, "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)
}

func (r *PDFReporter) addRecentEvents(pdf *gofpdf.Fpdf, s Summary) {
	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(0, 8, "Recent Events", "B", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(40, 6, "Time", "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 6, "Action", "1", 0, "L", false, 0, "")
	pdf.CellFormat(45, 6, "BSSID", "1", 0, "L", false, 0, "")
	pdf.CellFormat(45, 6, "Client", "1", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 9)
	for _, ev := range s.RecentEvents {
		pdf.CellFormat(40, 6, ev.CreatedAt.Format("15:04:05"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, ev.Action, "1", 0, "L", false, 0, "")
		pdf.CellFormat(45, 6, ev.BSSID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(45, 6, ev.Client, "1", 1, "L", false, 0, "")
	}
}
