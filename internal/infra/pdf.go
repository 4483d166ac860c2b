package infra

// pdf.go — printable register close reports using go-pdf/fpdf.
// One A5 page per close: expected vs actual per payment method, diffs, and
// the total difference highlighted when it breached the alert threshold.

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sebastiangaticacl/stvaldivia/internal/model"

	"github.com/go-pdf/fpdf"
)

// ClosePDF writes close reports under storagePath.
type ClosePDF struct {
	storagePath string
}

func NewClosePDF(storagePath string) *ClosePDF {
	return &ClosePDF{storagePath: storagePath}
}

// ReportPath returns where the report for one close lives on disk.
func (p *ClosePDF) ReportPath(registerName, shiftDate string) string {
	return filepath.Join(p.storagePath, fmt.Sprintf("close_%s_%s.pdf", registerName, shiftDate))
}

// RenderCloseReport generates the PDF for one register close and returns the
// absolute path of the written file.
func (p *ClosePDF) RenderCloseReport(rc *model.RegisterClose) (string, error) {
	if err := os.MkdirAll(p.storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	filePath := p.ReportPath(rc.RegisterName, rc.ShiftDate)

	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 24

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 8, "Cierre de Caja", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("%s — %s", rc.RegisterName, rc.ShiftDate), "", 1, "C", false, 0, "")
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Cerrado por %s el %s", rc.EmployeeName, rc.ClosedAt.Format("02/01/2006 15:04")), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// ── Totals table ─────────────────────────────────────────────────────────
	col := contentW / 4

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col, 6, "Metodo", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col, 6, "Esperado", "B", 0, "R", false, 0, "")
	pdf.CellFormat(col, 6, "Contado", "B", 0, "R", false, 0, "")
	pdf.CellFormat(col, 6, "Diferencia", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	rows := []struct {
		label                  string
		expected, actual, diff string
	}{
		{"Efectivo", rc.ExpectedCash.StringFixed(2), rc.ActualCash.StringFixed(2), rc.DiffCash.StringFixed(2)},
		{"Debito", rc.ExpectedDebit.StringFixed(2), rc.ActualDebit.StringFixed(2), rc.DiffDebit.StringFixed(2)},
		{"Credito", rc.ExpectedCredit.StringFixed(2), rc.ActualCredit.StringFixed(2), rc.DiffCredit.StringFixed(2)},
	}
	for _, r := range rows {
		pdf.CellFormat(col, 6, r.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(col, 6, r.expected, "", 0, "R", false, 0, "")
		pdf.CellFormat(col, 6, r.actual, "", 0, "R", false, 0, "")
		pdf.CellFormat(col, 6, r.diff, "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(col*3, 7, "Diferencia total", "T", 0, "L", false, 0, "")
	pdf.CellFormat(col, 7, rc.DifferenceTotal.StringFixed(2), "T", 1, "R", false, 0, "")

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Ventas del turno: %d  |  Total: %s", rc.TotalSales, rc.TotalAmount.StringFixed(2)), "", 1, "L", false, 0, "")
	if rc.Notes != nil && *rc.Notes != "" {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.MultiCell(contentW, 4, "Notas: "+*rc.Notes, "", "L", false)
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}
