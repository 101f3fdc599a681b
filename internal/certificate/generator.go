package certificate

import (
	"context"
	"fmt"
	"os"

	"github.com/go-pdf/fpdf"
)

// PDFGenerator renders donation certificates with fpdf. Output goes to a
// temp file owned by the caller; on render errors the file is removed before
// returning so no partial artifact leaks.
type PDFGenerator struct{}

// NewPDFGenerator builds the default certificate renderer.
func NewPDFGenerator() *PDFGenerator {
	return &PDFGenerator{}
}

// Generate renders the certificate and returns the temp file path.
func (g *PDFGenerator) Generate(ctx context.Context, d Details) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp("", "donation_certificate_*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	path := tmp.Name()
	if err := tmp.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close temp file: %w", err)
	}

	if err := g.render(d, path); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

func (g *PDFGenerator) render(d Details, path string) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Donation Certificate", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, "Certificate of Blood Donation", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 11)
	line := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(50, 7, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 7, value, "", 1, "L", false, 0, "")
	}

	line("Donor", d.Donor.Name)
	line("Donor contact", fmt.Sprintf("%s / %s", d.Donor.Email, d.Donor.Phone))
	line("Blood type", d.Donor.BloodType)
	line("Blood bank", d.Bank.Name)
	line("Bank address", fmt.Sprintf("%s, %s", d.Bank.Address, d.Bank.City))
	line("Donation date", d.Request.CreatedAt.Format("2 January 2006"))
	line("Urgency level", string(d.Request.UrgencyLevel))
	line("Patient blood type", d.Patient.BloodType)
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Donated units", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(10, 7, "#", "1", 0, "C", false, 0, "")
	pdf.CellFormat(70, 7, "Unit ID", "1", 0, "L", false, 0, "")
	pdf.CellFormat(55, 7, "Barcode", "1", 0, "L", false, 0, "")
	pdf.CellFormat(25, 7, "Volume", "1", 0, "R", false, 0, "")
	pdf.CellFormat(30, 7, "Expires", "1", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, u := range d.Units {
		pdf.CellFormat(10, 7, fmt.Sprintf("%d", u.UnitNumber), "1", 0, "C", false, 0, "")
		pdf.CellFormat(70, 7, u.ID.String(), "1", 0, "L", false, 0, "")
		pdf.CellFormat(55, 7, u.Barcode, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 7, fmt.Sprintf("%d ml", u.VolumeML), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, u.ExpiryDate.Format("2006-01-02"), "1", 1, "L", false, 0, "")
	}

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.CellFormat(0, 6, "Thank you for your donation.", "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("render certificate: %w", err)
	}
	return nil
}
