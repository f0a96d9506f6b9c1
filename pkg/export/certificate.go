// Package export renders downloadable artifacts for registered accounts.
package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/bufordeeds/service-dog-standards/internal/models"
)

// CertificateData holds everything printed on a registration certificate.
type CertificateData struct {
	OrganizationName string
	Dog              *models.Dog
	HandlerName      string
	MemberNumber     string
	IssuedAt         time.Time
}

// RegistrationCertificate renders a landscape A4 PDF certificate for a
// registered dog and returns the raw bytes.
func RegistrationCertificate(data CertificateData) ([]byte, error) {
	if data.Dog == nil {
		return nil, fmt.Errorf("certificate requires a dog record")
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Registration Certificate %s", data.Dog.RegistrationNum), false)
	pdf.AddPage()

	pageW, pageH := pdf.GetPageSize()

	// Border
	pdf.SetLineWidth(1.2)
	pdf.SetDrawColor(30, 64, 124)
	pdf.Rect(10, 10, pageW-20, pageH-20, "D")
	pdf.SetLineWidth(0.3)
	pdf.Rect(13, 13, pageW-26, pageH-26, "D")

	pdf.SetY(30)
	pdf.SetFont("Helvetica", "B", 26)
	pdf.SetTextColor(30, 64, 124)
	pdf.CellFormat(0, 14, data.OrganizationName, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 14)
	pdf.SetTextColor(80, 80, 80)
	pdf.CellFormat(0, 10, "Certificate of Registration", "", 1, "C", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 12)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(0, 8, "This certifies that", "", 1, "C", false, 0, "")

	headline := data.Dog.Name
	if data.Dog.Breed != nil && strings.TrimSpace(*data.Dog.Breed) != "" {
		headline = fmt.Sprintf("%s (%s)", data.Dog.Name, *data.Dog.Breed)
	}
	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetTextColor(20, 20, 20)
	pdf.CellFormat(0, 14, headline, "", 1, "C", false, 0, "")

	subtitle := fmt.Sprintf("handled by %s", data.HandlerName)
	pdf.SetFont("Helvetica", "", 12)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(0, 8, subtitle, "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 8, "is registered and committed to the training and behavior standards.", "", 1, "C", false, 0, "")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetTextColor(30, 64, 124)
	pdf.CellFormat(0, 8, fmt.Sprintf("Registration Number: %s", data.Dog.RegistrationNum), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(80, 80, 80)
	pdf.CellFormat(0, 7, fmt.Sprintf("Member Number: %s", data.MemberNumber), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Issued %s", data.IssuedAt.Format("January 2, 2006")), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render certificate: %w", err)
	}
	return buf.Bytes(), nil
}
