package voucher

import (
	"bytes"
	"fmt"
	"image/png"

	"ms-reservations/internal/models"

	"github.com/signintech/gopdf"
	"golang.org/x/image/font/gofont/goregular"
)

const fontFamily = "goregular"

// GeneratePDF renders a printable A4 voucher with the same QR code as Generate.
func (g *Generator) GeneratePDF(r *models.Reservation) ([]byte, error) {
	qr, err := g.Generate(r)
	if err != nil {
		return nil, err
	}

	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	if err := pdf.AddTTFFontData(fontFamily, goregular.TTF); err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}

	if err := pdf.SetFont(fontFamily, "", 20); err != nil {
		return nil, fmt.Errorf("failed to set font: %w", err)
	}
	pdf.SetX(40)
	pdf.SetY(40)
	pdf.Cell(nil, "Travel voucher")

	if err := pdf.SetFont(fontFamily, "", 12); err != nil {
		return nil, fmt.Errorf("failed to set font: %w", err)
	}
	pdf.SetY(80)
	for _, line := range voucherLines(r) {
		pdf.SetX(40)
		pdf.Cell(nil, line)
		pdf.Br(20)
	}

	img, err := png.Decode(bytes.NewReader(qr))
	if err != nil {
		return nil, fmt.Errorf("failed to decode QR code: %w", err)
	}
	if err := pdf.ImageFrom(img, 40, pdf.GetY()+20, &gopdf.Rect{W: 180, H: 180}); err != nil {
		return nil, fmt.Errorf("failed to draw QR code: %w", err)
	}

	pdf.SetX(40)
	pdf.SetY(780)
	pdf.Cell(nil, "Present this voucher at check-in.")

	var buf bytes.Buffer
	if err := pdf.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func voucherLines(r *models.Reservation) []string {
	return []string{
		"Reservation: " + r.ID,
		"Destination: " + r.DestinationID,
		"Traveller: " + r.Contact.FullName,
		fmt.Sprintf("Dates: %s to %s", r.StartDate.Format("2006-01-02"), r.EndDate.Format("2006-01-02")),
		fmt.Sprintf("Participants: %d", r.Participants),
		fmt.Sprintf("Total: %.2f %s", r.TotalPrice, r.Currency),
	}
}
