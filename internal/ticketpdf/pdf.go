package ticketpdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"magnetix/ticket-service/internal/models"

	"github.com/go-pdf/fpdf"
)

var (
	ErrEmptyImage = errors.New("empty code image")
	ErrBadColor   = errors.New("malformed color value")
)

// Page geometry in millimeters. The ticket card is 150mm wide, centered
// on an A4 portrait page with a 15mm top margin, and is scaled down
// (aspect preserved) when its natural height would not fit the page.
const (
	pageWidth      = 210.0
	pageHeight     = 297.0
	cardWidth      = 150.0
	cardHeight     = 184.0
	topMargin      = 15.0
	verticalMargin = 30.0
	maxLogoBytes   = 5 << 20
)

// Generator renders a ticket's visual layout and exports it as a
// single-page PDF.
type Generator struct {
	PublicBaseURL string
	Client        *http.Client
}

func NewGenerator(publicBaseURL string) *Generator {
	return &Generator{
		PublicBaseURL: publicBaseURL,
		Client:        &http.Client{Timeout: 5 * time.Second},
	}
}

// Render draws the ticket card (header with logo or monogram, customer
// block, scannable code, footer) using the configured branding and
// returns the finished PDF bytes. The QR image is encoded before any
// page content is laid down, so a failed code render aborts without
// producing a partial file.
func (g *Generator) Render(ctx context.Context, ticket models.Ticket, cfg models.TicketConfig) ([]byte, error) {
	qrPNG, err := encodeQR(VerifyURL(g.PublicBaseURL, ticket.ID))
	if err != nil {
		return nil, err
	}

	primary, err := hexColor(cfg.PrimaryColor)
	if err != nil {
		return nil, err
	}
	secondary, err := hexColor(cfg.SecondaryColor)
	if err != nil {
		return nil, err
	}

	scale := fitScale(cardWidth, cardHeight, pageWidth, pageHeight-verticalMargin)
	w := cardWidth * scale
	x0 := (pageWidth - w) / 2
	y := topMargin

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	// Header band.
	headerH := 30.0 * scale
	pdf.SetFillColor(primary.r, primary.g, primary.b)
	pdf.Rect(x0, y, w, headerH, "F")

	logoDrawn := false
	if cfg.Logo != nil && *cfg.Logo != "" {
		if img, imgType, err := g.fetchLogo(ctx, *cfg.Logo); err == nil {
			name := "logo"
			opts := fpdf.ImageOptions{ImageType: imgType, ReadDpi: true}
			pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img))
			if pdf.Ok() {
				logoH := 20.0 * scale
				pdf.ImageOptions(name, x0+5*scale, y+5*scale, 0, logoH, false, opts, 0, "")
				logoDrawn = pdf.Ok()
			}
		}
	}
	if !logoDrawn {
		// Monogram disc with the company's initial.
		pdf.SetFillColor(255, 255, 255)
		pdf.Circle(x0+15*scale, y+headerH/2, 10*scale, "F")
		pdf.SetTextColor(primary.r, primary.g, primary.b)
		pdf.SetFont("Helvetica", "B", 18*scale)
		pdf.SetXY(x0+5*scale, y+headerH/2-5*scale)
		pdf.CellFormat(20*scale, 10*scale, tr(monogram(cfg.CompanyName)), "", 0, "C", false, 0, "")
	}

	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 16*scale)
	pdf.SetXY(x0+30*scale, y+headerH/2-5*scale)
	pdf.CellFormat(w-35*scale, 10*scale, tr(cfg.CompanyName), "", 0, "L", false, 0, "")
	y += headerH + 8*scale

	// Ticket / customer block.
	pdf.SetTextColor(40, 40, 40)
	rows := []struct{ label, value string }{
		{"Ticket", ticket.ID},
		{"Cliente", ticket.CustomerName},
		{"Email", ticket.CustomerEmail},
		{"Teléfono", ticket.CustomerPhone},
		{"Fecha", ticket.CreatedAt.Format("02/01/2006 15:04")},
		{"Estado", statusLabel(ticket.Status)},
	}
	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 10*scale)
		pdf.SetXY(x0+5*scale, y)
		pdf.CellFormat(30*scale, 7*scale, tr(row.label), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10*scale)
		pdf.CellFormat(w-40*scale, 7*scale, tr(row.value), "", 0, "L", false, 0, "")
		y += 7 * scale
	}
	y += 6 * scale

	// Scannable code, centered.
	qrSize := 70.0 * scale
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", x0+(w-qrSize)/2, y, qrSize, qrSize, false, opts, 0, "")
	y += qrSize + 2*scale

	pdf.SetFont("Helvetica", "", 8*scale)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(x0, y)
	pdf.CellFormat(w, 6*scale, tr("Escaneá el código para verificar el ticket"), "", 0, "C", false, 0, "")
	y += 12 * scale

	// Footer.
	pdf.SetTextColor(secondary.r, secondary.g, secondary.b)
	pdf.SetFont("Helvetica", "B", 9*scale)
	footer := footerLine(cfg)
	pdf.SetXY(x0, y)
	pdf.CellFormat(w, 6*scale, tr(footer), "", 0, "C", false, 0, "")

	if pdf.Err() {
		return nil, fmt.Errorf("compose pdf: %w", pdf.Error())
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *Generator) fetchLogo(ctx context.Context, logoURL string) ([]byte, string, error) {
	client := g.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, logoURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch logo: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxLogoBytes))
	if err != nil {
		return nil, "", err
	}
	if len(data) == 0 {
		return nil, "", ErrEmptyImage
	}
	return data, imageType(resp.Header.Get("Content-Type"), logoURL), nil
}

func imageType(contentType, logoURL string) string {
	switch {
	case strings.Contains(contentType, "png"):
		return "PNG"
	case strings.Contains(contentType, "jpeg"), strings.Contains(contentType, "jpg"):
		return "JPG"
	case strings.Contains(contentType, "gif"):
		return "GIF"
	}
	lower := strings.ToLower(logoURL)
	switch {
	case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
		return "JPG"
	case strings.HasSuffix(lower, ".gif"):
		return "GIF"
	default:
		return "PNG"
	}
}

func statusLabel(status string) string {
	switch status {
	case models.StatusPaid:
		return "PAGADO"
	case models.StatusAwaitingPayment:
		return "POR ATENDER"
	default:
		return status
	}
}

func monogram(companyName string) string {
	name := strings.TrimSpace(companyName)
	if name == "" {
		return "?"
	}
	return strings.ToUpper(name[:1])
}

func footerLine(cfg models.TicketConfig) string {
	var parts []string
	if cfg.CompanyAddress != nil && *cfg.CompanyAddress != "" {
		parts = append(parts, *cfg.CompanyAddress)
	}
	if cfg.CompanyPhone != nil && *cfg.CompanyPhone != "" {
		parts = append(parts, *cfg.CompanyPhone)
	}
	if len(parts) == 0 {
		return cfg.CompanyName
	}
	return strings.Join(parts, " · ")
}

type rgb struct {
	r, g, b int
}

func hexColor(value string) (rgb, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return rgb{}, fmt.Errorf("%w: %q", ErrBadColor, value)
	}
	var color rgb
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &color.r, &color.g, &color.b); err != nil {
		return rgb{}, fmt.Errorf("%w: %q", ErrBadColor, value)
	}
	return color, nil
}

// fitScale shrinks the card so it fits the printable area, never
// enlarging it.
func fitScale(width, height, maxWidth, maxHeight float64) float64 {
	scale := 1.0
	if height > maxHeight {
		scale = maxHeight / height
	}
	if width*scale > maxWidth {
		scale = maxWidth / width
	}
	return scale
}
