package services

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"

	"github.com/fpda/academy-backend/internal/pkg/logger"
)

const (
	certificateWidth  = 1600
	certificateHeight = 1131
)

// CertificateCard is what gets printed on a certificate image.
type CertificateCard struct {
	Number        string
	RecipientName string
	CourseTitle   string
	IssuedAt      time.Time
	ExpiresAt     *time.Time
}

// CertificateRenderer draws certificate PNGs. Without a font file it falls
// back to the gg built-in face.
type CertificateRenderer struct {
	log  *logger.Logger
	font *truetype.Font
}

func NewCertificateRenderer(log *logger.Logger, fontPath string) (*CertificateRenderer, error) {
	rendererLog := log.With("service", "CertificateRenderer")
	r := &CertificateRenderer{log: rendererLog}
	fontPath = strings.TrimSpace(fontPath)
	if fontPath == "" {
		rendererLog.Warn("CERTIFICATE_FONT_PATH not set; using built-in face")
		return r, nil
	}
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file: %w", err)
	}
	parsed, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	rendererLog.Info("Loaded certificate font", "font", fontPath)
	r.font = parsed
	return r, nil
}

func (r *CertificateRenderer) face(size float64) font.Face {
	if r == nil || r.font == nil {
		return nil
	}
	return truetype.NewFace(r.font, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
}

func (r *CertificateRenderer) Render(card CertificateCard) ([]byte, error) {
	const w, h = float64(certificateWidth), float64(certificateHeight)
	dc := gg.NewContext(certificateWidth, certificateHeight)

	dc.SetColor(color.NRGBA{R: 0xFB, G: 0xF7, B: 0xF2, A: 0xFF})
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()

	// Double border
	dc.SetColor(color.NRGBA{R: 0x8A, G: 0x5A, B: 0x83, A: 0xFF})
	dc.SetLineWidth(12)
	dc.DrawRectangle(40, 40, w-80, h-80)
	dc.Stroke()
	dc.SetLineWidth(3)
	dc.DrawRectangle(70, 70, w-140, h-140)
	dc.Stroke()

	ink := color.NRGBA{R: 0x2E, G: 0x24, B: 0x2C, A: 0xFF}
	muted := color.NRGBA{R: 0x6B, G: 0x5E, B: 0x68, A: 0xFF}

	r.line(dc, "CERTIFICATE OF COMPLETION", 64, h*0.20, ink)
	r.line(dc, "This certifies that", 36, h*0.33, muted)
	recipient := strings.TrimSpace(card.RecipientName)
	if recipient == "" {
		recipient = "Certified Learner"
	}
	r.line(dc, recipient, 72, h*0.43, ink)
	r.line(dc, "has successfully completed", 36, h*0.53, muted)
	r.line(dc, card.CourseTitle, 52, h*0.62, ink)

	issued := "Issued " + card.IssuedAt.UTC().Format("January 2, 2006")
	if card.ExpiresAt != nil {
		issued += "  |  Valid until " + card.ExpiresAt.UTC().Format("January 2, 2006")
	}
	r.line(dc, issued, 28, h*0.76, muted)
	r.line(dc, "Certificate No. "+card.Number, 26, h*0.84, muted)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *CertificateRenderer) line(dc *gg.Context, text string, size, y float64, c color.Color) {
	if face := r.face(size); face != nil {
		dc.SetFontFace(face)
	}
	dc.SetColor(c)
	dc.DrawStringAnchored(text, float64(certificateWidth)/2, y, 0.5, 0.5)
}
