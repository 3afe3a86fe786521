package services

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/fpda/academy-backend/internal/pkg/logger"
)

func TestCertificateRendererBuiltinFace(t *testing.T) {
	t.Parallel()
	r, err := NewCertificateRenderer(logger.NewNop(), "")
	if err != nil {
		t.Fatalf("NewCertificateRenderer: %v", err)
	}
	issued := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	expires := AddYearsClamped(issued, 3)
	out, err := r.Render(CertificateCard{
		Number:        "FPDA-1742000000000-AB12CD",
		RecipientName: "Lee Learner",
		CourseTitle:   "Birth Doula Foundations",
		IssuedAt:      issued,
		ExpiresAt:     &expires,
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != certificateWidth || b.Dy() != certificateHeight {
		t.Fatalf("unexpected size %v", b)
	}
}

func TestCertificateRendererMissingFont(t *testing.T) {
	t.Parallel()
	if _, err := NewCertificateRenderer(logger.NewNop(), "/nonexistent/font.ttf"); err == nil {
		t.Fatalf("expected error for missing font")
	}
}
