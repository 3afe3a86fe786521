package services

import (
	"context"
	"fmt"
	"strings"

	types "github.com/fpda/academy-backend/internal/domain"
	"github.com/fpda/academy-backend/internal/platform/mailer"
	"github.com/fpda/academy-backend/internal/pkg/logger"
)

// CertificateNotifier tells a learner about a freshly issued certificate.
type CertificateNotifier interface {
	CertificateIssued(ctx context.Context, to mailer.Address, cert *types.Certification, courseTitle string) error
}

type certificateMailer struct {
	log      *logger.Logger
	sender   mailer.Sender
	renderer *CertificateRenderer
	baseURL  string
}

// NewCertificateMailer sends the certificate PNG as an attachment. A nil
// renderer sends the text only.
func NewCertificateMailer(log *logger.Logger, sender mailer.Sender, renderer *CertificateRenderer, publicBaseURL string) CertificateNotifier {
	return &certificateMailer{
		log:      log.With("service", "CertificateMailer"),
		sender:   sender,
		renderer: renderer,
		baseURL:  strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"),
	}
}

func (cm *certificateMailer) CertificateIssued(ctx context.Context, to mailer.Address, cert *types.Certification, courseTitle string) error {
	if cm.sender == nil || cert == nil || strings.TrimSpace(to.Email) == "" {
		return nil
	}
	text := fmt.Sprintf(
		"Congratulations! You completed %s.\n\nCertificate number: %s\n",
		courseTitle, cert.CertificateNumber,
	)
	if cert.ExpiresAt != nil {
		text += fmt.Sprintf("Valid until: %s\n", cert.ExpiresAt.UTC().Format("January 2, 2006"))
	}
	if cm.baseURL != "" {
		text += fmt.Sprintf("Verify: %s/api/certificates/%s/verify\n", cm.baseURL, cert.ID)
	}

	msg := mailer.Message{
		To:         []mailer.Address{to},
		Subject:    "Your certificate for " + courseTitle,
		Text:       text,
		Categories: []string{"certificate"},
	}
	if cm.renderer != nil {
		png, err := cm.renderer.Render(CertificateCard{
			Number:        cert.CertificateNumber,
			RecipientName: cert.RecipientName,
			CourseTitle:   courseTitle,
			IssuedAt:      cert.IssuedAt,
			ExpiresAt:     cert.ExpiresAt,
		})
		if err != nil {
			cm.log.Warn("Certificate render failed; sending without attachment", "certificate_id", cert.ID, "error", err)
		} else {
			msg.Attachments = append(msg.Attachments, mailer.Attachment{
				Filename: cert.CertificateNumber + ".png",
				MIMEType: "image/png",
				Content:  png,
			})
		}
	}
	if _, err := cm.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send certificate email: %w", err)
	}
	return nil
}
