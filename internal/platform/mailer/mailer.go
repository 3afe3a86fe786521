package mailer

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/fpda/academy-backend/internal/pkg/logger"
)

const sendEndpoint = "/v3/mail/send"

// Sender delivers transactional email.
type Sender interface {
	Send(ctx context.Context, msg Message) (*Result, error)
}

type Config struct {
	APIKey    string
	BaseURL   string
	FromEmail string
	FromName  string
	// MaxRetries applies to 429 and 5xx responses.
	MaxRetries int
	Backoff    time.Duration
}

type Address struct {
	Email string
	Name  string
}

type Attachment struct {
	Filename string
	MIMEType string
	Content  []byte
}

type Message struct {
	To          []Address
	Subject     string
	Text        string
	HTML        string
	Attachments []Attachment
	Categories  []string
}

type Result struct {
	StatusCode int
	MessageID  string
}

type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 2000 {
		body = body[:2000] + "..."
	}
	if body == "" {
		body = "<empty body>"
	}
	return fmt.Sprintf("sendgrid http %d: %s", e.StatusCode, body)
}

type client struct {
	log        *logger.Logger
	cfg        Config
	from       *sgmail.Email
	maxRetries int
	backoff    time.Duration
}

func New(log *logger.Logger, cfg Config) (Sender, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing SENDGRID_API_KEY")
	}
	if strings.TrimSpace(cfg.FromEmail) == "" {
		return nil, fmt.Errorf("missing MAIL_FROM_EMAIL")
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.sendgrid.com"
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	return &client{
		log:        log.With("client", "SendGridMailer"),
		cfg:        cfg,
		from:       sgmail.NewEmail(strings.TrimSpace(cfg.FromName), strings.TrimSpace(cfg.FromEmail)),
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.Backoff,
	}, nil
}

func (c *client) Send(ctx context.Context, msg Message) (*Result, error) {
	m, err := c.build(msg)
	if err != nil {
		return nil, err
	}
	body := sgmail.GetRequestBody(m)

	backoff := c.backoff
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		req := sendgrid.GetRequest(c.cfg.APIKey, sendEndpoint, c.cfg.BaseURL)
		req.Method = http.MethodPost
		req.Body = body

		resp, err := sendgrid.MakeRequestWithContext(ctx, req)
		if err == nil && resp.StatusCode < http.StatusBadRequest {
			res := &Result{StatusCode: resp.StatusCode}
			if ids := resp.Headers["X-Message-Id"]; len(ids) > 0 {
				res.MessageID = strings.TrimSpace(ids[0])
			}
			return res, nil
		}
		if err == nil {
			err = &HTTPError{StatusCode: resp.StatusCode, Body: resp.Body}
		}
		if !retryable(err) || attempt >= c.maxRetries {
			return nil, err
		}
		c.log.Warn("Sendgrid request retrying",
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", backoff.String(),
			"error", err.Error(),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

func (c *client) build(msg Message) (*sgmail.SGMailV3, error) {
	subject := strings.TrimSpace(msg.Subject)
	if subject == "" {
		return nil, fmt.Errorf("sendgrid: subject required")
	}
	if len(msg.To) == 0 {
		return nil, fmt.Errorf("sendgrid: recipient required")
	}
	text, html := strings.TrimSpace(msg.Text), strings.TrimSpace(msg.HTML)
	if text == "" && html == "" {
		return nil, fmt.Errorf("sendgrid: text or html content required")
	}

	p := sgmail.NewPersonalization()
	p.Subject = subject
	for _, to := range msg.To {
		if strings.TrimSpace(to.Email) == "" {
			return nil, fmt.Errorf("sendgrid: recipient email required")
		}
		p.AddTos(sgmail.NewEmail(strings.TrimSpace(to.Name), strings.TrimSpace(to.Email)))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(c.from)
	m.Subject = subject
	m.AddPersonalizations(p)
	if text != "" {
		m.AddContent(sgmail.NewContent("text/plain", text))
	}
	if html != "" {
		m.AddContent(sgmail.NewContent("text/html", html))
	}
	for _, a := range msg.Attachments {
		fn := strings.TrimSpace(a.Filename)
		if fn == "" || len(a.Content) == 0 {
			return nil, fmt.Errorf("sendgrid: attachment %q missing name or content", fn)
		}
		att := sgmail.NewAttachment()
		att.SetFilename(fn)
		att.SetType(strings.TrimSpace(a.MIMEType))
		att.SetContent(base64.StdEncoding.EncodeToString(a.Content))
		att.SetDisposition("attachment")
		m.AddAttachment(att)
	}
	if len(msg.Categories) > 0 {
		m.AddCategories(msg.Categories...)
	}
	return m, nil
}

func retryable(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= 500
	}
	// Transport failures.
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
