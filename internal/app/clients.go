package app

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/fpda/academy-backend/internal/platform/cache"
	"github.com/fpda/academy-backend/internal/platform/mailer"
	"github.com/fpda/academy-backend/internal/pkg/logger"
)

// Clients are the optional external integrations. A nil field means the
// integration is not configured.
type Clients struct {
	Redis  *goredis.Client
	Mailer mailer.Sender
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	// Redis
	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis: %w", err)
		}
		out.Redis = rdb
	} else {
		log.Info("REDIS_ADDR not set; catalog cache disabled")
	}

	// SendGrid
	if cfg.SendGridAPIKey != "" {
		sender, err := mailer.New(log, mailer.Config{
			APIKey:     cfg.SendGridAPIKey,
			FromEmail:  cfg.MailFromEmail,
			FromName:   cfg.MailFromName,
			MaxRetries: 2,
			Backoff:    time.Second,
		})
		if err != nil {
			out.Close()
			return Clients{}, fmt.Errorf("init mailer: %w", err)
		}
		out.Mailer = sender
	} else {
		log.Info("SENDGRID_API_KEY not set; certificate emails disabled")
	}

	return out, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
