package main

import (
	"context"   // Consumer lifetime
	"os"        // Signal types
	"os/signal" // Graceful shutdown
	"syscall"   // SIGTERM

	"invest_tracker/internal/config" // Configuration
	"invest_tracker/internal/notify" // Queue consumer and SMTP sender

	"github.com/sirupsen/logrus" // Structured logging
)

// Mailer drains the notification queue and delivers each message over SMTP
func main() {
	cfg := config.LoadConfig()
	cfg.ConfigureLogging()

	if cfg.AMQPURL == "" || cfg.SMTPHost == "" {
		logrus.Fatal("AMQP_URL and SMTP_HOST must be set")
	}
	q, err := notify.DialQueue(cfg.AMQPURL, cfg.MailQueue)
	if err != nil {
		logrus.Fatalf("failed to connect to RabbitMQ: %v", err)
	}
	defer q.Close()

	sender := notify.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logrus.WithField("queue", cfg.MailQueue).Info("Waiting for mail messages")
	if err := q.Consume(ctx, sender); err != nil {
		logrus.Fatalf("mail consumer stopped: %v", err)
	}
	logrus.Info("Mailer stopped")
}
