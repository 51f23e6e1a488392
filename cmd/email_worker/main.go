package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/foodgram/config"
	"github.com/oksasatya/foodgram/pkg/helpers"
	"github.com/oksasatya/foodgram/pkg/mailer"
	mailtpl "github.com/oksasatya/foodgram/pkg/mailer/templates"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-email-worker", cfg.Env)
	if !cfg.MailSendEnabled {
		logger.Info("MAIL_SEND_ENABLED=false; email worker disabled (no real emails will be sent)")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQEmailQueue == "" {
		logger.Fatal("RabbitMQ not configured")
	}

	sender, err := newSender(cfg)
	if err != nil {
		logger.Fatal(err)
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatalf("amqp dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatalf("amqp channel: %v", err)
	}
	defer func() { _ = ch.Close() }()

	// prefetch for fair dispatch
	if err := ch.Qos(16, 0, false); err != nil {
		logger.Fatalf("qos: %v", err)
	}
	if err := helpers.DeclareQueue(ch, cfg.RabbitMQEmailQueue); err != nil {
		logger.Fatalf("queue declare: %v", err)
	}

	msgs, err := ch.Consume(cfg.RabbitMQEmailQueue, "", false, false, false, false, nil)
	if err != nil {
		logger.Fatalf("consume: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		for msg := range msgs {
			o := handle(ctx, sender, cfg, msg.Body, logger)
			if settle(ctx, msg, o, msg.Redelivered, retryBackoff) == outcomeDrop && o == outcomeRetry {
				logger.WithField("message_id", msg.MessageId).Warn("email dropped after redelivery")
			}
		}
		close(done)
	}()

	logger.WithFields(logrus.Fields{"queue": cfg.RabbitMQEmailQueue, "provider": cfg.MailProvider}).Info("email worker listening")
	<-stop
	logger.Info("shutting down...")
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}

func newSender(cfg *config.Config) (mailer.Sender, error) {
	switch cfg.MailProvider {
	case "smtp":
		if cfg.SMTPHost == "" || cfg.SMTPSender == "" {
			return nil, errors.New("SMTP not configured")
		}
		return mailer.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPSender), nil
	case "mailgun", "":
		if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
			return nil, errors.New("Mailgun not configured")
		}
		return mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender, cfg.MailgunRegion), nil
	default:
		return nil, errors.New("unknown MAIL_PROVIDER " + cfg.MailProvider)
	}
}

// retryBackoff delays the requeue of a failed send so a down provider is not hammered.
const retryBackoff = 5 * time.Second

type outcome int

const (
	outcomeAck outcome = iota
	outcomeDrop
	outcomeRetry
)

type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// settle acks or nacks d and reports what was done. A failed send is requeued once after
// backoff; a delivery that already came back is dropped.
func settle(ctx context.Context, d acknowledger, o outcome, redelivered bool, backoff time.Duration) outcome {
	switch {
	case o == outcomeAck:
		_ = d.Ack(false)
		return outcomeAck
	case o == outcomeRetry && !redelivered:
		t := time.NewTimer(backoff)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
		}
		_ = d.Nack(false, true)
		return outcomeRetry
	default:
		_ = d.Nack(false, false)
		return outcomeDrop
	}
}

// handle renders and sends one queued job. Malformed or unrenderable jobs are dropped; send failures are retried.
func handle(ctx context.Context, sender mailer.Sender, cfg *config.Config, body []byte, logger *logrus.Logger) outcome {
	var job mailer.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		logger.WithError(err).Warn("bad message")
		return outcomeDrop
	}
	if job.To == "" {
		logger.Warn("message without recipient")
		return outcomeDrop
	}

	helpers.PrepareEmailJob(&job, cfg.AppName, cfg.SiteURL)

	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		s, t, h, err := mailtpl.Render(job.Template, job.Data)
		if err != nil {
			logger.WithError(err).WithField("template", job.Template).Warn("render failed")
			return outcomeDrop
		}
		subject, text, html = s, t, h
	}

	c, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := sender.Send(c, job.To, subject, text, html); err != nil {
		logger.WithError(err).WithField("to", job.To).Error("send failed")
		return outcomeRetry
	}
	logger.WithFields(logrus.Fields{"to": job.To, "template": job.Template}).Info("email sent")
	return outcomeAck
}
