package notification

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"ExamPortal/internal/config"
)

const queueCapacity = 256

// Dispatcher is the in-process replacement for an external mail queue: a
// buffered channel drained by a single worker goroutine. Failed sends are
// retried with exponential backoff; after the attempt budget is exhausted
// the email is logged and dropped.
type Dispatcher struct {
	sender      config.EmailSender
	logger      *zap.Logger
	queue       chan Email
	done        chan struct{}
	maxAttempts int
	backoffBase time.Duration
}

func NewDispatcher(sender config.EmailSender, cfg config.Config, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		sender:      sender,
		logger:      logger,
		queue:       make(chan Email, queueCapacity),
		done:        make(chan struct{}),
		maxAttempts: cfg.MailMaxAttempts,
		backoffBase: cfg.MailBackoffBase,
	}
}

// StartDispatcher runs the delivery worker under the fx lifecycle.
func StartDispatcher(lc fx.Lifecycle, d *Dispatcher) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			d.logger.Info("starting mail dispatcher")
			go d.run()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			d.logger.Info("stopping mail dispatcher")
			close(d.done)
			return nil
		},
	})
}

// Enqueue hands an email to the worker. When the queue is full the email is
// dropped rather than blocking the calling flow.
func (d *Dispatcher) Enqueue(email Email) {
	select {
	case d.queue <- email:
	default:
		d.logger.Warn("mail queue full, dropping email", zap.String("to", email.To))
	}
}

func (d *Dispatcher) run() {
	for {
		select {
		case email := <-d.queue:
			d.deliver(email)
		case <-d.done:
			return
		}
	}
}

func (d *Dispatcher) deliver(email Email) {
	backoff := d.backoffBase
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		err := d.sender.SendEmail(email.To, email.Subject, email.HTML)
		if err == nil {
			return
		}
		d.logger.Warn("email delivery failed",
			zap.String("to", email.To),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if attempt == d.maxAttempts {
			break
		}
		select {
		case <-time.After(backoff):
		case <-d.done:
			return
		}
		backoff *= 2
	}
	d.logger.Error("giving up on email delivery",
		zap.String("to", email.To),
		zap.String("subject", email.Subject),
	)
}
