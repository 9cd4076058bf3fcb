package poller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Outcome is the result of one poll cycle
type Outcome int

const (
	// OutcomeSkipped means no recognized sensor channel was found
	OutcomeSkipped Outcome = iota
	// OutcomePosted means the dispatcher answered 200
	OutcomePosted
	// OutcomeRejected means the dispatcher answered with another status
	OutcomeRejected
	// OutcomeFailed means every attempt failed without a response
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomePosted:
		return "posted"
	case OutcomeRejected:
		return "rejected"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Poller samples the sensor and pushes each reading to the dispatcher
type Poller struct {
	sensor   Sensor
	poster   Poster
	retry    *RetryConfig
	interval time.Duration
	logger   *logrus.Logger

	now   func() time.Time
	sleep SleepFunc
}

// Option customizes a Poller
type Option func(*Poller)

// WithClock replaces time.Now when stamping readings
func WithClock(now func() time.Time) Option {
	return func(p *Poller) { p.now = now }
}

// WithSleep replaces the pause between cycles and between attempts
func WithSleep(sleep SleepFunc) Option {
	return func(p *Poller) { p.sleep = sleep }
}

// New creates a Poller. A nil retry config uses DefaultRetryConfig.
func New(sensor Sensor, poster Poster, retry *RetryConfig, interval time.Duration, logger *logrus.Logger, opts ...Option) *Poller {
	if retry == nil {
		retry = DefaultRetryConfig()
	}
	if logger == nil {
		logger = logrus.New()
	}

	p := &Poller{
		sensor:   sensor,
		poster:   poster,
		retry:    retry,
		interval: interval,
		logger:   logger,
		now:      time.Now,
		sleep:    Sleep,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run polls until ctx is cancelled, which returns nil after logging the
// farewell message. Skipped, rejected and undelivered cycles keep the loop
// going; any other cycle error stops it and is returned.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.WithFields(logrus.Fields{
		"interval":     p.interval.String(),
		"max_attempts": p.retry.MaxAttempts,
		"retry_delay":  p.retry.Delay.String(),
	}).Info("Starting temperature poller")

	for {
		if _, err := p.Cycle(ctx); err != nil && !isCancellation(ctx, err) {
			p.logger.WithError(err).Error("Poll cycle failed")
			return err
		}

		if err := p.sleep(ctx, p.interval); err != nil || ctx.Err() != nil {
			p.logger.Info("Exiting...")
			return nil
		}
	}
}

// Cycle reads the sensor once and posts the reading. Delivery failures are
// reported through the Outcome; the error is reserved for cancellation and
// failures that are neither sensor absence nor connection problems.
func (p *Poller) Cycle(ctx context.Context) (Outcome, error) {
	celsius, ok, err := p.sensor.ReadTemperature(ctx)
	if err != nil {
		p.logger.WithError(err).Warn("Failed to read sensor temperatures")
	}
	if !ok {
		p.logger.Debug("No CPU temperature sensor found, skipping cycle")
		return OutcomeSkipped, nil
	}

	reading := NewReading(celsius, p.now())
	envelope := NewCreateRequest(reading)
	log := p.logger.WithFields(logrus.Fields{
		"time":            reading.Time,
		"cpu_temperature": reading.CPUTemperature,
	})

	retry := *p.retry
	if retry.Sleep == nil {
		retry.Sleep = p.sleep
	}

	var status int
	err = WithRetry(ctx, &retry, func(ctx context.Context, attempt int) error {
		code, err := p.poster.Post(ctx, envelope)
		if err != nil {
			if IsConnectionError(err) && attempt < retry.MaxAttempts {
				log.WithError(err).WithField("attempt", attempt).Warn("Failed to connect. Retrying...")
			}
			return err
		}
		status = code
		return nil
	})

	switch {
	case err == nil && status == http.StatusOK:
		log.Info("Temperature posted successfully!")
		return OutcomePosted, nil
	case err == nil:
		log.WithField("status", status).Warn("Temperature post was not accepted")
		return OutcomeRejected, nil
	case IsConnectionError(err):
		log.WithError(err).Errorf("Failed to post temperature after %d attempts.", retry.MaxAttempts)
		return OutcomeFailed, nil
	default:
		return OutcomeFailed, err
	}
}

func isCancellation(ctx context.Context, err error) bool {
	return ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded))
}
