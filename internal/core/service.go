package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/JonMunkholm/parkcrm/internal/logging"
)

// Observer receives import outcomes for metrics. Implementations must be
// safe for concurrent use.
type Observer interface {
	ObserveRun(source string, stats *Statistics, err error, elapsed time.Duration)
	ObserveWebhook(outcome WebhookOutcome)
}

type nopObserver struct{}

func (nopObserver) ObserveRun(string, *Statistics, error, time.Duration) {}
func (nopObserver) ObserveWebhook(WebhookOutcome)                      {}

// Service runs bulk and webhook imports against a Store.
type Service struct {
	store      Store
	importer   *Importer
	limiter    *ImportLimiter
	observer   Observer
	runTimeout time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithObserver reports run and webhook outcomes to o.
func WithObserver(o Observer) Option {
	return func(s *Service) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithLimiter replaces the default import limiter.
func WithLimiter(l *ImportLimiter) Option {
	return func(s *Service) {
		if l != nil {
			s.limiter = l
		}
	}
}

// WithRunTimeout bounds each bulk run. Zero disables the bound.
func WithRunTimeout(d time.Duration) Option {
	return func(s *Service) { s.runTimeout = d }
}

// WithClock sets the time source used for rows without a readable Timestamp.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.importer.now = now
		}
	}
}

// NewService creates a Service over store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		importer: NewImporter(),
		limiter:  NewImportLimiter(DefaultMaxConcurrentImports, DefaultMaxImportWait),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LimiterStatus reports bulk import concurrency.
func (s *Service) LimiterStatus() ImportLimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until running bulk imports finish or ctx ends.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

func (s *Service) logger(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}
