package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	paymentapp "github.com/japabox/storefront/internal/application/payment"
	"go.uber.org/zap"
)

// PaymentReconcilerConfig holds configuration for the payment reconciler
type PaymentReconcilerConfig struct {
	// Interval between passes
	Interval time.Duration
	// MinAge leaves fresh orders to the webhook
	MinAge time.Duration
	// MaxAge stops polling orders whose charge has long expired
	MaxAge time.Duration
	// BatchSize caps the orders checked per pass
	BatchSize int
	// PassTimeout bounds one pass
	PassTimeout time.Duration
}

// DefaultPaymentReconcilerConfig returns default reconciler configuration
func DefaultPaymentReconcilerConfig() PaymentReconcilerConfig {
	return PaymentReconcilerConfig{
		Interval:    2 * time.Minute,
		MinAge:      3 * time.Minute,
		MaxAge:      24 * time.Hour,
		BatchSize:   50,
		PassTimeout: time.Minute,
	}
}

// PendingPaymentReconciler is the payment service seen by the reconciler
type PendingPaymentReconciler interface {
	ReconcilePending(ctx context.Context, minAge, maxAge time.Duration, limit int) (paymentapp.ReconcileReport, error)
}

// PaymentReconciler periodically polls the gateway for orders whose payment
// webhook has not arrived
type PaymentReconciler struct {
	config  PaymentReconcilerConfig
	service PendingPaymentReconciler
	logger  *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	lastRun   time.Time
}

// NewPaymentReconciler creates a new payment reconciler. Zero config fields
// take their defaults.
func NewPaymentReconciler(config PaymentReconcilerConfig, service PendingPaymentReconciler, logger *zap.Logger) *PaymentReconciler {
	defaults := DefaultPaymentReconcilerConfig()
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.MinAge <= 0 {
		config.MinAge = defaults.MinAge
	}
	if config.MaxAge <= config.MinAge {
		config.MaxAge = config.MinAge + defaults.MaxAge
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.PassTimeout <= 0 {
		config.PassTimeout = defaults.PassTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentReconciler{config: config, service: service, logger: logger}
}

// Start starts the reconciliation loop
func (r *PaymentReconciler) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.isRunning {
		return ErrSchedulerAlreadyRunning
	}
	r.isRunning = true

	ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Add(1)
	go r.runLoop(ctx)

	r.logger.Info("Payment reconciler started",
		zap.Duration("interval", r.config.Interval),
		zap.Duration("min_age", r.config.MinAge),
		zap.Duration("max_age", r.config.MaxAge),
	)
	return nil
}

// Stop stops the loop and waits for a running pass or ctx
func (r *PaymentReconciler) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.isRunning {
		r.mu.Unlock()
		return nil
	}
	r.isRunning = false
	r.mu.Unlock()

	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("Payment reconciler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning reports whether the loop is active
func (r *PaymentReconciler) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isRunning
}

// LastRun returns when the last pass finished
func (r *PaymentReconciler) LastRun() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastRun
}

func (r *PaymentReconciler) runLoop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single reconciliation pass
func (r *PaymentReconciler) RunOnce(ctx context.Context) paymentapp.ReconcileReport {
	passCtx, cancel := context.WithTimeout(ctx, r.config.PassTimeout)
	defer cancel()

	report, err := r.service.ReconcilePending(passCtx, r.config.MinAge, r.config.MaxAge, r.config.BatchSize)

	r.mu.Lock()
	r.lastRun = time.Now()
	r.mu.Unlock()

	switch {
	case errors.Is(err, paymentapp.ErrGatewayNotConfigured):
		r.logger.Debug("Payment reconciliation skipped, no gateway")
	case err != nil:
		r.logger.Error("Payment reconciliation failed", zap.Error(err))
	case report.Checked > 0:
		r.logger.Info("Payment reconciliation pass",
			zap.Int("checked", report.Checked),
			zap.Int("paid", report.Paid),
			zap.Int("failed", report.Failed),
		)
	}
	return report
}
