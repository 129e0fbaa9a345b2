package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	paymentapp "github.com/japabox/storefront/internal/application/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeReconciler struct {
	calls  atomic.Int32
	minAge time.Duration
	maxAge time.Duration
	limit  int
	report paymentapp.ReconcileReport
	err    error
}

func (f *fakeReconciler) ReconcilePending(_ context.Context, minAge, maxAge time.Duration, limit int) (paymentapp.ReconcileReport, error) {
	f.calls.Add(1)
	f.minAge, f.maxAge, f.limit = minAge, maxAge, limit
	return f.report, f.err
}

func TestNewPaymentReconciler_Defaults(t *testing.T) {
	r := NewPaymentReconciler(PaymentReconcilerConfig{MinAge: time.Hour, MaxAge: time.Minute}, &fakeReconciler{}, nil)
	d := DefaultPaymentReconcilerConfig()
	assert.Equal(t, d.Interval, r.config.Interval)
	assert.Equal(t, time.Hour, r.config.MinAge)
	assert.Equal(t, time.Hour+d.MaxAge, r.config.MaxAge, "max age never falls below min age")
	assert.Equal(t, d.BatchSize, r.config.BatchSize)
}

func TestPaymentReconciler_RunOnce(t *testing.T) {
	fake := &fakeReconciler{report: paymentapp.ReconcileReport{Checked: 2, Paid: 1}}
	r := NewPaymentReconciler(PaymentReconcilerConfig{MinAge: 5 * time.Minute, MaxAge: time.Hour, BatchSize: 10}, fake, zap.NewNop())

	report := r.RunOnce(context.Background())
	assert.Equal(t, 1, report.Paid)
	assert.Equal(t, 5*time.Minute, fake.minAge)
	assert.Equal(t, time.Hour, fake.maxAge)
	assert.Equal(t, 10, fake.limit)
	assert.False(t, r.LastRun().IsZero())

	fake.err = paymentapp.ErrGatewayNotConfigured
	fake.report = paymentapp.ReconcileReport{}
	assert.Zero(t, r.RunOnce(context.Background()).Checked)
}

func TestPaymentReconciler_StartStop(t *testing.T) {
	fake := &fakeReconciler{}
	r := NewPaymentReconciler(PaymentReconcilerConfig{Interval: 10 * time.Millisecond}, fake, zap.NewNop())

	require.NoError(t, r.Start(context.Background()))
	assert.True(t, r.IsRunning())
	assert.ErrorIs(t, r.Start(context.Background()), ErrSchedulerAlreadyRunning)

	assert.Eventually(t, func() bool { return fake.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Stop(ctx))
	assert.False(t, r.IsRunning())
	require.NoError(t, r.Stop(ctx), "stopping twice is a no-op")
}
