package telemetry

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultSlowQuery     = 200 * time.Millisecond
	defaultPoolStatsTick = 15 * time.Second
)

// DBMetrics records GORM query counts and latency plus connection pool
// gauges. Stop ends the pool sampling goroutine.
type DBMetrics struct {
	poolConnections    *Gauge
	poolConnectionsMax *Gauge
	queryTotal         *Counter
	queryDuration      *Histogram
	slowQueryTotal     *Counter

	slowQuery time.Duration
	interval  time.Duration
	logger    *zap.Logger
	sqlDB     *sql.DB
	stopCh    chan struct{}
	wg        sync.WaitGroup
	stopOnce  sync.Once
}

// NewDBMetrics creates the instruments on meter
func NewDBMetrics(meter metric.Meter, sqlDB *sql.DB, logger *zap.Logger) (*DBMetrics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &DBMetrics{
		slowQuery: defaultSlowQuery,
		interval:  defaultPoolStatsTick,
		logger:    logger,
		sqlDB:     sqlDB,
		stopCh:    make(chan struct{}),
	}

	var err error
	if m.poolConnections, err = NewGauge(meter, "db_pool_connections",
		"Number of connections in the pool by state", "{connection}"); err != nil {
		return nil, err
	}
	if m.poolConnectionsMax, err = NewGauge(meter, "db_pool_connections_max",
		"Maximum number of connections in the pool", "{connection}"); err != nil {
		return nil, err
	}
	if m.queryTotal, err = NewCounter(meter, "db_query_total",
		"Total number of database queries by operation type", "{query}"); err != nil {
		return nil, err
	}
	if m.queryDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database query latency distribution in seconds",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.slowQueryTotal, err = NewCounter(meter, "db_slow_query_total",
		"Total number of database queries slower than 200ms", "{query}"); err != nil {
		return nil, err
	}
	return m, nil
}

// StartPoolStats samples sql.DB stats until Stop or ctx is done
func (m *DBMetrics) StartPoolStats(ctx context.Context) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		m.collectPoolStats(ctx)
		for {
			select {
			case <-ticker.C:
				m.collectPoolStats(ctx)
			case <-m.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (m *DBMetrics) collectPoolStats(ctx context.Context) {
	stats := m.sqlDB.Stats()
	m.poolConnectionsMax.Record(ctx, int64(stats.MaxOpenConnections))
	m.poolConnections.Record(ctx, int64(stats.Idle), AttrDBState.String("idle"))
	m.poolConnections.Record(ctx, int64(stats.InUse), AttrDBState.String("in_use"))
	m.poolConnections.Record(ctx, int64(stats.OpenConnections), AttrDBState.String("open"))
}

// Stop ends pool sampling. Safe to call more than once.
func (m *DBMetrics) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		m.wg.Wait()
	})
}

// RecordQuery records one finished statement
func (m *DBMetrics) RecordQuery(ctx context.Context, operation, table string, d time.Duration) {
	operation = strings.ToUpper(operation)
	if operation == "" {
		operation = "OTHER"
	}
	m.queryTotal.Inc(ctx, AttrDBOperation.String(operation))
	m.queryDuration.RecordDuration(ctx, d, AttrDBOperation.String(operation))
	if d > m.slowQuery {
		if table == "" {
			table = "unknown"
		}
		m.slowQueryTotal.Inc(ctx, AttrDBTable.String(table))
	}
}

type dbMetricsStartKey struct{}

// Name implements gorm.Plugin
func (m *DBMetrics) Name() string {
	return "db_metrics"
}

// Initialize implements gorm.Plugin by timing every statement
func (m *DBMetrics) Initialize(db *gorm.DB) error {
	before := func(tx *gorm.DB) {
		ctx := tx.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		tx.Statement.Context = context.WithValue(ctx, dbMetricsStartKey{}, time.Now())
	}
	after := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			op := operation
			if op == "" {
				op = detectOperation(tx.Statement.SQL.String())
			}
			ctx := tx.Statement.Context
			if ctx == nil {
				ctx = context.Background()
			}
			var d time.Duration
			if start, ok := ctx.Value(dbMetricsStartKey{}).(time.Time); ok {
				d = time.Since(start)
			}
			m.RecordQuery(ctx, op, tx.Statement.Table, d)
		}
	}

	cb := db.Callback()
	registrations := []func() error{
		func() error { return cb.Create().Before("gorm:create").Register("db_metrics:before_create", before) },
		func() error { return cb.Create().After("gorm:create").Register("db_metrics:after_create", after("INSERT")) },
		func() error { return cb.Query().Before("gorm:query").Register("db_metrics:before_query", before) },
		func() error { return cb.Query().After("gorm:query").Register("db_metrics:after_query", after("SELECT")) },
		func() error { return cb.Update().Before("gorm:update").Register("db_metrics:before_update", before) },
		func() error { return cb.Update().After("gorm:update").Register("db_metrics:after_update", after("UPDATE")) },
		func() error { return cb.Delete().Before("gorm:delete").Register("db_metrics:before_delete", before) },
		func() error { return cb.Delete().After("gorm:delete").Register("db_metrics:after_delete", after("DELETE")) },
		func() error { return cb.Row().Before("gorm:row").Register("db_metrics:before_row", before) },
		func() error { return cb.Row().After("gorm:row").Register("db_metrics:after_row", after("")) },
		func() error { return cb.Raw().Before("gorm:raw").Register("db_metrics:before_raw", before) },
		func() error { return cb.Raw().After("gorm:raw").Register("db_metrics:after_raw", after("")) },
	}
	for _, register := range registrations {
		if err := register(); err != nil {
			return err
		}
	}
	return nil
}

func detectOperation(query string) string {
	query = strings.ToUpper(strings.TrimSpace(query))
	for _, op := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(query, op) {
			return op
		}
	}
	return "OTHER"
}

// RegisterDBMetrics installs query metrics on db and starts pool sampling.
// It returns nil when mp does not export metrics.
func RegisterDBMetrics(ctx context.Context, db *gorm.DB, mp *MeterProvider, logger *zap.Logger) (*DBMetrics, error) {
	if !mp.IsEnabled() {
		return nil, nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	m, err := NewDBMetrics(mp.Meter("db.client"), sqlDB, logger)
	if err != nil {
		return nil, err
	}
	if err := db.Use(m); err != nil {
		return nil, err
	}
	m.StartPoolStats(ctx)
	m.logger.Info("Database metrics registered", zap.Duration("pool_stats_interval", m.interval))
	return m, nil
}
