package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ConsoleMetrics records the console's own activity: probe runs and
// configuration writes.
type ConsoleMetrics struct {
	logger *zap.Logger

	probeRunsTotal       *Counter
	probeDuration        *Histogram
	settingsWritesTotal  *Counter
	storageFailuresTotal *Counter
}

// ConsoleMetricsConfig holds configuration for console metrics.
type ConsoleMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewConsoleMetrics creates a new ConsoleMetrics instance.
func NewConsoleMetrics(cfg ConsoleMetricsConfig) (*ConsoleMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cm := &ConsoleMetrics{logger: logger}

	var err error
	cm.probeRunsTotal, err = NewCounter(cfg.Meter,
		"console_probe_runs_total",
		"Total number of probe runs by probe and outcome",
		"{run}",
	)
	if err != nil {
		return nil, err
	}

	cm.probeDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "console_probe_duration_seconds",
		Description: "Duration of probe runs",
		Unit:        "s",
		Boundaries:  ProbeDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	cm.settingsWritesTotal, err = NewCounter(cfg.Meter,
		"console_settings_writes_total",
		"Total number of settings saves by section",
		"{write}",
	)
	if err != nil {
		return nil, err
	}

	cm.storageFailuresTotal, err = NewCounter(cfg.Meter,
		"console_storage_write_failures_total",
		"Total number of failed configuration storage writes",
		"{failure}",
	)
	if err != nil {
		return nil, err
	}

	logger.Info("Console metrics initialized")
	return cm, nil
}

// RecordProbe records one finished probe run.
func (cm *ConsoleMetrics) RecordProbe(ctx context.Context, probe string, ok bool, d time.Duration) {
	if cm == nil {
		return
	}
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	cm.probeRunsTotal.Inc(ctx, AttrProbe.String(probe), AttrOutcome.String(outcome))
	cm.probeDuration.RecordDuration(ctx, d, AttrProbe.String(probe))
}

// RecordSettingsWrite records a save of one settings section.
func (cm *ConsoleMetrics) RecordSettingsWrite(ctx context.Context, section string) {
	if cm == nil {
		return
	}
	cm.settingsWritesTotal.Inc(ctx, AttrSection.String(section))
}

// RecordStorageFailure records a failed configuration storage write.
func (cm *ConsoleMetrics) RecordStorageFailure(ctx context.Context) {
	if cm == nil {
		return
	}
	cm.storageFailuresTotal.Inc(ctx)
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewConsoleMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
