package config

import (
	"time"

	"github.com/zqshi/metricstd/internal/consistency"
	"github.com/zqshi/metricstd/internal/retry"
)

const (
	DefaultHistoryPath   = ".metricstd/history.db"
	DefaultNotifySubject = "metricstd.reports"
	DefaultNotifyTimeout = 5 * time.Second
	DefaultRetryBackoff  = retry.BackoffLinear
	DefaultRetryDelay    = time.Second
	DefaultWatchDebounce = 500 * time.Millisecond
	DefaultReportFormat  = consistency.FormatConsole
	DefaultScanRoot      = "."
	DefaultConfigVersion = "1"
	DefaultLoggingLevel  = LogLevelInfo
	DefaultLoggingFormat = LogFormatText
)

// applyDefaults fills every unset field.
func applyDefaults(c *Config) {
	if c.Version == "" {
		c.Version = DefaultConfigVersion
	}
	if c.Scan.Root == "" {
		c.Scan.Root = DefaultScanRoot
	}
	if c.Report.Format == "" {
		c.Report.Format = DefaultReportFormat
	}
	if c.History.Path == "" {
		c.History.Path = DefaultHistoryPath
	}
	if c.Notify.Subject == "" {
		c.Notify.Subject = DefaultNotifySubject
	}
	if c.Notify.Timeout == 0 {
		c.Notify.Timeout = DefaultNotifyTimeout
	}
	if c.Notify.Backoff == "" {
		c.Notify.Backoff = DefaultRetryBackoff
	}
	if c.Notify.RetryDelay == 0 {
		c.Notify.RetryDelay = DefaultRetryDelay
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = DefaultWatchDebounce
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLoggingLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLoggingFormat
	}
}
