package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/zqshi/metricstd/internal/consistency"
	"github.com/zqshi/metricstd/internal/retry"
)

// NormalizationResult captures adjustments and warnings from normalization.
type NormalizationResult struct {
	Warnings []string
}

// Normalize canonicalizes enumerated fields and trims lists in place. It runs
// before defaults so canonical values drive them.
func Normalize(c *Config) *NormalizationResult {
	res := &NormalizationResult{}
	if c == nil {
		return res
	}

	if raw := strings.TrimSpace(string(c.Logging.Level)); raw != "" {
		if lvl, ok := logLevelNormalizer.Lookup(raw); ok {
			if c.Logging.Level != lvl {
				res.Warnings = append(res.Warnings, warnChanged("logging.level", c.Logging.Level, lvl))
			}
			c.Logging.Level = lvl
		} else {
			res.Warnings = append(res.Warnings, warnUnknown("logging.level", raw, string(LogLevelInfo)))
			c.Logging.Level = LogLevelInfo
		}
	}

	if raw := strings.TrimSpace(string(c.Logging.Format)); raw != "" {
		if f, ok := logFormatNormalizer.Lookup(raw); ok {
			if c.Logging.Format != f {
				res.Warnings = append(res.Warnings, warnChanged("logging.format", c.Logging.Format, f))
			}
			c.Logging.Format = f
		} else {
			res.Warnings = append(res.Warnings, warnUnknown("logging.format", raw, string(LogFormatText)))
			c.Logging.Format = LogFormatText
		}
	}

	// An unknown report format is left for Validate to reject.
	if raw := strings.TrimSpace(string(c.Report.Format)); raw != "" {
		if f, err := consistency.ParseFormat(raw); err == nil && f != c.Report.Format {
			res.Warnings = append(res.Warnings, warnChanged("report.format", c.Report.Format, f))
			c.Report.Format = f
		}
	}

	if raw := strings.TrimSpace(string(c.Notify.Backoff)); raw != "" {
		if m, err := retry.ParseBackoffMode(raw); err == nil {
			if m != c.Notify.Backoff {
				res.Warnings = append(res.Warnings, warnChanged("notify.backoff", c.Notify.Backoff, m))
			}
			c.Notify.Backoff = m
		} else {
			res.Warnings = append(res.Warnings, warnUnknown("notify.backoff", raw, string(retry.BackoffLinear)))
			c.Notify.Backoff = retry.BackoffLinear
		}
	}

	c.Scan.SkipDirs = cleanList(c.Scan.SkipDirs, nil)
	c.Scan.Extensions = cleanList(c.Scan.Extensions, func(ext string) string {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		return strings.ToLower(ext)
	})
	c.Registry.Files = cleanList(c.Registry.Files, filepath.Clean)

	if c.Notify.Timeout < 0 {
		c.Notify.Timeout = 0
	}
	if c.Notify.RetryDelay < 0 {
		c.Notify.RetryDelay = 0
	}
	if c.Watch.Debounce < 0 {
		c.Watch.Debounce = 0
	}
	return res
}

// cleanList trims entries, drops blanks and duplicates, and applies fn.
func cleanList(in []string, fn func(string) string) []string {
	if len(in) == 0 {
		return in
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if fn != nil {
			s = fn(s)
		}
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func warnChanged(field string, from, to any) string {
	return fmt.Sprintf("normalized %s from '%v' to '%v'", field, from, to)
}

func warnUnknown(field, value, def string) string {
	return fmt.Sprintf("unknown %s '%s', defaulting to %s", field, value, def)
}
