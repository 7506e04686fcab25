package config

import (
	"net/url"
	"strings"

	"github.com/zqshi/metricstd/internal/consistency"
	"github.com/zqshi/metricstd/internal/foundation/errors"
)

// Validate checks a normalized, defaulted configuration.
func Validate(c *Config) error {
	if c == nil {
		return errors.ConfigError("configuration is nil").Build()
	}
	if _, err := consistency.ParseFormat(string(c.Report.Format)); err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "invalid report format").
			WithContext("field", "report.format").Build()
	}
	if c.Notify.NATSURL != "" {
		if err := validateNATSURL(c.Notify.NATSURL); err != nil {
			return err
		}
		if strings.ContainsAny(c.Notify.Subject, " \t*>") {
			return errors.ConfigError("notify.subject must be a literal NATS subject").
				WithContext("subject", c.Notify.Subject).Build()
		}
	}
	if c.Notify.Retries < 0 {
		return errors.ConfigError("notify.retries must not be negative").
			WithContext("retries", c.Notify.Retries).Build()
	}
	if c.History.Enabled && strings.TrimSpace(c.History.Path) == "" {
		return errors.ConfigError("history.path is required when history is enabled").Build()
	}
	if c.Watch.Interval < 0 {
		return errors.ConfigError("watch.interval must not be negative").
			WithContext("interval", c.Watch.Interval.String()).Build()
	}
	return nil
}

// validateNATSURL accepts a comma-separated server list.
func validateNATSURL(raw string) error {
	for _, server := range strings.Split(raw, ",") {
		u, err := url.Parse(strings.TrimSpace(server))
		if err != nil || u.Host == "" {
			return errors.ConfigError("invalid notify.nats_url").
				WithContext("url", server).Build()
		}
		switch u.Scheme {
		case "nats", "tls", "ws", "wss":
		default:
			return errors.ConfigError("unsupported notify.nats_url scheme").
				WithContext("url", server).WithContext("scheme", u.Scheme).Build()
		}
	}
	return nil
}
