package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/zqshi/metricstd/internal/consistency"
	"github.com/zqshi/metricstd/internal/foundation/errors"
	"github.com/zqshi/metricstd/internal/logfields"
)

// Header names set on every published message.
const (
	HeaderReportID = "Nats-Msg-Id"
	HeaderSeverity = "Metricstd-Highest-Severity"
)

// conn is the subset of *nats.Conn the publisher uses.
type conn interface {
	PublishMsg(msg *nats.Msg) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NATSPublisher publishes ReportEvents on a NATS subject.
type NATSPublisher struct {
	conn    conn
	subject string
	timeout time.Duration
}

// NewNATSPublisher connects to url. The returned publisher owns the connection.
func NewNATSPublisher(url, subject string, timeout time.Duration) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("metricstd"),
		nats.Timeout(timeout),
	)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryMessaging, "failed to connect to NATS").
			WithContext("url", url).Build()
	}

	slog.Info("NATS publisher initialized", logfields.Subject(subject))
	return newPublisher(nc, subject, timeout), nil
}

func newPublisher(c conn, subject string, timeout time.Duration) *NATSPublisher {
	return &NATSPublisher{conn: c, subject: subject, timeout: timeout}
}

// Publish sends the report summary and waits for the server to acknowledge
// the flush.
func (p *NATSPublisher) Publish(ctx context.Context, report *consistency.Report) error {
	if report == nil {
		return errors.ValidationError("no report to publish").Build()
	}

	event := NewReportEvent(report)
	data, err := json.Marshal(event)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal report event").Build()
	}

	msg := nats.NewMsg(p.subject)
	msg.Data = data
	msg.Header.Set(HeaderReportID, event.ReportID)
	if event.HighestSeverity != "" {
		msg.Header.Set(HeaderSeverity, event.HighestSeverity)
	}

	if err := p.conn.PublishMsg(msg); err != nil {
		return errors.WrapError(err, errors.CategoryMessaging, "failed to publish report event").
			WithContext("subject", p.subject).Build()
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return errors.WrapError(err, errors.CategoryMessaging, "failed to flush NATS connection").
			WithContext("subject", p.subject).Build()
	}

	slog.Debug("Published report event",
		logfields.ReportID(event.ReportID),
		logfields.Subject(p.subject),
		logfields.Count(event.TotalIssues))
	return nil
}

// Close closes the NATS connection.
func (p *NATSPublisher) Close() error {
	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}
