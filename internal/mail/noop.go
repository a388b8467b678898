package mail

import (
	"context"

	"github.com/dmitrijs2005/dayplanner/internal/logging"
)

// LogSender writes messages to the log instead of delivering them. Used when
// no SMTP relay is configured, typically in development.
type LogSender struct {
	logger logging.Logger
}

func NewLogSender(logger logging.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, to, subject, body string) error {
	s.logger.Info(ctx, "mail delivery skipped, no relay configured",
		"to", to, "subject", subject, "body", body)
	return nil
}
