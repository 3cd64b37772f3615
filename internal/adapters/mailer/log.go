// Package mailer delivers outgoing mail, either through SMTP or into the application log.
package mailer

import (
	"context"

	"go.uber.org/zap"

	"github.com/climbing-section/backoffice/internal/ports/out/mailer"
)

// LogMailer writes messages to the logger instead of sending them. It is meant for
// development, where the activation link is read from the console.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, msg mailer.Message) error {
	_ = ctx
	m.logger.Info("outgoing mail",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Text),
	)
	return nil
}
