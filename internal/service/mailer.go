package service

import (
	"context"

	"github.com/dtroode/noteboard/internal/logger"
)

// LogMailer writes outgoing mail to the log instead of delivering it.
type LogMailer struct {
	from   string
	logger *logger.Logger
}

func NewLogMailer(from string, logger *logger.Logger) *LogMailer {
	return &LogMailer{from: from, logger: logger}
}

func (m *LogMailer) SendVerification(_ context.Context, to, link string) error {
	m.logger.Info("Mailer: verification email",
		"from", m.from,
		"to", to,
		"link", link)
	return nil
}
