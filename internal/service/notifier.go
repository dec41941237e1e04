package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/atelierhq/atelier-api/internal/domain"
)

// NotificationResult reports delivery for a single recipient.
type NotificationResult struct {
	UserID uint
	Err    error
}

// Notifier delivers a rendered message to a recipient list. The services
// decide when to send and record the outcome; composing transport-level
// details is the implementation's problem.
type Notifier interface {
	Notify(ctx context.Context, recipients []domain.User, subject, body string) []NotificationResult
}

// LogNotifier writes notifications to the application log instead of
// delivering them. Stands in until a mail transport is wired up.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{
		logger: logger,
	}
}

func (n *LogNotifier) Notify(ctx context.Context, recipients []domain.User, subject, body string) []NotificationResult {
	results := make([]NotificationResult, 0, len(recipients))

	for _, recipient := range recipients {
		n.logger.Info("notification",
			zap.Uint("user_id", recipient.ID),
			zap.String("email", recipient.Email),
			zap.String("subject", subject),
			zap.String("body", body),
		)

		results = append(results, NotificationResult{UserID: recipient.ID})
	}

	return results
}
