package notification

import (
	"context"

	"go.uber.org/zap"
)

// LogDeliverer writes deliveries to the structured log instead of an external
// transport. It stands in wherever the real collaborator is not wired up
// (local development, operator dry runs).
type LogDeliverer struct {
	Logger *zap.Logger
}

func NewLogDeliverer(logger *zap.Logger) *LogDeliverer {
	return &LogDeliverer{Logger: logger}
}

func (d *LogDeliverer) Deliver(_ context.Context, recipients []string, templateTag string, payload map[string]string) error {
	d.Logger.Info("delivering notification",
		zap.Strings("recipients", recipients),
		zap.String("template", templateTag),
		zap.Any("payload", payload))
	return nil
}
