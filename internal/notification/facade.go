package notification

import (
	"context"

	"github.com/rbritto/stockflow/internal/observability"
	"github.com/rbritto/stockflow/internal/pkg/logging"

	"go.uber.org/zap"
)

// Facade fans one message out through every configured channel in order. One
// channel's failure never prevents attempting the next; the send only fails
// as a whole when all channels fail.
type Facade struct {
	channels []Channel
	log      *zap.Logger
	sent     observability.Counter
	failed   observability.Counter
}

func NewFacade(channels []Channel, logger *zap.Logger, metrics observability.Metrics) *Facade {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = observability.NopMetrics()
	}
	return &Facade{
		channels: channels,
		log:      logger.With(zap.String("component", "notification_facade")),
		sent:     metrics.Counter(observability.MNotificationSent),
		failed:   metrics.Counter(observability.MNotificationFailed),
	}
}

// Send attempts delivery on every channel. An empty recipient or an empty
// channel set is a logged no-op, not a failure.
func (f *Facade) Send(ctx context.Context, to, subject, body string) error {
	logger := f.log
	if l := logging.FromContext(ctx); l != zap.L() {
		logger = l.With(zap.String("component", "notification_facade"))
	}

	if to == "" {
		logger.Warn("notification_skipped_no_recipient", zap.String("subject", subject))
		return nil
	}
	if len(f.channels) == 0 {
		logger.Warn("notification_skipped_no_channels", zap.String("subject", subject))
		return nil
	}

	var causes []error
	for _, ch := range f.channels {
		if err := ch.Send(ctx, to, subject, body); err != nil {
			causes = append(causes, err)
			f.failed.Add(1, observability.L("channel", ch.Name()))
			logger.Error("notification_channel_failed",
				zap.String("channel", ch.Name()),
				zap.Error(err),
			)
			continue
		}
		f.sent.Add(1, observability.L("channel", ch.Name()))
	}

	if len(causes) == len(f.channels) {
		return &DeliveryError{Causes: causes}
	}
	return nil
}
