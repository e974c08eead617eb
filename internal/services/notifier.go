package services

import (
	"context"

	"bilancio/internal/amqp"
	"bilancio/internal/log"
)

// Notifier fans a committed change out to the dashboard cache and, when a
// broker is configured, to the change exchange. Both targets are optional.
type Notifier struct {
	publisher  Publisher
	aggregator *Aggregator
	logger     *log.Logger
}

func NewNotifier(publisher Publisher, aggregator *Aggregator, logger *log.Logger) *Notifier {
	return &Notifier{
		publisher:  publisher,
		aggregator: aggregator,
		logger:     componentLogger(logger, log.ComponentAMQP),
	}
}

// Changed never fails: the write is already committed, so a broker outage is
// logged and the periodic resync catches up.
func (n *Notifier) Changed(ctx context.Context, userID int64, entity, operation string, entityID int64) {
	if n == nil {
		return
	}
	if n.aggregator != nil {
		n.aggregator.Invalidate(userID)
	}
	if n.publisher == nil {
		n.logger.DebugContext(ctx, "AMQP client not available, skipping change event",
			log.FieldEntity, entity,
			log.FieldEntityID, entityID)
		return
	}
	ev := amqp.NewChangeEvent(userID, entity, operation, entityID)
	if err := n.publisher.PublishChange(ctx, ev); err != nil {
		n.logger.ErrorContext(ctx, "Failed to publish change event",
			log.FieldUserID, userID,
			log.FieldEntity, entity,
			log.FieldOperation, operation,
			log.FieldEntityID, entityID,
			log.FieldError, err)
	}
}

func componentLogger(l *log.Logger, component string) *log.Logger {
	if l == nil {
		l = log.Discard()
	}
	return l.WithComponent(component)
}
