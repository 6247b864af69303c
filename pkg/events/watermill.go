package events

import (
	"context"
	"fmt"

	"leaf-research-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// WatermillPublisher publishes events on a watermill publisher, one topic per
// event type.
type WatermillPublisher struct {
	pub message.Publisher
}

func NewWatermillPublisher(pub message.Publisher) *WatermillPublisher {
	return &WatermillPublisher{pub: pub}
}

func (p *WatermillPublisher) Publish(ctx context.Context, event Event) error {
	data, err := Marshal(event)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.SetContext(ctx)
	if err := p.pub.Publish(event.EventType(), msg); err != nil {
		return fmt.Errorf("failed to publish event to topic %s: %w", event.EventType(), err)
	}
	return nil
}

// Handler processes one decoded event.
type Handler func(ctx context.Context, event Event) error

// WatermillSubscriber feeds events from a watermill subscriber to a handler.
// Undecodable messages are acked and dropped; handler errors nack.
type WatermillSubscriber struct {
	sub    message.Subscriber
	logger logger.ILogger
}

func NewWatermillSubscriber(sub message.Subscriber, log logger.ILogger) *WatermillSubscriber {
	return &WatermillSubscriber{sub: sub, logger: log}
}

func (s *WatermillSubscriber) Subscribe(ctx context.Context, eventType string, handler Handler) error {
	messages, err := s.sub.Subscribe(ctx, eventType)
	if err != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", eventType, err)
	}

	go func() {
		for msg := range messages {
			s.process(ctx, msg, handler)
		}
	}()
	return nil
}

func (s *WatermillSubscriber) process(ctx context.Context, msg *message.Message, handler Handler) {
	event, err := Unmarshal(msg.Payload)
	if err != nil {
		s.logger.Warn("EVENTS", "Dropping undecodable event", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		msg.Ack()
		return
	}

	if err := handler(ctx, event); err != nil {
		s.logger.Error("EVENTS", "Event handler failed", map[string]interface{}{
			"message_id": msg.UUID,
			"type":       event.EventType(),
			"error":      err.Error(),
		})
		msg.Nack()
		return
	}
	msg.Ack()
}

// WatermillLogger routes watermill's internal logs into the app logger.
type WatermillLogger struct {
	log    logger.ILogger
	fields watermill.LogFields
}

func NewWatermillLogger(log logger.ILogger) *WatermillLogger {
	return &WatermillLogger{log: log}
}

func (l *WatermillLogger) details(fields watermill.LogFields) map[string]interface{} {
	out := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		out[k] = v
	}
	for k, v := range fields {
		out[k] = v
	}
	return out
}

func (l *WatermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	d := l.details(fields)
	if err != nil {
		d["error"] = err.Error()
	}
	l.log.Error("EVENTS", msg, d)
}

func (l *WatermillLogger) Info(msg string, fields watermill.LogFields) {
	l.log.Info("EVENTS", msg, l.details(fields))
}

func (l *WatermillLogger) Debug(msg string, fields watermill.LogFields) {
	l.log.Debug("EVENTS", msg, l.details(fields))
}

func (l *WatermillLogger) Trace(msg string, fields watermill.LogFields) {
	l.log.Debug("EVENTS", msg, l.details(fields))
}

func (l *WatermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &WatermillLogger{log: l.log, fields: l.details(fields)}
}
