package service

import (
	"context"
	"sync"

	"leaf-research-be/internal/pkg/logger"
	"leaf-research-be/pkg/events"
	leafnats "leaf-research-be/pkg/nats"
)

// EventSource delivers events of one type to a handler until ctx ends.
type EventSource interface {
	Subscribe(ctx context.Context, eventType string, handler events.Handler) error
}

// NatsEventSource binds a JetStream subscriber to a durable consumer name.
type NatsEventSource struct {
	Subscriber *leafnats.Subscriber
	Durable    string
}

func (n NatsEventSource) Subscribe(ctx context.Context, eventType string, handler events.Handler) error {
	return n.Subscriber.Subscribe(ctx, eventType, n.Durable, leafnats.EventHandler(handler))
}

// ResearchStats aggregates completed pipeline runs since start.
type ResearchStats struct {
	Total         int64            `json:"total"`
	ByState       map[string]int64 `json:"byState"`
	Reconstructed int64            `json:"reconstructed"`
	WebSources    int64            `json:"webSources"`
	VectorSources int64            `json:"vectorSources"`
}

type IConsumerService interface {
	Consume(ctx context.Context) error
	Stats() ResearchStats
}

type consumerService struct {
	source EventSource
	logger logger.ILogger

	mu    sync.Mutex
	stats ResearchStats
}

func NewConsumerService(source EventSource, logger logger.ILogger) IConsumerService {
	return &consumerService{
		source: source,
		logger: logger,
		stats:  ResearchStats{ByState: map[string]int64{}},
	}
}

// Consume registers the stats handler. Delivery continues in the background
// until ctx ends.
func (cs *consumerService) Consume(ctx context.Context) error {
	if cs.source == nil {
		cs.logger.Warn("CONSUMER", "No event source configured, research stats disabled", nil)
		return nil
	}
	return cs.source.Subscribe(ctx, events.TypeResearchCompleted, cs.handle)
}

func (cs *consumerService) handle(_ context.Context, event events.Event) error {
	completed, ok := events.ResearchCompletedFrom(event)
	if !ok {
		return nil
	}

	cs.mu.Lock()
	cs.stats.Total++
	cs.stats.ByState[completed.ProcessingState]++
	if completed.Repaired {
		cs.stats.Reconstructed++
	}
	cs.stats.WebSources += int64(completed.WebSources)
	cs.stats.VectorSources += int64(completed.VectorSources)
	cs.mu.Unlock()

	cs.logger.Info("CONSUMER", "Research completed", map[string]interface{}{
		"thread_id":        completed.ThreadID,
		"processing_state": completed.ProcessingState,
		"web_sources":      completed.WebSources,
		"image_sources":    completed.ImageSources,
		"vector_sources":   completed.VectorSources,
		"repaired":         completed.Repaired,
	})
	return nil
}

func (cs *consumerService) Stats() ResearchStats {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	out := cs.stats
	out.ByState = make(map[string]int64, len(cs.stats.ByState))
	for k, v := range cs.stats.ByState {
		out.ByState[k] = v
	}
	return out
}
