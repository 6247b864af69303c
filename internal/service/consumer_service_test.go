package service

import (
	"context"
	"testing"
	"time"

	"leaf-research-be/internal/pkg/logger"
	"leaf-research-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsumerService_CountsCompletedRuns(t *testing.T) {
	log := logger.NewNopLogger()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, events.NewWatermillLogger(log))
	defer pubSub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumer := NewConsumerService(events.NewWatermillSubscriber(pubSub, log), log)
	require.NoError(t, consumer.Consume(ctx))

	publisher := events.NewWatermillPublisher(pubSub)
	require.NoError(t, publisher.Publish(ctx, events.ResearchCompleted{
		ThreadID:        "a",
		ProcessingState: "research-pipeline",
		WebSources:      4,
		VectorSources:   2,
		Repaired:        true,
	}))
	require.NoError(t, publisher.Publish(ctx, events.ResearchCompleted{ThreadID: "b", ProcessingState: "conversation"}))

	require.Eventually(t, func() bool {
		return consumer.Stats().Total == 2
	}, 2*time.Second, 10*time.Millisecond)

	stats := consumer.Stats()
	assert.Equal(t, int64(1), stats.ByState["research-pipeline"])
	assert.Equal(t, int64(1), stats.ByState["conversation"])
	assert.Equal(t, int64(1), stats.Reconstructed)
	assert.Equal(t, int64(4), stats.WebSources)
	assert.Equal(t, int64(2), stats.VectorSources)
}

func TestConsumerService_IgnoresOtherEvents(t *testing.T) {
	cs := NewConsumerService(nil, logger.NewNopLogger()).(*consumerService)

	require.NoError(t, cs.handle(context.Background(), events.BaseEvent{Type: "thread.deleted"}))

	assert.Zero(t, cs.Stats().Total)
}
