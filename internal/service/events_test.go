package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stalledPublisher struct {
	deadline time.Time
	hasDL    bool
	ctxErr   error
}

func (p *stalledPublisher) PublishEvent(ctx context.Context, _, _ string, _ any) error {
	p.deadline, p.hasDL = ctx.Deadline()
	p.ctxErr = ctx.Err()
	return errors.New("broker down")
}

func TestPublish_BoundedAndDetached(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &stalledPublisher{}
	start := time.Now()
	publish(ctx, p, "order_events", "k", OrderEvent{Type: "order_created"})

	require.True(t, p.hasDL)
	assert.WithinDuration(t, start.Add(publishTimeout), p.deadline, time.Second)
	assert.NoError(t, p.ctxErr)
}

func TestPublish_NilPublisher(t *testing.T) {
	t.Parallel()
	assert.NotPanics(t, func() {
		publish(context.Background(), nil, "order_events", "k", OrderEvent{})
	})
}
