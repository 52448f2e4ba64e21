package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/pin-extract-go/internal/domain"
)

var boardContext = domain.PageContext{Type: domain.PageBoard, BoardName: "Cats"}

func TestSnapshotFeed_HoldsPinsWhileRunning(t *testing.T) {
	hm, d, _, s := newTestHarvestManager(t, 0)
	feed := NewSnapshotFeed(hm, s, boardURL, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go feed.Run(ctx)

	events, unsubscribe := s.Subscribe()
	defer unsubscribe()

	release := d.hold("https://x/a.jpg")
	feed.Add(boardContext, refs("https://x/a.jpg", "https://x/b.jpg", "https://x/c.jpg"))
	waitStarted(t, d, "https://x/a.jpg")

	// second pass arrives while the first batch is still in flight
	feed.Add(boardContext, refs("https://x/d.jpg"))
	assert.Equal(t, 1, feed.Pending())
	assert.Equal(t, 2, s.QueueLength())

	release()
	first := waitForEvent(t, events, EventBatchCompleted)
	assert.Equal(t, domain.Stats{Total: 3, Completed: 3}, first.Stats)

	second := waitForEvent(t, events, EventBatchCompleted)
	assert.Equal(t, domain.Stats{Total: 1, Completed: 1}, second.Stats)
	assert.Equal(t, []string{"https://x/a.jpg", "https://x/b.jpg", "https://x/c.jpg", "https://x/d.jpg"}, d.urls())
	assert.Zero(t, feed.Pending())
}

func TestSnapshotFeed_SubmitsWhenIdle(t *testing.T) {
	hm, d, notifier, s := newTestHarvestManager(t, 0)
	feed := NewSnapshotFeed(hm, s, boardURL, nil)
	events, unsubscribe := s.Subscribe()
	defer unsubscribe()

	feed.Add(boardContext, refs("https://x/a.jpg"))

	waitForEvent(t, events, EventBatchCompleted)
	assert.Equal(t, []string{"https://x/a.jpg"}, d.urls())
	assert.Equal(t, []string{"started 1 Pinterest/Cats"}, notifier.all())
}

func TestSnapshotFeed_CancelDiscardsHeldPins(t *testing.T) {
	hm, d, _, s := newTestHarvestManager(t, 0)
	feed := NewSnapshotFeed(hm, s, boardURL, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go feed.Run(ctx)

	release := d.hold("https://x/a.jpg")
	feed.Add(boardContext, refs("https://x/a.jpg", "https://x/b.jpg"))
	waitStarted(t, d, "https://x/a.jpg")
	feed.Add(boardContext, refs("https://x/c.jpg"))
	require.Equal(t, 1, feed.Pending())

	s.Cancel()
	require.Eventually(t, func() bool { return feed.Pending() == 0 }, 5*time.Second, 5*time.Millisecond)
	release()

	require.Eventually(t, func() bool { return len(d.urls()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"https://x/a.jpg"}, d.urls())
}
