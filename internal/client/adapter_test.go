package client

import (
	"context"
	"sync"
	"testing"
	"time"

	"sevalink/internal/models"
	"sevalink/internal/network"
	"sevalink/internal/queue"
	"sevalink/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu    sync.Mutex
	sent  []models.QueueItem
	errFn func(item models.QueueItem) error
}

func (r *recordingSender) send(ctx context.Context, item models.QueueItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.errFn != nil {
		if err := r.errFn(item); err != nil {
			return err
		}
	}
	r.sent = append(r.sent, item)
	return nil
}

func (r *recordingSender) sentIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.sent))
	for _, item := range r.sent {
		ids = append(ids, item.ID)
	}
	return ids
}

func newTestAdapter(t *testing.T, online bool) (*Adapter, *queue.Engine, *network.ManualMonitor, *recordingSender) {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	engine := queue.NewEngine(store.NewMemoryStore(), logger, nil, models.QueueConfig{})
	monitor := network.NewManualMonitor(network.State{IsOnline: online})
	drainer := queue.NewDrainer(engine, monitor, logger)
	sender := &recordingSender{}

	adapter := NewAdapter(engine, drainer, monitor, sender.send, 3600, logger)
	return adapter, engine, monitor, sender
}

func TestAdapterQueueMessageRefreshesStats(t *testing.T) {
	adapter, _, _, _ := newTestAdapter(t, false)
	ctx := context.Background()

	item, err := adapter.QueueMessage(ctx, models.OutgoingMessage{
		ConversationID: "conv-1",
		Content:        "hello acharya",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)

	stats := adapter.Stats()
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Pending)
}

func TestAdapterAutoDrainOnReconnect(t *testing.T) {
	adapter, _, monitor, sender := newTestAdapter(t, false)
	ctx := context.Background()

	require.NoError(t, adapter.Start(ctx))
	defer adapter.Stop()

	item, err := adapter.QueueMessage(ctx, models.OutgoingMessage{
		ConversationID: "conv-1",
		Content:        "queued while offline",
	})
	require.NoError(t, err)

	// Items wait out their initial 1s window before becoming eligible
	time.Sleep(1100 * time.Millisecond)

	monitor.Set(network.State{IsOnline: true, Type: "wifi"})

	require.Eventually(t, func() bool {
		return len(sender.sentIDs()) == 1
	}, 3*time.Second, 20*time.Millisecond, "reconnect should trigger an automatic drain")
	assert.Equal(t, []string{item.ID}, sender.sentIDs())

	items, err := adapter.QueuedMessages(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestAdapterDrainQueueManually(t *testing.T) {
	adapter, _, _, _ := newTestAdapter(t, true)
	ctx := context.Background()

	_, err := adapter.QueueMessage(ctx, models.OutgoingMessage{ConversationID: "conv-1"})
	require.NoError(t, err)

	time.Sleep(1100 * time.Millisecond)

	report, err := adapter.DrainQueue(ctx)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, 0, adapter.Stats().Total)
}

func TestAdapterQueuedMessagesConversationFilter(t *testing.T) {
	adapter, _, _, _ := newTestAdapter(t, false)
	ctx := context.Background()

	_, err := adapter.QueueMessage(ctx, models.OutgoingMessage{ConversationID: "conv-1", TempID: "a"})
	require.NoError(t, err)
	_, err = adapter.QueueMessage(ctx, models.OutgoingMessage{ConversationID: "conv-2", TempID: "b"})
	require.NoError(t, err)
	_, err = adapter.QueueMessage(ctx, models.OutgoingMessage{ConversationID: "conv-1", TempID: "c"})
	require.NoError(t, err)

	all, err := adapter.QueuedMessages(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	filtered, err := adapter.QueuedMessages(ctx, "conv-1")
	require.NoError(t, err)
	require.Len(t, filtered, 2)
	for _, item := range filtered {
		assert.Equal(t, "conv-1", item.ConversationID)
	}
}

func TestAdapterRemoveAndClear(t *testing.T) {
	adapter, _, _, _ := newTestAdapter(t, false)
	ctx := context.Background()

	item, err := adapter.QueueMessage(ctx, models.OutgoingMessage{ConversationID: "conv-1", TempID: "a"})
	require.NoError(t, err)
	_, err = adapter.QueueMessage(ctx, models.OutgoingMessage{ConversationID: "conv-1", TempID: "b"})
	require.NoError(t, err)

	require.NoError(t, adapter.RemoveMessage(ctx, item.ID))
	assert.Equal(t, 1, adapter.Stats().Total)

	require.NoError(t, adapter.ClearQueue(ctx))
	assert.Equal(t, 0, adapter.Stats().Total)
}

func TestAdapterIsOnlineFollowsMonitor(t *testing.T) {
	adapter, _, monitor, _ := newTestAdapter(t, false)

	assert.False(t, adapter.IsOnline())
	monitor.Set(network.State{IsOnline: true})
	assert.True(t, adapter.IsOnline())
}

func TestAdapterStartTwiceFails(t *testing.T) {
	adapter, _, _, _ := newTestAdapter(t, false)
	ctx := context.Background()

	require.NoError(t, adapter.Start(ctx))
	defer adapter.Stop()

	err := adapter.Start(ctx)
	require.Error(t, err)
}

func TestAdapterStopIsIdempotent(t *testing.T) {
	adapter, _, monitor, sender := newTestAdapter(t, false)
	ctx := context.Background()

	require.NoError(t, adapter.Start(ctx))
	adapter.Stop()
	adapter.Stop()

	_, err := adapter.QueueMessage(ctx, models.OutgoingMessage{ConversationID: "conv-1"})
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)

	// After Stop the reconnect listener is gone: no automatic drain
	monitor.Set(network.State{IsOnline: true})
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, sender.sentIDs())
}

func TestAdapterSweeperRetriesEligibleItems(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	engine := queue.NewEngine(store.NewMemoryStore(), logger, nil, models.QueueConfig{})
	monitor := network.NewManualMonitor(network.State{IsOnline: true})
	drainer := queue.NewDrainer(engine, monitor, logger)
	sender := &recordingSender{}

	// 1s sweep interval so the test observes a periodic pass
	adapter := NewAdapter(engine, drainer, monitor, sender.send, 1, logger)
	ctx := context.Background()

	require.NoError(t, adapter.Start(ctx))
	defer adapter.Stop()

	_, err := adapter.QueueMessage(ctx, models.OutgoingMessage{ConversationID: "conv-1"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(sender.sentIDs()) == 1
	}, 5*time.Second, 50*time.Millisecond, "sweeper should drain the item once its window opens")
}
