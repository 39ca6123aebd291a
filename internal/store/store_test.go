package store

import (
	"context"
	"testing"

	"sevalink/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleItems() []models.QueueItem {
	return []models.QueueItem{
		{
			ID:             "item-1",
			ConversationID: "conv-1",
			Content:        "namaste",
			MessageType:    models.MessageTypeText,
			Timestamp:      1_700_000_000_000,
			NextAttemptAt:  1_700_000_001_000,
			Status:         models.StatusPending,
		},
		{
			ID:             "item-2",
			ConversationID: "conv-2",
			Content:        "puja booking details",
			MessageType:    models.MessageTypeText,
			Timestamp:      1_700_000_000_500,
			RetryCount:     2,
			NextAttemptAt:  1_700_000_010_000,
			Status:         models.StatusRetrying,
			LastError:      "connection reset",
		},
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, st.Save(ctx, sampleItems()))

	items, err := st.Load(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "item-1", items[0].ID)
	assert.Equal(t, models.StatusRetrying, items[1].Status)
	assert.Equal(t, 2, items[1].RetryCount)
	assert.Equal(t, "connection reset", items[1].LastError)
}

func TestMemoryStoreLoadEmptyWhenAbsent(t *testing.T) {
	st := NewMemoryStore()

	items, err := st.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMemoryStoreClear(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, st.Save(ctx, sampleItems()))
	require.NoError(t, st.Clear(ctx))

	items, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMemoryStoreCorruptRecordLoadsEmpty(t *testing.T) {
	st := NewMemoryStore()
	st.SetRaw([]byte(`{"version": not json`))

	items, err := st.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestDecodeQueueLegacyBareArray(t *testing.T) {
	legacy := []byte(`[{"id":"old-1","conversationId":"conv-1","content":"hello","messageType":"text","timestamp":1700000000000,"retryCount":0,"status":"pending"}]`)

	items, err := decodeQueue(legacy)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "old-1", items[0].ID)
	assert.Equal(t, models.StatusPending, items[0].Status)
}

func TestDecodeQueueVersionedEnvelope(t *testing.T) {
	data, err := encodeQueue(sampleItems())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"version":1`)

	items, err := decodeQueue(data)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestDecodeQueueRejectsUnknownShape(t *testing.T) {
	_, err := decodeQueue([]byte(`"just a string"`))
	require.Error(t, err)
}

func TestEncodeQueueNilBecomesEmptyArray(t *testing.T) {
	data, err := encodeQueue(nil)
	require.NoError(t, err)

	items, err := decodeQueue(data)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}
