package store

import (
	"context"
	"encoding/json"
	"fmt"

	"sevalink/internal/constants"
	"sevalink/internal/models"
)

// Store is the durable home of the offline queue. The serialized queue
// lives under one well-known key; there are no partial updates — every
// mutation reads the full record, edits in memory and writes it back.
type Store interface {
	// Load returns the decoded queue, or an empty queue when the record is
	// absent or corrupt. Decode failures never propagate to the caller.
	Load(ctx context.Context) ([]models.QueueItem, error)
	// Save serializes and atomically overwrites the entire record. A
	// failure here propagates: losing a write silently would corrupt the
	// queue's durability guarantees.
	Save(ctx context.Context, items []models.QueueItem) error
	// Clear deletes the persisted record.
	Clear(ctx context.Context) error
	Close() error
}

// queueEnvelope versions the persisted record so future field changes can
// migrate on-device queues instead of misreading them.
type queueEnvelope struct {
	Version int                `json:"version"`
	Items   []models.QueueItem `json:"items"`
}

func encodeQueue(items []models.QueueItem) ([]byte, error) {
	if items == nil {
		items = []models.QueueItem{}
	}
	data, err := json.Marshal(queueEnvelope{
		Version: constants.QueueSchemaVersion,
		Items:   items,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode queue record: %w", err)
	}
	return data, nil
}

// decodeQueue accepts the current envelope and the legacy bare-array
// format (version 0). Any other shape is treated as corrupt.
func decodeQueue(data []byte) ([]models.QueueItem, error) {
	var env queueEnvelope
	if err := json.Unmarshal(data, &env); err == nil && env.Version > 0 {
		return env.Items, nil
	}

	var legacy []models.QueueItem
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, fmt.Errorf("failed to decode queue record: %w", err)
	}
	return legacy, nil
}
