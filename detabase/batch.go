package detabase

import (
	"encoding/json"
	"fmt"
)

// MaxBatchSize is the store's per-request item cap for batch writes.
const MaxBatchSize = 25

// BatchResult holds the two partitions of a batch write. Every submitted
// item lands in exactly one of them.
type BatchResult[T any] struct {
	Processed []Item[T]
	Failed    []Item[T]
}

// Len returns the number of items across both partitions.
func (r BatchResult[T]) Len() int {
	return len(r.Processed) + len(r.Failed)
}

// batchItems is the {"items": [...]} shape used by requests and both response partitions.
type batchItems[T any] struct {
	Items []Item[T] `json:"items"`
}

type batchResponse[T any] struct {
	Processed *batchItems[T] `json:"processed"`
	Failed    *batchItems[T] `json:"failed"`
}

// ValidateBatch rejects batches above MaxBatchSize.
func ValidateBatch(n int) error {
	if n > MaxBatchSize {
		return fmt.Errorf("%w: got %d", ErrBatchTooLarge, n)
	}
	return nil
}

// PrepareBatch encodes every item and wraps them as {"items": [...]}.
// It stops at the first item that fails to encode.
func PrepareBatch[T any](items []Item[T]) ([]byte, error) {
	envelopes := make([]Envelope, 0, len(items))
	for i, item := range items {
		env, err := Encode(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		envelopes = append(envelopes, env)
	}

	body, err := json.Marshal(map[string][]Envelope{"items": envelopes})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerializationFailed, err)
	}
	return body, nil
}

// ReconcileBatch reads the processed and failed partitions of a batch
// write response. The store omits empty partitions, so a missing one is
// an empty slice.
func ReconcileBatch[U any](body []byte) (BatchResult[U], error) {
	var resp batchResponse[U]
	if err := json.Unmarshal(body, &resp); err != nil {
		return BatchResult[U]{}, fmt.Errorf("%w: %v", ErrResponseMalformed, err)
	}

	result := BatchResult[U]{
		Processed: []Item[U]{},
		Failed:    []Item[U]{},
	}
	if resp.Processed != nil && resp.Processed.Items != nil {
		result.Processed = resp.Processed.Items
	}
	if resp.Failed != nil && resp.Failed.Items != nil {
		result.Failed = resp.Failed.Items
	}
	return result, nil
}
