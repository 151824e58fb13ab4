package detabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/raywall/deta-toolkit/transport"
)

const (
	opGet     = "get"
	opDelete  = "delete"
	opPut     = "put"
	opPutMany = "put_many"
	opInsert  = "insert"
	opUpdate  = "update"
)

// Get fetches the bare value stored under key. See DecodeSingle for how the
// value is read from the response.
//
// Errors: ErrCollectionNotBound, ErrRequestFailed, ErrItemNotFound, ErrResponseMalformed.
func Get[T any](ctx context.Context, c *Client, key string) (T, error) {
	var zero T
	env, status, err := c.fetch(ctx, key)
	if err != nil {
		return zero, err
	}
	v, err := DecodeSingle[T](env)
	if err != nil {
		return zero, c.opError(opGet, key, status, err)
	}
	return v, nil
}

// GetItem fetches the item stored under key, keeping its key.
func GetItem[T any](ctx context.Context, c *Client, key string) (Item[T], error) {
	env, status, err := c.fetch(ctx, key)
	if err != nil {
		return Item[T]{}, err
	}
	item, err := DecodeItem[T](env)
	if err != nil {
		return Item[T]{}, c.opError(opGet, key, status, err)
	}
	return item, nil
}

func (c *Client) fetch(ctx context.Context, key string) (Envelope, int, error) {
	u, err := c.itemURL(key)
	if err != nil {
		return nil, 0, c.opError(opGet, key, 0, err)
	}

	resp, err := c.send(ctx, opGet, key, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, err
	}
	if !resp.IsSuccess() {
		return nil, resp.StatusCode, c.opError(opGet, key, resp.StatusCode, ErrItemNotFound)
	}

	var env Envelope
	if err := json.Unmarshal(resp.Body, &env); err != nil || env == nil {
		return nil, resp.StatusCode, c.opError(opGet, key, resp.StatusCode, ErrResponseMalformed)
	}
	return env, resp.StatusCode, nil
}

// Delete removes the item stored under key. Deleting a missing key is not
// an error, and the response status is not inspected.
//
// Errors: ErrCollectionNotBound, ErrRequestFailed.
func (c *Client) Delete(ctx context.Context, key string) error {
	u, err := c.itemURL(key)
	if err != nil {
		return c.opError(opDelete, key, 0, err)
	}
	_, err = c.send(ctx, opDelete, key, http.MethodDelete, u, nil)
	return err
}

// Put stores an item, overwriting any item with the same key, and returns
// the stored key (generated by the store when item.Key is empty).
//
// Errors: ErrCollectionNotBound, ErrRequestMalformed, ErrRequestFailed,
// ErrBadRequest, ErrServerError, ErrResponseMalformed.
func Put[T any](ctx context.Context, c *Client, item Item[T]) (string, error) {
	u, err := c.itemsURL()
	if err != nil {
		return "", c.opError(opPut, item.Key, 0, err)
	}
	body, err := PrepareBatch([]Item[T]{item})
	if err != nil {
		return "", c.opError(opPut, item.Key, 0, err)
	}

	resp, err := c.send(ctx, opPut, item.Key, http.MethodPut, u, body)
	if err != nil {
		return "", err
	}
	if err := writeStatus(opPut, resp.StatusCode); err != nil {
		return "", c.opError(opPut, item.Key, resp.StatusCode, err)
	}

	result, err := ReconcileBatch[json.RawMessage](resp.Body)
	if err != nil {
		return "", c.opError(opPut, item.Key, resp.StatusCode, err)
	}
	switch {
	case len(result.Processed) > 0 && result.Processed[0].Key != "":
		return result.Processed[0].Key, nil
	case len(result.Failed) > 0:
		return "", c.opError(opPut, item.Key, resp.StatusCode, ErrServerError)
	default:
		return "", c.opError(opPut, item.Key, resp.StatusCode, ErrResponseMalformed)
	}
}

// PutMany stores up to MaxBatchSize items in one request, overwriting
// existing keys, and returns the processed and failed partitions decoded
// as U. An empty batch returns an empty result without a request.
//
// Errors: ErrBatchTooLarge, ErrCollectionNotBound, ErrRequestMalformed,
// ErrRequestFailed, ErrBadRequest, ErrServerError, ErrResponseMalformed.
func PutMany[T, U any](ctx context.Context, c *Client, items []Item[T]) (BatchResult[U], error) {
	if err := ValidateBatch(len(items)); err != nil {
		return BatchResult[U]{}, c.opError(opPutMany, "", 0, err)
	}
	u, err := c.itemsURL()
	if err != nil {
		return BatchResult[U]{}, c.opError(opPutMany, "", 0, err)
	}
	if len(items) == 0 {
		return BatchResult[U]{Processed: []Item[U]{}, Failed: []Item[U]{}}, nil
	}

	body, err := PrepareBatch(items)
	if err != nil {
		return BatchResult[U]{}, c.opError(opPutMany, "", 0, err)
	}

	resp, err := c.send(ctx, opPutMany, "", http.MethodPut, u, body)
	if err != nil {
		return BatchResult[U]{}, err
	}
	if err := writeStatus(opPutMany, resp.StatusCode); err != nil {
		return BatchResult[U]{}, c.opError(opPutMany, "", resp.StatusCode, err)
	}

	result, err := ReconcileBatch[U](resp.Body)
	if err != nil {
		return BatchResult[U]{}, c.opError(opPutMany, "", resp.StatusCode, err)
	}
	return result, nil
}

// Insert creates an item only if no item with the same key exists, and
// returns its key.
//
// Errors: ErrCollectionNotBound, ErrRequestMalformed, ErrRequestFailed,
// ErrKeyConflict, ErrBadRequest, ErrServerError, ErrResponseMalformed.
func Insert[T any](ctx context.Context, c *Client, item Item[T]) (string, error) {
	u, err := c.itemsURL()
	if err != nil {
		return "", c.opError(opInsert, item.Key, 0, err)
	}
	env, err := Encode(item)
	if err != nil {
		return "", c.opError(opInsert, item.Key, 0, err)
	}
	body, err := json.Marshal(map[string]Envelope{"item": env})
	if err != nil {
		return "", c.opError(opInsert, item.Key, 0, fmt.Errorf("%w: %v", ErrSerializationFailed, err))
	}

	resp, err := c.send(ctx, opInsert, item.Key, http.MethodPost, u, body)
	if err != nil {
		return "", err
	}
	if err := writeStatus(opInsert, resp.StatusCode); err != nil {
		return "", c.opError(opInsert, item.Key, resp.StatusCode, err)
	}

	var created struct {
		Key *string `json:"key"`
	}
	if err := json.Unmarshal(resp.Body, &created); err != nil || created.Key == nil {
		return "", c.opError(opInsert, item.Key, resp.StatusCode, ErrResponseMalformed)
	}
	return *created.Key, nil
}

// Update applies u to the item stored under key. A nil u sends an empty update.
//
// Errors: ErrCollectionNotBound, ErrRequestMalformed, ErrRequestFailed,
// ErrKeyNonexistent, ErrBadRequest, ErrServerError.
func (c *Client) Update(ctx context.Context, key string, u *Update) error {
	target, err := c.itemURL(key)
	if err != nil {
		return c.opError(opUpdate, key, 0, err)
	}
	if u == nil {
		u = NewUpdate()
	}
	body, err := u.Build()
	if err != nil {
		return c.opError(opUpdate, key, 0, err)
	}

	resp, err := c.send(ctx, opUpdate, key, http.MethodPatch, target, body)
	if err != nil {
		return err
	}
	if err := writeStatus(opUpdate, resp.StatusCode); err != nil {
		return c.opError(opUpdate, key, resp.StatusCode, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, op, key, method, u string, body []byte) (*transport.Response, error) {
	resp, err := c.sender.Send(ctx, &transport.Request{
		Method:  method,
		URL:     u,
		Headers: c.requestHeaders(),
		Body:    body,
	})
	if err != nil {
		return nil, c.opError(op, key, 0, fmt.Errorf("%w: %w", ErrRequestFailed, err))
	}
	if resp == nil {
		return nil, c.opError(op, key, 0, ErrRequestFailed)
	}
	return resp, nil
}

// writeStatus maps the status of a write (put, put_many, insert, update).
func writeStatus(op string, status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusBadRequest:
		return ErrBadRequest
	case status == http.StatusConflict && op == opInsert:
		return ErrKeyConflict
	case status == http.StatusNotFound && op == opUpdate:
		return ErrKeyNonexistent
	default:
		return ErrServerError
	}
}

func (c *Client) opError(op, key string, status int, err error) error {
	return &OpError{
		Op:         op,
		Base:       c.baseName,
		Key:        key,
		StatusCode: status,
		Err:        err,
	}
}
