// Copyright 2025 Raywall Malheiros de Souza
// Licensed under the Mozilla Public License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.mozilla.org/en-US/MPL/2.0/
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package detabase

import (
	"errors"
	"fmt"
	"strings"
)

// Erros de configuração local (antes de qualquer chamada de rede).
var (
	// ErrCredentialMissing is returned when no project key was supplied.
	ErrCredentialMissing = errors.New("detabase: project key not found")

	// ErrCredentialInvalid is returned when the project key has characters
	// outside ASCII alphanumerics and "_.-~".
	ErrCredentialInvalid = errors.New("detabase: invalid project key")

	// ErrTransportInit is returned when the HTTP sender cannot be built.
	ErrTransportInit = errors.New("detabase: error while initializing transport")
)

// Erros das operações sobre uma Base.
var (
	// ErrCollectionNotBound means the client was never bound to a Base.
	ErrCollectionNotBound = errors.New("detabase: base name not present")

	// ErrRequestFailed means the exchange did not complete (network, DNS, cancelled context).
	ErrRequestFailed = errors.New("detabase: error while sending request")

	// ErrItemNotFound is returned by fetches on any non-2xx status.
	ErrItemNotFound = errors.New("detabase: item not found")

	// ErrKeyConflict is returned by Insert when the key already exists.
	ErrKeyConflict = errors.New("detabase: key already exists")

	// ErrKeyNonexistent is returned by Update when the key does not exist.
	ErrKeyNonexistent = errors.New("detabase: key doesn't exist")

	// ErrBadRequest is returned on HTTP 400. The store answers 400 when a
	// request carries more than 25 items, exceeds 16 MB, holds an item
	// above 400 KB or repeats a key.
	ErrBadRequest = errors.New("detabase: bad request")

	// ErrServerError covers every other unexpected status.
	ErrServerError = errors.New("detabase: server error")

	// ErrBatchTooLarge is returned before sending a batch above MaxBatchSize.
	ErrBatchTooLarge = errors.New("detabase: batch exceeds 25 items")

	// ErrRequestMalformed means the request body could not be serialized.
	ErrRequestMalformed = errors.New("detabase: JSON serializing failed")

	// ErrResponseMalformed means the response body did not have the expected shape.
	ErrResponseMalformed = errors.New("detabase: JSON deserializing failed")
)

// Erros do codec. Todos são também ErrRequestMalformed ou ErrResponseMalformed
// via errors.Is.
var (
	ErrSerializationFailed   = fmt.Errorf("%w: value cannot be encoded", ErrRequestMalformed)
	ErrDeserializationFailed = fmt.Errorf("%w: value cannot be decoded", ErrResponseMalformed)
	ErrKeyMissing            = fmt.Errorf("%w: key field missing", ErrResponseMalformed)
)

// OpError describes a failed operation against a Base.
//
// Err always wraps one of the sentinels above, so callers can branch with
// errors.Is(err, detabase.ErrKeyConflict) and still log the full context.
type OpError struct {
	// Op is the operation name: get, delete, put, put_many, insert or update.
	Op string
	// Base is the bound Base name, empty when unbound.
	Base string
	// Key is the item key when the operation targets a single key.
	Key string
	// StatusCode is the HTTP status, zero when no response was received.
	StatusCode int
	// Err is the underlying error.
	Err error
}

// Error renders e.g. `detabase: insert main/id1 (status 409): detabase: key already exists`.
func (e *OpError) Error() string {
	var b strings.Builder
	b.WriteString("detabase: ")
	b.WriteString(e.Op)
	if e.Base != "" {
		b.WriteString(" ")
		b.WriteString(e.Base)
		if e.Key != "" {
			b.WriteString("/")
			b.WriteString(e.Key)
		}
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

// Unwrap returns the wrapped error.
func (e *OpError) Unwrap() error {
	return e.Err
}
