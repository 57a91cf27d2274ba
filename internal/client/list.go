// ABOUTME: Decoding of list endpoints with inconsistent envelopes
// ABOUTME: Accepts a bare JSON array or an object exposing a content array

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrUnexpectedEnvelope is returned when a list endpoint answers with something
// that is neither an array nor an object carrying a content array.
var ErrUnexpectedEnvelope = errors.New("unexpected list response shape")

type contentEnvelope struct {
	Content json.RawMessage `json:"content"`
}

// DecodeList unwraps a list response. Order is preserved and an empty array
// yields an empty, non-nil slice.
func DecodeList[T any](data []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrUnexpectedEnvelope)
	}

	switch trimmed[0] {
	case '[':
		return decodeArray[T](trimmed)
	case '{':
		var env contentEnvelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("invalid response from backend: %w", err)
		}
		content := bytes.TrimSpace(env.Content)
		if len(content) == 0 || content[0] != '[' {
			return nil, fmt.Errorf("%w: object without content array", ErrUnexpectedEnvelope)
		}
		return decodeArray[T](content)
	default:
		return nil, fmt.Errorf("%w: %.20q", ErrUnexpectedEnvelope, trimmed)
	}
}

func decodeArray[T any](data []byte) ([]T, error) {
	items := []T{}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("invalid response from backend: %w", err)
	}
	return items, nil
}

// getList issues a GET and unwraps the list answer
func getList[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	req, err := c.NewRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	data, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	return DecodeList[T](data)
}
