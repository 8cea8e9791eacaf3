package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const maxResponseBody = 64 << 10

type errorBody struct {
	Message string `json:"message"`
	Field   string `json:"field"`
}

// do sends body as JSON and returns the status and raw response body.
func (c *Client) do(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, r)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, &ServerError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return resp.StatusCode, nil, &ServerError{Status: resp.StatusCode, Err: err}
	}
	return resp.StatusCode, data, nil
}

func decodeError(status int, data []byte) errorBody {
	var eb errorBody
	if err := json.Unmarshal(data, &eb); err != nil || eb.Message == "" {
		eb.Message = http.StatusText(status)
	}
	return eb
}

func unexpected(status int, data []byte) error {
	return &ServerError{Status: status, Message: decodeError(status, data).Message}
}
