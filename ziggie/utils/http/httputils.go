package httputils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bad status: %d", e.StatusCode)
}

func newRequest(ctx context.Context, url string, headers map[string]string, body any) (*http.Request, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

func PostJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, body any, resp any) error {
	req, err := newRequest(ctx, url, headers, body)
	if err != nil {
		return err
	}
	r, err := client.Do(req)
	if err != nil {
		return err
	}
	defer r.Body.Close()
	if r.StatusCode < 200 || r.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(r.Body, 4096))
		return &StatusError{StatusCode: r.StatusCode, Body: string(raw)}
	}
	if resp != nil {
		return json.NewDecoder(r.Body).Decode(resp)
	}
	return nil
}

func PostStream(ctx context.Context, client *http.Client, url string, headers map[string]string, body any) (io.ReadCloser, error) {
	req, err := newRequest(ctx, url, headers, body)
	if err != nil {
		return nil, err
	}
	r, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if r.StatusCode < 200 || r.StatusCode >= 300 {
		defer r.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(r.Body, 4096))
		return nil, &StatusError{StatusCode: r.StatusCode, Body: string(raw)}
	}
	return r.Body, nil
}
