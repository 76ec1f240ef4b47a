package gemini

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// singleShot authenticates requests and turns retryable HTTP statuses into transport
// errors. The REST client retries 503 through gax on its own; a transport error is
// returned to the caller as is, so one Complete means one request.
type singleShot struct {
	apiKey string
	base   http.RoundTripper
}

// StatusError is a 5xx or 429 answer from the Gemini API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gemini: http %d: %s", e.Code, e.Body)
}

func (t *singleShot) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("x-goog-api-key", t.apiKey)

	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	resp, err := base.RoundTrip(r)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
		return resp, nil
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}
