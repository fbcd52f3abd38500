package llm

import (
	"bytes"
	"context"
	"io"
	"net/http"
)

// maxErrorBody bounds how much of a failed response is kept.
const maxErrorBody = 64 << 10

type errorBodyKey struct{}

// errorBody receives the raw body of a non-2xx response for one call.
type errorBody struct {
	data []byte
}

func (b *errorBody) String() string {
	if b == nil {
		return ""
	}
	return string(b.data)
}

// withErrorBody attaches a fresh errorBody to ctx. The SDK clients carry the
// context into the outgoing request, where errorBodyTransport fills it.
func withErrorBody(ctx context.Context) (context.Context, *errorBody) {
	b := &errorBody{}
	return context.WithValue(ctx, errorBodyKey{}, b), b
}

// errorBodyTransport copies non-2xx response bodies into the request's
// errorBody and hands the SDK an identical body to decode.
type errorBodyTransport struct {
	base http.RoundTripper
}

func (t errorBodyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	resp, err := base.RoundTrip(req)
	if err != nil || resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, err
	}
	sink, _ := req.Context().Value(errorBodyKey{}).(*errorBody)
	if sink == nil || resp.Body == nil {
		return resp, nil
	}

	data, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}
	sink.data = data
	resp.Body = io.NopCloser(bytes.NewReader(data))
	return resp, nil
}

func newErrorBodyClient() *http.Client {
	return &http.Client{Transport: errorBodyTransport{}}
}
