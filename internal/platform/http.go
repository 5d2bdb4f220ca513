// File: internal/platform/http.go
package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.code)
}

// doGet issues a GET request bounded by the caller's context deadline
func doGet(ctx context.Context, client *http.Client, endpoint string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &statusError{code: resp.StatusCode}
	}

	return io.ReadAll(resp.Body)
}

// wrapFetchError classifies a transport error into a FetchError
func wrapFetchError(platform string, err error) *FetchError {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewFetchError(platform, ReasonTimeout, err)
	}
	var statusErr *statusError
	if errors.As(err, &statusErr) {
		return NewFetchError(platform, ReasonStatus, err)
	}
	return NewFetchError(platform, ReasonNetwork, err)
}
