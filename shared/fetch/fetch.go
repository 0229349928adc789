// Package fetch wraps the outbound GET-and-decode every worker performs.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

type Options struct {
	Timeout time.Duration
	// RetryMax of 0 sends every request exactly once.
	RetryMax int
}

// StatusError is a completed request that came back outside 2xx.
type StatusError struct {
	URL        string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s returned %d: %s", e.URL, e.StatusCode, string(e.Body))
}

func NewClient(opts Options) *http.Client {
	rC := retryablehttp.NewClient()
	rC.Logger = nil
	rC.RetryMax = opts.RetryMax
	// hand 5xx responses back instead of swallowing them into a give-up error
	rC.ErrorHandler = retryablehttp.PassthroughErrorHandler

	client := rC.StandardClient()
	client.Timeout = opts.Timeout
	return client
}

// GetRaw issues one GET and returns the status code with the full body.
func GetRaw(ctx context.Context, client *http.Client, rawURL string, query url.Values) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("unable to build request(%s): %w", rawURL, err)
	}
	if len(query) > 0 {
		q := req.URL.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		req.URL.RawQuery = q.Encode()
	}

	resp, err := client.Do(req)
	if err != nil {
		// url.Error repeats the full url, credentials included
		for {
			ue, ok := err.(*url.Error)
			if !ok {
				break
			}
			err = ue.Err
		}
		return 0, nil, fmt.Errorf("unable to GET(%s): %w", redact(req.URL), err)
	}
	defer resp.Body.Close()

	b, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("unable to read response(%s): %w", redact(req.URL), err)
	}
	return resp.StatusCode, b, nil
}

// GetJSON decodes a 2xx body into v. Anything else is a *StatusError.
func GetJSON(ctx context.Context, client *http.Client, rawURL string, query url.Values, v interface{}) error {
	status, b, err := GetRaw(ctx, client, rawURL, query)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return &StatusError{URL: rawURL, StatusCode: status, Body: b}
	}

	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("unable to decode response(%s): %w", rawURL, err)
	}
	return nil
}

var secretParams = []string{"key", "appid", "api_key"}

// redact keeps credentials passed as query params out of errors and logs.
func redact(u *url.URL) string {
	c := *u
	q := c.Query()
	for _, p := range secretParams {
		if q.Get(p) != "" {
			q.Set(p, "REDACTED")
		}
	}
	c.RawQuery = q.Encode()
	return c.String()
}
