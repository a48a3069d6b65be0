package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/goliatone/go-errors"
)

// HTTPProfileClient posts profile records to the external user-profile
// service. Any transport error or non-2xx response is reported as a plain
// failure; the saga treats all of them as "the remote write did not happen".
type HTTPProfileClient struct {
	endpoint string
	client   *http.Client
	logger   Logger
}

var _ ProfileCreator = (*HTTPProfileClient)(nil)

type HTTPProfileClientOption func(*HTTPProfileClient)

// NewHTTPProfileClient creates a client posting to the given endpoint. The
// default timeout bounds how long a hung profile service can hold the
// saga's pivot undecided.
func NewHTTPProfileClient(endpoint string, opts ...HTTPProfileClientOption) *HTTPProfileClient {
	c := &HTTPProfileClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 5 * time.Second},
		logger:   defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// WithProfileHTTPClient overrides the underlying http client
func WithProfileHTTPClient(client *http.Client) HTTPProfileClientOption {
	return func(c *HTTPProfileClient) {
		if client != nil {
			c.client = client
		}
	}
}

// WithProfileLogger overrides the client logger
func WithProfileLogger(logger Logger) HTTPProfileClientOption {
	return func(c *HTTPProfileClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// CreateProfile implements ProfileCreator
func (c *HTTPProfileClient) CreateProfile(ctx context.Context, req CreateProfileRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to encode profile request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to build profile request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(httpReq)
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "profile service unreachable")
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 4096))
		c.logger.Error("profile service rejected create for account %s: status %d", req.AccountID, res.StatusCode)
		return errors.New("profile service rejected create", errors.CategoryOperation)
	}

	return nil
}
