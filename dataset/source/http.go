package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/clusterkit/clusterkit/resource"
)

// HTTP fetches a dataset with a GET request.
type HTTP struct {
	url       string
	client    *http.Client
	resources *resource.Controller
}

// HTTPOption configures an HTTP source.
type HTTPOption func(*HTTP)

// WithClient overrides the HTTP client (defaults to http.DefaultClient).
func WithClient(c *http.Client) HTTPOption {
	return func(h *HTTP) {
		if c != nil {
			h.client = c
		}
	}
}

// WithResources throttles the download through the controller's IO
// rate limiter.
func WithResources(ctrl *resource.Controller) HTTPOption {
	return func(h *HTTP) {
		h.resources = ctrl
	}
}

// NewHTTP creates a Source for the given URL.
func NewHTTP(url string, optFns ...HTTPOption) *HTTP {
	h := &HTTP{url: url, client: http.DefaultClient}
	for _, fn := range optFns {
		if fn != nil {
			fn(h)
		}
	}
	return h
}

// Open issues the GET request. A 404 maps to ErrNotFound; any other
// non-2xx status is an error.
func (h *HTTP) Open(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, h.url)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: unexpected status %s", h.url, resp.Status)
	}

	if h.resources == nil {
		return resp.Body, nil
	}
	return &throttledReadCloser{ctx: ctx, rc: resp.Body, resources: h.resources}, nil
}

// Name returns the URL.
func (h *HTTP) Name() string {
	return h.url
}

// throttledReadCloser charges each read against the IO rate limiter.
type throttledReadCloser struct {
	ctx       context.Context
	rc        io.ReadCloser
	resources *resource.Controller
}

func (t *throttledReadCloser) Read(p []byte) (int, error) {
	n, err := t.rc.Read(p)
	if n > 0 {
		if lerr := t.resources.AcquireIO(t.ctx, n); lerr != nil {
			return n, errors.Join(err, lerr)
		}
	}
	return n, err
}

func (t *throttledReadCloser) Close() error {
	return t.rc.Close()
}
