// Package client holds the outbound HTTP clients of the SMP: the SML
// participant management service and the Directory indexer.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

const (
	defaultConnectTimeout = 5 * time.Second
	defaultRequestTimeout = 30 * time.Second
	defaultUserAgent      = "smp/1.0"
	maxResponseSize       = 1 << 20
)

type Options struct {
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
	// Certificate is presented when the remote side asks for client auth.
	Certificate *tls.Certificate
	UserAgent   string
}

// Client is an http.Client with separate connect and request timeouts that
// tags every request with its user agent.
type Client struct {
	client    *http.Client
	transport http.RoundTripper
	userAgent string
}

func New(opts Options) *Client {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = defaultConnectTimeout
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   opts.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.TLSHandshakeTimeout = opts.ConnectTimeout
	if opts.Certificate != nil {
		transport.TLSClientConfig = &tls.Config{
			Certificates: []tls.Certificate{*opts.Certificate},
			MinVersion:   tls.VersionTLS12,
		}
	}

	c := &Client{
		transport: transport,
		userAgent: opts.UserAgent,
	}
	c.client = &http.Client{
		Timeout:   opts.RequestTimeout,
		Transport: c,
	}
	return c
}

func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.userAgent)
	return c.transport.RoundTrip(req)
}

// StatusError is returned for non-2xx responses that carry no better error.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status code: %d: %s", e.StatusCode, e.Body)
}

// Do sends body to url and returns status code and response body. It does
// not retry.
func (c *Client) Do(ctx context.Context, method, url string, header http.Header, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, errors.Wrap(err, "failed to create request")
	}
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, errors.Wrap(err, "failed to perform request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return resp.StatusCode, nil, errors.Wrap(err, "failed to read response body")
	}
	return resp.StatusCode, respBody, nil
}
