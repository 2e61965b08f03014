package gamesense

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"codeberg.org/mutker/hwoled/internal/errors"
	"codeberg.org/mutker/hwoled/internal/logger"
)

// Endpoint is a path on the display service.
type Endpoint string

const (
	EndpointMetadata      Endpoint = "game_metadata"
	EndpointBindEvent     Endpoint = "bind_game_event"
	EndpointRegisterEvent Endpoint = "register_game_event"
	EndpointGameEvent     Endpoint = "game_event"
	EndpointHeartbeat     Endpoint = "game_heartbeat"
	EndpointRemoveGame    Endpoint = "remove_game"
	EndpointRemoveEvent   Endpoint = "remove_game_event"
)

const (
	defaultTimeout  = 2 * time.Second
	maxErrorExcerpt = 512
)

// Poster sends one protocol document to an endpoint.
type Poster interface {
	Post(ctx context.Context, endpoint Endpoint, doc any) error
}

// Observer is notified about every request the client makes.
type Observer interface {
	ObserveRequest(endpoint Endpoint, err error, elapsed time.Duration)
}

// Client posts JSON documents to the display service over HTTP.
type Client struct {
	baseURL  string
	http     *http.Client
	logger   logger.Logger
	observer Observer
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithObserver registers a request observer.
func WithObserver(o Observer) ClientOption {
	return func(c *Client) {
		c.observer = o
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// NewClient returns a client for address, given as host:port or as a URL.
func NewClient(address string, log logger.Logger, opts ...ClientOption) (*Client, error) {
	errFactory := errors.New()

	address = strings.TrimSpace(address)
	if address == "" {
		return nil, errFactory.New(ErrInvalidAddress)
	}
	if !strings.Contains(address, "://") {
		address = "http://" + address
	}

	// The service is always local; never route it through a proxy.
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil

	c := &Client{
		baseURL: strings.TrimRight(address, "/"),
		http: &http.Client{
			Transport: transport,
			Timeout:   defaultTimeout,
		},
		logger: log,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// BaseURL returns the normalized service URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Post marshals doc, rewrites the wire field names and POSTs it. Any non-2xx
// status is returned as a *StatusError wrapped in ErrStatus.
func (c *Client) Post(ctx context.Context, endpoint Endpoint, doc any) (err error) {
	start := time.Now()
	if c.observer != nil {
		defer func() {
			c.observer.ObserveRequest(endpoint, err, time.Since(start))
		}()
	}

	errFactory := errors.New()

	body, err := Marshal(doc)
	if err != nil {
		return err
	}

	url := c.baseURL + "/" + string(endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errFactory.Wrap(ErrRequest, err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug().
		Str("endpoint", string(endpoint)).
		RawJSON("body", body).
		Msg("Posting document")

	resp, err := c.http.Do(req)
	if err != nil {
		return errFactory.Wrap(ErrRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorExcerpt))
		return errFactory.Wrap(ErrStatus, &StatusError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(excerpt)),
		})
	}

	_, _ = io.Copy(io.Discard, resp.Body)

	return nil
}
