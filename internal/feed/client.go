package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"mbtamap.transit/internal/logging"
)

var ErrUnexpectedStatus = errors.New("unexpected feed response status")

type Format string

const (
	FormatJSON   Format = "json"
	FormatGTFSRT Format = "gtfsrt"
)

const (
	DefaultTimeout = 10 * time.Second
	DefaultRetries = 2
)

// Config describes where and how the feed is fetched.
type Config struct {
	URL             string
	Format          Format
	Timeout         time.Duration
	Retries         int
	MaxRetryElapsed time.Duration
	AuthHeaderKey   string
	AuthHeaderValue string
}

// Client fetches and decodes the vehicle position feed.
type Client struct {
	config     Config
	httpClient *http.Client
	headsigns  Headsigns
	logger     *slog.Logger
	now        func() time.Time
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithHeadsigns enables trip headsign enrichment.
func WithHeadsigns(h Headsigns) Option {
	return func(c *Client) { c.headsigns = h }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func NewClient(config Config, opts ...Option) *Client {
	if config.Format == "" {
		config.Format = FormatJSON
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Retries < 0 {
		config.Retries = 0
	}

	c := &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(slog.String("component", "feed_client"))
	return c
}

// Fetch downloads and decodes one snapshot. Transport failures and 5xx
// responses are retried up to Config.Retries times with exponential backoff.
func (c *Client) Fetch(ctx context.Context) (*Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	if c.config.MaxRetryElapsed > 0 {
		b.MaxElapsedTime = c.config.MaxRetryElapsed
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.config.Retries)), ctx)

	var body []byte
	err := backoff.RetryNotify(
		func() error {
			var err error
			body, err = c.download(ctx)
			return err
		},
		policy,
		func(err error, d time.Duration) {
			c.logger.Warn("feed fetch failed, retrying",
				slog.String("error", err.Error()),
				slog.Duration("backoff", d))
		},
	)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}

	snap, err := c.decode(body)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	snap.FetchedAt = c.now()

	if c.headsigns != nil {
		for i := range snap.Vehicles {
			snap.Vehicles[i].Headsign = c.headsigns.Lookup(snap.Vehicles[i].Trip)
		}
	}
	if snap.Skipped > 0 {
		c.logger.Warn("skipped undecodable feed entities", slog.Int("skipped", snap.Skipped))
	}
	return snap, nil
}

func (c *Client) decode(body []byte) (*Snapshot, error) {
	switch c.config.Format {
	case FormatGTFSRT:
		return DecodeGTFSRT(body)
	default:
		return DecodeJSON(body)
	}
}

func (c *Client) download(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.URL, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	if c.config.AuthHeaderKey != "" && c.config.AuthHeaderValue != "" {
		req.Header.Add(c.config.AuthHeaderKey, c.config.AuthHeaderValue)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer logging.SafeCloseWithLogging(resp.Body, c.logger, "http_response_body")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
		if resp.StatusCode >= 500 {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return b, nil
}
