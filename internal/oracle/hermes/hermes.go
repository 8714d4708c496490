// Package hermes reads prices from a Pyth Hermes endpoint.
package hermes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"custody/internal/ledger/models"
	"custody/internal/ledger/ports"
	"custody/internal/oracle"
	id "custody/pkg/domain"
)

const (
	defaultTimeout = 5 * time.Second
	latestPath     = "/v2/updates/price/latest"
	maxBodyBytes   = 1 << 20
)

// Client queries the latest parsed price update for a feed.
type Client struct {
	baseURL    string
	httpClient *http.Client
	clock      ports.Clock
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

func WithClock(clock ports.Clock) Option {
	return func(cl *Client) {
		if clock != nil {
			cl.clock = clock
		}
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid hermes url: %w", err)
	}
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		clock: ports.SystemClock,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type latestResponse struct {
	Parsed []parsedUpdate `json:"parsed"`
}

type parsedUpdate struct {
	ID    string     `json:"id"`
	Price priceField `json:"price"`
}

// Hermes encodes the 64-bit integers as strings.
type priceField struct {
	Price       string `json:"price"`
	Conf        string `json:"conf"`
	Expo        int32  `json:"expo"`
	PublishTime int64  `json:"publish_time"`
}

func (c *Client) CurrentPrice(ctx context.Context, feed id.Bytes32, maxStaleness time.Duration) (models.PriceQuote, error) {
	q := url.Values{}
	q.Add("ids[]", "0x"+feed.String())
	q.Set("parsed", "true")
	q.Set("encoding", "hex")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+latestPath+"?"+q.Encode(), nil)
	if err != nil {
		return models.PriceQuote{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.PriceQuote{}, fmt.Errorf("hermes request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return models.PriceQuote{}, fmt.Errorf("read response: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return models.PriceQuote{}, fmt.Errorf("feed %s: %w", feed, oracle.ErrFeedNotFound)
	case resp.StatusCode != http.StatusOK:
		return models.PriceQuote{}, fmt.Errorf("hermes http %d: %s", resp.StatusCode, string(body))
	}

	var parsed latestResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return models.PriceQuote{}, fmt.Errorf("parse response: %w", err)
	}
	for _, u := range parsed.Parsed {
		if normalizeID(u.ID) != feed.String() {
			continue
		}
		quote, err := u.Price.quote()
		if err != nil {
			return models.PriceQuote{}, err
		}
		if err := oracle.CheckFresh(quote, c.clock.Now(), maxStaleness); err != nil {
			return models.PriceQuote{}, err
		}
		return quote, nil
	}
	return models.PriceQuote{}, fmt.Errorf("feed %s missing from response: %w", feed, oracle.ErrFeedNotFound)
}

func (p priceField) quote() (models.PriceQuote, error) {
	price, err := strconv.ParseInt(p.Price, 10, 64)
	if err != nil {
		return models.PriceQuote{}, fmt.Errorf("parse price %q: %w", p.Price, err)
	}
	conf, err := strconv.ParseUint(p.Conf, 10, 64)
	if err != nil {
		return models.PriceQuote{}, fmt.Errorf("parse confidence %q: %w", p.Conf, err)
	}
	return models.PriceQuote{
		Price:       price,
		Exponent:    p.Expo,
		Confidence:  conf,
		PublishTime: p.PublishTime,
	}, nil
}

func normalizeID(s string) string {
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
