// Package ebay is the REST client for the marketplace Browse API used as the
// search provider. It handles OAuth client-credentials auth and maps raw item
// summaries into domain Listings.
package ebay

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cardscout/cardscout/internal/domain"
)

// tokenSlack refreshes the OAuth token this long before its actual expiry.
const tokenSlack = 60 * time.Second

// Config holds the Browse API endpoints and credentials.
type Config struct {
	BaseURL      string // e.g. "https://api.ebay.com"
	AuthURL      string // e.g. "https://api.ebay.com/identity/v1/oauth2/token"
	ClientID     string
	ClientSecret string
	// MarketplaceID selects the marketplace site, e.g. "EBAY_US".
	MarketplaceID string
}

// Client is the Browse API search client. It caches the OAuth token until
// shortly before expiry and is safe for concurrent use.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

// NewClient creates a Client with a 30-second request timeout.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.With(slog.String("component", "ebay_client")),
	}
}

// Search runs one atomic search string against the Browse API and returns the
// normalized listings.
func (c *Client) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.Listing, error) {
	params := url.Values{}
	params.Set("q", query)
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	params.Set("limit", strconv.Itoa(limit))
	if opts.MinPrice > 0 || opts.MaxPrice > 0 {
		params.Set("filter", priceFilter(opts.MinPrice, opts.MaxPrice))
	}

	path := "/buy/browse/v1/item_summary/search?" + params.Encode()

	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("ebay: search %q: %w", query, err)
	}

	var resp browseSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("ebay: decode search results: %w", err)
	}

	listings := make([]domain.Listing, 0, len(resp.ItemSummaries))
	for i := range resp.ItemSummaries {
		listings = append(listings, resp.ItemSummaries[i].ToDomainListing(query))
	}
	return listings, nil
}

// priceFilter builds the Browse API price filter expression.
func priceFilter(min, max float64) string {
	lo := ""
	if min > 0 {
		lo = fmt.Sprintf("%.2f", min)
	}
	hi := ""
	if max > 0 {
		hi = fmt.Sprintf("%.2f", max)
	}
	return fmt.Sprintf("price:[%s..%s],priceCurrency:USD", lo, hi)
}

// doGet sends an authenticated GET request, fetching or refreshing the OAuth
// token first when needed.
func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	if c.cfg.MarketplaceID != "" {
		req.Header.Set("X-EBAY-C-MARKETPLACE-ID", c.cfg.MarketplaceID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}

// ensureToken returns a valid access token, fetching a new one via the
// client-credentials grant when the cached token is missing or near expiry.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExp.Add(-tokenSlack)) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("scope", "https://api.ebay.com/oauth/api_scope")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("ebay: create token request: %w", err)
	}
	basic := base64.StdEncoding.EncodeToString([]byte(c.cfg.ClientID + ":" + c.cfg.ClientSecret))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ebay: token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("ebay: read token response: %w", err)
	}
	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return "", fmt.Errorf("ebay: token: %w", err)
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("ebay: decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("ebay: empty access token in response")
	}

	c.token = tok.AccessToken
	c.tokenExp = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	c.logger.Debug("oauth token refreshed",
		slog.Time("expires_at", c.tokenExp),
	)
	return c.token, nil
}

// checkHTTPStatus converts non-2xx responses into errors, mapping well-known
// statuses onto domain sentinels.
func checkHTTPStatus(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}
	snippet := string(body)
	if len(snippet) > 256 {
		snippet = snippet[:256]
	}
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: status %d: %s", domain.ErrUnauthorized, status, snippet)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d: %s", domain.ErrRateLimited, status, snippet)
	case http.StatusNotFound:
		return fmt.Errorf("%w: status %d", domain.ErrNotFound, status)
	default:
		return fmt.Errorf("unexpected status %d: %s", status, snippet)
	}
}

// Compile-time interface check.
var _ domain.SearchProvider = (*Client)(nil)
