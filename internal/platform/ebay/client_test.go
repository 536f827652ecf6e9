package ebay

import (
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardscout/cardscout/internal/domain"
)

const tokenBody = `{"access_token":"tok-1","expires_in":7200,"token_type":"Application Access Token"}`

const searchBody = `{
	"total": 1,
	"itemSummaries": [
		{
			"itemId": "v1|12345|0",
			"title": "2018 Panini Prizm Luka Doncic Rookie #280",
			"price": {"value": "45.00", "currency": "USD"},
			"shippingOptions": [{"shippingCost": {"value": "6.00", "currency": "USD"}}],
			"seller": {"username": "cardshop", "feedbackPercentage": "99.4", "feedbackScore": 2100},
			"condition": "Ungraded",
			"shortDescription": "Pack fresh, sharp corners",
			"categories": [{"categoryName": "Sports Mem"}, {"categoryName": "Basketball"}],
			"itemCreationDate": "2026-08-30T10:00:00.000Z",
			"image": {"imageUrl": "https://example.com/img.jpg"},
			"itemWebUrl": "https://example.com/itm/12345",
			"marketingPrice": {"originalPrice": {"value": "60.00", "currency": "USD"}}
		}
	]
}`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestClient spins up a stub API that serves both the token endpoint and
// the item summary search, recording what it received.
func newTestClient(t *testing.T, searchStatus int, searchResp string) (*Client, *atomic.Int32, *http.Request) {
	t.Helper()

	var tokenCalls atomic.Int32
	lastSearch := &http.Request{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/identity/v1/oauth2/token":
			tokenCalls.Add(1)
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
			wantBasic := "Basic " + base64.StdEncoding.EncodeToString([]byte("my-id:my-secret"))
			assert.Equal(t, wantBasic, r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, tokenBody)
		case "/buy/browse/v1/item_summary/search":
			*lastSearch = *r.Clone(context.Background())
			w.WriteHeader(searchStatus)
			io.WriteString(w, searchResp)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	client := NewClient(Config{
		BaseURL:       srv.URL,
		AuthURL:       srv.URL + "/identity/v1/oauth2/token",
		ClientID:      "my-id",
		ClientSecret:  "my-secret",
		MarketplaceID: "EBAY_US",
	}, discardLogger())
	return client, &tokenCalls, lastSearch
}

func TestSearchNormalizesListings(t *testing.T) {
	client, _, lastSearch := newTestClient(t, http.StatusOK, searchBody)

	listings, err := client.Search(context.Background(), "luka doncic prizm", domain.SearchOptions{
		MaxPrice: 100,
		Limit:    25,
	})
	require.NoError(t, err)
	require.Len(t, listings, 1)

	l := listings[0]
	assert.Equal(t, "v1|12345|0", l.ID)
	assert.Equal(t, 45.0, l.Price)
	assert.Equal(t, 6.0, l.Shipping)
	assert.Equal(t, 51.0, l.TotalPrice)
	assert.Equal(t, "Ungraded Pack fresh, sharp corners", l.Condition)
	assert.Equal(t, 99.4, l.FeedbackPct)
	assert.Equal(t, 2100, l.FeedbackCount)
	assert.Equal(t, "Sports Mem > Basketball", l.CategoryPath)
	assert.True(t, l.HasImage)
	assert.Equal(t, 60.0, l.OriginalPrice)
	assert.Equal(t, "luka doncic prizm", l.SourceQuery)
	require.NotNil(t, l.CreatedAt)
	assert.Equal(t, time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC), l.CreatedAt.UTC())
	assert.Nil(t, l.EndsAt)

	// Request wiring: auth header, marketplace header, query params.
	assert.Equal(t, "Bearer tok-1", lastSearch.Header.Get("Authorization"))
	assert.Equal(t, "EBAY_US", lastSearch.Header.Get("X-EBAY-C-MARKETPLACE-ID"))
	q := lastSearch.URL.Query()
	assert.Equal(t, "luka doncic prizm", q.Get("q"))
	assert.Equal(t, "25", q.Get("limit"))
	assert.Equal(t, "price:[..100.00],priceCurrency:USD", q.Get("filter"))
}

func TestSearchDefaultsLimitAndSkipsFilter(t *testing.T) {
	client, _, lastSearch := newTestClient(t, http.StatusOK, `{"total":0,"itemSummaries":[]}`)

	listings, err := client.Search(context.Background(), "ja morant", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, listings)

	q := lastSearch.URL.Query()
	assert.Equal(t, "50", q.Get("limit"))
	assert.False(t, q.Has("filter"))
}

func TestSearchReusesCachedToken(t *testing.T) {
	client, tokenCalls, _ := newTestClient(t, http.StatusOK, `{"total":0,"itemSummaries":[]}`)

	for range 3 {
		_, err := client.Search(context.Background(), "luka doncic", domain.SearchOptions{})
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), tokenCalls.Load())
}

func TestSearchMapsErrorStatuses(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"unauthorized", http.StatusUnauthorized, domain.ErrUnauthorized},
		{"forbidden", http.StatusForbidden, domain.ErrUnauthorized},
		{"rate limited", http.StatusTooManyRequests, domain.ErrRateLimited},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _, _ := newTestClient(t, tt.status, `{"errors":[]}`)
			_, err := client.Search(context.Background(), "luka doncic", domain.SearchOptions{})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPriceFilter(t *testing.T) {
	assert.Equal(t, "price:[10.00..80.00],priceCurrency:USD", priceFilter(10, 80))
	assert.Equal(t, "price:[10.00..],priceCurrency:USD", priceFilter(10, 0))
	assert.Equal(t, "price:[..80.00],priceCurrency:USD", priceFilter(0, 80))
}
