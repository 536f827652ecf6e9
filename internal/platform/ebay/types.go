package ebay

import (
	"strconv"
	"strings"
	"time"

	"github.com/cardscout/cardscout/internal/domain"
)

// browseSearchResponse is the wire shape of a Browse API item summary search.
type browseSearchResponse struct {
	Total         int           `json:"total"`
	ItemSummaries []itemSummary `json:"itemSummaries"`
}

type money struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

func (m money) amount() float64 {
	v, _ := strconv.ParseFloat(m.Value, 64)
	return v
}

type shippingOption struct {
	ShippingCost money `json:"shippingCost"`
}

type sellerInfo struct {
	Username           string `json:"username"`
	FeedbackPercentage string `json:"feedbackPercentage"`
	FeedbackScore      int    `json:"feedbackScore"`
}

type category struct {
	CategoryName string `json:"categoryName"`
}

type listingImage struct {
	ImageURL string `json:"imageUrl"`
}

type marketingPrice struct {
	OriginalPrice money `json:"originalPrice"`
}

// itemSummary is one raw listing record from the search provider.
type itemSummary struct {
	ItemID           string          `json:"itemId"`
	Title            string          `json:"title"`
	Price            money           `json:"price"`
	ShippingOptions  []shippingOption `json:"shippingOptions"`
	Seller           sellerInfo      `json:"seller"`
	Condition        string          `json:"condition"`
	ShortDescription string          `json:"shortDescription"`
	Categories       []category      `json:"categories"`
	ItemCreationDate string          `json:"itemCreationDate"`
	ItemEndDate      string          `json:"itemEndDate"`
	Image            *listingImage   `json:"image"`
	ItemWebURL       string          `json:"itemWebUrl"`
	MarketingPrice   *marketingPrice `json:"marketingPrice"`
}

// ToDomainListing normalizes a raw record into the internal Listing shape.
// Missing fields map to the most permissive value: absent timestamps stay nil
// so freshness passes by default, absent condition text stays empty.
func (it itemSummary) ToDomainListing(sourceQuery string) domain.Listing {
	price := it.Price.amount()

	var shipping float64
	if len(it.ShippingOptions) > 0 {
		shipping = it.ShippingOptions[0].ShippingCost.amount()
	}

	feedbackPct, _ := strconv.ParseFloat(it.Seller.FeedbackPercentage, 64)

	condition := it.Condition
	if it.ShortDescription != "" {
		condition = strings.TrimSpace(condition + " " + it.ShortDescription)
	}

	var categoryPath string
	if len(it.Categories) > 0 {
		names := make([]string, 0, len(it.Categories))
		for _, c := range it.Categories {
			names = append(names, c.CategoryName)
		}
		categoryPath = strings.Join(names, " > ")
	}

	var originalPrice float64
	if it.MarketingPrice != nil {
		originalPrice = it.MarketingPrice.OriginalPrice.amount()
	}

	return domain.Listing{
		ID:            it.ItemID,
		Title:         it.Title,
		Price:         price,
		Shipping:      shipping,
		TotalPrice:    price + shipping,
		Condition:     condition,
		FeedbackPct:   feedbackPct,
		FeedbackCount: it.Seller.FeedbackScore,
		CategoryPath:  categoryPath,
		CreatedAt:     parseTimePtr(it.ItemCreationDate),
		EndsAt:        parseTimePtr(it.ItemEndDate),
		HasImage:      it.Image != nil && it.Image.ImageURL != "",
		OriginalPrice: originalPrice,
		ItemURL:       it.ItemWebURL,
		SourceQuery:   sourceQuery,
	}
}

func parseTimePtr(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}

// tokenResponse is the OAuth client-credentials grant response.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}
