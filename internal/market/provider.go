// Package market provides the market-data provider capability.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	apperrors "github.com/tel9980/boduan/internal/errors"
	"github.com/tel9980/boduan/internal/models"
)

// QuoteProvider fetches a point-in-time market snapshot for one stock.
// Calls may fail; callers log and skip, no retry policy lives here.
type QuoteProvider interface {
	FetchQuote(ctx context.Context, code string) (models.Quote, error)
}

// HTTPProvider fetches quotes from the screening backend's realtime endpoint.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
}

// NewHTTPProvider creates a new HTTPProvider.
func NewHTTPProvider(baseURL string, timeout time.Duration) *HTTPProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// quoteResponse mirrors the realtime endpoint's envelope.
type quoteResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Code          string  `json:"code"`
		Price         float64 `json:"price"`
		ChangePercent float64 `json:"change_percent"`
		VolumeRatio   float64 `json:"volume_ratio"`
		MarketCap     float64 `json:"market_cap"`
	} `json:"data"`
	Detail string `json:"detail"`
}

// FetchQuote fetches the current quote for a stock code.
func (p *HTTPProvider) FetchQuote(ctx context.Context, code string) (models.Quote, error) {
	endpoint := fmt.Sprintf("%s/api/realtime?code=%s", p.baseURL, url.QueryEscape(code))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.Quote{}, apperrors.NewProviderError("request", "creating quote request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return models.Quote{}, apperrors.NewProviderError("transport", "fetching quote", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return models.Quote{}, apperrors.NewProviderError("read", "reading quote response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return models.Quote{}, apperrors.NewProviderError(
			fmt.Sprintf("http_%d", resp.StatusCode),
			fmt.Sprintf("quote endpoint returned status %d", resp.StatusCode),
			nil,
		)
	}

	var parsed quoteResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return models.Quote{}, apperrors.NewProviderError("decode", "decoding quote response", err)
	}
	if !parsed.Success {
		return models.Quote{}, apperrors.NewProviderError("backend", parsed.Detail, nil)
	}

	quote := models.Quote{
		Code:          parsed.Data.Code,
		Price:         parsed.Data.Price,
		ChangePercent: parsed.Data.ChangePercent,
		VolumeRatio:   parsed.Data.VolumeRatio,
		MarketCap:     parsed.Data.MarketCap,
	}
	if quote.Code == "" {
		quote.Code = code
	}
	return quote, nil
}

// StaticProvider serves quotes from a fixed map. Used in tests and for
// offline dry runs.
type StaticProvider struct {
	Quotes map[string]models.Quote
	Err    error
}

// NewStaticProvider creates a StaticProvider over the given quotes.
func NewStaticProvider(quotes map[string]models.Quote) *StaticProvider {
	return &StaticProvider{Quotes: quotes}
}

// FetchQuote returns the configured quote for code.
func (p *StaticProvider) FetchQuote(_ context.Context, code string) (models.Quote, error) {
	if p.Err != nil {
		return models.Quote{}, p.Err
	}
	q, ok := p.Quotes[code]
	if !ok {
		return models.Quote{}, apperrors.NewProviderError("not_found", fmt.Sprintf("no quote for %s", code), nil)
	}
	return q, nil
}
