package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrorKind classifies why a rate could not be obtained.
type ErrorKind string

const (
	KindTransport    ErrorKind = "transport"
	KindStatus       ErrorKind = "status"
	KindDecode       ErrorKind = "decode"
	KindMissingField ErrorKind = "missing_field"
)

// ErrRateMissing is wrapped by errors of kind KindMissingField.
var ErrRateMissing = errors.New("sell price missing from response")

// Error is returned by FetchRate for every failure.
type Error struct {
	Kind     ErrorKind
	Currency string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("exchange rate %s (%s): %v", e.Currency, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Quote is the body served by the quotation endpoint.
// Prices arrive either as JSON numbers or as quoted strings.
type Quote struct {
	Currency string           `json:"moneda"`
	Name     string           `json:"nombre"`
	Buy      *decimal.Decimal `json:"compra"`
	Sell     *decimal.Decimal `json:"venta"`
}

// Client queries a quotation endpoint of the form <base URL><currency>.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client with the given per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return NewClientWithHTTP(baseURL, &http.Client{Timeout: timeout})
}

// NewClientWithHTTP creates a Client using an existing HTTP client.
func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/") + "/",
		httpClient: httpClient,
	}
}

// FetchRate returns the sell price quoted for currency.
// A missing, null or non-positive sell price is reported as ErrRateMissing.
func (c *Client) FetchRate(ctx context.Context, currency string) (float64, error) {
	fail := func(kind ErrorKind, err error) (float64, error) {
		return 0, &Error{Kind: kind, Currency: currency, Err: err}
	}

	endpoint := c.baseURL + url.PathEscape(currency)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fail(KindTransport, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fail(KindTransport, fmt.Errorf("request timeout: %w", err))
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return fail(KindTransport, fmt.Errorf("network timeout: %w", err))
		}
		return fail(KindTransport, fmt.Errorf("failed to reach quotation service: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fail(KindStatus, fmt.Errorf("unexpected response from quotation service: %s", resp.Status))
	}

	var quote Quote
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return fail(KindDecode, fmt.Errorf("failed to decode quote: %w", err))
	}

	if quote.Sell == nil || !quote.Sell.IsPositive() {
		return fail(KindMissingField, ErrRateMissing)
	}

	return quote.Sell.InexactFloat64(), nil
}
