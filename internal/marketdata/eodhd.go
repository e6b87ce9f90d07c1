package marketdata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/eddiefleurent/schrute_wheel/internal/models"
)

const (
	// defaultBaseURL is the EODHD options-contracts endpoint.
	defaultBaseURL = "https://eodhd.com/api/mp/unicornbay/options/contracts"
	// defaultTimeout bounds each chain request.
	defaultTimeout = 10 * time.Second
	// expDateLayout is the expiration date format in EODHD payloads.
	expDateLayout = "2006-01-02"

	// contractFields is the attribute projection requested per contract.
	contractFields = "contract,exp_date,strike,bid,ask,last,delta,volatility,open_interest,volume,type"
)

// APIError represents an API error with status code and response body
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Status, e.Body)
}

// EODHDClient fetches option chains from the EODHD options API. The API
// token is injected at construction; the client holds no ambient
// configuration.
type EODHDClient struct {
	client   *http.Client
	apiToken string
	baseURL  string
}

// NewEODHDClient creates an EODHD client with default settings.
func NewEODHDClient(apiToken string) *EODHDClient {
	return NewEODHDClientWithBaseURL(apiToken, "")
}

// NewEODHDClientWithBaseURL creates an EODHD client with an optional custom
// base URL (tests, proxies).
func NewEODHDClientWithBaseURL(apiToken, baseURL string) *EODHDClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	return &EODHDClient{
		apiToken: apiToken,
		baseURL:  baseURL,
		client:   &http.Client{Timeout: defaultTimeout},
	}
}

// WithHTTPClient allows overriding the HTTP client (tests, custom transport).
func (c *EODHDClient) WithHTTPClient(hc *http.Client) *EODHDClient {
	if hc != nil {
		c.client = hc
	}
	return c
}

// WithTimeout sets the HTTP client timeout duration.
func (c *EODHDClient) WithTimeout(timeout time.Duration) *EODHDClient {
	if c.client != nil {
		c.client.Timeout = timeout
	}
	return c
}

// Ensure EODHDClient implements Provider at compile time.
var _ Provider = (*EODHDClient)(nil)

// ============ EODHD API Response Structures ============

// nullFloat decodes a JSON number that may be null or a quoted string.
// Null quotes are treated as 0; the mid-price computation documents that
// precision tradeoff.
type nullFloat float64

func (n *nullFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*n = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*n = nullFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*n = nullFloat(v)
	return nil
}

// nullInt decodes a JSON integer that may be null.
type nullInt int64

func (n *nullInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}
	var v int64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*n = nullInt(v)
	return nil
}

// chainResponse is the JSON:API envelope for option-contract queries.
type chainResponse struct {
	Data []struct {
		ID         string             `json:"id"`
		Attributes contractAttributes `json:"attributes"`
	} `json:"data"`
}

// contractAttributes holds one contract row's requested fields.
type contractAttributes struct {
	Contract     string    `json:"contract"`
	ExpDate      string    `json:"exp_date"`
	Type         string    `json:"type"`
	Strike       nullFloat `json:"strike"`
	Bid          nullFloat `json:"bid"`
	Ask          nullFloat `json:"ask"`
	Last         nullFloat `json:"last"`
	Delta        nullFloat `json:"delta"`
	Volatility   nullFloat `json:"volatility"`
	OpenInterest nullInt   `json:"open_interest"`
	Volume       nullInt   `json:"volume"`
}

// FetchChain queries the option chain for one underlying and converts the
// payload into raw contract rows.
func (c *EODHDClient) FetchChain(ctx context.Context, symbol string, optType models.OptionType, limit int) ([]models.OptionContract, error) {
	if !optType.Valid() {
		return nil, fmt.Errorf("invalid option type %q", optType)
	}
	if limit <= 0 {
		limit = 20
	}

	params := url.Values{}
	params.Set("filter[underlying_symbol]", symbol)
	params.Set("filter[type]", string(optType))
	params.Set("sort", "exp_date")
	params.Set("page[limit]", strconv.Itoa(limit))
	params.Set("fields[options-contracts]", contractFields)
	params.Set("api_token", c.apiToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building chain request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting chain for %s: %w", symbol, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("reading chain response for %s: %w", symbol, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	var payload chainResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decoding chain for %s: %w", symbol, err)
	}

	contracts := make([]models.OptionContract, 0, len(payload.Data))
	for _, row := range payload.Data {
		attrs := row.Attributes
		exp, err := time.ParseInLocation(expDateLayout, attrs.ExpDate, time.UTC)
		if err != nil {
			// Unparseable expiration makes every derived metric
			// meaningless; skip the row.
			continue
		}

		rowType := optType
		if attrs.Type != "" {
			rowType = models.OptionType(strings.ToLower(attrs.Type))
		}

		contracts = append(contracts, models.OptionContract{
			Symbol:       symbol,
			ContractID:   attrs.Contract,
			Expiration:   exp,
			Strike:       float64(attrs.Strike),
			Bid:          float64(attrs.Bid),
			Ask:          float64(attrs.Ask),
			Last:         float64(attrs.Last),
			Delta:        float64(attrs.Delta),
			IV:           float64(attrs.Volatility),
			OpenInterest: int64(attrs.OpenInterest),
			Volume:       int64(attrs.Volume),
			Type:         rowType,
		})
	}

	return contracts, nil
}
