package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// fmpIncomeStatement is one item of the FMP income-statement array. Pointers
// let us tell a missing field from a zero value.
type fmpIncomeStatement struct {
	Date            *string  `json:"date"`
	Revenue         *int64   `json:"revenue"`
	GrossProfit     *int64   `json:"grossProfit"`
	OperatingIncome *int64   `json:"operatingIncome"`
	NetIncome       *int64   `json:"netIncome"`
	EPS             *float64 `json:"eps"`
}

// FMPClient fetches annual income statements for one symbol.
type FMPClient struct {
	baseURL    string
	apiKey     string
	symbol     string
	httpClient *http.Client
	cache      ResponseCache
	cacheTTL   time.Duration
}

func newFMPClient(cfg *Config, apiKey, symbol string, cache ResponseCache) *FMPClient {
	return &FMPClient{
		baseURL:    strings.TrimRight(cfg.UpstreamURL, "/"),
		apiKey:     apiKey,
		symbol:     symbol,
		httpClient: &http.Client{Timeout: cfg.UpstreamTimeout},
		cache:      cache,
		cacheTTL:   cfg.RedisTTL,
	}
}

func (c *FMPClient) requestURL() string {
	q := url.Values{}
	q.Set("period", "annual")
	q.Set("apikey", c.apiKey)
	return c.baseURL + "/" + url.PathEscape(c.symbol) + "?" + q.Encode()
}

// redactedURL is requestURL with the api key masked, safe for logs and errors.
func (c *FMPClient) redactedURL() string {
	return c.baseURL + "/" + url.PathEscape(c.symbol) + "?period=annual&apikey=REDACTED"
}

func (c *FMPClient) cacheKey() string {
	return "fmp/income-statement/" + c.symbol
}

// FetchIncomeStatements returns the parsed upstream payload, from the
// response cache when one is configured and holds a body.
func (c *FMPClient) FetchIncomeStatements(ctx context.Context) ([]FinancialRecord, error) {
	sublog := zerolog.Ctx(ctx).With().Str("symbol", c.symbol).Logger()

	body, cached, err := c.fetch(ctx, &sublog)
	if err != nil {
		return nil, err
	}
	records, err := parseIncomeStatements(body)
	if err != nil {
		return nil, err
	}

	// only bodies that parsed are worth keeping around
	if c.cache != nil && !cached {
		if err := c.cache.Set(ctx, c.cacheKey(), string(body), c.cacheTTL); err != nil {
			sublog.Error().Err(err).Str("redis_key", c.cacheKey()).Msg("failed to save to redis")
		}
	}
	return records, nil
}

func (c *FMPClient) fetch(ctx context.Context, sublog *zerolog.Logger) ([]byte, bool, error) {
	if c.cache != nil {
		cached, ok, err := c.cache.Get(ctx, c.cacheKey())
		if err != nil {
			sublog.Warn().Err(err).Str("redis_key", c.cacheKey()).Msg("failed to read from redis")
		} else if ok {
			sublog.Info().Str("redis_key", c.cacheKey()).Msg("redis cache hit")
			upstreamCacheHits.Inc()
			return []byte(cached), true, nil
		}
	}

	if c.apiKey == "" {
		return nil, false, &FetchError{URL: c.redactedURL(), Err: errMissingAPIKey}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(), nil)
	if err != nil {
		return nil, false, &FetchError{URL: c.redactedURL(), Err: err}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	upstreamDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		// the *url.Error carries the key in its URL
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, false, &FetchError{URL: c.redactedURL(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, false, &FetchError{URL: c.redactedURL(), StatusCode: resp.StatusCode, Err: fmt.Errorf("status %s", resp.Status)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, &FetchError{URL: c.redactedURL(), Err: err}
	}
	sublog.Info().Int("bytes", len(body)).Dur("response_time", time.Since(start)).Msg("fetched income statements from FMP")

	return body, false, nil
}

// parseIncomeStatements decodes the whole payload. Any malformed item fails
// the batch; nothing is returned partially.
func parseIncomeStatements(body []byte) ([]FinancialRecord, error) {
	var items []json.RawMessage
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&items); err != nil {
		return nil, &ParseError{Index: -1, Err: err}
	}

	records := make([]FinancialRecord, 0, len(items))
	for n, raw := range items {
		var item fmpIncomeStatement
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, &ParseError{Index: n, Err: err}
		}
		record, err := item.record()
		if err != nil {
			return nil, &ParseError{Index: n, Err: err}
		}
		records = append(records, record)
	}
	return records, nil
}

func (item fmpIncomeStatement) record() (FinancialRecord, error) {
	switch {
	case item.Date == nil:
		return FinancialRecord{}, errors.New("missing date")
	case item.Revenue == nil:
		return FinancialRecord{}, errors.New("missing revenue")
	case item.GrossProfit == nil:
		return FinancialRecord{}, errors.New("missing grossProfit")
	case item.OperatingIncome == nil:
		return FinancialRecord{}, errors.New("missing operatingIncome")
	case item.NetIncome == nil:
		return FinancialRecord{}, errors.New("missing netIncome")
	case item.EPS == nil:
		return FinancialRecord{}, errors.New("missing eps")
	}

	date, err := time.Parse(sqlDateParseType, *item.Date)
	if err != nil {
		return FinancialRecord{}, fmt.Errorf("bad date: %w", err)
	}

	return FinancialRecord{
		Date:            date.Format(sqlDateParseType),
		Revenue:         *item.Revenue,
		GrossProfit:     *item.GrossProfit,
		OperatingIncome: *item.OperatingIncome,
		NetIncome:       *item.NetIncome,
		EPS:             *item.EPS,
	}, nil
}
