// Package currency converts amounts between currencies using static rates from
// config, falling back to the exchangeratesapi latest endpoint.
package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"k8s.io/klog"

	"github.com/bcaldwell/ledgerline/pkg/config"
)

const ConversionEndpoint = "https://api.exchangeratesapi.io/v1"

var ErrUnknownCurrency = errors.New("unknown currency")

// {"success":true,"rates":{"CAD":1.3259376651},"date":"2019-03-19","base":"USD"}
type conversionResponse struct {
	Success *bool              `json:"success"`
	Date    string             `json:"date"`
	Base    string             `json:"base"`
	Rates   map[string]float64 `json:"rates"`
	Error   *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

type Converter struct {
	Endpoint  string
	Client    *http.Client
	accessKey string
	overrides config.CurrencyConversion

	mu    sync.Mutex
	cache map[string]decimal.Decimal
}

func NewConverter(cfg config.CurrencyConfig, secrets config.ExchangerateAPISecrets) *Converter {
	return &Converter{
		Endpoint:  ConversionEndpoint,
		Client:    http.DefaultClient,
		accessKey: secrets.AccessKey,
		overrides: cfg.Conversions,
		cache:     map[string]decimal.Decimal{},
	}
}

func pairKey(from, to string) string {
	return from + "_" + to
}

// Rate returns how many units of to one unit of from is worth. Rates are
// cached for the life of the converter.
func (c *Converter) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	from = strings.ToUpper(from)
	to = strings.ToUpper(to)

	if from == to {
		return decimal.NewFromInt(1), nil
	}

	if rate, ok := c.overrides[pairKey(from, to)]; ok {
		return decimal.NewFromFloat(rate), nil
	}
	if rate, ok := c.overrides[pairKey(to, from)]; ok && rate != 0 {
		return decimal.NewFromInt(1).Div(decimal.NewFromFloat(rate)), nil
	}

	c.mu.Lock()
	rate, ok := c.cache[pairKey(from, to)]
	c.mu.Unlock()
	if ok {
		return rate, nil
	}

	rate, err := c.fetch(ctx, from, to)
	if err != nil {
		return decimal.Zero, err
	}

	c.mu.Lock()
	c.cache[pairKey(from, to)] = rate
	c.mu.Unlock()

	return rate, nil
}

// Convert converts amount and rounds to cents.
func (c *Converter) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	rate, err := c.Rate(ctx, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(rate).Round(2), nil
}

// Rates looks up the rate from every currency into base in parallel.
func (c *Converter) Rates(ctx context.Context, base string, currencies []string) (map[string]decimal.Decimal, error) {
	wg := sync.WaitGroup{}
	mutex := sync.Mutex{}

	conversions := make(map[string]decimal.Decimal, len(currencies))
	var errs []error

	for _, currency := range currencies {
		wg.Add(1)

		go func(currency string) {
			defer wg.Done()

			rate, err := c.Rate(ctx, currency, base)

			mutex.Lock()
			defer mutex.Unlock()

			if err != nil {
				errs = append(errs, err)
				return
			}
			conversions[currency] = rate
		}(currency)
	}

	wg.Wait()

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return conversions, nil
}

func (c *Converter) fetch(ctx context.Context, from, to string) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint+"/latest", nil)
	if err != nil {
		return decimal.Zero, err
	}

	q := req.URL.Query()
	q.Add("base", from)
	q.Add("symbols", to)
	if c.accessKey != "" {
		q.Add("access_key", c.accessKey)
	}
	req.URL.RawQuery = q.Encode()

	klog.V(2).Infof("Fetching exchange rate %s to %s\n", from, to)

	rs, err := c.Client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("error getting currency conversion: %w", err)
	}
	defer rs.Body.Close()

	if rs.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("error getting currency conversion: status %d", rs.StatusCode)
	}

	var response conversionResponse
	if err := json.NewDecoder(rs.Body).Decode(&response); err != nil {
		return decimal.Zero, fmt.Errorf("error parsing currency conversion response: %w", err)
	}

	if response.Success != nil && !*response.Success {
		info := "request failed"
		if response.Error != nil {
			info = response.Error.Info
		}
		return decimal.Zero, fmt.Errorf("error getting currency conversion: %s", info)
	}

	rate, ok := response.Rates[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownCurrency, to)
	}

	return decimal.NewFromFloat(rate), nil
}
