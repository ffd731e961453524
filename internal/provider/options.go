package provider

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/leonardcser/quickscope/internal/cache"
	"github.com/leonardcser/quickscope/internal/market"
)

// maxExpirations bounds how many expiration dates a chain carries.
const maxExpirations = 3

type optionsResponse struct {
	Code string              `json:"code"`
	Data []optionsExpiration `json:"data"`
}

type optionsExpiration struct {
	ExpirationDate string `json:"expirationDate"`
	Options        struct {
		Call []optionQuote `json:"CALL"`
		Put  []optionQuote `json:"PUT"`
	} `json:"options"`
}

type optionQuote struct {
	ContractName      string              `json:"contractName"`
	Strike            decimal.Decimal     `json:"strike"`
	LastPrice         decimal.NullDecimal `json:"lastPrice"`
	Bid               decimal.NullDecimal `json:"bid"`
	Ask               decimal.NullDecimal `json:"ask"`
	Volume            decimal.NullDecimal `json:"volume"`
	OpenInterest      decimal.NullDecimal `json:"openInterest"`
	ImpliedVolatility decimal.NullDecimal `json:"impliedVolatility"`
	Delta             decimal.NullDecimal `json:"delta"`
	Gamma             decimal.NullDecimal `json:"gamma"`
	Theta             decimal.NullDecimal `json:"theta"`
	Vega              decimal.NullDecimal `json:"vega"`
	InTheMoney        flexBool            `json:"inTheMoney"`
}

// flexBool decodes true/false given as JSON booleans or as "TRUE"/"FALSE".
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case bool:
		*b = flexBool(t)
	case string:
		*b = flexBool(strings.EqualFold(t, "true"))
	default:
		*b = false
	}
	return nil
}

func nullFloat(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	return market.Float(d.Decimal.InexactFloat64())
}

func (q optionQuote) contract(ticker, kind string, exp time.Time) market.OptionContract {
	oc := market.OptionContract{
		Ticker:            ticker,
		ContractSymbol:    q.ContractName,
		Strike:            q.Strike.InexactFloat64(),
		Expiration:        exp,
		OptionType:        kind,
		ImpliedVolatility: nullFloat(q.ImpliedVolatility),
		Delta:             nullFloat(q.Delta),
		Gamma:             nullFloat(q.Gamma),
		Theta:             nullFloat(q.Theta),
		Vega:              nullFloat(q.Vega),
		InTheMoney:        bool(q.InTheMoney),
	}
	if q.LastPrice.Valid {
		oc.LastPrice = q.LastPrice.Decimal.InexactFloat64()
	}
	if q.Bid.Valid {
		oc.Bid = q.Bid.Decimal.InexactFloat64()
	}
	if q.Ask.Valid {
		oc.Ask = q.Ask.Decimal.InexactFloat64()
	}
	if q.Volume.Valid {
		oc.Volume = q.Volume.Decimal.IntPart()
	}
	if q.OpenInterest.Valid {
		oc.OpenInterest = q.OpenInterest.Decimal.IntPart()
	}
	return oc
}

func (c *Client) FetchOptionsChain(ctx context.Context, ticker string) (*market.OptionsChain, error) {
	var resp optionsResponse
	if err := c.getJSON(ctx, "/options/"+url.PathEscape(c.symbol(ticker)), nil, &resp); err != nil {
		return nil, fail(ticker, cache.CategoryOptionsChain, err)
	}

	sym := normalize(ticker)
	exps := make([]optionsExpiration, 0, len(resp.Data))
	for _, e := range resp.Data {
		if _, err := time.Parse(time.DateOnly, e.ExpirationDate); err == nil {
			exps = append(exps, e)
		}
	}
	sort.Slice(exps, func(i, j int) bool { return exps[i].ExpirationDate < exps[j].ExpirationDate })
	if len(exps) > maxExpirations {
		exps = exps[:maxExpirations]
	}

	chain := &market.OptionsChain{Ticker: sym, Timestamp: c.now().UTC()}
	for _, e := range exps {
		exp, _ := time.Parse(time.DateOnly, e.ExpirationDate)
		chain.Expirations = append(chain.Expirations, exp)
		for _, q := range e.Options.Call {
			chain.Calls = append(chain.Calls, q.contract(sym, market.OptionCall, exp))
		}
		for _, q := range e.Options.Put {
			chain.Puts = append(chain.Puts, q.contract(sym, market.OptionPut, exp))
		}
	}
	return chain, nil
}
