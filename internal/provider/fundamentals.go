package provider

import (
	"context"

	"github.com/leonardcser/quickscope/internal/cache"
	"github.com/leonardcser/quickscope/internal/market"
)

// statementPeriods is how many yearly periods each statement keeps.
const statementPeriods = 4

func (c *Client) FetchFundamentals(ctx context.Context, ticker string) (*market.Fundamentals, error) {
	doc, err := c.fundamentalsDoc(ctx, ticker)
	if err != nil {
		return nil, fail(ticker, cache.CategoryFundamentals, err)
	}

	income := statementFrame(doc, "$.Financials.Income_Statement.yearly", statementPeriods)
	balance := statementFrame(doc, "$.Financials.Balance_Sheet.yearly", statementPeriods)
	cashFlow := statementFrame(doc, "$.Financials.Cash_Flow.yearly", statementPeriods)

	f := &market.Fundamentals{
		Ticker:    normalize(ticker),
		Timestamp: c.now().UTC(),

		Revenue:         firstOf(number(doc, "$.Highlights.RevenueTTM"), latest(income, "totalRevenue")),
		RevenueGrowth:   number(doc, "$.Highlights.QuarterlyRevenueGrowthYOY"),
		GrossProfit:     firstOf(number(doc, "$.Highlights.GrossProfitTTM"), latest(income, "grossProfit")),
		OperatingIncome: latest(income, "operatingIncome"),
		NetIncome:       latest(income, "netIncome"),
		EPS:             number(doc, "$.Highlights.EarningsShare"),
		EBITDA:          firstOf(number(doc, "$.Highlights.EBITDA"), latest(income, "ebitda")),

		TotalAssets:        latest(balance, "totalAssets"),
		TotalLiabilities:   latest(balance, "totalLiab"),
		TotalEquity:        latest(balance, "totalStockholderEquity"),
		Cash:               latest(balance, "cash"),
		Debt:               latest(balance, "shortLongTermDebtTotal"),
		CurrentAssets:      latest(balance, "totalCurrentAssets"),
		CurrentLiabilities: latest(balance, "totalCurrentLiabilities"),

		OperatingCashFlow:  latest(cashFlow, "totalCashFromOperatingActivities"),
		FreeCashFlow:       latest(cashFlow, "freeCashFlow"),
		CapitalExpenditure: latest(cashFlow, "capitalExpenditures"),

		PERatio:         nonZero(firstOf(number(doc, "$.Valuation.TrailingPE"), number(doc, "$.Highlights.PERatio"))),
		PSRatio:         nonZero(number(doc, "$.Valuation.PriceSalesTTM")),
		PBRatio:         nonZero(number(doc, "$.Valuation.PriceBookMRQ")),
		ROE:             number(doc, "$.Highlights.ReturnOnEquityTTM"),
		ROA:             number(doc, "$.Highlights.ReturnOnAssetsTTM"),
		ProfitMargin:    number(doc, "$.Highlights.ProfitMargin"),
		OperatingMargin: number(doc, "$.Highlights.OperatingMarginTTM"),

		DividendYield:    number(doc, "$.Highlights.DividendYield"),
		PayoutRatio:      number(doc, "$.SplitsDividends.PayoutRatio"),
		DividendPerShare: number(doc, "$.Highlights.DividendShare"),

		IncomeStatement: income,
		BalanceSheet:    balance,
		CashFlow:        cashFlow,
	}
	f.QuickRatio = quickRatio(f.CurrentAssets, latest(balance, "inventory"), f.CurrentLiabilities)
	f.DeriveRatios()
	return f, nil
}

func quickRatio(currentAssets, inventory, currentLiabilities *float64) *float64 {
	if currentAssets == nil || currentLiabilities == nil || *currentLiabilities <= 0 {
		return nil
	}
	liquid := *currentAssets
	if inventory != nil {
		liquid -= *inventory
	}
	return market.Float(liquid / *currentLiabilities)
}

// FetchAnalystRecommendations reads the consensus block of the fundamentals
// document. The API reports counts and a mean target, not individual firm
// actions, so Recommendations stays empty.
func (c *Client) FetchAnalystRecommendations(ctx context.Context, ticker string) (*market.AnalystRatings, error) {
	doc, err := c.fundamentalsDoc(ctx, ticker)
	if err != nil {
		return nil, fail(ticker, cache.CategoryAnalystRatings, err)
	}
	count := func(field string) int {
		if n := integer(doc, "$.AnalystRatings."+field); n != nil {
			return int(*n)
		}
		return 0
	}
	return &market.AnalystRatings{
		Ticker:          normalize(ticker),
		Timestamp:       c.now().UTC(),
		StrongBuy:       count("StrongBuy"),
		Buy:             count("Buy"),
		Hold:            count("Hold"),
		Sell:            count("Sell"),
		StrongSell:      count("StrongSell"),
		MeanTargetPrice: nonZero(number(doc, "$.AnalystRatings.TargetPrice")),
	}, nil
}
