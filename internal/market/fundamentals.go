package market

import "time"

// Column is a named, nullable float series aligned with a Frame's index.
type Column struct {
	Name   string     `json:"name"`
	Values []*float64 `json:"values"`
}

// Frame is a column-oriented table indexed by time. Financial statements use
// one row per reporting period and one column per line item.
type Frame struct {
	Index   []time.Time `json:"index"`
	Columns []Column    `json:"columns"`
}

func (f *Frame) Rows() int {
	if f == nil {
		return 0
	}
	return len(f.Index)
}

func (f *Frame) Column(name string) (Column, bool) {
	if f == nil {
		return Column{}, false
	}
	for _, c := range f.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Value returns the cell at row for the named column. ok is false when the
// column is missing, the row is out of range or the cell is null.
func (f *Frame) Value(row int, name string) (v float64, ok bool) {
	c, found := f.Column(name)
	if !found || row < 0 || row >= len(c.Values) || c.Values[row] == nil {
		return 0, false
	}
	return *c.Values[row], true
}

// Fundamentals holds company financials. Every metric is optional because
// providers routinely omit them.
type Fundamentals struct {
	Ticker    string    `json:"ticker"`
	Timestamp time.Time `json:"timestamp"`

	Revenue         *float64 `json:"revenue,omitempty"`
	RevenueGrowth   *float64 `json:"revenue_growth,omitempty"`
	GrossProfit     *float64 `json:"gross_profit,omitempty"`
	OperatingIncome *float64 `json:"operating_income,omitempty"`
	NetIncome       *float64 `json:"net_income,omitempty"`
	EPS             *float64 `json:"eps,omitempty"`
	EBITDA          *float64 `json:"ebitda,omitempty"`

	TotalAssets        *float64 `json:"total_assets,omitempty"`
	TotalLiabilities   *float64 `json:"total_liabilities,omitempty"`
	TotalEquity        *float64 `json:"total_equity,omitempty"`
	Cash               *float64 `json:"cash,omitempty"`
	Debt               *float64 `json:"debt,omitempty"`
	CurrentAssets      *float64 `json:"current_assets,omitempty"`
	CurrentLiabilities *float64 `json:"current_liabilities,omitempty"`

	OperatingCashFlow  *float64 `json:"operating_cash_flow,omitempty"`
	FreeCashFlow       *float64 `json:"free_cash_flow,omitempty"`
	CapitalExpenditure *float64 `json:"capital_expenditure,omitempty"`

	PERatio         *float64 `json:"pe_ratio,omitempty"`
	PSRatio         *float64 `json:"ps_ratio,omitempty"`
	PBRatio         *float64 `json:"pb_ratio,omitempty"`
	DebtToEquity    *float64 `json:"debt_to_equity,omitempty"`
	CurrentRatio    *float64 `json:"current_ratio,omitempty"`
	QuickRatio      *float64 `json:"quick_ratio,omitempty"`
	ROE             *float64 `json:"roe,omitempty"`
	ROA             *float64 `json:"roa,omitempty"`
	ProfitMargin    *float64 `json:"profit_margin,omitempty"`
	OperatingMargin *float64 `json:"operating_margin,omitempty"`

	DividendYield    *float64 `json:"dividend_yield,omitempty"`
	PayoutRatio      *float64 `json:"payout_ratio,omitempty"`
	DividendPerShare *float64 `json:"dividend_per_share,omitempty"`

	IncomeStatement *Frame `json:"income_statement,omitempty"`
	BalanceSheet    *Frame `json:"balance_sheet,omitempty"`
	CashFlow        *Frame `json:"cash_flow,omitempty"`
}

// DeriveRatios fills CurrentRatio and DebtToEquity from balance-sheet
// figures when the provider did not report them.
func (f *Fundamentals) DeriveRatios() {
	if f.CurrentRatio == nil && f.CurrentAssets != nil && positive(f.CurrentLiabilities) {
		f.CurrentRatio = Float(*f.CurrentAssets / *f.CurrentLiabilities)
	}
	if f.DebtToEquity == nil && f.Debt != nil && positive(f.TotalEquity) {
		f.DebtToEquity = Float(*f.Debt / *f.TotalEquity)
	}
}

func positive(v *float64) bool { return v != nil && *v > 0 }

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// String returns a pointer to s.
func String(s string) *string { return &s }
