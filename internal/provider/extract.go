package provider

import (
	"sort"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"

	"github.com/leonardcser/quickscope/internal/market"
)

// lookup evaluates a JSONPath expression against a decoded document. A
// single-element list is unwrapped, since jsonpath does not say whether a
// match comes back as a value or a list of one.
func lookup(doc any, path string) (any, bool) {
	v, err := jsonpath.Get(path, doc)
	if err != nil || v == nil {
		return nil, false
	}
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return nil, false
		}
		v = list[0]
	}
	return v, v != nil
}

// toDecimal accepts the number shapes the API mixes freely: JSON numbers and
// numeric strings. Empty strings, "NA" and "None" count as absent.
func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), true
	case int64:
		return decimal.NewFromInt(n), true
	case string:
		s := strings.TrimSpace(n)
		switch strings.ToLower(s) {
		case "", "na", "n/a", "none", "null", "-":
			return decimal.Decimal{}, false
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	default:
		return decimal.Decimal{}, false
	}
}

func toFloat(v any) *float64 {
	d, ok := toDecimal(v)
	if !ok {
		return nil
	}
	return market.Float(d.InexactFloat64())
}

// number returns the numeric value at path, or nil.
func number(doc any, path string) *float64 {
	v, ok := lookup(doc, path)
	if !ok {
		return nil
	}
	return toFloat(v)
}

// nonZero drops zero values, which the API uses for "not reported" in some
// highlight fields.
func nonZero(v *float64) *float64 {
	if v == nil || *v == 0 {
		return nil
	}
	return v
}

func integer(doc any, path string) *int64 {
	v, ok := lookup(doc, path)
	if !ok {
		return nil
	}
	d, ok := toDecimal(v)
	if !ok {
		return nil
	}
	n := d.IntPart()
	return &n
}

func firstOf(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

// statementMeta are keys of a statement period that are not line items.
var statementMeta = map[string]bool{
	"date":            true,
	"filing_date":     true,
	"currency_symbol": true,
}

// statementFrame turns a {"YYYY-MM-DD": {item: value}} map into a Frame
// holding the latest maxPeriods periods in ascending order, one column per
// line item.
func statementFrame(doc any, path string, maxPeriods int) *market.Frame {
	v, ok := lookup(doc, path)
	if !ok {
		return nil
	}
	periods, ok := v.(map[string]any)
	if !ok || len(periods) == 0 {
		return nil
	}

	type period struct {
		at    time.Time
		items map[string]any
	}
	var rows []period
	for k, raw := range periods {
		at, err := time.Parse(time.DateOnly, k)
		if err != nil {
			continue
		}
		items, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		rows = append(rows, period{at: at, items: items})
	}
	if len(rows) == 0 {
		return nil
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].at.Before(rows[j].at) })
	if len(rows) > maxPeriods {
		rows = rows[len(rows)-maxPeriods:]
	}

	names := map[string]struct{}{}
	for _, r := range rows {
		for name := range r.items {
			if !statementMeta[name] {
				names[name] = struct{}{}
			}
		}
	}
	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	f := &market.Frame{Index: make([]time.Time, len(rows))}
	for i, r := range rows {
		f.Index[i] = r.at
	}
	for _, name := range sorted {
		col := market.Column{Name: name, Values: make([]*float64, len(rows))}
		for i, r := range rows {
			col.Values[i] = toFloat(r.items[name])
		}
		f.Columns = append(f.Columns, col)
	}
	return f
}

// latest returns the most recent non-null value of column name.
func latest(f *market.Frame, name string) *float64 {
	for row := f.Rows() - 1; row >= 0; row-- {
		if v, ok := f.Value(row, name); ok {
			return market.Float(v)
		}
	}
	return nil
}
