package codec

import "github.com/leonardcser/quickscope/internal/market"

// Wire forms carry tabular fields as Arrow IPC bytes next to the plain
// record. The tabular field on the embedded record is always cleared before
// marshaling so only the IPC copy is written.

type stockDataWire struct {
	market.StockData
	HistoryIPC []byte `json:"history_ipc,omitempty"`
}

func toStockDataWire(sd *market.StockData) (*stockDataWire, error) {
	ipcBytes, err := encodeBars(sd.History)
	if err != nil {
		return nil, err
	}
	w := &stockDataWire{StockData: *sd, HistoryIPC: ipcBytes}
	w.History = nil
	return w, nil
}

func (w *stockDataWire) record() (*market.StockData, error) {
	history, err := decodeBars(w.HistoryIPC)
	if err != nil {
		return nil, err
	}
	sd := w.StockData
	sd.History = history
	utcStockData(&sd)
	return &sd, nil
}

type fundamentalsWire struct {
	market.Fundamentals
	IncomeStatementIPC []byte `json:"income_statement_ipc,omitempty"`
	BalanceSheetIPC    []byte `json:"balance_sheet_ipc,omitempty"`
	CashFlowIPC        []byte `json:"cash_flow_ipc,omitempty"`
}

func toFundamentalsWire(f *market.Fundamentals) (*fundamentalsWire, error) {
	w := &fundamentalsWire{Fundamentals: *f}
	var err error
	if w.IncomeStatementIPC, err = encodeFrame(f.IncomeStatement); err != nil {
		return nil, err
	}
	if w.BalanceSheetIPC, err = encodeFrame(f.BalanceSheet); err != nil {
		return nil, err
	}
	if w.CashFlowIPC, err = encodeFrame(f.CashFlow); err != nil {
		return nil, err
	}
	w.IncomeStatement, w.BalanceSheet, w.CashFlow = nil, nil, nil
	return w, nil
}

func (w *fundamentalsWire) record() (*market.Fundamentals, error) {
	f := w.Fundamentals
	var err error
	if f.IncomeStatement, err = decodeFrame(w.IncomeStatementIPC); err != nil {
		return nil, err
	}
	if f.BalanceSheet, err = decodeFrame(w.BalanceSheetIPC); err != nil {
		return nil, err
	}
	if f.CashFlow, err = decodeFrame(w.CashFlowIPC); err != nil {
		return nil, err
	}
	utcFundamentals(&f)
	return &f, nil
}

type marketDataWire struct {
	market.MarketData
	StockDataWire    *stockDataWire    `json:"stock_data_wire,omitempty"`
	FundamentalsWire *fundamentalsWire `json:"fundamentals_wire,omitempty"`
}

func toMarketDataWire(md *market.MarketData) (*marketDataWire, error) {
	w := &marketDataWire{MarketData: *md}
	var err error
	if md.StockData != nil {
		if w.StockDataWire, err = toStockDataWire(md.StockData); err != nil {
			return nil, err
		}
	}
	if md.Fundamentals != nil {
		if w.FundamentalsWire, err = toFundamentalsWire(md.Fundamentals); err != nil {
			return nil, err
		}
	}
	w.StockData, w.Fundamentals = nil, nil
	return w, nil
}

func (w *marketDataWire) record() (*market.MarketData, error) {
	md := w.MarketData
	var err error
	if w.StockDataWire != nil {
		if md.StockData, err = w.StockDataWire.record(); err != nil {
			return nil, err
		}
	}
	if w.FundamentalsWire != nil {
		if md.Fundamentals, err = w.FundamentalsWire.record(); err != nil {
			return nil, err
		}
	}
	utcMarketData(&md)
	return &md, nil
}
