package codec

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/leonardcser/quickscope/internal/market"
)

const frameIndexField = "index"

var timestampType = &arrow.TimestampType{Unit: arrow.Nanosecond, TimeZone: "UTC"}

// barSchema is the Arrow layout of a price history.
//
// Fields:
//   - time: timestamp[ns, UTC]
//   - open, high, low, close: float64
//   - volume: int64
//   - adj_close: float64 (nullable)
//   - dividends, splits: float64
var barSchema = arrow.NewSchema(
	[]arrow.Field{
		{Name: "time", Type: timestampType},
		{Name: "open", Type: arrow.PrimitiveTypes.Float64},
		{Name: "high", Type: arrow.PrimitiveTypes.Float64},
		{Name: "low", Type: arrow.PrimitiveTypes.Float64},
		{Name: "close", Type: arrow.PrimitiveTypes.Float64},
		{Name: "volume", Type: arrow.PrimitiveTypes.Int64},
		{Name: "adj_close", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		{Name: "dividends", Type: arrow.PrimitiveTypes.Float64},
		{Name: "splits", Type: arrow.PrimitiveTypes.Float64},
	},
	nil,
)

func encodeBars(bars []market.Bar) ([]byte, error) {
	if len(bars) == 0 {
		return nil, nil
	}
	b := array.NewRecordBuilder(memory.DefaultAllocator, barSchema)
	defer b.Release()

	timeB := b.Field(0).(*array.TimestampBuilder)
	openB := b.Field(1).(*array.Float64Builder)
	highB := b.Field(2).(*array.Float64Builder)
	lowB := b.Field(3).(*array.Float64Builder)
	closeB := b.Field(4).(*array.Float64Builder)
	volB := b.Field(5).(*array.Int64Builder)
	adjB := b.Field(6).(*array.Float64Builder)
	divB := b.Field(7).(*array.Float64Builder)
	splitB := b.Field(8).(*array.Float64Builder)

	for _, bar := range bars {
		timeB.Append(arrow.Timestamp(bar.Time.UnixNano()))
		openB.Append(bar.Open)
		highB.Append(bar.High)
		lowB.Append(bar.Low)
		closeB.Append(bar.Close)
		volB.Append(bar.Volume)
		if bar.AdjClose != nil {
			adjB.Append(*bar.AdjClose)
		} else {
			adjB.AppendNull()
		}
		divB.Append(bar.Dividends)
		splitB.Append(bar.Splits)
	}

	rec := b.NewRecord()
	defer rec.Release()
	return writeIPC(rec)
}

func decodeBars(data []byte) ([]market.Bar, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var bars []market.Bar
	err := readIPC(data, func(rec arrow.Record) error {
		if int(rec.NumCols()) != len(barSchema.Fields()) {
			return fmt.Errorf("price history: expected %d columns, got %d", len(barSchema.Fields()), rec.NumCols())
		}
		timeC := rec.Column(0).(*array.Timestamp)
		openC := rec.Column(1).(*array.Float64)
		highC := rec.Column(2).(*array.Float64)
		lowC := rec.Column(3).(*array.Float64)
		closeC := rec.Column(4).(*array.Float64)
		volC := rec.Column(5).(*array.Int64)
		adjC := rec.Column(6).(*array.Float64)
		divC := rec.Column(7).(*array.Float64)
		splitC := rec.Column(8).(*array.Float64)

		for i := 0; i < int(rec.NumRows()); i++ {
			bar := market.Bar{
				Time:      fromTimestamp(timeC.Value(i)),
				Open:      openC.Value(i),
				High:      highC.Value(i),
				Low:       lowC.Value(i),
				Close:     closeC.Value(i),
				Volume:    volC.Value(i),
				Dividends: divC.Value(i),
				Splits:    splitC.Value(i),
			}
			if !adjC.IsNull(i) {
				bar.AdjClose = market.Float(adjC.Value(i))
			}
			bars = append(bars, bar)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bars, nil
}

// frameSchema lays a Frame out as a timestamp index followed by one nullable
// float64 column per series.
func frameSchema(f *market.Frame) *arrow.Schema {
	fields := make([]arrow.Field, 0, len(f.Columns)+1)
	fields = append(fields, arrow.Field{Name: frameIndexField, Type: timestampType})
	for _, c := range f.Columns {
		fields = append(fields, arrow.Field{Name: c.Name, Type: arrow.PrimitiveTypes.Float64, Nullable: true})
	}
	return arrow.NewSchema(fields, nil)
}

func encodeFrame(f *market.Frame) ([]byte, error) {
	if f == nil {
		return nil, nil
	}
	rows := len(f.Index)
	for _, c := range f.Columns {
		if len(c.Values) != rows {
			return nil, fmt.Errorf("frame column %q has %d values for %d rows", c.Name, len(c.Values), rows)
		}
	}

	b := array.NewRecordBuilder(memory.DefaultAllocator, frameSchema(f))
	defer b.Release()

	idxB := b.Field(0).(*array.TimestampBuilder)
	for _, t := range f.Index {
		idxB.Append(arrow.Timestamp(t.UnixNano()))
	}
	for i, c := range f.Columns {
		colB := b.Field(i + 1).(*array.Float64Builder)
		for _, v := range c.Values {
			if v == nil {
				colB.AppendNull()
				continue
			}
			colB.Append(*v)
		}
	}

	rec := b.NewRecord()
	defer rec.Release()
	return writeIPC(rec)
}

func decodeFrame(data []byte) (*market.Frame, error) {
	if len(data) == 0 {
		return nil, nil
	}
	f := &market.Frame{}
	first := true
	err := readIPC(data, func(rec arrow.Record) error {
		schema := rec.Schema()
		if schema.NumFields() == 0 || schema.Field(0).Name != frameIndexField {
			return errors.New("frame: missing index column")
		}
		idxC, ok := rec.Column(0).(*array.Timestamp)
		if !ok {
			return errors.New("frame: index column is not a timestamp array")
		}
		if first {
			for i := 1; i < schema.NumFields(); i++ {
				f.Columns = append(f.Columns, market.Column{Name: schema.Field(i).Name})
			}
			first = false
		}
		if len(f.Columns) != schema.NumFields()-1 {
			return errors.New("frame: column count changed between batches")
		}

		n := int(rec.NumRows())
		for i := 0; i < n; i++ {
			f.Index = append(f.Index, fromTimestamp(idxC.Value(i)))
		}
		for j := range f.Columns {
			col, ok := rec.Column(j + 1).(*array.Float64)
			if !ok {
				return fmt.Errorf("frame: column %q is not a float64 array", f.Columns[j].Name)
			}
			for i := 0; i < n; i++ {
				if col.IsNull(i) {
					f.Columns[j].Values = append(f.Columns[j].Values, nil)
					continue
				}
				f.Columns[j].Values = append(f.Columns[j].Values, market.Float(col.Value(i)))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

func fromTimestamp(ts arrow.Timestamp) time.Time {
	return time.Unix(0, int64(ts)).UTC()
}

func writeIPC(rec arrow.Record) ([]byte, error) {
	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, ipc.WithSchema(rec.Schema()))
	if err := w.Write(rec); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to write record: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close writer: %w", err)
	}
	return buf.Bytes(), nil
}

// readIPC calls fn for every record batch in the stream. Records are only
// valid for the duration of fn.
func readIPC(data []byte, fn func(arrow.Record) error) error {
	r, err := ipc.NewReader(bytes.NewReader(data), ipc.WithAllocator(memory.DefaultAllocator))
	if err != nil {
		return fmt.Errorf("failed to create reader: %w", err)
	}
	defer r.Release()

	for r.Next() {
		if err := fn(r.Record()); err != nil {
			return err
		}
	}
	return r.Err()
}
