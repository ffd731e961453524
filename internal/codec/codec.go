// Package codec turns market records into opaque cache blobs and back.
//
// A blob is a small frame around a JSON envelope:
//
//	"QSC1" | flags (1 byte) | xxhash64(body) (8 bytes, big endian) | body
//
// The envelope is a tagged union {"kind": ..., "payload": ...}; each kind has
// its own strongly typed payload. Tabular fields (price history, financial
// statements) travel inside the payload as Arrow IPC streams. When the
// compress flag is set the body is zstd-compressed.
package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"

	"github.com/leonardcser/quickscope/internal/market"
)

// Codec converts records to bytes and back. Implementations must be safe for
// concurrent use.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte) (any, error)
}

// Kind tags the payload of an envelope.
type Kind string

const (
	KindStockData      Kind = "stock_data"
	KindFundamentals   Kind = "fundamentals"
	KindOptionsChain   Kind = "options_chain"
	KindNews           Kind = "news"
	KindAnalystRatings Kind = "analyst_ratings"
	KindMarketData     Kind = "market_data"
)

const (
	headerSize      = 4 + 1 + 8
	flagZstd   byte = 1 << 0
)

var magic = [4]byte{'Q', 'S', 'C', '1'}

// The zstd encoder and decoder are safe for concurrent EncodeAll/DecodeAll.
var (
	zenc, _ = zstd.NewWriter(nil)
	zdec, _ = zstd.NewReader(nil)
)

type Options struct {
	// Compress enables zstd compression of the envelope.
	Compress bool
}

// Binary is the default Codec.
type Binary struct {
	compress bool
}

func New(opts Options) *Binary {
	return &Binary{compress: opts.Compress}
}

// Default returns a compressing Binary codec.
func Default() *Binary {
	return New(Options{Compress: true})
}

type envelope struct {
	Kind    Kind            `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

func (c *Binary) Encode(v any) ([]byte, error) {
	kind, payload, err := encodePayload(v)
	if err != nil {
		return nil, &SerializationError{Op: "encode", Kind: kind, Err: err}
	}
	body, err := json.Marshal(envelope{Kind: kind, Payload: payload})
	if err != nil {
		return nil, &SerializationError{Op: "encode", Kind: kind, Err: err}
	}

	var flags byte
	if c.compress {
		body = zenc.EncodeAll(body, make([]byte, 0, len(body)/2))
		flags |= flagZstd
	}

	out := make([]byte, headerSize+len(body))
	copy(out[:4], magic[:])
	out[4] = flags
	binary.BigEndian.PutUint64(out[5:headerSize], xxhash.Sum64(body))
	copy(out[headerSize:], body)
	return out, nil
}

func (c *Binary) Decode(data []byte) (any, error) {
	body, err := unframe(data)
	if err != nil {
		return nil, &SerializationError{Op: "decode", Err: err}
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &SerializationError{Op: "decode", Err: err}
	}
	v, err := decodePayload(env.Kind, env.Payload)
	if err != nil {
		return nil, &SerializationError{Op: "decode", Kind: env.Kind, Err: err}
	}
	return v, nil
}

func unframe(data []byte) ([]byte, error) {
	if len(data) < headerSize {
		return nil, ErrShortBlob
	}
	if !bytes.Equal(data[:4], magic[:]) {
		return nil, ErrBadMagic
	}
	flags := data[4]
	sum := binary.BigEndian.Uint64(data[5:headerSize])
	body := data[headerSize:]
	if xxhash.Sum64(body) != sum {
		return nil, ErrChecksum
	}
	if flags&flagZstd == 0 {
		return body, nil
	}
	out, err := zdec.DecodeAll(body, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	return out, nil
}

func encodePayload(v any) (Kind, []byte, error) {
	switch r := v.(type) {
	case *market.StockData:
		if r == nil {
			return KindStockData, nil, ErrNilRecord
		}
		w, err := toStockDataWire(r)
		if err != nil {
			return KindStockData, nil, err
		}
		b, err := json.Marshal(w)
		return KindStockData, b, err
	case *market.Fundamentals:
		if r == nil {
			return KindFundamentals, nil, ErrNilRecord
		}
		w, err := toFundamentalsWire(r)
		if err != nil {
			return KindFundamentals, nil, err
		}
		b, err := json.Marshal(w)
		return KindFundamentals, b, err
	case *market.OptionsChain:
		if r == nil {
			return KindOptionsChain, nil, ErrNilRecord
		}
		b, err := json.Marshal(r)
		return KindOptionsChain, b, err
	case []market.NewsItem:
		b, err := json.Marshal(r)
		return KindNews, b, err
	case *market.AnalystRatings:
		if r == nil {
			return KindAnalystRatings, nil, ErrNilRecord
		}
		b, err := json.Marshal(r)
		return KindAnalystRatings, b, err
	case *market.MarketData:
		if r == nil {
			return KindMarketData, nil, ErrNilRecord
		}
		w, err := toMarketDataWire(r)
		if err != nil {
			return KindMarketData, nil, err
		}
		b, err := json.Marshal(w)
		return KindMarketData, b, err
	default:
		return "", nil, fmt.Errorf("%w: %T", ErrUnsupportedType, v)
	}
}

func decodePayload(kind Kind, payload []byte) (any, error) {
	switch kind {
	case KindStockData:
		var w stockDataWire
		if err := json.Unmarshal(payload, &w); err != nil {
			return nil, err
		}
		return w.record()
	case KindFundamentals:
		var w fundamentalsWire
		if err := json.Unmarshal(payload, &w); err != nil {
			return nil, err
		}
		return w.record()
	case KindOptionsChain:
		var r market.OptionsChain
		if err := json.Unmarshal(payload, &r); err != nil {
			return nil, err
		}
		utcOptionsChain(&r)
		return &r, nil
	case KindNews:
		var r []market.NewsItem
		if err := json.Unmarshal(payload, &r); err != nil {
			return nil, err
		}
		utcNews(r)
		return r, nil
	case KindAnalystRatings:
		var r market.AnalystRatings
		if err := json.Unmarshal(payload, &r); err != nil {
			return nil, err
		}
		utcAnalystRatings(&r)
		return &r, nil
	case KindMarketData:
		var w marketDataWire
		if err := json.Unmarshal(payload, &w); err != nil {
			return nil, err
		}
		return w.record()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
