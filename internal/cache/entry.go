package cache

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"time"
)

// Row layout:
//
//	written_at unix nanos (8, big endian) | ttl seconds (8, big endian) |
//	category length (2, big endian) | category | value
const rowHeaderSize = 8 + 8 + 2

type entry struct {
	WrittenAt time.Time
	TTL       int64
	Category  string
	Value     []byte
}

// key builds the bucket key for ticker and category. Tickers are
// case-insensitive; categories are stored as given.
func key(ticker, category string) []byte {
	return []byte(strings.ToUpper(ticker) + ":" + category)
}

func tickerPrefix(ticker string) []byte {
	return []byte(strings.ToUpper(ticker) + ":")
}

func (e entry) expiresAt() time.Time {
	return e.WrittenAt.Add(time.Duration(e.TTL) * time.Second)
}

// expired reports whether e has outlived its TTL. A row is still live at
// exactly written_at + ttl.
func (e entry) expired(now time.Time) bool {
	return now.After(e.expiresAt())
}

func (e entry) marshal() ([]byte, error) {
	if len(e.Category) > math.MaxUint16 {
		return nil, fmt.Errorf("category too long: %d bytes", len(e.Category))
	}
	buf := make([]byte, rowHeaderSize+len(e.Category)+len(e.Value))
	binary.BigEndian.PutUint64(buf[0:8], uint64(e.WrittenAt.UnixNano()))
	binary.BigEndian.PutUint64(buf[8:16], uint64(e.TTL))
	binary.BigEndian.PutUint16(buf[16:18], uint16(len(e.Category)))
	n := copy(buf[rowHeaderSize:], e.Category)
	copy(buf[rowHeaderSize+n:], e.Value)
	return buf, nil
}

// unmarshalEntry parses a stored row. The returned Value aliases data.
func unmarshalEntry(data []byte) (entry, error) {
	if len(data) < rowHeaderSize {
		return entry{}, fmt.Errorf("%w: %d byte row", ErrCorrupt, len(data))
	}
	catLen := int(binary.BigEndian.Uint16(data[16:18]))
	if len(data) < rowHeaderSize+catLen {
		return entry{}, fmt.Errorf("%w: category overruns row", ErrCorrupt)
	}
	return entry{
		WrittenAt: time.Unix(0, int64(binary.BigEndian.Uint64(data[0:8]))),
		TTL:       int64(binary.BigEndian.Uint64(data[8:16])),
		Category:  string(data[rowHeaderSize : rowHeaderSize+catLen]),
		Value:     data[rowHeaderSize+catLen:],
	}, nil
}
