package index

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/kasuganosora/tilestore/pkg/storage/tuple"
)

// Value type tags. Tag order matters: encoded keys compare bytewise, so
// NULL sorts first, then booleans, numbers and strings by tag.
const (
	tagNull   = 0x00
	tagBool   = 0x01
	tagNumber = 0x02
	tagString = 0x03
	tagOther  = 0x04
)

// KeyCodec turns a projected key tuple into order-preserving bytes.
// Strings contribute collation keys, so two strings that are equal under
// the collation (e.g. case-insensitively) encode identically. Numbers of
// every Go numeric type are converted to float64 and written big-endian
// with a sign-flip transform, so byte order matches numeric order; integers
// beyond 2^53 in magnitude are rounded by that conversion, so neighbouring
// large integers can share an encoding.
type KeyCodec struct {
	collator *collate.Collator
	buf      collate.Buffer
	mu       sync.Mutex
}

// NewKeyCodec creates a codec with the default case-insensitive collation
// (the utf8mb4 general behavior).
func NewKeyCodec() *KeyCodec {
	return &KeyCodec{
		collator: collate.New(language.Und, collate.IgnoreCase),
	}
}

// NewKeyCodecWithCollator creates a codec over an explicit collator.
func NewKeyCodecWithCollator(c *collate.Collator) *KeyCodec {
	return &KeyCodec{collator: c}
}

// Encode produces the key bytes for a projected tuple, returned as a
// string so it can be used as a map key.
func (c *KeyCodec) Encode(key *tuple.Tuple) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]byte, 0, 16*key.ColumnCount())
	for i := 0; i < key.ColumnCount(); i++ {
		out = c.encodeValue(out, key.GetValue(i))
	}
	return string(out)
}

func (c *KeyCodec) encodeValue(out []byte, v interface{}) []byte {
	switch val := v.(type) {
	case nil:
		return append(out, tagNull)
	case bool:
		out = append(out, tagBool)
		if val {
			return append(out, 1)
		}
		return append(out, 0)
	case int64:
		return c.appendNumber(out, float64(val))
	case int:
		return c.appendNumber(out, float64(val))
	case int32:
		return c.appendNumber(out, float64(val))
	case uint64:
		return c.appendNumber(out, float64(val))
	case float64:
		return c.appendNumber(out, val)
	case float32:
		return c.appendNumber(out, float64(val))
	case string:
		out = append(out, tagString)
		c.buf.Reset()
		ck := c.collator.KeyFromString(&c.buf, val)
		out = append(out, ck...)
		return append(out, 0x00) // terminator keeps prefixes ordered
	default:
		out = append(out, tagOther)
		out = append(out, []byte(fmt.Sprintf("%v", val))...)
		return append(out, 0x00)
	}
}

// appendNumber encodes a float64 so that the byte order of the encoding
// matches the numeric order of the value.
func (c *KeyCodec) appendNumber(out []byte, f float64) []byte {
	bits := math.Float64bits(f)
	if f >= 0 {
		bits |= 1 << 63
	} else {
		bits = ^bits
	}
	out = append(out, tagNumber)
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], bits)
	return append(out, b[:]...)
}
