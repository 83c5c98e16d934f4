package backend

import (
	"strconv"
	"strings"
)

const (
	// PrefixGroupMeta row group metadata prefix
	PrefixGroupMeta = "meta:rowgroup:"
)

// KeyEncoder encodes keys for Badger storage
type KeyEncoder struct{}

// NewKeyEncoder creates a new KeyEncoder
func NewKeyEncoder() *KeyEncoder {
	return &KeyEncoder{}
}

// EncodeGroupMetaKey encodes a row group metadata key
// Format: meta:rowgroup:{row_group_id}
func (e *KeyEncoder) EncodeGroupMetaKey(rowGroupID uint64) []byte {
	return []byte(PrefixGroupMeta + strconv.FormatUint(rowGroupID, 10))
}

// DecodeGroupMetaKey decodes a row group id from a metadata key
func (e *KeyEncoder) DecodeGroupMetaKey(key []byte) (rowGroupID uint64, ok bool) {
	s := string(key)
	if !strings.HasPrefix(s, PrefixGroupMeta) {
		return 0, false
	}
	id, err := strconv.ParseUint(s[len(PrefixGroupMeta):], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// EncodeGroupMetaPrefix encodes the prefix for scanning all group metas
func (e *KeyEncoder) EncodeGroupMetaPrefix() []byte {
	return []byte(PrefixGroupMeta)
}
