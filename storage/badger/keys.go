package badger

import (
	"encoding/binary"
	"time"
)

// Key prefixes for different data types
const (
	productPrefix = "prod:"
	profilePrefix = "prof:"
	turnPrefix    = "turn:"
	turnSeq       = "turnseq"
)

// makeProductKey generates a key for a product by SKU.
func makeProductKey(sku string) []byte {
	return []byte(productPrefix + sku)
}

// makeProfileKey generates a key for a customer profile by user ID.
func makeProfileKey(userID string) []byte {
	return []byte(profilePrefix + userID)
}

// makeTurnPrefix generates the partial key shared by all turns of a user.
// Format: prefix:userID\x00
func makeTurnPrefix(userID string) []byte {
	buf := make([]byte, 0, len(turnPrefix)+len(userID)+1)
	buf = append(buf, turnPrefix...)
	buf = append(buf, userID...)
	return append(buf, 0)
}

// makeTurnKey generates a composite key for a conversation turn.
// Format: prefix:userID\x00timestamp seq
func makeTurnKey(userID string, timestamp time.Time, seq uint64) []byte {
	prefix := makeTurnPrefix(userID)
	buf := make([]byte, len(prefix)+16) // 8 bytes for timestamp + 8 bytes for seq
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}
