package model

import (
	"encoding/hex"
	"github.com/zeebo/xxh3"
	"sync"
	"unsafe"
)

// Key identifies a media URL by its 128-bit xxh3 hash. Keys are comparable
// with ==.
type Key struct {
	hi uint64
	lo uint64
}

var hasherPool = sync.Pool{New: func() any { return xxh3.New() }}

func NewKey(url string) Key {
	// acquire reusable hasher
	hasher := hasherPool.Get().(*xxh3.Hasher)
	hasher.Reset()

	_, _ = hasher.Write(unsafe.Slice(unsafe.StringData(url), len(url)))
	u128 := hasher.Sum128()

	k := Key{
		hi: u128.Hi,
		lo: u128.Lo,
	}

	// release hasher after use
	hasherPool.Put(hasher)

	return k
}

// Hex renders the 128-bit part; it is used as the on-disk file name.
func (k Key) Hex() string {
	var buf [16]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(k.hi >> (56 - 8*i))
		buf[8+i] = byte(k.lo >> (56 - 8*i))
	}
	return hex.EncodeToString(buf[:])
}
