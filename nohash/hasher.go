package nohash

import (
	"encoding/binary"
	"errors"
	"hash"
)

// ErrUnsupportedWrite is the panic value of Hasher.Write and
// Hasher.WriteString.
var ErrUnsupportedWrite = errors.New("nohash: hasher only accepts fixed-width integer writes")

var _ hash.Hash64 = (*Hasher)(nil)

// Hasher returns the integer written to it as the hash. When several
// integers are written before Sum64, the last one wins. Signed values are
// sign-extended to 64 bits. The zero value is ready to use.
type Hasher struct {
	n uint64
}

func (h *Hasher) WriteUint8(n uint8)     { h.n = uint64(n) }
func (h *Hasher) WriteUint16(n uint16)   { h.n = uint64(n) }
func (h *Hasher) WriteUint32(n uint32)   { h.n = uint64(n) }
func (h *Hasher) WriteUint64(n uint64)   { h.n = n }
func (h *Hasher) WriteUint(n uint)       { h.n = uint64(n) }
func (h *Hasher) WriteUintptr(n uintptr) { h.n = uint64(n) }
func (h *Hasher) WriteInt8(n int8)       { h.n = uint64(n) }
func (h *Hasher) WriteInt16(n int16)     { h.n = uint64(n) }
func (h *Hasher) WriteInt32(n int32)     { h.n = uint64(n) }
func (h *Hasher) WriteInt64(n int64)     { h.n = uint64(n) }
func (h *Hasher) WriteInt(n int)         { h.n = uint64(n) }

func (h *Hasher) WriteByte(c byte) error {
	h.n = uint64(c)
	return nil
}

// Write always panics. There is no way to fold an arbitrary byte slice
// into one integer without mixing it.
func (h *Hasher) Write(p []byte) (int, error) {
	panic(ErrUnsupportedWrite)
}

// WriteString always panics, see Write.
func (h *Hasher) WriteString(s string) (int, error) {
	panic(ErrUnsupportedWrite)
}

// Sum64 returns the last integer written, unchanged.
func (h *Hasher) Sum64() uint64 {
	return h.n
}

// Sum appends the big-endian encoding of Sum64 to b.
func (h *Hasher) Sum(b []byte) []byte {
	return binary.BigEndian.AppendUint64(b, h.n)
}

func (h *Hasher) Reset() {
	h.n = 0
}

func (h *Hasher) Size() int {
	return 8
}

func (h *Hasher) BlockSize() int {
	return 8
}
