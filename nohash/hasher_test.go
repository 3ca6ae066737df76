package nohash

import (
	"errors"
	"hash"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_HasherIdentity(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	values := []uint64{0, 1, 2, 255, 256, math.MaxUint32, math.MaxUint64}

	for i := 0; i < 1000; i++ {
		values = append(values, r.Uint64())
	}

	for _, n := range values {
		var h Hasher
		h.WriteUint64(n)
		require.Equal(t, n, h.Sum64())
	}
}

func Test_HasherWidths(t *testing.T) {
	var h Hasher

	h.WriteUint8(math.MaxUint8)
	assert.Equal(t, uint64(math.MaxUint8), h.Sum64())

	h.WriteUint16(math.MaxUint16)
	assert.Equal(t, uint64(math.MaxUint16), h.Sum64())

	h.WriteUint32(math.MaxUint32)
	assert.Equal(t, uint64(math.MaxUint32), h.Sum64())

	h.WriteUint(42)
	assert.Equal(t, uint64(42), h.Sum64())

	h.WriteUintptr(43)
	assert.Equal(t, uint64(43), h.Sum64())

	require.NoError(t, h.WriteByte(0x7f))
	assert.Equal(t, uint64(0x7f), h.Sum64())

	h.WriteInt8(-1)
	assert.Equal(t, uint64(math.MaxUint64), h.Sum64())

	h.WriteInt16(-2)
	assert.Equal(t, uint64(math.MaxUint64-1), h.Sum64())

	h.WriteInt32(7)
	assert.Equal(t, uint64(7), h.Sum64())

	h.WriteInt64(math.MinInt64)
	assert.Equal(t, uint64(1)<<63, h.Sum64())

	h.WriteInt(-3)
	assert.Equal(t, uint64(math.MaxUint64-2), h.Sum64())
}

func Test_HasherLastWriteWins(t *testing.T) {
	var h Hasher
	h.WriteUint64(1)
	h.WriteUint32(2)
	h.WriteUint8(3)

	assert.Equal(t, uint64(3), h.Sum64())
}

func Test_HasherSumIsIdempotent(t *testing.T) {
	var h Hasher
	h.WriteUint64(99)

	assert.Equal(t, h.Sum64(), h.Sum64())
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 99}, h.Sum(nil))
	assert.Equal(t, []byte{1, 0, 0, 0, 0, 0, 0, 0, 99}, h.Sum([]byte{1}))
	assert.Equal(t, uint64(99), h.Sum64())

	h.Reset()
	assert.Equal(t, uint64(0), h.Sum64())
}

func Test_HasherRejectsBytes(t *testing.T) {
	var h Hasher
	h.WriteUint64(5)

	assert.PanicsWithError(t, ErrUnsupportedWrite.Error(), func() {
		h.Write([]byte{1, 2, 3})
	})
	assert.PanicsWithError(t, ErrUnsupportedWrite.Error(), func() {
		h.WriteString("key")
	})

	// as a hash.Hash64 the failure is just as loud
	var hh hash.Hash64 = &h

	defer func() {
		err, ok := recover().(error)
		require.True(t, ok)
		assert.True(t, errors.Is(err, ErrUnsupportedWrite))
	}()

	hh.Write(nil)
	t.Fatal("Write returned")
}

func Test_HasherSize(t *testing.T) {
	var h Hasher

	assert.Equal(t, 8, h.Size())
	assert.Equal(t, 8, h.BlockSize())
	assert.Len(t, h.Sum(nil), h.Size())
}
