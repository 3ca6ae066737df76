package nohash

import (
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userID uint32

func (userID) NoHash() {}

type color int8

func (color) NoHash() {}

const (
	red color = iota - 1
	green
	blue
)

func Test_BuildHasher(t *testing.T) {
	var b BuildHasher[Uint64]

	assert.Equal(t, uint64(12345), b.Hash(12345))
	assert.Equal(t, b.Hash(777), BuildHasher[Uint64]{}.Hash(777))
	assert.True(t, b.Equal(1, 1))
	assert.False(t, b.Equal(1, 2))

	h := b.Build()
	assert.Equal(t, uint64(0), h.Sum64())

	assert.Equal(t, uint64(7), BuildHasher[userID]{}.Hash(7))
	assert.Equal(t, ^uint64(0), BuildHasher[color]{}.Hash(red))
	assert.Equal(t, uint64(1), BuildHasher[color]{}.Hash(blue))
	assert.Equal(t, ^uint64(0), BuildHasher[Int]{}.Hash(-1))
	assert.Equal(t, uint64(200), BuildHasher[Uint8]{}.Hash(200))
}

// Values fixed here must never change between runs or builds.
func Test_BuildHasherIsUnseeded(t *testing.T) {
	assert.Equal(t, uint64(0xdeadbeef), BuildHasher[Uint32]{}.Hash(0xdeadbeef))
	assert.Equal(t, uint64(0x0123456789abcdef), BuildHasher[Uint64]{}.Hash(0x0123456789abcdef))
}

func Test_MapRoundTrip(t *testing.T) {
	m := NewMap[Uint64, int]()

	for i, k := range []Uint64{9, 8, 7, 6, 5, 4, 3, 2, 1, 0} {
		m.Set(k, (i+1)*10)
	}

	require.Equal(t, 10, m.Len())

	for i, k := range []Uint64{9, 8, 7, 6, 5, 4, 3, 2, 1, 0} {
		val, ok := m.Get(k)
		require.True(t, ok)
		assert.Equal(t, (i+1)*10, val)
	}

	prev, ok := m.Delete(9)
	assert.True(t, ok)
	assert.Equal(t, 10, prev)
	assert.False(t, m.Has(9))
}

func Test_MapZeroValue(t *testing.T) {
	var m Map[userID, string]

	m.Set(42, "answer")
	val, ok := m.Get(42)

	require.True(t, ok)
	assert.Equal(t, "answer", val)
}

func Test_SetDistinct(t *testing.T) {
	s := NewSet[color](4)

	for _, c := range []color{red, green, blue, green, red} {
		s.Insert(c)
	}

	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Contains(red))
	assert.True(t, s.Contains(green))
	assert.True(t, s.Contains(blue))
	assert.False(t, s.Contains(2))

	var zero Set[Int64]
	assert.True(t, zero.Insert(-5))
	assert.True(t, zero.Contains(-5))
}

// checkKey type-checks src against the Key constraint declared in key.go.
func checkKey(t *testing.T, src string) error {
	t.Helper()

	fset := token.NewFileSet()
	key, err := parser.ParseFile(fset, "key.go", nil, 0)
	require.NoError(t, err)

	use, err := parser.ParseFile(fset, "use.go", "package nohash\n\nfunc use[K Key]() {}\n\n"+src, 0)
	require.NoError(t, err)

	_, err = (&types.Config{}).Check("nohash", fset, []*ast.File{key, use}, nil)
	return err
}

func Test_KeyRequiresMarker(t *testing.T) {
	assert.NoError(t, checkKey(t, "var _ = use[Uint64]"))
	assert.NoError(t, checkKey(t, "type id uint16\n\nfunc (id) NoHash() {}\n\nvar _ = use[id]"))

	// in the type set, but without the marker
	err := checkKey(t, "var _ = use[uint64]")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not satisfy")
	assert.Contains(t, err.Error(), "missing method NoHash")

	// has the marker, but outside the type set
	err = checkKey(t, "type name string\n\nfunc (name) NoHash() {}\n\nvar _ = use[name]")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not satisfy")
	assert.Contains(t, err.Error(), "~int8")
	assert.NotContains(t, err.Error(), "missing method")
}
