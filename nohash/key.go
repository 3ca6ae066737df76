package nohash

// IsEnabled marks a type whose integer value is already a good table
// index, e.g. dense ids or enum values. A type opts in by declaring the
// empty NoHash method:
//
//	type UserID uint32
//
//	func (UserID) NoHash() {}
//
// Types without it, including the bare predeclared integers, cannot be
// used with Map, Set or BuildHasher and are rejected at compile time.
type IsEnabled interface {
	NoHash()
}

// Key is satisfied by fixed-width integer types that implement IsEnabled.
type Key interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~int |
		~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint | ~uintptr
	IsEnabled
}

// Integer types enabled for identity hashing.
type (
	Int8    int8
	Int16   int16
	Int32   int32
	Int64   int64
	Int     int
	Uint8   uint8
	Uint16  uint16
	Uint32  uint32
	Uint64  uint64
	Uint    uint
	Uintptr uintptr
)

func (Int8) NoHash()    {}
func (Int16) NoHash()   {}
func (Int32) NoHash()   {}
func (Int64) NoHash()   {}
func (Int) NoHash()     {}
func (Uint8) NoHash()   {}
func (Uint16) NoHash()  {}
func (Uint32) NoHash()  {}
func (Uint64) NoHash()  {}
func (Uint) NoHash()    {}
func (Uintptr) NoHash() {}
