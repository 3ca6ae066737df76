package cache

import "errors"

var (
	ErrNotFound   = errors.New("cache: key not found")
	ErrWrongType  = errors.New("cache: operation against a key holding the wrong kind of value")
	ErrShardBits  = errors.New("cache: shardBits should be in [0,8]")
	ErrSyntax     = errors.New("cache: syntax error")
	ErrNotInteger = errors.New("cache: value is not an integer or out of range")
	ErrNotFloat   = errors.New("cache: value is not a valid float")
	ErrScoreRange = errors.New("cache: min or max is not a float")
)
