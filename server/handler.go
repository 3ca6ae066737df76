package server

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/match"
	"github.com/tidwall/redcon"

	"gonohash/cache"
	"gonohash/network"
	"gonohash/nohash"
)

const (
	errNotInteger = "ERR value is not an integer or out of range"
	errSyntax     = "ERR syntax error"
	errWrongType  = "WRONGTYPE Operation against a key holding the wrong kind of value"
	errExpire     = "ERR invalid expire time in 'set' command"
	errNotFloat   = "ERR value is not a valid float"
	errScoreRange = "ERR min or max is not a float"
)

type command struct {
	// exact argument count when positive, minimum when negative
	arity int
	run   func(h *Handler, w network.Writer, args [][]byte)
}

func (c command) accepts(n int) bool {
	if c.arity < 0 {
		return n >= -c.arity
	}
	return n == c.arity
}

var commands = map[string]command{
	"PING":      {-1, (*Handler).ping},
	"ECHO":      {2, (*Handler).echo},
	"SET":       {-3, (*Handler).set},
	"GET":       {2, (*Handler).get},
	"DEL":       {-2, (*Handler).del},
	"EXISTS":    {-2, (*Handler).exists},
	"TTL":       {2, (*Handler).ttl},
	"DBSIZE":    {1, (*Handler).dbsize},
	"KEYS":      {2, (*Handler).keys},
	"SADD":      {-3, (*Handler).sadd},
	"SREM":      {-3, (*Handler).srem},
	"SISMEMBER": {3, (*Handler).sismember},
	"SCARD":     {2, (*Handler).scard},
	"SMEMBERS":  {2, (*Handler).smembers},
	"HASH":      {2, (*Handler).hash},

	"ZADD":             {-4, (*Handler).zadd},
	"ZREM":             {-3, (*Handler).zrem},
	"ZSCORE":           {3, (*Handler).zscore},
	"ZCARD":            {2, (*Handler).zcard},
	"ZRANGE":           {-4, (*Handler).zrange},
	"ZREVRANGE":        {-4, (*Handler).zrevrange},
	"ZRANGEBYSCORE":    {-4, (*Handler).zrangebyscore},
	"ZREVRANGEBYSCORE": {-4, (*Handler).zrevrangebyscore},
}

// Handler serves Redis-protocol commands against an integer-keyed cache.
type Handler struct {
	db     *cache.Cache[nohash.Uint64, string]
	hasher nohash.BuildHasher[nohash.Uint64]
}

func NewHandler(db *cache.Cache[nohash.Uint64, string]) *Handler {
	return &Handler{db: db}
}

// txState is the connection context between MULTI and EXEC.
type txState struct {
	queue   [][][]byte
	aborted bool
}

// Serve is a redcon handler. It implements MULTI/EXEC/DISCARD and QUIT and
// hands every other command to Exec.
func (h *Handler) Serve(conn redcon.Conn, cmd redcon.Command) {
	name := strings.ToUpper(string(cmd.Args[0]))
	tx, _ := conn.Context().(*txState)

	switch name {
	case "QUIT":
		conn.WriteString("OK")
		conn.Close()
		return
	case "MULTI":
		if tx != nil {
			conn.WriteError("ERR MULTI calls can not be nested")
			return
		}
		conn.SetContext(&txState{})
		conn.WriteString("OK")
		return
	case "DISCARD":
		if tx == nil {
			conn.WriteError("ERR DISCARD without MULTI")
			return
		}
		conn.SetContext(nil)
		conn.WriteString("OK")
		return
	case "EXEC":
		if tx == nil {
			conn.WriteError("ERR EXEC without MULTI")
			return
		}
		conn.SetContext(nil)
		if tx.aborted {
			conn.WriteError("EXECABORT Transaction discarded because of previous errors.")
			return
		}
		txConn := &network.TxConn{Orig: conn}
		for _, args := range tx.queue {
			h.Exec(txConn, args)
		}
		txConn.Flush(len(tx.queue))
		return
	}

	if tx == nil {
		h.Exec(conn, cmd.Args)
		return
	}

	if !h.check(conn, cmd.Args) {
		tx.aborted = true
		return
	}

	// redcon reuses the argument buffers for the next command
	args := make([][]byte, len(cmd.Args))
	for i, arg := range cmd.Args {
		args[i] = append([]byte(nil), arg...)
	}
	tx.queue = append(tx.queue, args)
	conn.WriteString("QUEUED")
}

// check validates the command name and argument count, replying with an
// error if they are wrong.
func (h *Handler) check(w network.Writer, args [][]byte) bool {
	cmd, ok := commands[strings.ToUpper(string(args[0]))]

	if !ok {
		w.WriteError("ERR unknown command '" + string(args[0]) + "'")
		return false
	}

	if !cmd.accepts(len(args)) {
		w.WriteError("ERR wrong number of arguments for '" + strings.ToLower(string(args[0])) + "' command")
		return false
	}

	return true
}

// Exec runs a single command and writes its reply to w.
func (h *Handler) Exec(w network.Writer, args [][]byte) {
	if !h.check(w, args) {
		return
	}

	commands[strings.ToUpper(string(args[0]))].run(h, w, args)
}

func parseKey(arg []byte) (nohash.Uint64, bool) {
	n, err := strconv.ParseUint(string(arg), 10, 64)
	return nohash.Uint64(n), err == nil
}

func parseKeys(args [][]byte) ([]nohash.Uint64, bool) {
	keys := make([]nohash.Uint64, len(args))

	for i, arg := range args {
		key, ok := parseKey(arg)

		if !ok {
			return nil, false
		}

		keys[i] = key
	}

	return keys, true
}

func writeErr(w network.Writer, err error) {
	switch {
	case errors.Is(err, cache.ErrWrongType):
		w.WriteError(errWrongType)
	case errors.Is(err, cache.ErrSyntax):
		w.WriteError(errSyntax)
	case errors.Is(err, cache.ErrNotInteger):
		w.WriteError(errNotInteger)
	case errors.Is(err, cache.ErrNotFloat):
		w.WriteError(errNotFloat)
	case errors.Is(err, cache.ErrScoreRange):
		w.WriteError(errScoreRange)
	default:
		w.WriteError("ERR " + err.Error())
	}
}

func (h *Handler) ping(w network.Writer, args [][]byte) {
	switch len(args) {
	case 1:
		w.WriteString("PONG")
	case 2:
		w.WriteBulkString(string(args[1]))
	default:
		w.WriteError("ERR wrong number of arguments for 'ping' command")
	}
}

func (h *Handler) echo(w network.Writer, args [][]byte) {
	w.WriteBulkString(string(args[1]))
}

func (h *Handler) set(w network.Writer, args [][]byte) {
	key, ok := parseKey(args[1])

	if !ok {
		w.WriteError(errNotInteger)
		return
	}

	var opts *cache.SetOptions

	switch {
	case len(args) == 5 && strings.ToUpper(string(args[3])) == "EX":
		sec, err := strconv.ParseInt(string(args[4]), 10, 64)

		if err != nil {
			w.WriteError(errNotInteger)
			return
		}

		// the deadline must fit in a time.Duration
		if sec <= 0 || sec > math.MaxInt64/int64(time.Second) {
			w.WriteError(errExpire)
			return
		}

		opts = &cache.SetOptions{Expires: true, TTL: time.Duration(sec) * time.Second}
	case len(args) != 3:
		w.WriteError(errSyntax)
		return
	}

	if err := h.db.Set(key, string(args[2]), opts); err != nil {
		writeErr(w, err)
		return
	}

	w.WriteString("OK")
}

func (h *Handler) get(w network.Writer, args [][]byte) {
	key, ok := parseKey(args[1])

	if !ok {
		w.WriteError(errNotInteger)
		return
	}

	val, err := h.db.Get(key)

	switch {
	case err == nil:
		w.WriteBulkString(val)
	case h.db.Exists(key):
		w.WriteError(errWrongType)
	default:
		w.WriteNull()
	}
}

func (h *Handler) del(w network.Writer, args [][]byte) {
	keys, ok := parseKeys(args[1:])

	if !ok {
		w.WriteError(errNotInteger)
		return
	}

	var n int

	for _, key := range keys {
		if h.db.Delete(key) {
			n++
		}
	}

	w.WriteInt(n)
}

func (h *Handler) exists(w network.Writer, args [][]byte) {
	keys, ok := parseKeys(args[1:])

	if !ok {
		w.WriteError(errNotInteger)
		return
	}

	var n int

	for _, key := range keys {
		if h.db.Exists(key) {
			n++
		}
	}

	w.WriteInt(n)
}

func (h *Handler) ttl(w network.Writer, args [][]byte) {
	key, ok := parseKey(args[1])

	if !ok {
		w.WriteError(errNotInteger)
		return
	}

	ttl, err := h.db.TTL(key)

	switch {
	case errors.Is(err, cache.ErrNotFound):
		w.WriteInt(-2)
	case err != nil:
		writeErr(w, err)
	case ttl < 0:
		w.WriteInt(-1)
	default:
		w.WriteInt(int((ttl + time.Second/2) / time.Second))
	}
}

func (h *Handler) dbsize(w network.Writer, args [][]byte) {
	w.WriteInt(h.db.Len())
}

func (h *Handler) keys(w network.Writer, args [][]byte) {
	pattern := string(args[1])
	var out []string

	for _, key := range h.db.Keys() {
		s := strconv.FormatUint(uint64(key), 10)

		if match.Match(s, pattern) {
			out = append(out, s)
		}
	}

	w.WriteArray(len(out))

	for _, s := range out {
		w.WriteBulkString(s)
	}
}

func (h *Handler) sadd(w network.Writer, args [][]byte) {
	h.members(w, args, h.db.SAdd)
}

func (h *Handler) srem(w network.Writer, args [][]byte) {
	h.members(w, args, h.db.SRem)
}

func (h *Handler) members(w network.Writer, args [][]byte, fn func(nohash.Uint64, ...nohash.Uint64) (int, error)) {
	keys, ok := parseKeys(args[1:])

	if !ok {
		w.WriteError(errNotInteger)
		return
	}

	n, err := fn(keys[0], keys[1:]...)

	if err != nil {
		writeErr(w, err)
		return
	}

	w.WriteInt(n)
}

func (h *Handler) sismember(w network.Writer, args [][]byte) {
	keys, ok := parseKeys(args[1:])

	if !ok {
		w.WriteError(errNotInteger)
		return
	}

	found, err := h.db.SIsMember(keys[0], keys[1])

	switch {
	case err != nil:
		writeErr(w, err)
	case found:
		w.WriteInt(1)
	default:
		w.WriteInt(0)
	}
}

func (h *Handler) scard(w network.Writer, args [][]byte) {
	key, ok := parseKey(args[1])

	if !ok {
		w.WriteError(errNotInteger)
		return
	}

	n, err := h.db.SCard(key)

	if err != nil {
		writeErr(w, err)
		return
	}

	w.WriteInt(n)
}

func (h *Handler) smembers(w network.Writer, args [][]byte) {
	key, ok := parseKey(args[1])

	if !ok {
		w.WriteError(errNotInteger)
		return
	}

	members, err := h.db.SMembers(key)

	if err != nil {
		writeErr(w, err)
		return
	}

	w.WriteArray(len(members))

	for _, m := range members {
		w.WriteBulkString(strconv.FormatUint(uint64(m), 10))
	}
}

// hash replies with the identity hash of its argument as an integer.
func (h *Handler) hash(w network.Writer, args [][]byte) {
	key, ok := parseKey(args[1])

	if !ok {
		w.WriteError(errNotInteger)
		return
	}

	w.WriteRaw(redcon.AppendUint(nil, h.hasher.Hash(key)))
}

func (h *Handler) zadd(w network.Writer, args [][]byte) {
	key, ok := parseKey(args[1])

	if !ok {
		w.WriteError(errNotInteger)
		return
	}

	if len(args)%2 != 0 {
		w.WriteError(errSyntax)
		return
	}

	items := make([]cache.ZItem[nohash.Uint64], 0, (len(args)-2)/2)

	for i := 2; i < len(args); i += 2 {
		score, err := strconv.ParseFloat(string(args[i]), 64)

		if err != nil || math.IsNaN(score) {
			w.WriteError(errNotFloat)
			return
		}

		member, ok := parseKey(args[i+1])

		if !ok {
			w.WriteError(errNotInteger)
			return
		}

		items = append(items, cache.ZItem[nohash.Uint64]{Member: member, Score: score})
	}

	n, err := h.db.ZAdd(key, items...)

	if err != nil {
		writeErr(w, err)
		return
	}

	w.WriteInt(n)
}

func (h *Handler) zrem(w network.Writer, args [][]byte) {
	h.members(w, args, h.db.ZRem)
}

func (h *Handler) zscore(w network.Writer, args [][]byte) {
	keys, ok := parseKeys(args[1:])

	if !ok {
		w.WriteError(errNotInteger)
		return
	}

	score, found, err := h.db.ZScore(keys[0], keys[1])

	switch {
	case err != nil:
		writeErr(w, err)
	case found:
		w.WriteBulkString(formatScore(score))
	default:
		w.WriteNull()
	}
}

func (h *Handler) zcard(w network.Writer, args [][]byte) {
	key, ok := parseKey(args[1])

	if !ok {
		w.WriteError(errNotInteger)
		return
	}

	n, err := h.db.ZCard(key)

	if err != nil {
		writeErr(w, err)
		return
	}

	w.WriteInt(n)
}

func (h *Handler) zrange(w network.Writer, args [][]byte) {
	h.rangeByRank(w, args, h.db.ZRange)
}

func (h *Handler) zrevrange(w network.Writer, args [][]byte) {
	h.rangeByRank(w, args, h.db.ZRevRange)
}

func (h *Handler) rangeByRank(w network.Writer, args [][]byte, fn func(nohash.Uint64, int, int) ([]cache.ZItem[nohash.Uint64], error)) {
	key, ok := parseKey(args[1])

	if !ok {
		w.WriteError(errNotInteger)
		return
	}

	start, err1 := strconv.Atoi(string(args[2]))
	stop, err2 := strconv.Atoi(string(args[3]))

	if err1 != nil || err2 != nil {
		w.WriteError(errNotInteger)
		return
	}

	withScores := len(args) == 5 && strings.ToUpper(string(args[4])) == "WITHSCORES"

	if len(args) > 4 && !withScores {
		w.WriteError(errSyntax)
		return
	}

	items, err := fn(key, start, stop)

	if err != nil {
		writeErr(w, err)
		return
	}

	writeZItems(w, items, withScores)
}

func (h *Handler) zrangebyscore(w network.Writer, args [][]byte) {
	h.rangeByScore(w, args, false)
}

func (h *Handler) zrevrangebyscore(w network.Writer, args [][]byte) {
	h.rangeByScore(w, args, true)
}

func (h *Handler) rangeByScore(w network.Writer, args [][]byte, reverse bool) {
	key, ok := parseKey(args[1])

	if !ok {
		w.WriteError(errNotInteger)
		return
	}

	rest := make([]string, len(args)-2)

	for i, arg := range args[2:] {
		rest[i] = string(arg)
	}

	opts, err := cache.ParseZRangeByScoreArgs(rest, reverse)

	if err != nil {
		writeErr(w, err)
		return
	}

	items, err := h.db.ZRangeByScore(key, opts)

	if err != nil {
		writeErr(w, err)
		return
	}

	writeZItems(w, items, opts.WithScores)
}

func writeZItems(w network.Writer, items []cache.ZItem[nohash.Uint64], withScores bool) {
	n := len(items)

	if withScores {
		n *= 2
	}

	w.WriteArray(n)

	for _, it := range items {
		w.WriteBulkString(strconv.FormatUint(uint64(it.Member), 10))

		if withScores {
			w.WriteBulkString(formatScore(it.Score))
		}
	}
}

// formatScore prints a score the way Redis does, "inf" and "-inf" included.
func formatScore(score float64) string {
	switch {
	case math.IsInf(score, 1):
		return "inf"
	case math.IsInf(score, -1):
		return "-inf"
	}

	return strconv.FormatFloat(score, 'g', -1, 64)
}
