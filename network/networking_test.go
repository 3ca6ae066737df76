package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/redcon"
)

func Test_TxConnReplies(t *testing.T) {
	var c TxConn

	c.WriteString("OK")
	c.WriteError("ERR boom")
	c.WriteBulkString("héllo")
	c.WriteInt(-7)
	c.WriteArray(2)
	c.WriteNull()
	c.WriteRaw([]byte(":1\r\n"))

	assert.Equal(t, "+OK\r\n-ERR boom\r\n$6\r\nhéllo\r\n:-7\r\n*2\r\n$-1\r\n:1\r\n", c.Buf.String())
	assert.NoError(t, c.Close())
}

// recorder stands in for a client connection.
type recorder struct {
	redcon.Conn
	out TxConn
}

func (r *recorder) WriteArray(count int) { r.out.WriteArray(count) }
func (r *recorder) WriteRaw(data []byte) { r.out.WriteRaw(data) }
func (r *recorder) RemoteAddr() string   { return "127.0.0.1:4000" }

func Test_TxConnFlush(t *testing.T) {
	orig := &recorder{}
	tx := TxConn{Orig: orig}
	tx.WriteString("OK")
	tx.WriteInt(3)

	tx.Flush(2)

	assert.Equal(t, "*2\r\n+OK\r\n:3\r\n", orig.out.Buf.String())
	assert.Zero(t, tx.Buf.Len())
	assert.Equal(t, "127.0.0.1:4000", tx.RemoteAddr())
}
