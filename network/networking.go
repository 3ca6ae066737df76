package network

import (
	"bytes"
	"strconv"

	"github.com/tidwall/redcon"
)

// Writer is the reply side of a redcon.Conn.
type Writer interface {
	WriteError(msg string)
	WriteString(str string)
	WriteBulkString(bulk string)
	WriteInt(num int)
	WriteArray(count int)
	WriteNull()
	WriteRaw(data []byte)
}

var (
	_ Writer = redcon.Conn(nil)
	_ Writer = (*TxConn)(nil)
)

// TxConn buffers the replies of queued commands until EXEC flushes them.
type TxConn struct {
	Orig redcon.Conn
	Buf  bytes.Buffer
}

func (c *TxConn) RemoteAddr() string     { return c.Orig.RemoteAddr() }
func (c *TxConn) Close() error           { return nil }
func (c *TxConn) WriteError(msg string)  { c.writeRaw([]byte("-" + msg + "\r\n")) }
func (c *TxConn) WriteString(str string) { c.writeRaw([]byte("+" + str + "\r\n")) }
func (c *TxConn) WriteBulkString(bulk string) {
	c.writeRaw([]byte("$" + strconv.Itoa(len(bulk)) + "\r\n" + bulk + "\r\n"))
}
func (c *TxConn) WriteInt(num int) {
	c.writeRaw([]byte(":" + strconv.Itoa(num) + "\r\n"))
}
func (c *TxConn) WriteArray(count int) {
	c.writeRaw([]byte("*" + strconv.Itoa(count) + "\r\n"))
}
func (c *TxConn) WriteNull()           { c.writeRaw([]byte("$-1\r\n")) }
func (c *TxConn) WriteRaw(data []byte) { c.writeRaw(data) }
func (c *TxConn) writeRaw(p []byte)    { c.Buf.Write(p) }

// Flush writes the buffered replies to the original connection as one
// array of n elements and resets the buffer.
func (c *TxConn) Flush(n int) {
	c.Orig.WriteArray(n)
	c.Orig.WriteRaw(c.Buf.Bytes())
	c.Buf.Reset()
}
