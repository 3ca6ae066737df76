package server

import (
	"log"

	"github.com/tidwall/redcon"
)

// NewServer returns a redcon server dispatching to h. Call ListenAndServe
// on it to start accepting connections.
func (h *Handler) NewServer(addr string) *redcon.Server {
	return redcon.NewServer(addr,
		h.Serve,
		func(conn redcon.Conn) bool { return true },
		func(conn redcon.Conn, err error) {
			if err != nil {
				log.Println("closed:", conn.RemoteAddr(), err)
			}
		},
	)
}
