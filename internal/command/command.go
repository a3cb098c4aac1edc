// Package command implements the state-free request pipeline (C3): one
// handler per verb, each a pure function of (argv, server info, store)
// returning a reply plus an optional follow-up payload. Dispatch is the
// generalized form of the teacher's per-backend routing in
// proto/redis/request.go (there it picked memcache vs redis wire
// encoding for a backend pool; here every verb maps straight to a Go
// function via a name→Handler table built at init time).
package command

import (
	"context"
	"strings"

	"github.com/lakshya24/redis-from-scratch/internal/srvinfo"
	"github.com/lakshya24/redis-from-scratch/internal/store"
)

// Context carries everything a Handler needs. Offset is non-nil only on
// a replica's apply loop, where REPLCONF GETACK must report the
// replica's current byte offset instead of a generic +OK.
type Context struct {
	Ctx     context.Context
	Store   *store.Store
	Info    *srvinfo.Info
	ConnID  uint64
	Offset  func() int64 // nil on a normal client connection
}

// Handler executes one command and returns (reply, followup). followup
// is non-empty only for PSYNC, which must send the RDB snapshot blob
// immediately after its +FULLRESYNC line.
type Handler func(c *Context, argv []string) (reply, followup []byte)

var table = map[string]Handler{}

func register(name string, h Handler) {
	table[strings.ToUpper(name)] = h
}

// Lookup resolves argv[0] case-insensitively to its Handler.
func Lookup(name string) (Handler, bool) {
	h, ok := table[strings.ToUpper(name)]
	return h, ok
}

func init() {
	register("PING", handlePing)
	register("ECHO", handleEcho)
	register("SET", handleSet)
	register("GET", handleGet)
	register("TYPE", handleType)
	register("INFO", handleInfo)
	register("REPLCONF", handleReplconf)
	register("PSYNC", handlePsync)
	register("XADD", handleXadd)
	register("XRANGE", handleXrange)
	register("XREAD", handleXread)
}
