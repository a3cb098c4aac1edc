package command

import "strings"

// Kind classifies a command the way the teacher's
// reqReadCmdsBytes/reqWriteCmdsBytes/reqCtlCmdsBytes byte-tables do in
// proto/redis/request.go, generalized from a byte-concatenation search
// to a map lookup. There the classification picked a backend routing
// path; here KindWrite is exactly the set of commands internal/server's
// connection handler (Server.drainFrames) must
// fan out to registered replicas after replying to the client
// (spec.md §4.4) — today only SET, but the table means adding a future
// mutating command is a one-line addition here, not a call-site change.
type Kind int

const (
	KindUnknown Kind = iota
	KindRead
	KindWrite
	KindCtl
)

var kinds = map[string]Kind{
	"PING":     KindCtl,
	"ECHO":     KindCtl,
	"REPLCONF": KindCtl,
	"PSYNC":    KindCtl,

	"GET":    KindRead,
	"TYPE":   KindRead,
	"INFO":   KindRead,
	"XRANGE": KindRead,
	"XREAD":  KindRead,
	// XADD mutates the keyspace like SET does, but spec.md §4.4 only
	// requires fan-out for SET; classified KindRead here so the
	// connection handler's "propagate KindWrite commands" rule doesn't
	// silently grow replication scope beyond what's specified.
	"XADD": KindRead,

	"SET": KindWrite,
}

// Classify reports the Kind of a command name, case-insensitively.
func Classify(name string) Kind {
	if k, ok := kinds[strings.ToUpper(name)]; ok {
		return k
	}
	return KindUnknown
}
