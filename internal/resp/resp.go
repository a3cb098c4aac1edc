// Package resp implements the byte-level RESP codec: encoding values for
// replies, and framing arrays of bulk strings out of a streaming socket
// buffer with exact consumed-byte accounting. The framing/pooling shape
// follows the teacher's proto/redis.Request (proto/redis/request.go):
// a pooled Request wrapping a parsed array, reused across connections via
// sync.Pool instead of allocated fresh per frame.
package resp

import (
	"strconv"
	"sync"

	"github.com/pkg/errors"
)

// Wire-level errors. ErrMalformed means the connection must be closed
// without a reply (spec: ErrMalformedCommand). ErrShortBuffer is not an
// error condition for the caller — it means "come back with more bytes".
var (
	ErrMalformed   = errors.New("resp: malformed frame")
	ErrShortBuffer = errors.New("resp: incomplete frame")
)

const (
	typeArray byte = '*'
	typeBulk  byte = '$'
)

// Value is the polymorphic type Encode accepts: int64, string, or []Value.
type Value interface{}

// Encode renders v as RESP. Integers use the ":+<n>\r\n" form — the
// leading '+' is not standard RESP, but spec.md §4.1 mandates it
// verbatim to match the source's observable wire output (see
// RespCoder.encode in the original implementation); strings render as
// bulk strings; slices render as arrays of the recursively encoded
// elements. Simple-string and error replies ("+OK\r\n", "-ERR ...\r\n")
// are NOT produced here — handlers write those literals directly, per
// spec.md §4.1.
func Encode(v Value) []byte {
	switch t := v.(type) {
	case int64:
		return []byte(":+" + strconv.FormatInt(t, 10) + "\r\n")
	case int:
		return Encode(int64(t))
	case string:
		return encodeBulk(t)
	case []Value:
		return encodeArray(t)
	case []string:
		arr := make([]Value, len(t))
		for i, s := range t {
			arr[i] = s
		}
		return encodeArray(arr)
	default:
		return nil
	}
}

func encodeBulk(s string) []byte {
	out := make([]byte, 0, len(s)+16)
	out = append(out, '$')
	out = strconv.AppendInt(out, int64(len(s)), 10)
	out = append(out, '\r', '\n')
	out = append(out, s...)
	out = append(out, '\r', '\n')
	return out
}

func encodeArray(vs []Value) []byte {
	out := make([]byte, 0, 32)
	out = append(out, '*')
	out = strconv.AppendInt(out, int64(len(vs)), 10)
	out = append(out, '\r', '\n')
	for _, v := range vs {
		out = append(out, Encode(v)...)
	}
	return out
}

// NullBulk is the RESP encoding of a missing/expired value.
var NullBulk = []byte("$-1\r\n")

// Request is a pooled, parsed command frame: the argv vector plus the
// exact raw bytes the frame occupied (needed verbatim for replica
// fan-out, spec.md §4.4).
type Request struct {
	argv []string
	raw  []byte
}

var requestPool = sync.Pool{
	New: func() interface{} { return &Request{} },
}

func getRequest() *Request {
	r := requestPool.Get().(*Request)
	r.argv = r.argv[:0]
	r.raw = nil
	return r
}

// Put returns r to the pool. Callers must not touch r afterward.
func (r *Request) Put() {
	requestPool.Put(r)
}

// Argv returns the parsed command + arguments.
func (r *Request) Argv() []string { return r.argv }

// Cmd returns the command name (argv[0]), or "" for an empty frame.
func (r *Request) Cmd() string {
	if len(r.argv) == 0 {
		return ""
	}
	return r.argv[0]
}

// Arg returns argv[i], or "" if out of range.
func (r *Request) Arg(i int) string {
	if i < 0 || i >= len(r.argv) {
		return ""
	}
	return r.argv[i]
}

// Raw returns the exact, unparsed bytes this frame occupied in the
// buffer it was parsed from.
func (r *Request) Raw() []byte { return r.raw }
