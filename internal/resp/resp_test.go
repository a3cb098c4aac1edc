package resp_test

import (
	"strconv"
	"testing"

	"github.com/lakshya24/redis-from-scratch/internal/resp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	assert.Equal(t, []byte(":+42\r\n"), resp.Encode(int64(42)))
	assert.Equal(t, []byte("$5\r\nhello\r\n"), resp.Encode("hello"))
	assert.Equal(t, []byte("$0\r\n\r\n"), resp.Encode(""))
	assert.Equal(t, []byte("*2\r\n$1\r\na\r\n$1\r\nb\r\n"), resp.Encode([]resp.Value{"a", "b"}))
}

func frame(args ...string) []byte {
	out := []byte("*" + strconv.Itoa(len(args)) + "\r\n")
	for _, a := range args {
		out = append(out, []byte("$"+strconv.Itoa(len(a))+"\r\n"+a+"\r\n")...)
	}
	return out
}

func TestReaderNextSingleFrame(t *testing.T) {
	buf := frame("PING")
	req, consumed, err := resp.Next(buf)
	require.NoError(t, err)
	defer req.Put()
	assert.Equal(t, len(buf), consumed)
	assert.Equal(t, []string{"PING"}, req.Argv())
	assert.Equal(t, "PING", req.Cmd())
}

func TestReaderNextConcatenatedFrames(t *testing.T) {
	f1 := frame("SET", "k", "v")
	f2 := frame("GET", "k")
	buf := append(append([]byte(nil), f1...), f2...)

	req1, n1, err := resp.Next(buf)
	require.NoError(t, err)
	defer req1.Put()
	assert.Equal(t, len(f1), n1)
	assert.Equal(t, []string{"SET", "k", "v"}, req1.Argv())

	req2, n2, err := resp.Next(buf[n1:])
	require.NoError(t, err)
	defer req2.Put()
	assert.Equal(t, len(f2), n2)
	assert.Equal(t, []string{"GET", "k"}, req2.Argv())

	assert.Equal(t, len(buf), n1+n2)
}

func TestReaderNextShortBuffer(t *testing.T) {
	full := frame("ECHO", "hello")
	_, _, err := resp.Next(full[:len(full)-3])
	assert.ErrorIs(t, err, resp.ErrShortBuffer)
}

func TestReaderNextMalformed(t *testing.T) {
	_, _, err := resp.Next([]byte("*2\r\n$3\r\nfoo\r\n+notbulk\r\n"))
	assert.ErrorIs(t, err, resp.ErrMalformed)
}

func TestReaderNextRawPreservesOriginalBytes(t *testing.T) {
	buf := frame("SET", "foo", "bar")
	req, n, err := resp.Next(buf)
	require.NoError(t, err)
	defer req.Put()
	assert.Equal(t, buf[:n], req.Raw())
}
