package replica

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lakshya24/redis-from-scratch/internal/srvinfo"
	"github.com/lakshya24/redis-from-scratch/internal/store"
)

// fakeMaster drives the other end of a net.Pipe through the handshake
// spec.md §4.5 describes, then streams a SET and a REPLCONF GETACK,
// capturing the first line of the replica's ACK reply.
func fakeMaster(t *testing.T, conn net.Conn, sawACK chan<- string) {
	r := bufio.NewReader(conn)

	expectLine(t, r, "*1")
	expectLine(t, r, "$4")
	expectLine(t, r, "PING")
	mustWrite(t, conn, "+PONG\r\n")

	drainArray(t, r, 3) // REPLCONF listening-port <port>
	mustWrite(t, conn, "+OK\r\n")

	drainArray(t, r, 3) // REPLCONF capa psync2
	mustWrite(t, conn, "+OK\r\n")

	drainArray(t, r, 3) // PSYNC ? -1
	mustWrite(t, conn, "+FULLRESYNC abc123 0\r\n")
	mustWrite(t, conn, "$0\r\n")

	mustWrite(t, conn, "*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$1\r\nv\r\n")

	mustWrite(t, conn, "*3\r\n$8\r\nREPLCONF\r\n$6\r\nGETACK\r\n$1\r\n*\r\n")

	line, err := r.ReadString('\n')
	if err == nil {
		sawACK <- strings.TrimRight(line, "\r\n")
	}
	close(sawACK)
}

func expectLine(t *testing.T, r *bufio.Reader, want string) {
	t.Helper()
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, want, strings.TrimRight(line, "\r\n"))
}

func drainArray(t *testing.T, r *bufio.Reader, n int) {
	t.Helper()
	// "*<n>" header line, then a "$<len>" line and a payload line per element.
	for i := 0; i < 1+2*n; i++ {
		if _, err := r.ReadString('\n'); err != nil {
			t.Fatalf("drainArray: %v", err)
		}
	}
}

func mustWrite(t *testing.T, conn net.Conn, s string) {
	t.Helper()
	_, err := conn.Write([]byte(s))
	require.NoError(t, err)
}

func TestHandshakeAndStreamingApply(t *testing.T) {
	clientConn, masterConn := net.Pipe()

	sawACK := make(chan string, 1)
	go fakeMaster(t, masterConn, sawACK)

	st := store.New()
	info := srvinfo.NewInfo(6380, "", 0, "", "")

	c := &Client{Info: info, Store: st, ListenPort: 6380}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		r := bufio.NewReader(clientConn)
		if err := c.handshakeStep(clientConn, r, "*1\r\n$4\r\nPING\r\n", "+PONG"); err != nil {
			errCh <- err
			return
		}
		portFrame := encodeArray("REPLCONF", "listening-port", "6380")
		if err := c.handshakeStep(clientConn, r, portFrame, "+OK"); err != nil {
			errCh <- err
			return
		}
		capaFrame := encodeArray("REPLCONF", "capa", "psync2")
		if err := c.handshakeStep(clientConn, r, capaFrame, "+OK"); err != nil {
			errCh <- err
			return
		}
		psyncFrame := encodeArray("PSYNC", "?", "-1")
		if _, err := clientConn.Write([]byte(psyncFrame)); err != nil {
			errCh <- err
			return
		}
		line, err := readLine(r)
		if err != nil || !strings.HasPrefix(line, "+FULLRESYNC") {
			errCh <- err
			return
		}
		if err := readRDB(r); err != nil {
			errCh <- err
			return
		}
		errCh <- c.stream(ctx, clientConn, r, stateStreaming)
	}()

	select {
	case ack := <-sawACK:
		require.Equal(t, "*3", ack)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for ACK")
	}

	e, ok := st.Get("k")
	require.True(t, ok)
	require.Equal(t, "v", e.Str)

	cancel()
	<-errCh
}

func TestEncodeArray(t *testing.T) {
	require.Equal(t, "*2\r\n$4\r\nPING\r\n$2\r\nhi\r\n", encodeArray("PING", "hi"))
}
