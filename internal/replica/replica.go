// Package replica drives the replica side of the replication topology
// (C5): the handshake state machine, the RDB snapshot read, and the
// streaming apply loop, all generalized from the master-side connection
// handling in internal/server and, at the handshake-framing level, from
// the teacher's anzi package (a dedicated goroutine per upstream link,
// driving its own net.Conn through a small state machine).
package replica

import (
	"bufio"
	"context"
	"io"
	"net"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/lakshya24/redis-from-scratch/internal/command"
	"github.com/lakshya24/redis-from-scratch/internal/log"
	"github.com/lakshya24/redis-from-scratch/internal/metrics"
	"github.com/lakshya24/redis-from-scratch/internal/resp"
	"github.com/lakshya24/redis-from-scratch/internal/srvinfo"
	"github.com/lakshya24/redis-from-scratch/internal/store"
	"github.com/lakshya24/redis-from-scratch/internal/xbufio"
)

// state names mirror spec.md §4.5's handshake diagram exactly, in the
// order the handshake visits them.
type state int

const (
	stateDisconnected state = iota
	stateConnected
	stateReplconfPort
	stateReplconfCapa
	statePsync
	stateRdbTransfer
	stateStreaming
)

const reconnectBackoff = time.Second

// Client is the replica-side half of replication: it owns the upstream
// connection to the master and the byte offset counter that REPLCONF
// GETACK reports back.
type Client struct {
	Info       *srvinfo.Info
	Store      *store.Store
	MasterAddr string
	ListenPort int

	offset int64 // atomic; bytes of master command stream applied since handshake
}

// New builds a Client that will dial masterAddr and announce listenPort
// as this replica's own listening port during the handshake.
func New(info *srvinfo.Info, st *store.Store, masterAddr string, listenPort int) *Client {
	return &Client{Info: info, Store: st, MasterAddr: masterAddr, ListenPort: listenPort}
}

// Run drives the handshake and apply loop until ctx is cancelled. A
// socket error returns the state machine to Disconnected and the loop
// retries after a fixed backoff — spec.md §4.5 leaves reconnection
// policy unspecified, so a simple retry is the conservative choice.
func (c *Client) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := c.runOnce(ctx); err != nil {
			log.Errorf("replica: link to %s failed: %v", c.MasterAddr, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectBackoff):
		}
	}
}

func (c *Client) runOnce(ctx context.Context) error {
	atomic.StoreInt64(&c.offset, 0)

	conn, err := net.Dial("tcp", c.MasterAddr)
	if err != nil {
		return errors.Wrap(err, "replica: dial master")
	}
	defer conn.Close()

	r := bufio.NewReader(conn)
	st := stateConnected

	if err := c.handshakeStep(conn, r, "*1\r\n$4\r\nPING\r\n", "+PONG"); err != nil {
		return errors.Wrap(err, "replica: ping")
	}
	st = stateReplconfPort

	portArg := strconv.Itoa(c.ListenPort)
	portFrame := encodeArray("REPLCONF", "listening-port", portArg)
	if err := c.handshakeStep(conn, r, portFrame, "+OK"); err != nil {
		return errors.Wrap(err, "replica: replconf listening-port")
	}
	st = stateReplconfCapa

	capaFrame := encodeArray("REPLCONF", "capa", "psync2")
	if err := c.handshakeStep(conn, r, capaFrame, "+OK"); err != nil {
		return errors.Wrap(err, "replica: replconf capa")
	}
	st = statePsync

	psyncFrame := encodeArray("PSYNC", "?", "-1")
	if _, err := conn.Write([]byte(psyncFrame)); err != nil {
		return errors.Wrap(err, "replica: psync send")
	}
	fullresync, err := readLine(r)
	if err != nil {
		return errors.Wrap(err, "replica: psync await")
	}
	if !strings.HasPrefix(fullresync, "+FULLRESYNC") {
		return errors.Errorf("replica: unexpected psync reply %q", fullresync)
	}
	st = stateRdbTransfer

	if err := readRDB(r); err != nil {
		return errors.Wrap(err, "replica: rdb transfer")
	}
	st = stateStreaming
	log.Infof("replica: handshake with %s complete, streaming", c.MasterAddr)

	return c.stream(ctx, conn, r, st)
}

// handshakeStep sends frame, reads one line, and requires it to start
// with want (a prefix match lets +OK and +OK\r\n-shaped variance pass).
func (c *Client) handshakeStep(conn net.Conn, r *bufio.Reader, frame, want string) error {
	if _, err := conn.Write([]byte(frame)); err != nil {
		return errors.Wrap(err, "send")
	}
	line, err := readLine(r)
	if err != nil {
		return errors.Wrap(err, "await")
	}
	if !strings.HasPrefix(line, want) {
		return errors.Errorf("unexpected reply %q, want prefix %q", line, want)
	}
	return nil
}

// stream reads command frames from the master and applies them through
// the shared command pipeline. Replies are suppressed except for
// REPLCONF GETACK, whose ACK must reach the master.
func (c *Client) stream(ctx context.Context, conn net.Conn, r *bufio.Reader, _ state) error {
	cmdCtx := &command.Context{
		Ctx:   ctx,
		Store: c.Store,
		Info:  c.Info,
		Offset: func() int64 {
			return atomic.LoadInt64(&c.offset)
		},
	}

	// Close the link when ctx ends so a Read blocked on the master returns.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	buf := xbufio.Get(1024)
	defer xbufio.Put(buf)
	chunk := make([]byte, 1024)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		n, err := r.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
		}
		if err != nil {
			return errors.Wrap(err, "replica: stream read")
		}

		for {
			req, consumed, ferr := resp.Next(buf.Bytes())
			if ferr == resp.ErrShortBuffer {
				break
			}
			if ferr != nil {
				return errors.Wrap(ferr, "replica: malformed frame from master")
			}

			h, ok := command.Lookup(req.Cmd())
			isGetack := strings.EqualFold(req.Cmd(), "REPLCONF") && len(req.Argv()) >= 2 && strings.EqualFold(req.Argv()[1], "GETACK")

			var reply []byte
			if ok {
				reply, _ = h(cmdCtx, req.Argv())
			}
			req.Put()
			buf.Discard(consumed)

			if isGetack && len(reply) > 0 {
				if _, werr := conn.Write(reply); werr != nil {
					return errors.Wrap(werr, "replica: ack write")
				}
			}
			metrics.SetReplOffset(atomic.AddInt64(&c.offset, int64(consumed)))
		}
	}
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readRDB consumes the `$<N>\r\n<N bytes>` snapshot payload spec.md §6
// describes, with no trailing CRLF after the payload.
func readRDB(r *bufio.Reader) error {
	header, err := readLine(r)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(header, "$") {
		return errors.Errorf("replica: expected rdb length header, got %q", header)
	}
	n, err := strconv.Atoi(header[1:])
	if err != nil {
		return errors.Wrap(err, "replica: rdb length")
	}
	discard := make([]byte, n)
	if _, err := io.ReadFull(r, discard); err != nil {
		return errors.Wrap(err, "replica: rdb payload")
	}
	return nil
}

func encodeArray(parts ...string) string {
	out := "*" + strconv.Itoa(len(parts)) + "\r\n"
	for _, p := range parts {
		out += "$" + strconv.Itoa(len(p)) + "\r\n" + p + "\r\n"
	}
	return out
}
