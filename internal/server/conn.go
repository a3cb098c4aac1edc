package server

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"time"

	"github.com/lakshya24/redis-from-scratch/internal/command"
	"github.com/lakshya24/redis-from-scratch/internal/log"
	"github.com/lakshya24/redis-from-scratch/internal/metrics"
	"github.com/lakshya24/redis-from-scratch/internal/resp"
	"github.com/lakshya24/redis-from-scratch/internal/srvinfo"
	"github.com/lakshya24/redis-from-scratch/internal/xbufio"
)

const readChunkSize = 1024

func (s *Server) handleConn(ctx context.Context, conn net.Conn, connID uint64) {
	metrics.ClientConnected()
	defer metrics.ClientDisconnected()
	defer conn.Close()

	buf := xbufio.Get(readChunkSize)
	defer xbufio.Put(buf)

	chunk := make([]byte, readChunkSize)
	var replicaLink *srvinfo.ReplicaLink

	cmdCtx := &command.Context{Ctx: ctx, Store: s.Store, Info: s.Info, ConnID: connID}

	for {
		n, err := conn.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
		}

		// A Read can legitimately return n > 0 together with a non-nil
		// err (e.g. data followed by EOF in the same call) — drain any
		// complete frames that arrived before honoring the error,
		// otherwise the connection's final command is silently lost.
		if stop := s.drainFrames(cmdCtx, conn, buf, connID, &replicaLink); stop {
			return
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				log.Debugf("server: conn %d closed by peer", connID)
			} else {
				log.Debugf("server: conn %d read error: %v", connID, err)
			}
			break
		}
	}

	if replicaLink != nil {
		s.Info.RemoveReplica(replicaLink)
		metrics.ReplicaRemoved()
	}
}

// drainFrames dispatches every complete frame currently in buf. It
// returns true when the connection must be torn down immediately
// (malformed frame or a failed write), in which case the caller returns
// without running any further read.
func (s *Server) drainFrames(cmdCtx *command.Context, conn net.Conn, buf *xbufio.Buffer, connID uint64, replicaLink **srvinfo.ReplicaLink) bool {
	for {
		req, consumed, ferr := resp.Next(buf.Bytes())
		if ferr == resp.ErrShortBuffer {
			return false
		}
		if ferr != nil {
			log.Errorf("server: conn %d malformed frame: %v", connID, ferr)
			s.teardownReplica(replicaLink)
			return true
		}

		name := req.Cmd()
		argv := req.Argv()
		reply, followup := s.dispatch(cmdCtx, req)
		raw := append([]byte(nil), req.Raw()...)
		req.Put()
		buf.Discard(consumed)

		if reply != nil {
			if _, werr := conn.Write(reply); werr != nil {
				log.Errorf("server: conn %d write error: %v", connID, werr)
				s.teardownReplica(replicaLink)
				return true
			}
		}
		if len(followup) > 0 {
			if _, werr := conn.Write(followup); werr != nil {
				log.Errorf("server: conn %d followup write error: %v", connID, werr)
				s.teardownReplica(replicaLink)
				return true
			}
		}

		if strings.EqualFold(name, "REPLCONF") && containsFold(argv, "listening-port") {
			*replicaLink = s.Info.RegisterReplica(conn)
			metrics.ReplicaRegistered()
		}
		if command.Classify(name) == command.KindWrite {
			s.propagateToReplicas(raw)
		}
	}
}

func (s *Server) teardownReplica(replicaLink **srvinfo.ReplicaLink) {
	if *replicaLink != nil {
		s.Info.RemoveReplica(*replicaLink)
	}
}

func (s *Server) dispatch(cmdCtx *command.Context, req *resp.Request) (reply, followup []byte) {
	h, ok := command.Lookup(req.Cmd())
	if !ok {
		return nil, nil // unknown commands dropped silently, spec.md §9
	}
	start := time.Now()
	reply, followup = h(cmdCtx, req.Argv())
	metrics.CommandDone(req.Cmd(), start)
	if len(reply) > 0 && reply[0] == '-' {
		metrics.CommandError(req.Cmd())
	}
	return reply, followup
}

// propagateToReplicas fans the exact, unparsed request bytes out to
// every registered replica in registration order, best-effort: a
// failing write to one replica is logged and does not interrupt the
// others or the originating client (spec.md §4.5).
func (s *Server) propagateToReplicas(raw []byte) {
	replicas := s.Info.Replicas()
	if len(replicas) == 0 {
		return
	}
	metrics.SetReplOffset(s.Info.AddReplOffset(int64(len(raw))))
	for _, link := range replicas {
		if _, err := link.Conn.Write(raw); err != nil {
			log.Errorf("server: replica %d write failed: %v", link.ID, err)
		}
	}
}

func containsFold(argv []string, token string) bool {
	for _, a := range argv {
		if strings.EqualFold(a, token) {
			return true
		}
	}
	return false
}

