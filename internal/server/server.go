// Package server implements the accept loop and per-connection read
// loop (C4): read → frame → dispatch → write, plus the master-side side
// effects (replica registration, SET fan-out) spec.md §4.4 describes.
package server

import (
	"context"
	"net"

	"github.com/lakshya24/redis-from-scratch/internal/command"
	"github.com/lakshya24/redis-from-scratch/internal/log"
	"github.com/lakshya24/redis-from-scratch/internal/metrics"
	"github.com/lakshya24/redis-from-scratch/internal/srvinfo"
	"github.com/lakshya24/redis-from-scratch/internal/store"
)

// Server owns the listener, the shared keyspace, and the replication
// registry — the explicit context the teacher's design notes (spec.md
// §9) call for in place of the Python original's module globals.
type Server struct {
	Info  *srvinfo.Info
	Store *store.Store

	listener net.Listener
	nextConn uint64
}

// New builds a Server around an already-constructed Info and Store.
func New(info *srvinfo.Info, st *store.Store) *Server {
	return &Server{Info: info, Store: st}
}

// Serve binds addr and runs the accept loop until ctx is cancelled or
// Listen fails. Each accepted connection is handled in its own goroutine
// — the Go-native stand-in for the source's cooperative task-per-
// connection model (spec.md §5).
func (s *Server) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = ln
	log.Infof("server: listening on %s as %s", addr, s.Info.Role)

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			log.Errorf("server: accept error: %v", err)
			return err
		}
		s.nextConn++
		connID := s.nextConn
		go s.handleConn(ctx, conn, connID)
	}
}
