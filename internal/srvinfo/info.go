// Package srvinfo owns the process-wide ServerInfo (role, replid, offset,
// replica registry) the teacher calls out for replacing the Python
// original's module-level singletons (spec.md §9). It is split out from
// internal/server (the connection accept loop) so internal/command can
// depend on it without an import cycle.
package srvinfo

import (
	"crypto/rand"
	"net"
	"sync"
	"sync/atomic"
)

// Role is the replication role a server instance plays.
type Role int

const (
	RoleMaster Role = iota
	RoleSlave
)

func (r Role) String() string {
	if r == RoleSlave {
		return "slave"
	}
	return "master"
}

// ReplicaLink is one connection a master has promoted to replica status
// after seeing REPLCONF listening-port on it.
type ReplicaLink struct {
	ID   uint64
	Conn net.Conn
}

// Info is the server's immutable-after-startup configuration plus the
// runtime state that changes: the replica registry and the
// master_repl_offset counter (advanced by AddReplOffset). A
// *Info is constructed once and threaded through every connection and
// command Context — there is no package-level singleton.
type Info struct {
	Port           int
	Role           Role
	MasterAddr     string
	MasterPort     int
	ReplID         string
	replOffset     int64 // atomic
	Dir            string
	DBFilename     string

	mu       sync.Mutex
	replicas []*ReplicaLink
	nextID   uint64
}

// NewInfo builds an Info for a master (masterAddr == "") or a slave.
func NewInfo(port int, masterAddr string, masterPort int, dir, dbfilename string) *Info {
	role := RoleMaster
	if masterAddr != "" {
		role = RoleSlave
	}
	return &Info{
		Port:       port,
		Role:       role,
		MasterAddr: masterAddr,
		MasterPort: masterPort,
		ReplID:     randomReplID(),
		Dir:        dir,
		DBFilename: dbfilename,
	}
}

func randomReplID() string {
	const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, 40)
	raw := make([]byte, 40)
	_, _ = rand.Read(raw)
	for i, c := range raw {
		b[i] = alphabet[int(c)%len(alphabet)]
	}
	return string(b)
}

// ReplOffset returns the current master_repl_offset.
func (i *Info) ReplOffset() int64 { return atomic.LoadInt64(&i.replOffset) }

// AddReplOffset advances master_repl_offset by delta, returning the new value.
func (i *Info) AddReplOffset(delta int64) int64 {
	return atomic.AddInt64(&i.replOffset, delta)
}

// RegisterReplica adds conn to the replica registry and returns its link.
func (i *Info) RegisterReplica(conn net.Conn) *ReplicaLink {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.nextID++
	link := &ReplicaLink{ID: i.nextID, Conn: conn}
	i.replicas = append(i.replicas, link)
	return link
}

// Replicas returns a snapshot of the currently registered replica links,
// in registration order (spec.md §5 ordering guarantee for fan-out).
func (i *Info) Replicas() []*ReplicaLink {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]*ReplicaLink, len(i.replicas))
	copy(out, i.replicas)
	return out
}

// RemoveReplica drops link from the registry (called when its connection
// closes).
func (i *Info) RemoveReplica(link *ReplicaLink) {
	i.mu.Lock()
	defer i.mu.Unlock()
	for idx, l := range i.replicas {
		if l == link {
			i.replicas = append(i.replicas[:idx], i.replicas[idx+1:]...)
			return
		}
	}
}
