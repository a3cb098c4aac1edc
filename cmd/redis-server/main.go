// Command redis-server wires configuration, the shared keyspace, the
// connection listener, and (for a replica) the upstream replication
// client together, mirroring the signal-driven listen/accept shutdown
// the broader example pack uses for long-running network daemons.
package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/lakshya24/redis-from-scratch/internal/config"
	"github.com/lakshya24/redis-from-scratch/internal/log"
	"github.com/lakshya24/redis-from-scratch/internal/metrics"
	"github.com/lakshya24/redis-from-scratch/internal/replica"
	"github.com/lakshya24/redis-from-scratch/internal/server"
	"github.com/lakshya24/redis-from-scratch/internal/srvinfo"
	"github.com/lakshya24/redis-from-scratch/internal/store"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		println("redis-server: " + err.Error())
		return 1
	}
	log.Init(cfg.Config)
	metrics.Listen(cfg.MetricsAddr)

	masterHost, masterPort, isReplica := cfg.MasterAddr()
	masterAddr := ""
	if isReplica {
		masterAddr = masterHost + ":" + strconv.Itoa(masterPort)
	}

	info := srvinfo.NewInfo(cfg.Port, masterAddr, masterPort, cfg.Dir, cfg.DBFilename)
	st := store.New()
	srv := server.New(info, st)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Infof("redis-server: shutdown signal received")
		cancel()
	}()

	if isReplica {
		repl := replica.New(info, st, masterAddr, cfg.Port)
		go func() {
			if err := repl.Run(ctx); err != nil && ctx.Err() == nil {
				log.Errorf("redis-server: replica link error: %v", err)
			}
		}()
	}

	addr := ":" + strconv.Itoa(cfg.Port)
	if err := srv.Serve(ctx, addr); err != nil {
		log.Errorf("redis-server: serve failed: %v", err)
		return 1
	}
	return 0
}
