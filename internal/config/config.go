// Package config resolves process configuration the way the teacher's
// config.ServerConfig does: a toml-tagged struct, optionally loaded from
// a file, with command-line flags (here via pflag rather than a bespoke
// flag set) layered on top and always winning over the file.
package config

import (
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"

	"github.com/lakshya24/redis-from-scratch/internal/log"
)

const (
	defaultPort       = 6379
	defaultDir        = "/tmp/redis-data"
	defaultDBFilename = "rdbfile"
)

// Config is the fully resolved process configuration: spec.md §6's CLI
// surface plus the ambient logging/metrics knobs the core spec is silent
// on. The embedded *log.Config mirrors config/server.go's embedding of
// the teacher's own *log.Config.
type Config struct {
	Port        int    `toml:"port"`
	ReplicaOf   string `toml:"replicaof"`
	Dir         string `toml:"dir"`
	DBFilename  string `toml:"dbfilename"`
	MetricsAddr string `toml:"metrics_addr"`
	*log.Config
}

// MasterAddr splits ReplicaOf ("<host> <port>") into dial target parts.
// Returns ok=false when ReplicaOf is empty, meaning this process is a
// master.
func (c *Config) MasterAddr() (host string, port int, ok bool) {
	if c.ReplicaOf == "" {
		return "", 0, false
	}
	fields := strings.Fields(c.ReplicaOf)
	if len(fields) != 2 {
		return "", 0, false
	}
	p, err := strconv.Atoi(fields[1])
	if err != nil {
		return "", 0, false
	}
	return fields[0], p, true
}

// Parse builds a Config from argv (os.Args[1:] in production, a fixed
// slice in tests), layering flags over an optional --config TOML file.
func Parse(argv []string) (*Config, error) {
	fs := flag.NewFlagSet("redis-server", flag.ContinueOnError)

	port := fs.Int("port", defaultPort, "listening port")
	replicaOf := fs.String("replicaof", "", `upstream master as "<host> <port>"`)
	dir := fs.String("dir", defaultDir, "RDB working directory")
	dbfilename := fs.String("dbfilename", defaultDBFilename, "RDB filename")
	configPath := fs.String("config", "", "optional TOML config file")
	logLevel := fs.String("log-level", "info", "log level: debug, info, warn, error")
	metricsAddr := fs.String("metrics-addr", "", "address to serve /metrics on (empty disables)")

	if err := fs.Parse(argv); err != nil {
		return nil, errors.Wrap(err, "config: parse flags")
	}

	cfg := &Config{
		Port:        *port,
		ReplicaOf:   *replicaOf,
		Dir:         *dir,
		DBFilename:  *dbfilename,
		MetricsAddr: *metricsAddr,
		Config:      &log.Config{Level: *logLevel, Stdout: true},
	}

	if *configPath != "" {
		var fileCfg Config
		if _, err := toml.DecodeFile(*configPath, &fileCfg); err != nil {
			return nil, errors.Wrap(err, "config: decode toml file")
		}
		cfg.applyFileDefaults(&fileCfg, fs)
	}

	return cfg, nil
}

// applyFileDefaults fills cfg fields from fileCfg only where the
// corresponding flag was left at its default (not explicitly set on the
// command line) — flags always win over the file.
func (c *Config) applyFileDefaults(fileCfg *Config, fs *flag.FlagSet) {
	if !fs.Changed("port") && fileCfg.Port != 0 {
		c.Port = fileCfg.Port
	}
	if !fs.Changed("replicaof") && fileCfg.ReplicaOf != "" {
		c.ReplicaOf = fileCfg.ReplicaOf
	}
	if !fs.Changed("dir") && fileCfg.Dir != "" {
		c.Dir = fileCfg.Dir
	}
	if !fs.Changed("dbfilename") && fileCfg.DBFilename != "" {
		c.DBFilename = fileCfg.DBFilename
	}
	if !fs.Changed("metrics-addr") && fileCfg.MetricsAddr != "" {
		c.MetricsAddr = fileCfg.MetricsAddr
	}
	if !fs.Changed("log-level") && fileCfg.Config != nil && fileCfg.Config.Level != "" {
		c.Config.Level = fileCfg.Config.Level
	}
}
