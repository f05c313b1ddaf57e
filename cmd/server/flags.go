package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/inferloop/healthtrack/internal/config"
)

// Flags are command-line overrides applied on top of the loaded configuration
type Flags struct {
	ConfigFile     string
	Port           int
	Host           string
	LogLevel       string
	LogFormat      string
	MetricsPort    int
	StorageBackend string
	ArtifactStore  string
	TLSCert        string
	TLSKey         string
	Version        bool

	set map[string]bool
}

func ParseFlags() *Flags {
	return parseFlags(flag.CommandLine, os.Args[1:])
}

func parseFlags(fs *flag.FlagSet, args []string) *Flags {
	f := &Flags{set: make(map[string]bool)}

	fs.StringVar(&f.ConfigFile, "config", "", "Path to configuration file")
	fs.IntVar(&f.Port, "port", 0, "Server port")
	fs.StringVar(&f.Host, "host", "", "Server host")
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.LogFormat, "log-format", "", "Log format (json, text)")
	fs.IntVar(&f.MetricsPort, "metrics-port", 0, "Prometheus metrics port, 0 serves /metrics on the API port")
	fs.StringVar(&f.StorageBackend, "storage", "", "Record store (memory, file, timescaledb, influxdb)")
	fs.StringVar(&f.ArtifactStore, "artifacts", "", "Model artifact store (none, local, redis, s3)")
	fs.StringVar(&f.TLSCert, "tls-cert", "", "Path to TLS certificate")
	fs.StringVar(&f.TLSKey, "tls-key", "", "Path to TLS key")
	fs.BoolVar(&f.Version, "version", false, "Show version information")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [options]\n", os.Args[0])
		fmt.Fprintf(fs.Output(), "\nPersonal health insights server\n\n")
		fmt.Fprintf(fs.Output(), "Options:\n")
		fs.PrintDefaults()
	}

	// ExitOnError for the default set; test sets use ContinueOnError
	_ = fs.Parse(args)

	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })

	return f
}

// Apply overwrites cfg with every flag given explicitly on the command line
func (f *Flags) Apply(cfg *config.Config) {
	if f.set["port"] {
		cfg.Server.Port = f.Port
	}
	if f.set["host"] {
		cfg.Server.Host = f.Host
	}
	if f.set["log-level"] {
		cfg.Log.Level = f.LogLevel
	}
	if f.set["log-format"] {
		cfg.Log.Format = f.LogFormat
	}
	if f.set["metrics-port"] {
		cfg.Metrics.Port = f.MetricsPort
	}
	if f.set["storage"] {
		cfg.Storage.Type = f.StorageBackend
	}
	if f.set["artifacts"] {
		cfg.Artifacts.Type = f.ArtifactStore
	}
	if f.set["tls-cert"] {
		cfg.Server.TLSCertFile = f.TLSCert
	}
	if f.set["tls-key"] {
		cfg.Server.TLSKeyFile = f.TLSKey
	}
}

func printVersion() {
	info := GetBuildInfo()
	fmt.Printf("Version: %s\n", info.Version)
	fmt.Printf("Git Commit: %s\n", info.GitCommit)
	fmt.Printf("Build Date: %s\n", info.BuildDate)
	fmt.Printf("Go Version: %s\n", info.GoVersion)
	fmt.Printf("Platform: %s\n", info.Platform)
}
