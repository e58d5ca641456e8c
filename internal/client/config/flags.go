package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/ftpchat/internal/flagx"
)

var knownFlags = []string{
	"-h", "-p", "-u", "-w", "-s", "-r", "-d", "-l", "-j", "-t", "-db", "-v",
}

// parseFlags overlays cfg with command-line flags. Only the flags listed in
// knownFlags are looked at; anything else (for example -c) is left to other
// parsers.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("ftpchat", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.Host, "h", cfg.Host, "transfer server host")
	fs.IntVar(&cfg.Port, "p", cfg.Port, "transfer server port")
	fs.StringVar(&cfg.Username, "u", cfg.Username, "transfer server user")
	fs.StringVar(&cfg.Password, "w", cfg.Password, "transfer server password")
	fs.StringVar(&cfg.Scheme, "s", cfg.Scheme, "transfer scheme: ftp or s3")
	fs.StringVar(&cfg.RemoteDir, "r", cfg.RemoteDir, "remote directory listed by the files command")
	fs.StringVar(&cfg.DownloadDir, "d", cfg.DownloadDir, "download directory")
	fs.StringVar(&cfg.ListenAddr, "l", cfg.ListenAddr, "host a chat on this address")
	fs.StringVar(&cfg.PeerAddr, "j", cfg.PeerAddr, "join a chat hosted at this address")
	timeout := fs.Int("t", int(cfg.Timeout.Seconds()), "connect and I/O timeout (in seconds)")
	fs.StringVar(&cfg.HistoryDSN, "db", cfg.HistoryDSN, "SQLite history file; in-memory when empty")
	fs.StringVar(&cfg.LogLevel, "v", cfg.LogLevel, "log level: debug, info, warn, error")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			cfg.Timeout = time.Duration(*timeout) * time.Second
		}
	})
	return nil
}
