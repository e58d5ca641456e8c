package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/ftpchat/internal/flagx"
	"github.com/dmitrijs2005/ftpchat/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Empty fields
// leave the current value alone.
type JsonConfig struct {
	Host        string         `json:"host"`
	Port        int            `json:"port"`
	Username    string         `json:"username"`
	Password    string         `json:"password"`
	Scheme      string         `json:"scheme"`
	S3Bucket    string         `json:"s3_bucket"`
	S3Region    string         `json:"s3_region"`
	S3Secure    bool           `json:"s3_secure"`
	RemoteDir   string         `json:"remote_dir"`
	DownloadDir string         `json:"download_dir"`
	AppDir      string         `json:"app_dir"`
	Timeout     timex.Duration `json:"timeout"`
	ListenAddr  string         `json:"listen_addr"`
	PeerAddr    string         `json:"peer_addr"`
	HistoryDSN  string         `json:"history_dsn"`
	LogLevel    string         `json:"log_level"`
}

// parseJSON overlays cfg with the JSON file named by -c or -config in args.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	jc.apply(cfg)
	return nil
}

func (jc JsonConfig) apply(cfg *Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	set(&cfg.Host, jc.Host)
	set(&cfg.Username, jc.Username)
	set(&cfg.Password, jc.Password)
	set(&cfg.Scheme, jc.Scheme)
	set(&cfg.S3Bucket, jc.S3Bucket)
	set(&cfg.S3Region, jc.S3Region)
	set(&cfg.RemoteDir, jc.RemoteDir)
	set(&cfg.DownloadDir, jc.DownloadDir)
	set(&cfg.AppDir, jc.AppDir)
	set(&cfg.ListenAddr, jc.ListenAddr)
	set(&cfg.PeerAddr, jc.PeerAddr)
	set(&cfg.HistoryDSN, jc.HistoryDSN)
	set(&cfg.LogLevel, jc.LogLevel)

	if jc.S3Secure {
		cfg.S3Secure = true
	}
	if jc.Port != 0 {
		cfg.Port = jc.Port
	}
	if jc.Timeout.Duration != 0 {
		cfg.Timeout = jc.Timeout.Duration
	}
}
