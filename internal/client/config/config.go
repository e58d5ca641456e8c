package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/ftpchat/internal/client/models"
	"github.com/dmitrijs2005/ftpchat/internal/common"
)

// Config holds runtime settings for the ftpchat CLI.
//
// Units: Timeout is a time.Duration; the -t flag takes whole seconds.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	Scheme   string

	S3Bucket string
	S3Region string
	S3Secure bool

	RemoteDir   string
	DownloadDir string
	AppDir      string

	Timeout    time.Duration
	ListenAddr string
	PeerAddr   string
	HistoryDSN string
	LogLevel   string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.Host = "127.0.0.1"
	c.Port = common.DefaultFTPPort
	c.Scheme = models.SchemeFTP
	c.S3Region = "us-east-1"
	c.RemoteDir = common.DefaultRemoteDir
	c.DownloadDir = defaultDownloadDir()
	c.AppDir = defaultAppDir()
	c.Timeout = common.DefaultTimeout
	c.LogLevel = "info"
}

func defaultDownloadDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "downloads"
	}
	return filepath.Join(home, "Downloads")
}

func defaultAppDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "ftpchat")
}

// Credentials returns the transfer server credentials.
func (c *Config) Credentials() models.ServerCredentials {
	return models.ServerCredentials{
		Scheme:   c.Scheme,
		Host:     c.Host,
		Port:     c.Port,
		Username: c.Username,
		Password: c.Password,
	}
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	switch c.Scheme {
	case models.SchemeFTP:
	case models.SchemeS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("%w: s3 scheme needs a bucket", common.ErrorInvalidArgument)
		}
	default:
		return fmt.Errorf("%w: unknown scheme %q", common.ErrorInvalidArgument, c.Scheme)
	}
	if c.Host == "" {
		return fmt.Errorf("%w: empty host", common.ErrorInvalidArgument)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", common.ErrorInvalidArgument, c.Port)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", common.ErrorInvalidArgument)
	}
	if c.ListenAddr != "" && c.PeerAddr != "" {
		return fmt.Errorf("%w: use either -l or -j, not both", common.ErrorInvalidArgument)
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags. Later sources take precedence.
// args excludes the program name.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
