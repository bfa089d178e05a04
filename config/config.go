package config

import (
	"errors"
	"flag"
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"

	FilesLocal = "local"
	FilesS3    = "s3"
)

type Config struct {
	Addr        string
	DBUrl       string
	TokenSecret string
	TokenTTL    time.Duration
	Debug       bool
	Files       Files

	host string
	port uint
	ttl  uint
}

// Files configures where uploaded artifacts are kept.
type Files struct {
	Backend     string
	Dir         string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
}

// RegisterFlags binds the configuration to fs. Complete must be called
// once fs has been parsed.
func (cfg *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&cfg.host, "host", "0.0.0.0", "listen host name")
	fs.UintVar(&cfg.port, "port", 80, "listen port number")
	fs.StringVar(&cfg.DBUrl, "db-url", "hvac-survey.sqlite", "path to SQLite3 DB file, or postgres:// URL")
	fs.StringVar(&cfg.TokenSecret, "token-secret", "", "secret key for token encryption and decryption")
	fs.UintVar(&cfg.ttl, "token-ttl", 120, "token TTL in seconds")
	fs.BoolVar(&cfg.Debug, "debug", false, "log at DEBUG level")
	fs.StringVar(&cfg.Files.Backend, "files-backend", FilesLocal, "artifact storage backend (local|s3)")
	fs.StringVar(&cfg.Files.Dir, "files-dir", "uploads", "directory for the local artifact backend")
	fs.StringVar(&cfg.Files.S3Bucket, "s3-bucket", "", "bucket for the s3 artifact backend")
	fs.StringVar(&cfg.Files.S3Region, "s3-region", "us-east-1", "region for the s3 artifact backend")
	fs.StringVar(&cfg.Files.S3Endpoint, "s3-endpoint", "", "custom S3 endpoint (e.g. MinIO)")
}

// Complete derives the computed settings from the parsed flags and the
// environment.
func (cfg *Config) Complete() {
	cfg.Addr = net.JoinHostPort(cfg.host, strconv.Itoa(int(cfg.port)))
	cfg.TokenTTL = time.Duration(cfg.ttl) * time.Second
	if cfg.Files.S3AccessKey == "" {
		cfg.Files.S3AccessKey = os.Getenv("AWS_ACCESS_KEY_ID")
	}
	if cfg.Files.S3SecretKey == "" {
		cfg.Files.S3SecretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	}
}

// Validate checks the settings needed to run the server.
func (cfg Config) Validate() error {
	if cfg.TokenSecret == "" {
		return errors.New("missing parameter -token-secret")
	}
	return cfg.Files.Validate()
}

func (f Files) Validate() error {
	switch f.Backend {
	case FilesLocal:
		if f.Dir == "" {
			return errors.New("missing parameter -files-dir")
		}
	case FilesS3:
		if f.S3Bucket == "" {
			return errors.New("missing parameter -s3-bucket")
		}
		if (f.S3AccessKey == "") != (f.S3SecretKey == "") {
			return errors.New("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set together")
		}
	default:
		return errors.New("unknown files backend " + strconv.Quote(f.Backend))
	}
	return nil
}

// Parse reads the configuration from args.
func Parse(fs *flag.FlagSet, args []string) (cfg Config, err error) {
	cfg.RegisterFlags(fs)
	if err = fs.Parse(args); err != nil {
		return
	}
	cfg.Complete()
	err = cfg.Validate()
	return
}

func ParseFlags() (Config, error) {
	return Parse(flag.CommandLine, os.Args[1:])
}

// Driver is the database/sql driver name matching DBUrl.
func (cfg Config) Driver() string {
	if strings.HasPrefix(cfg.DBUrl, "postgres://") || strings.HasPrefix(cfg.DBUrl, "postgresql://") {
		return DriverPostgres
	}
	return DriverSQLite
}

var reAnyHost = regexp.MustCompile(`^0\.0\.0\.0`)

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = reAnyHost.ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}
