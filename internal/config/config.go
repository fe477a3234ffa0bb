// Package config loads stackscan settings.
//
// Settings come from three places, later ones winning:
//
//  1. built-in defaults ([Default])
//  2. a TOML file, stackscan.toml in the working directory or the
//     path given with --config
//  3. environment variables, after loading .env from the working
//     directory
//
// A minimal file:
//
//	[scan]
//	probe_timeout = "2s"
//	exclude = ["**/testdata/**", "*.min.js"]
//	max_file_bytes = "4MiB"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"

	"github.com/matzehuels/stackscan/pkg/cache"
	"github.com/matzehuels/stackscan/pkg/errors"
	"github.com/matzehuels/stackscan/pkg/scan"
	"github.com/matzehuels/stackscan/pkg/source"
)

const (
	appName = "stackscan"

	// DefaultFile is looked up in the working directory when no path is given.
	DefaultFile = "stackscan.toml"

	// EnvFile is loaded from the working directory when present.
	EnvFile = ".env"
)

// Environment overrides.
const (
	EnvCache     = "STACKSCAN_CACHE"
	EnvRedisAddr = "STACKSCAN_REDIS_ADDR"
	EnvMongoURI  = "STACKSCAN_MONGO_URI"
	EnvGitHub    = "GITHUB_TOKEN"
	EnvGitLab    = "GITLAB_TOKEN"
)

// Config is the full set of settings.
type Config struct {
	Scan  ScanConfig  `toml:"scan"`
	Cache CacheConfig `toml:"cache"`

	// Tokens only come from the environment.
	GitHubToken string `toml:"-"`
	GitLabToken string `toml:"-"`

	// Path is the file the settings were read from, if any.
	Path string `toml:"-"`
}

// ScanConfig is the [scan] table.
type ScanConfig struct {
	ProbeTimeout  Duration          `toml:"probe_timeout"`
	BatchTimeout  Duration          `toml:"batch_timeout"`
	Workers       int               `toml:"workers"`
	StdlibCheck   bool              `toml:"stdlib_check"`
	Enrich        bool              `toml:"enrich"`
	ContextPasses bool              `toml:"context_passes"`
	Exclude       []string          `toml:"exclude"`
	MaxFileBytes  ByteSize          `toml:"max_file_bytes"`
	StdlibBases   map[string]string `toml:"stdlib_bases"`
}

// CacheConfig is the [cache] table.
type CacheConfig struct {
	Backend         string   `toml:"backend"`
	TTL             Duration `toml:"ttl"`
	Dir             string   `toml:"dir"`
	MemoryEntries   int      `toml:"memory_entries"`
	RedisAddr       string   `toml:"redis_addr"`
	RedisPassword   string   `toml:"redis_password"`
	RedisDB         int      `toml:"redis_db"`
	MongoURI        string   `toml:"mongo_uri"`
	MongoDatabase   string   `toml:"mongo_database"`
	MongoCollection string   `toml:"mongo_collection"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Scan: ScanConfig{
			ProbeTimeout:  Duration{scan.DefaultProbeTimeout},
			BatchTimeout:  Duration{scan.DefaultBatchTimeout},
			Workers:       scan.DefaultWorkers,
			StdlibCheck:   true,
			Enrich:        true,
			ContextPasses: true,
			MaxFileBytes:  ByteSize(source.DefaultMaxFileBytes),
		},
		Cache: CacheConfig{
			Backend:       cache.BackendFile,
			TTL:           Duration{scan.DefaultCacheTTL},
			Dir:           DefaultCacheDir(),
			MemoryEntries: 4096,
		},
	}
}

// Load reads the settings. An empty path means DefaultFile in the working
// directory, which may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(EnvFile); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "load %s", EnvFile)
	}

	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if _, err := os.Stat(path); err == nil {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys %s", path, strings.Join(keys, ", "))
		}
		cfg.Path = path
	} else if explicit {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "open %s", path)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvCache); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		c.Cache.RedisAddr = v
	}
	if v := os.Getenv(EnvMongoURI); v != "" {
		c.Cache.MongoURI = v
	}
	c.GitHubToken = os.Getenv(EnvGitHub)
	c.GitLabToken = os.Getenv(EnvGitLab)
}

// Validate checks value ranges and names.
func (c *Config) Validate() error {
	if c.Scan.Workers <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "scan.workers must be positive, got %d", c.Scan.Workers)
	}
	if c.Scan.ProbeTimeout.Duration <= 0 || c.Scan.BatchTimeout.Duration <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "scan timeouts must be positive")
	}
	switch strings.ToLower(c.Cache.Backend) {
	case cache.BackendNone, cache.BackendMemory, cache.BackendFile, cache.BackendRedis, cache.BackendMongo:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	return nil
}

// ScanOptions returns the scanner options. The cache is opened
// separately; see [Config.CacheOptions].
func (c *Config) ScanOptions() scan.Options {
	return scan.Options{
		Enrich:        c.Scan.Enrich,
		StdlibCheck:   c.Scan.StdlibCheck,
		ContextPasses: c.Scan.ContextPasses,
		Workers:       c.Scan.Workers,
		BatchTimeout:  c.Scan.BatchTimeout.Duration,
		ProbeTimeout:  c.Scan.ProbeTimeout.Duration,
		StdlibBases:   c.Scan.StdlibBases,
		CacheTTL:      c.Cache.TTL.Duration,
		GitHubToken:   c.GitHubToken,
		GitLabToken:   c.GitLabToken,
	}
}

// SourceOptions returns the directory loader options.
func (c *Config) SourceOptions() source.Options {
	return source.Options{
		MaxFileBytes: int64(c.Scan.MaxFileBytes),
		Exclude:      c.Scan.Exclude,
	}
}

// CacheOptions returns the cache backend options.
func (c *Config) CacheOptions() cache.Options {
	return cache.Options{
		Backend:       c.Cache.Backend,
		Dir:           c.Cache.Dir,
		MemoryEntries: c.Cache.MemoryEntries,
		Redis: cache.RedisOptions{
			Addr:     c.Cache.RedisAddr,
			Password: c.Cache.RedisPassword,
			DB:       c.Cache.RedisDB,
		},
		Mongo: cache.MongoOptions{
			URI:        c.Cache.MongoURI,
			Database:   c.Cache.MongoDatabase,
			Collection: c.Cache.MongoCollection,
		},
	}
}

// DefaultCacheDir returns the cache directory using the XDG standard
// (~/.cache/stackscan/). It returns "" when no home directory is known.
func DefaultCacheDir() string {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cache", appName)
}

// Duration is a time.Duration written as a string ("1s", "2m30s").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ByteSize is a size written as a number of bytes or a human string
// ("512KB", "2MiB"). "unlimited" disables the limit.
type ByteSize int64

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *ByteSize) UnmarshalText(b []byte) error {
	if strings.EqualFold(string(b), "unlimited") {
		*s = -1
		return nil
	}
	v, err := humanize.ParseBytes(string(b))
	if err != nil {
		return err
	}
	*s = ByteSize(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (s ByteSize) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s ByteSize) String() string {
	if s < 0 {
		return "unlimited"
	}
	return humanize.IBytes(uint64(s))
}
