package cache

import (
	"context"
	"fmt"
	"strings"
)

// Backend names accepted by [Open].
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Clearer is implemented by backends that can drop all entries.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Options selects and configures a backend.
type Options struct {
	Backend       string
	Dir           string
	MemoryEntries int
	Redis         RedisOptions
	Mongo         MongoOptions
}

// Open creates the configured backend wrapped in [Instrumented].
func Open(ctx context.Context, opts Options) (*Instrumented, error) {
	var (
		c   Cache
		err error
	)
	switch strings.ToLower(opts.Backend) {
	case "", BackendNone:
		c = NullCache{}
	case BackendMemory:
		c, err = NewMemoryCache(opts.MemoryEntries)
	case BackendFile:
		if opts.Dir == "" {
			return nil, fmt.Errorf("file cache: no directory configured")
		}
		c, err = NewFileCache(opts.Dir)
	case BackendRedis:
		if opts.Redis.Addr == "" {
			return nil, fmt.Errorf("redis cache: no address configured")
		}
		c, err = NewRedisCache(ctx, opts.Redis)
	case BackendMongo:
		if opts.Mongo.URI == "" {
			return nil, fmt.Errorf("mongo cache: no URI configured")
		}
		c, err = NewMongoCache(ctx, opts.Mongo)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("%s cache: %w", opts.Backend, err)
	}
	return NewInstrumented(c), nil
}
