package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stackscan/internal/config"
	"github.com/matzehuels/stackscan/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the probe and registry cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cacheInfoCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached entry from the configured backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()

			if cfg.Cache.Backend == cache.BackendFile {
				if _, err := os.Stat(cfg.Cache.Dir); os.IsNotExist(err) {
					printInfo(w, "Cache is empty")
					return nil
				}
			}

			store, err := c.openCache(cmd.Context(), cfg, false)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear %s cache: %w", cfg.Cache.Backend, err)
			}

			printSuccess(w, "Cleared %s cache", cfg.Cache.Backend)
			if cfg.Cache.Backend == cache.BackendFile {
				printDetail(w, "Directory: %s", cfg.Cache.Dir)
			}
			return nil
		},
	}
}

// cacheInfoCommand creates the "cache info" subcommand.
func (c *CLI) cacheInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the configured backend and, for the file cache, its size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()

			fmt.Fprintln(w, StyleTitle.Render("Cache"))
			fmt.Fprintln(w, keyValue("backend", cfg.Cache.Backend))
			fmt.Fprintln(w, keyValue("ttl", cfg.Cache.TTL.String()))
			switch cfg.Cache.Backend {
			case cache.BackendFile:
				entries, size, err := dirUsage(cfg.Cache.Dir)
				if err != nil {
					return err
				}
				fmt.Fprintln(w, keyValue("directory", cfg.Cache.Dir))
				fmt.Fprintln(w, keyValue("entries", humanize.Comma(int64(entries))))
				fmt.Fprintln(w, keyValue("size", humanize.Bytes(uint64(size))))
			case cache.BackendRedis:
				fmt.Fprintln(w, keyValue("address", cfg.Cache.RedisAddr))
			case cache.BackendMongo:
				fmt.Fprintln(w, keyValue("uri", redactURI(cfg.Cache.MongoURI)))
			}
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the file cache directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			dir := cfg.Cache.Dir
			if dir == "" {
				dir = config.DefaultCacheDir()
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}

// dirUsage counts the files under dir and their total size. A missing
// directory is empty.
func dirUsage(dir string) (int, int64, error) {
	var (
		n    int
		size int64
	)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == dir {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			n++
			size += info.Size()
		}
		return nil
	})
	return n, size, err
}

// redactURI hides the password of a connection string.
func redactURI(uri string) string {
	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok {
		return uri
	}
	creds, host, ok := strings.Cut(rest, "@")
	if !ok {
		return uri
	}
	if user, _, ok := strings.Cut(creds, ":"); ok {
		return scheme + "://" + user + ":****@" + host
	}
	return uri
}
