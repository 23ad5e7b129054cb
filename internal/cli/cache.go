package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/jarmill/pkg/cache"
	"github.com/matzehuels/jarmill/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the manifest and artifact caches",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var jars bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear the cached version manifest (and optionally every jar)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			root, err := cacheRoot(cfg)
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}

			if cfg.Manifest.Cache == config.CacheRedis {
				if err := c.clearRedisManifest(cmd.Context(), cfg); err != nil {
					return err
				}
			} else {
				store, err := cache.NewFileCache(filepath.Join(root, manifestDir))
				if err != nil {
					return err
				}
				count, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				printSuccess("Cleared %d manifest entries", count)
				printDetail("Directory: %s", store.Dir())
			}

			if jars {
				count, err := clearDir(root, func(path string) bool { return strings.HasSuffix(path, ".jar") })
				if err != nil {
					return err
				}
				printSuccess("Deleted %d jars", count)
				printDetail("Directory: %s", root)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jars, "jars", false, "also delete every downloaded, merged and remapped jar")
	return cmd
}

// clearRedisManifest drops the manifest entry under both the shared and the
// project-scoped key.
func (c *CLI) clearRedisManifest(ctx context.Context, cfg *config.Config) error {
	if cfg.Manifest.URL == "" {
		printInfo("No manifest url configured, nothing to clear")
		return nil
	}
	store, err := cache.NewRedisCache(ctx, cfg.Manifest.RedisURL)
	if err != nil {
		return err
	}
	defer store.Close()

	shared := cache.NewDefaultKeyer()
	keys := []string{
		shared.ManifestKey(cfg.Manifest.URL),
		cache.NewScopedKeyer(shared, projectScope()).ManifestKey(cfg.Manifest.URL),
	}
	for _, k := range keys {
		if err := store.Delete(ctx, k); err != nil {
			return err
		}
	}
	printSuccess("Cleared manifest from redis")
	printDetail("URL: %s", cfg.Manifest.URL)
	return nil
}

// clearDir removes every regular file under dir accepted by match, then
// prunes empty subdirectories. A missing dir counts as empty.
func clearDir(dir string, match func(path string) bool) (int, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return 0, nil
	}

	count := 0
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors, continue walking
		}
		if path == dir || info.IsDir() || !match(path) {
			return nil
		}
		if err := os.Remove(path); err == nil {
			count++
		}
		return nil
	})
	if err != nil {
		return count, err
	}

	// Children are visited after parents, so walk the collected directories
	// in reverse to remove nested empty ones first.
	var dirs []string
	_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err == nil && path != dir && info.IsDir() {
			dirs = append(dirs, path)
		}
		return nil
	})
	for i := len(dirs) - 1; i >= 0; i-- {
		os.Remove(dirs[i]) // fails on non-empty directories
	}
	return count, nil
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the artifact cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			dir, err := cacheRoot(cfg)
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Println(dir)
			return nil
		},
	}
}
